package quiz

import (
	"fmt"
	"strings"
)

func invalid(id int, field, format string, args ...any) error {
	return &ValidationError{QuestionID: id, Field: field, Reason: fmt.Sprintf(format, args...)}
}

func (h Header) validate(v Variant) error {
	if h.Type != "" && h.Type != v {
		return invalid(h.ID, "type", "tag %q does not match %s", h.Type, v)
	}
	if strings.TrimSpace(h.Question) == "" {
		return invalid(h.ID, "question", "empty text")
	}
	return nil
}

func validateOptions(id int, field string, opts []string) error {
	if len(opts) < 2 {
		return invalid(id, field, "need at least 2 entries, got %d", len(opts))
	}
	for i, o := range opts {
		if strings.TrimSpace(o) == "" {
			return invalid(id, field, "entry %d is empty", i)
		}
	}
	return nil
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}

func (q SingleChoice) Validate() error {
	if err := q.Header.validate(VariantSingleChoice); err != nil {
		return err
	}
	if err := validateOptions(q.ID, "options", q.Options); err != nil {
		return err
	}
	if !contains(q.Options, q.Correct) {
		return invalid(q.ID, "correct", "%q is not one of the options", q.Correct)
	}
	return nil
}

func (q Dropdown) Validate() error {
	if err := q.Header.validate(VariantDropdown); err != nil {
		return err
	}
	if err := validateOptions(q.ID, "options", q.Options); err != nil {
		return err
	}
	if !contains(q.Options, q.Correct) {
		return invalid(q.ID, "correct", "%q is not one of the options", q.Correct)
	}
	return nil
}

func (q MultipleChoice) Validate() error {
	if err := q.Header.validate(VariantMultipleChoice); err != nil {
		return err
	}
	if err := validateOptions(q.ID, "options", q.Options); err != nil {
		return err
	}
	if len(q.Correct) == 0 {
		return invalid(q.ID, "correct", "empty")
	}
	for _, c := range q.Correct {
		if !contains(q.Options, c) {
			return invalid(q.ID, "correct", "%q is not one of the options", c)
		}
	}
	return nil
}

func (q DoubleDropdown) Validate() error {
	if err := q.Header.validate(VariantDoubleDropdown); err != nil {
		return err
	}
	if len(q.Subquestions) == 0 {
		return invalid(q.ID, "subquestions", "empty")
	}
	keys := make(map[string]struct{}, len(q.Subquestions))
	for i, sq := range q.Subquestions {
		field := fmt.Sprintf("subquestions[%d]", i)
		if sq.Key == "" {
			return invalid(q.ID, field+".key", "empty")
		}
		if _, dup := keys[sq.Key]; dup {
			return invalid(q.ID, field+".key", "duplicate key %q", sq.Key)
		}
		keys[sq.Key] = struct{}{}
		if strings.TrimSpace(sq.Text) == "" {
			return invalid(q.ID, field+".text", "empty text")
		}
		if err := validateOptions(q.ID, field+".options", sq.Options); err != nil {
			return err
		}
		if !contains(sq.Options, sq.Correct) {
			return invalid(q.ID, field+".correct", "%q is not one of the options", sq.Correct)
		}
	}
	return nil
}

func (q Matching) Validate() error {
	if err := q.Header.validate(VariantMatching); err != nil {
		return err
	}
	if err := validateOptions(q.ID, "left_column", q.LeftColumn); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(q.LeftColumn))
	for _, l := range q.LeftColumn {
		if _, dup := seen[l]; dup {
			return invalid(q.ID, "left_column", "duplicate entry %q", l)
		}
		seen[l] = struct{}{}
	}
	if len(q.RightColumn) == 0 {
		return invalid(q.ID, "right_column", "empty")
	}
	if len(q.CorrectMapping) != len(q.LeftColumn) {
		return invalid(q.ID, "correct_mapping", "has %d entries for %d left items", len(q.CorrectMapping), len(q.LeftColumn))
	}
	for _, l := range q.LeftColumn {
		r, ok := q.CorrectMapping[l]
		if !ok {
			return invalid(q.ID, "correct_mapping", "missing left item %q", l)
		}
		if !contains(q.RightColumn, r) {
			return invalid(q.ID, "right_column", "missing mapped value %q", r)
		}
	}
	return nil
}

func (q Ordering) Validate() error {
	if err := q.Header.validate(VariantOrdering); err != nil {
		return err
	}
	if err := validateOptions(q.ID, "items", q.Items); err != nil {
		return err
	}
	if len(q.CorrectOrder) != len(q.Items) {
		return invalid(q.ID, "correct_order", "has %d entries for %d items", len(q.CorrectOrder), len(q.Items))
	}
	count := make(map[string]int, len(q.Items))
	for _, it := range q.Items {
		count[it]++
	}
	for _, c := range q.CorrectOrder {
		count[c]--
		if count[c] < 0 {
			return invalid(q.ID, "correct_order", "not a permutation of items (%q)", c)
		}
	}
	return nil
}

// Validate checks every question of the theme and that ids are unique.
func (t Theme) Validate() error {
	ids := make(map[int]struct{}, len(t.Questions))
	for _, q := range t.Questions {
		if q == nil {
			return &ValidationError{Field: "questions", Reason: "nil question"}
		}
		id := q.Head().ID
		if _, dup := ids[id]; dup {
			return invalid(id, "id", "duplicate id in theme %q", t.ID)
		}
		ids[id] = struct{}{}
		if err := q.Validate(); err != nil {
			return err
		}
	}
	return nil
}

package quiz

import (
	"fmt"
	"sort"
)

// Variant is the type tag of a question as stored in theme files.
type Variant string

const (
	VariantSingleChoice   Variant = "single_choice"
	VariantMultipleChoice Variant = "multiple_choice"
	VariantDropdown       Variant = "dropdown"
	VariantDoubleDropdown Variant = "double_dropdown"
	VariantMatching       Variant = "matching"
	VariantOrdering       Variant = "ordering"
)

// Variants lists every known question type.
var Variants = []Variant{
	VariantSingleChoice,
	VariantMultipleChoice,
	VariantDropdown,
	VariantDoubleDropdown,
	VariantMatching,
	VariantOrdering,
}

// Known reports whether v is one of the six question types.
func (v Variant) Known() bool {
	for _, k := range Variants {
		if v == k {
			return true
		}
	}
	return false
}

// Header carries the fields shared by every question type.
type Header struct {
	ID          int     `json:"id"`
	Type        Variant `json:"type"`
	Question    string  `json:"question"`
	Explanation string  `json:"explanation"`
	Category    string  `json:"category,omitempty"`
}

// Head returns the shared fields of a question.
func (h Header) Head() Header { return h }

// Question is implemented by the six question types of this package only.
// Pointers to them satisfy it as well; Normalize folds those back to values.
type Question interface {
	Head() Header
	Variant() Variant
	Validate() error

	accepts(a Answer) bool
}

type SingleChoice struct {
	Header
	Options []string `json:"options"`
	Correct string   `json:"correct"`
}

type MultipleChoice struct {
	Header
	Options []string `json:"options"`
	Correct []string `json:"correct"`
}

type Dropdown struct {
	Header
	Options []string `json:"options"`
	Correct string   `json:"correct"`
}

type Subquestion struct {
	Key     string   `json:"key"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
	Correct string   `json:"correct"`
}

type DoubleDropdown struct {
	Header
	Subquestions []Subquestion `json:"subquestions"`
}

// Matching pairs every left item with one right item. Several left items may
// share the same right item.
type Matching struct {
	Header
	LeftColumn     []string          `json:"left_column"`
	RightColumn    []string          `json:"right_column"`
	CorrectMapping map[string]string `json:"correct_mapping"`
}

// Ordering items are shown shuffled; CorrectOrder holds the same items in
// their expected sequence.
type Ordering struct {
	Header
	Items        []string `json:"items"`
	CorrectOrder []string `json:"correct_order"`
}

func (SingleChoice) Variant() Variant   { return VariantSingleChoice }
func (MultipleChoice) Variant() Variant { return VariantMultipleChoice }
func (Dropdown) Variant() Variant       { return VariantDropdown }
func (DoubleDropdown) Variant() Variant { return VariantDoubleDropdown }
func (Matching) Variant() Variant       { return VariantMatching }
func (Ordering) Variant() Variant       { return VariantOrdering }

// Normalize returns q as one of the six value types. Pointers to them are
// dereferenced; a nil pointer is a ValidationError.
func Normalize(q Question) (Question, error) {
	switch v := q.(type) {
	case SingleChoice, MultipleChoice, Dropdown, DoubleDropdown, Matching, Ordering:
		return q, nil
	case *SingleChoice:
		if v != nil {
			return *v, nil
		}
	case *MultipleChoice:
		if v != nil {
			return *v, nil
		}
	case *Dropdown:
		if v != nil {
			return *v, nil
		}
	case *DoubleDropdown:
		if v != nil {
			return *v, nil
		}
	case *Matching:
		if v != nil {
			return *v, nil
		}
	case *Ordering:
		if v != nil {
			return *v, nil
		}
	}
	return nil, &ValidationError{Field: "type", Reason: fmt.Sprintf("unsupported question value %T", q)}
}

// Theme is one regulation document (FAP) with its question bank.
type Theme struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
}

// Categories returns the sorted distinct non-empty categories of the theme.
func (t Theme) Categories() []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, 8)
	for _, q := range t.Questions {
		c := q.Head().Category
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Question returns the question with the given id.
func (t Theme) Question(id int) (Question, bool) {
	for _, q := range t.Questions {
		if q.Head().ID == id {
			return q, true
		}
	}
	return nil, false
}

package editor

import (
	"strings"

	"github.com/mind-engage/fapquiz/internal/quiz"
)

// Option is one answer choice typed into the editor form.
type Option struct {
	Text    string `json:"text"`
	Correct bool   `json:"is_correct"`
}

// Pair is one left/right row of a matching question.
type Pair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// Draft is the raw content of the question form. Only the fields of the
// selected type are read.
type Draft struct {
	Type         quiz.Variant       `json:"type"`
	Question     string             `json:"question"`
	Category     string             `json:"category"`
	Explanation  string             `json:"explanation"`
	Options      []Option           `json:"options,omitempty"`
	Pairs        []Pair             `json:"pairs,omitempty"`
	Subquestions []quiz.Subquestion `json:"subquestions,omitempty"`
	Items        []string           `json:"items,omitempty"`
}

func fail(id int, field, reason string) error {
	return &quiz.ValidationError{QuestionID: id, Field: field, Reason: reason}
}

// Build turns a form draft into a question with the given id. Blank rows are
// dropped before the form rules are checked; the result must also pass
// Validate.
func Build(d Draft, id int) (quiz.Question, error) {
	h := quiz.Header{
		ID:          id,
		Type:        d.Type,
		Question:    strings.TrimSpace(d.Question),
		Explanation: strings.TrimSpace(d.Explanation),
		Category:    strings.TrimSpace(d.Category),
	}
	switch {
	case h.Question == "":
		return nil, fail(id, "question", "required")
	case h.Category == "":
		return nil, fail(id, "category", "required")
	case h.Explanation == "":
		return nil, fail(id, "explanation", "required")
	}

	var (
		q   quiz.Question
		err error
	)
	switch d.Type {
	case quiz.VariantSingleChoice, quiz.VariantDropdown, quiz.VariantMultipleChoice:
		q, err = buildChoice(h, d.Options)
	case quiz.VariantMatching:
		q, err = buildMatching(h, d.Pairs)
	case quiz.VariantDoubleDropdown:
		q, err = buildDouble(h, d.Subquestions)
	case quiz.VariantOrdering:
		q, err = buildOrdering(h, d.Items)
	default:
		return nil, fail(id, "type", "unknown question type "+string(d.Type))
	}
	if err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return q, nil
}

func buildChoice(h quiz.Header, opts []Option) (quiz.Question, error) {
	var texts, correct []string
	for _, o := range opts {
		t := strings.TrimSpace(o.Text)
		if t == "" {
			continue
		}
		texts = append(texts, t)
		if o.Correct {
			correct = append(correct, t)
		}
	}
	if len(texts) < 2 {
		return nil, fail(h.ID, "options", "add at least 2 options")
	}
	if h.Type == quiz.VariantMultipleChoice {
		if len(correct) == 0 {
			return nil, fail(h.ID, "options", "mark at least one correct option")
		}
		return quiz.MultipleChoice{Header: h, Options: texts, Correct: correct}, nil
	}
	if len(correct) != 1 {
		return nil, fail(h.ID, "options", "mark exactly one correct option")
	}
	if h.Type == quiz.VariantDropdown {
		return quiz.Dropdown{Header: h, Options: texts, Correct: correct[0]}, nil
	}
	return quiz.SingleChoice{Header: h, Options: texts, Correct: correct[0]}, nil
}

// The right column keeps each distinct right value once, in entry order.
func buildMatching(h quiz.Header, pairs []Pair) (quiz.Question, error) {
	m := quiz.Matching{Header: h, CorrectMapping: map[string]string{}}
	seen := map[string]bool{}
	for _, p := range pairs {
		l, r := strings.TrimSpace(p.Left), strings.TrimSpace(p.Right)
		if l == "" || r == "" {
			continue
		}
		if _, dup := m.CorrectMapping[l]; dup {
			return nil, fail(h.ID, "pairs", "left item "+l+" used twice")
		}
		m.LeftColumn = append(m.LeftColumn, l)
		m.CorrectMapping[l] = r
		if !seen[r] {
			seen[r] = true
			m.RightColumn = append(m.RightColumn, r)
		}
	}
	if len(m.LeftColumn) < 2 {
		return nil, fail(h.ID, "pairs", "add at least 2 complete pairs")
	}
	return m, nil
}

func buildDouble(h quiz.Header, subs []quiz.Subquestion) (quiz.Question, error) {
	if len(subs) == 0 {
		return nil, fail(h.ID, "subquestions", "add at least one subquestion")
	}
	out := make([]quiz.Subquestion, 0, len(subs))
	for _, sq := range subs {
		var opts []string
		for _, o := range sq.Options {
			if t := strings.TrimSpace(o); t != "" {
				opts = append(opts, t)
			}
		}
		clean := quiz.Subquestion{
			Key:     strings.TrimSpace(sq.Key),
			Text:    strings.TrimSpace(sq.Text),
			Options: opts,
			Correct: strings.TrimSpace(sq.Correct),
		}
		if clean.Key == "" || clean.Text == "" || len(clean.Options) == 0 || clean.Correct == "" {
			return nil, fail(h.ID, "subquestions", "subquestion "+clean.Key+" is incomplete")
		}
		out = append(out, clean)
	}
	return quiz.DoubleDropdown{Header: h, Subquestions: out}, nil
}

// The order the items are entered in is taken as the correct order.
func buildOrdering(h quiz.Header, items []string) (quiz.Question, error) {
	var clean []string
	for _, it := range items {
		if t := strings.TrimSpace(it); t != "" {
			clean = append(clean, t)
		}
	}
	if len(clean) < 2 {
		return nil, fail(h.ID, "items", "add at least 2 items")
	}
	return quiz.Ordering{
		Header:       h,
		Items:        clean,
		CorrectOrder: append([]string(nil), clean...),
	}, nil
}

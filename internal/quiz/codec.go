package quiz

import (
	"encoding/json"
	"fmt"
)

// DecodeQuestion parses one question object, dispatching on its "type" tag.
// The result is not validated.
func DecodeQuestion(raw []byte) (Question, error) {
	var probe struct {
		ID   int     `json:"id"`
		Type Variant `json:"type"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("decode question: %w", err)
	}

	var (
		q   Question
		err error
	)
	switch probe.Type {
	case VariantSingleChoice:
		var v SingleChoice
		err = json.Unmarshal(raw, &v)
		q = v
	case VariantMultipleChoice:
		var v MultipleChoice
		err = json.Unmarshal(raw, &v)
		q = v
	case VariantDropdown:
		q, err = decodeDropdown(raw)
	case VariantDoubleDropdown:
		var v DoubleDropdown
		err = json.Unmarshal(raw, &v)
		q = v
	case VariantMatching:
		var v Matching
		err = json.Unmarshal(raw, &v)
		q = v
	case VariantOrdering:
		var v Ordering
		err = json.Unmarshal(raw, &v)
		q = v
	default:
		return nil, invalid(probe.ID, "type", "unknown question type %q", probe.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("decode question %d: %w", probe.ID, err)
	}
	return q, nil
}

// Older editor builds stored a dropdown's answer as a one-element list.
func decodeDropdown(raw []byte) (Question, error) {
	var v struct {
		Header
		Options []string        `json:"options"`
		Correct json.RawMessage `json:"correct"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	q := Dropdown{Header: v.Header, Options: v.Options}
	if len(v.Correct) == 0 || string(v.Correct) == "null" {
		return q, nil
	}
	if err := json.Unmarshal(v.Correct, &q.Correct); err == nil {
		return q, nil
	}
	var list []string
	if err := json.Unmarshal(v.Correct, &list); err != nil {
		return nil, err
	}
	if len(list) != 1 {
		return nil, invalid(v.ID, "correct", "dropdown expects one answer, got %d", len(list))
	}
	q.Correct = list[0]
	return q, nil
}

// EncodeQuestion renders q with its type tag filled in.
func EncodeQuestion(q Question) ([]byte, error) {
	if n, err := Normalize(q); err == nil {
		q = n
	}
	switch v := q.(type) {
	case SingleChoice:
		v.Type = VariantSingleChoice
		return json.Marshal(v)
	case MultipleChoice:
		v.Type = VariantMultipleChoice
		return json.Marshal(v)
	case Dropdown:
		v.Type = VariantDropdown
		return json.Marshal(v)
	case DoubleDropdown:
		v.Type = VariantDoubleDropdown
		return json.Marshal(v)
	case Matching:
		v.Type = VariantMatching
		return json.Marshal(v)
	case Ordering:
		v.Type = VariantOrdering
		return json.Marshal(v)
	}
	return nil, fmt.Errorf("encode question: unsupported type %T", q)
}

type themeJSON struct {
	ID          string            `json:"id,omitempty"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Questions   []json.RawMessage `json:"questions"`
}

// EncodeQuestions renders a question list as a JSON array.
func EncodeQuestions(qs []Question) ([]byte, error) {
	raws, err := encodeAll(qs)
	if err != nil {
		return nil, err
	}
	return json.Marshal(raws)
}

// DecodeQuestions parses a JSON array of questions.
func DecodeQuestions(b []byte) ([]Question, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(b, &raws); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	return decodeAll(raws)
}

func encodeAll(qs []Question) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(qs))
	for _, q := range qs {
		b, err := EncodeQuestion(q)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func decodeAll(raws []json.RawMessage) ([]Question, error) {
	out := make([]Question, 0, len(raws))
	for _, raw := range raws {
		q, err := DecodeQuestion(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

func (t Theme) MarshalJSON() ([]byte, error) {
	qs, err := encodeAll(t.Questions)
	if err != nil {
		return nil, err
	}
	return json.Marshal(themeJSON{ID: t.ID, Name: t.Name, Description: t.Description, Questions: qs})
}

func (t *Theme) UnmarshalJSON(b []byte) error {
	var in themeJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	qs, err := decodeAll(in.Questions)
	if err != nil {
		return err
	}
	*t = Theme{ID: in.ID, Name: in.Name, Description: in.Description, Questions: qs}
	return nil
}

// AnswerKey returns the key a question's answer is stored under in a session.
func AnswerKey(q Question) string {
	return fmt.Sprintf("q_%d_%s", q.Head().ID, shortName(q.Variant()))
}

func shortName(v Variant) string {
	switch v {
	case VariantSingleChoice:
		return "single"
	case VariantMultipleChoice:
		return "multiple"
	case VariantDropdown:
		return "dropdown"
	case VariantDoubleDropdown:
		return "double"
	case VariantMatching:
		return "matching"
	case VariantOrdering:
		return "ordering"
	}
	return string(v)
}

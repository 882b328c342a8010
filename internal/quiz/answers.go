package quiz

import (
	"bytes"
	"encoding/json"
)

// Shape names the data layout of a submitted answer.
type Shape string

const (
	ShapeChoice    Shape = "choice"
	ShapeSelection Shape = "selection"
	ShapeMapping   Shape = "mapping"
	ShapeOrdering  Shape = "ordering"
)

// Answer is a raw user submission. Implemented by the four shapes below.
type Answer interface {
	Shape() Shape
	isAnswer()
}

// ChoiceAnswer answers single_choice and dropdown questions. An empty
// Selected means nothing was chosen.
type ChoiceAnswer struct {
	Selected string
}

// SelectionAnswer answers multiple_choice questions; order and duplicates
// are ignored when scoring.
type SelectionAnswer struct {
	Selected []string
}

// MappingAnswer answers matching (left item -> right item) and
// double_dropdown (subquestion key -> option) questions.
type MappingAnswer map[string]string

// OrderingAnswer is the shuffled order the items were shown in plus the
// position the user assigned to each of them (parallel slices).
type OrderingAnswer struct {
	DisplayOrder []string `json:"items"`
	Positions    []int    `json:"user_order"`
}

func (ChoiceAnswer) Shape() Shape    { return ShapeChoice }
func (SelectionAnswer) Shape() Shape { return ShapeSelection }
func (MappingAnswer) Shape() Shape   { return ShapeMapping }
func (OrderingAnswer) Shape() Shape  { return ShapeOrdering }

func (ChoiceAnswer) isAnswer()    {}
func (SelectionAnswer) isAnswer() {}
func (MappingAnswer) isAnswer()   {}
func (OrderingAnswer) isAnswer()  {}

func (a ChoiceAnswer) MarshalJSON() ([]byte, error) {
	if a.Selected == "" {
		return []byte("null"), nil
	}
	return json.Marshal(a.Selected)
}

func (a *ChoiceAnswer) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		a.Selected = ""
		return nil
	}
	return json.Unmarshal(b, &a.Selected)
}

func (a SelectionAnswer) MarshalJSON() ([]byte, error) {
	if a.Selected == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a.Selected)
}

func (a *SelectionAnswer) UnmarshalJSON(b []byte) error {
	return json.Unmarshal(b, &a.Selected)
}

// ShapeFor returns the answer shape a question type accepts.
func ShapeFor(v Variant) Shape {
	switch v {
	case VariantSingleChoice, VariantDropdown:
		return ShapeChoice
	case VariantMultipleChoice:
		return ShapeSelection
	case VariantDoubleDropdown, VariantMatching:
		return ShapeMapping
	case VariantOrdering:
		return ShapeOrdering
	}
	return ""
}

func (SingleChoice) accepts(a Answer) bool {
	_, ok := a.(ChoiceAnswer)
	return ok
}

func (Dropdown) accepts(a Answer) bool {
	_, ok := a.(ChoiceAnswer)
	return ok
}

func (MultipleChoice) accepts(a Answer) bool {
	_, ok := a.(SelectionAnswer)
	return ok
}

func (DoubleDropdown) accepts(a Answer) bool {
	_, ok := a.(MappingAnswer)
	return ok
}

func (Matching) accepts(a Answer) bool {
	_, ok := a.(MappingAnswer)
	return ok
}

func (Ordering) accepts(a Answer) bool {
	_, ok := a.(OrderingAnswer)
	return ok
}

// CheckShape returns a *TypeMismatchError when a is not the shape q accepts.
func CheckShape(q Question, a Answer) error {
	if a != nil && q.accepts(a) {
		return nil
	}
	got := Shape("nil")
	if a != nil {
		got = a.Shape()
	}
	return &TypeMismatchError{
		QuestionID: q.Head().ID,
		Variant:    q.Variant(),
		Want:       ShapeFor(q.Variant()),
		Got:        got,
	}
}

// DecodeAnswer parses a raw JSON payload into the answer shape q accepts:
//
//	single_choice, dropdown:   "option" or null
//	multiple_choice:           ["option", ...]
//	matching, double_dropdown: {"left or key": "value", ...}
//	ordering:                  {"items": [...], "user_order": [1, ...]}
func DecodeAnswer(q Question, raw []byte) (Answer, error) {
	var (
		a   Answer
		err error
	)
	switch ShapeFor(q.Variant()) {
	case ShapeChoice:
		var v ChoiceAnswer
		err = json.Unmarshal(raw, &v)
		a = v
	case ShapeSelection:
		var v SelectionAnswer
		err = json.Unmarshal(raw, &v)
		a = v
	case ShapeMapping:
		v := MappingAnswer{}
		err = json.Unmarshal(raw, &v)
		a = v
	case ShapeOrdering:
		var v OrderingAnswer
		err = json.Unmarshal(raw, &v)
		a = v
	default:
		return nil, &ValidationError{QuestionID: q.Head().ID, Field: "type", Reason: "unknown question type " + string(q.Variant())}
	}
	if err != nil {
		return nil, &TypeMismatchError{
			QuestionID: q.Head().ID,
			Variant:    q.Variant(),
			Want:       ShapeFor(q.Variant()),
			Got:        "invalid payload",
			Err:        err,
		}
	}
	return a, nil
}

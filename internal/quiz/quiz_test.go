package quiz

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const themeFile = `{
  "name": "ФАП 297",
  "description": "Правила подготовки",
  "questions": [
    {"id": 1, "type": "single_choice", "question": "Минимальная высота?", "options": ["300", "1000"], "correct": "1000", "explanation": "см. п. 5", "category": "Высоты"},
    {"id": 2, "type": "multiple_choice", "question": "Документы?", "options": ["A", "B", "C"], "correct": ["A", "B"], "explanation": "", "category": "Документы"},
    {"id": 3, "type": "dropdown", "question": "Эшелон?", "options": ["FL100", "FL200"], "correct": ["FL200"], "explanation": "", "category": "Высоты"},
    {"id": 4, "type": "double_dropdown", "question": "Заполните", "explanation": "", "subquestions": [
      {"key": "a", "text": "День", "options": ["1", "2"], "correct": "1"},
      {"key": "b", "text": "Ночь", "options": ["3", "4"], "correct": "4"}
    ]},
    {"id": 5, "type": "matching", "question": "Сопоставьте", "explanation": "", "left_column": ["x", "y"], "right_column": ["1", "2"], "correct_mapping": {"x": "1", "y": "1"}},
    {"id": 6, "type": "ordering", "question": "Порядок", "explanation": "", "items": ["A", "B", "C"], "correct_order": ["A", "B", "C"]}
  ]
}`

func TestThemeDecodeAllVariants(t *testing.T) {
	var th Theme
	require.NoError(t, json.Unmarshal([]byte(themeFile), &th))
	require.Len(t, th.Questions, 6)
	require.NoError(t, th.Validate())

	for i, want := range Variants {
		assert.Equal(t, want, th.Questions[i].Variant())
	}

	dd, ok := th.Questions[2].(Dropdown)
	require.True(t, ok)
	assert.Equal(t, "FL200", dd.Correct, "legacy list form is accepted")

	assert.Equal(t, []string{"Высоты", "Документы"}, th.Categories())

	q, ok := th.Question(5)
	require.True(t, ok)
	assert.Equal(t, "q_5_matching", AnswerKey(q))
}

func TestThemeRoundTripKeepsTags(t *testing.T) {
	th := Theme{Name: "t", Questions: []Question{
		SingleChoice{Header: Header{ID: 1, Question: "q"}, Options: []string{"a", "b"}, Correct: "a"},
	}}
	b, err := json.Marshal(th)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"type":"single_choice"`)

	var back Theme
	require.NoError(t, json.Unmarshal(b, &back))
	require.Len(t, back.Questions, 1)
	assert.Equal(t, VariantSingleChoice, back.Questions[0].Variant())
}

func TestDecodeQuestionUnknownType(t *testing.T) {
	_, err := DecodeQuestion([]byte(`{"id": 9, "type": "essay", "question": "?"}`))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, 9, ve.QuestionID)
	assert.Equal(t, "type", ve.Field)
}

func TestAnswerKey(t *testing.T) {
	cases := map[string]Question{
		"q_1_single":   SingleChoice{Header: Header{ID: 1}},
		"q_2_multiple": MultipleChoice{Header: Header{ID: 2}},
		"q_3_dropdown": Dropdown{Header: Header{ID: 3}},
		"q_4_double":   DoubleDropdown{Header: Header{ID: 4}},
		"q_5_matching": Matching{Header: Header{ID: 5}},
		"q_6_ordering": Ordering{Header: Header{ID: 6}},
	}
	for want, q := range cases {
		assert.Equal(t, want, AnswerKey(q))
	}
}

func TestValidate(t *testing.T) {
	h := Header{ID: 7, Question: "text"}
	tests := []struct {
		name  string
		q     Question
		field string
	}{
		{"empty text", SingleChoice{Header: Header{ID: 7}, Options: []string{"a", "b"}, Correct: "a"}, "question"},
		{"one option", SingleChoice{Header: h, Options: []string{"a"}, Correct: "a"}, "options"},
		{"correct not in options", Dropdown{Header: h, Options: []string{"a", "b"}, Correct: "c"}, "correct"},
		{"empty correct set", MultipleChoice{Header: h, Options: []string{"a", "b"}}, "correct"},
		{"correct outside options", MultipleChoice{Header: h, Options: []string{"a", "b"}, Correct: []string{"z"}}, "correct"},
		{"no subquestions", DoubleDropdown{Header: h}, "subquestions"},
		{"duplicate sub key", DoubleDropdown{Header: h, Subquestions: []Subquestion{
			{Key: "a", Text: "t", Options: []string{"1", "2"}, Correct: "1"},
			{Key: "a", Text: "t", Options: []string{"1", "2"}, Correct: "1"},
		}}, "subquestions[1].key"},
		{"mapping misses left item", Matching{Header: h, LeftColumn: []string{"x", "y"}, RightColumn: []string{"1"},
			CorrectMapping: map[string]string{"x": "1", "z": "1"}}, "correct_mapping"},
		{"mapped value not in right column", Matching{Header: h, LeftColumn: []string{"x", "y"}, RightColumn: []string{"1"},
			CorrectMapping: map[string]string{"x": "1", "y": "2"}}, "right_column"},
		{"order not a permutation", Ordering{Header: h, Items: []string{"a", "b"}, CorrectOrder: []string{"a", "a"}}, "correct_order"},
		{"tag mismatch", Ordering{Header: Header{ID: 7, Type: VariantMatching, Question: "x"}, Items: []string{"a", "b"}, CorrectOrder: []string{"b", "a"}}, "type"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.q.Validate()
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, 7, ve.QuestionID)
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestThemeValidateDuplicateIDs(t *testing.T) {
	q := SingleChoice{Header: Header{ID: 1, Question: "q"}, Options: []string{"a", "b"}, Correct: "a"}
	err := Theme{ID: "fap", Questions: []Question{q, q}}.Validate()
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "id", ve.Field)
}

func TestCheckShape(t *testing.T) {
	sc := SingleChoice{Header: Header{ID: 1}}
	require.NoError(t, CheckShape(sc, ChoiceAnswer{Selected: "a"}))

	err := CheckShape(sc, SelectionAnswer{Selected: []string{"a"}})
	var tm *TypeMismatchError
	require.ErrorAs(t, err, &tm)
	assert.Equal(t, ShapeChoice, tm.Want)
	assert.Equal(t, ShapeSelection, tm.Got)

	require.Error(t, CheckShape(Ordering{}, nil))
	require.NoError(t, CheckShape(Matching{}, MappingAnswer{}))
	require.NoError(t, CheckShape(DoubleDropdown{}, MappingAnswer{}))
}

func TestDecodeAnswer(t *testing.T) {
	a, err := DecodeAnswer(SingleChoice{}, []byte(`"1000"`))
	require.NoError(t, err)
	assert.Equal(t, ChoiceAnswer{Selected: "1000"}, a)

	a, err = DecodeAnswer(Dropdown{}, []byte(`null`))
	require.NoError(t, err)
	assert.Equal(t, ChoiceAnswer{}, a)

	a, err = DecodeAnswer(MultipleChoice{}, []byte(`["A","B"]`))
	require.NoError(t, err)
	assert.Equal(t, SelectionAnswer{Selected: []string{"A", "B"}}, a)

	a, err = DecodeAnswer(Ordering{}, []byte(`{"items":["B","A"],"user_order":[2,1]}`))
	require.NoError(t, err)
	assert.Equal(t, OrderingAnswer{DisplayOrder: []string{"B", "A"}, Positions: []int{2, 1}}, a)

	_, err = DecodeAnswer(Matching{Header: Header{ID: 3}}, []byte(`"x"`))
	var tm *TypeMismatchError
	require.ErrorAs(t, err, &tm)
	assert.Equal(t, 3, tm.QuestionID)
	assert.True(t, errors.Unwrap(tm) != nil)
}

func TestNormalize(t *testing.T) {
	o := Ordering{Header: Header{ID: 6, Question: "q"}, Items: []string{"A", "B"}, CorrectOrder: []string{"B", "A"}}
	got, err := Normalize(&o)
	require.NoError(t, err)
	assert.Equal(t, o, got)

	got, err = Normalize(o)
	require.NoError(t, err)
	assert.Equal(t, o, got)

	fromPtr, err := EncodeQuestion(&o)
	require.NoError(t, err)
	fromValue, err := EncodeQuestion(o)
	require.NoError(t, err)
	assert.JSONEq(t, string(fromValue), string(fromPtr))

	var nilMatch *Matching
	_, err = Normalize(nilMatch)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "type", ve.Field)
}

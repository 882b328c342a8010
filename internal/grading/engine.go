package grading

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mind-engage/fapquiz/internal/quiz"
)

// Strategy scores one question type. The answer has already been checked to
// have the right shape; the returned ratio is clamped and rounded by the
// Grader.
type Strategy interface {
	Grade(q quiz.Question, a quiz.Answer) decimal.Decimal
}

// Grader routes by question type to the correct Strategy.
type Grader interface {
	Grade(q quiz.Question, a quiz.Answer) (float64, error)
}

type defaultGrader struct {
	strategies map[quiz.Variant]Strategy
	precision  int32
}

func (g *defaultGrader) Grade(q quiz.Question, a quiz.Answer) (float64, error) {
	q, err := quiz.Normalize(q)
	if err != nil {
		return 0, err
	}
	if err := quiz.CheckShape(q, a); err != nil {
		return 0, err
	}
	s, ok := g.strategies[q.Variant()]
	if !ok {
		return 0, &quiz.ValidationError{QuestionID: q.Head().ID, Field: "type", Reason: "no strategy for " + string(q.Variant())}
	}
	return clamp(s.Grade(q, a)).RoundBank(g.precision).InexactFloat64(), nil
}

// Engine options

type Option func(*config)

type config struct {
	Precision  int32 // decimal places kept after rounding
	Strategies map[quiz.Variant]Strategy
}

func WithPrecision(n int32) Option { return func(c *config) { c.Precision = n } }

// WithStrategy replaces the built-in strategy for one question type.
func WithStrategy(v quiz.Variant, s Strategy) Option {
	return func(c *config) { c.Strategies[v] = s }
}

// NewDefaultGrader installs built-in strategies.
func NewDefaultGrader(opts ...Option) Grader {
	cfg := &config{
		Precision: 2,
		Strategies: map[quiz.Variant]Strategy{
			quiz.VariantSingleChoice:   choiceStrategy{},
			quiz.VariantDropdown:       choiceStrategy{},
			quiz.VariantMultipleChoice: multipleStrategy{},
			quiz.VariantMatching:       matchingStrategy{},
			quiz.VariantDoubleDropdown: doubleDropdownStrategy{},
			quiz.VariantOrdering:       orderingStrategy{},
		},
	}
	for _, o := range opts {
		o(cfg)
	}
	return &defaultGrader{strategies: cfg.Strategies, precision: cfg.Precision}
}

var std = NewDefaultGrader()

// Score grades a with the default grader: a value in [0,1] rounded half to
// even at two decimals.
func Score(q quiz.Question, a quiz.Answer) (float64, error) {
	return std.Grade(q, a)
}

// --- Strategies ---

type choiceStrategy struct{}

func (choiceStrategy) Grade(q quiz.Question, a quiz.Answer) decimal.Decimal {
	sel := a.(quiz.ChoiceAnswer).Selected
	var correct string
	switch v := q.(type) {
	case quiz.SingleChoice:
		correct = v.Correct
	case quiz.Dropdown:
		correct = v.Correct
	}
	if sel != "" && sel == correct {
		return one
	}
	return decimal.Zero
}

// Wrong selections cancel right ones; the floor is zero.
type multipleStrategy struct{}

func (multipleStrategy) Grade(q quiz.Question, a quiz.Answer) decimal.Decimal {
	mc, ok := q.(quiz.MultipleChoice)
	user := toSet(a.(quiz.SelectionAnswer).Selected)
	correct := toSet(mc.Correct)
	if !ok || len(user) == 0 || len(correct) == 0 {
		return decimal.Zero
	}
	hits, misses := 0, 0
	for u := range user {
		if _, ok := correct[u]; ok {
			hits++
		} else {
			misses++
		}
	}
	return ratio(hits-misses, len(correct))
}

type matchingStrategy struct{}

func (matchingStrategy) Grade(q quiz.Question, a quiz.Answer) decimal.Decimal {
	m, ok := q.(quiz.Matching)
	if !ok {
		return decimal.Zero
	}
	user := a.(quiz.MappingAnswer)
	hits := 0
	for _, left := range m.LeftColumn {
		if got, ok := user[left]; ok && got == m.CorrectMapping[left] {
			hits++
		}
	}
	return ratio(hits, len(m.LeftColumn))
}

type doubleDropdownStrategy struct{}

func (doubleDropdownStrategy) Grade(q quiz.Question, a quiz.Answer) decimal.Decimal {
	dd, ok := q.(quiz.DoubleDropdown)
	if !ok {
		return decimal.Zero
	}
	user := a.(quiz.MappingAnswer)
	hits := 0
	for _, sq := range dd.Subquestions {
		if got, ok := user[sq.Key]; ok && got == sq.Correct {
			hits++
		}
	}
	return ratio(hits, len(dd.Subquestions))
}

type orderingStrategy struct{}

func (orderingStrategy) Grade(q quiz.Question, a quiz.Answer) decimal.Decimal {
	o, ok := q.(quiz.Ordering)
	if !ok {
		return decimal.Zero
	}
	got := ReconstructOrder(a.(quiz.OrderingAnswer))
	if len(got) != len(o.CorrectOrder) {
		return decimal.Zero
	}
	hits := 0
	for i := range got {
		if got[i] == o.CorrectOrder[i] {
			hits++
		}
	}
	return ratio(hits, len(o.CorrectOrder))
}

// ReconstructOrder sorts the displayed items by the position the user gave
// each of them. Equal positions keep their display order. It returns nil
// when the two parallel slices differ in length.
func ReconstructOrder(a quiz.OrderingAnswer) []string {
	if len(a.DisplayOrder) != len(a.Positions) {
		return nil
	}
	idx := make([]int, len(a.DisplayOrder))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return a.Positions[idx[i]] < a.Positions[idx[j]]
	})
	out := make([]string, len(idx))
	for i, k := range idx {
		out[i] = a.DisplayOrder[k]
	}
	return out
}

// helpers

var one = decimal.NewFromInt(1)

func ratio(k, n int) decimal.Decimal {
	if n <= 0 || k <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(k)).Div(decimal.NewFromInt(int64(n)))
}

func clamp(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	if d.GreaterThan(one) {
		return one
	}
	return d
}

func toSet(arr []string) map[string]struct{} {
	m := make(map[string]struct{}, len(arr))
	for _, s := range arr {
		m[s] = struct{}{}
	}
	return m
}

package selector

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/fapquiz/internal/quiz"
)

func theme() quiz.Theme {
	qs := make([]quiz.Question, 0, 10)
	for i := 1; i <= 10; i++ {
		cat := "Высоты"
		if i%2 == 0 {
			cat = "Документы"
		}
		qs = append(qs, quiz.SingleChoice{
			Header:  quiz.Header{ID: i, Question: "q", Category: cat},
			Options: []string{"a", "b"},
			Correct: "a",
		})
	}
	return quiz.Theme{ID: "fap297", Questions: qs}
}

func ids(qs []quiz.Question) []int {
	out := make([]int, len(qs))
	for i, q := range qs {
		out[i] = q.Head().ID
	}
	return out
}

func TestSelect(t *testing.T) {
	s := New(rand.NewSource(1))
	th := theme()

	got, err := s.Select(th, "", 4)
	require.NoError(t, err)
	require.Len(t, got, 4)
	seen := map[int]bool{}
	for _, id := range ids(got) {
		assert.False(t, seen[id], "sampled without replacement")
		seen[id] = true
	}

	got, err = s.Select(th, "Документы", 50)
	require.NoError(t, err)
	require.Len(t, got, 5, "count is clamped to the pool")
	for _, q := range got {
		assert.Equal(t, "Документы", q.Head().Category)
	}

	_, err = s.Select(th, "Метеорология", 3)
	require.ErrorIs(t, err, ErrNoQuestions)
	_, err = s.Select(th, "", 0)
	require.ErrorIs(t, err, ErrInvalidCount)

	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, ids(th.Questions), "theme is not reordered")
}

func TestSelectIsReproducible(t *testing.T) {
	a, err := New(rand.NewSource(42)).Select(theme(), "", 6)
	require.NoError(t, err)
	b, err := New(rand.NewSource(42)).Select(theme(), "", 6)
	require.NoError(t, err)
	assert.Equal(t, ids(a), ids(b))
}

func TestDisplayOrder(t *testing.T) {
	s := New(rand.NewSource(7))
	o := quiz.Ordering{Items: []string{"A", "B", "C", "D"}, CorrectOrder: []string{"A", "B", "C", "D"}}
	got := s.DisplayOrder(o)
	assert.ElementsMatch(t, o.Items, got)
	assert.Equal(t, []string{"A", "B", "C", "D"}, o.Items)

	m := quiz.Matching{RightColumn: []string{"1", "2", "3"}}
	assert.ElementsMatch(t, m.RightColumn, s.DisplayOrder(m))
	assert.Nil(t, s.DisplayOrder(quiz.SingleChoice{}))
}

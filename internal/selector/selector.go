// Package selector picks the questions of a test run and the shuffled
// display orders shown to the testee.
package selector

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/mind-engage/fapquiz/internal/quiz"
)

var (
	ErrInvalidCount = errors.New("question count must be positive")
	ErrNoQuestions  = errors.New("no questions match the filter")
)

// Selector samples questions with its own random source. Safe for
// concurrent use.
type Selector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a Selector drawing from src; nil seeds from the clock.
func New(src rand.Source) *Selector {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Selector{rng: rand.New(src)}
}

// Select returns up to count questions of the theme in random order. An
// empty category selects from the whole theme.
func (s *Selector) Select(t quiz.Theme, category string, count int) ([]quiz.Question, error) {
	if count <= 0 {
		return nil, ErrInvalidCount
	}
	pool := make([]quiz.Question, 0, len(t.Questions))
	for _, q := range t.Questions {
		if category == "" || q.Head().Category == category {
			pool = append(pool, q)
		}
	}
	if len(pool) == 0 {
		return nil, ErrNoQuestions
	}
	if count > len(pool) {
		count = len(pool)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// partial Fisher-Yates: the first count slots end up a uniform sample
	for i := 0; i < count; i++ {
		j := i + s.rng.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:count:count], nil
}

// Shuffled returns a shuffled copy of items.
func (s *Selector) Shuffled(items []string) []string {
	out := append([]string(nil), items...)
	s.mu.Lock()
	s.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	s.mu.Unlock()
	return out
}

// DisplayOrder returns the render-time order for the parts of q that are
// shown shuffled: ordering items and the matching right column. Other
// question types return nil.
func (s *Selector) DisplayOrder(q quiz.Question) []string {
	switch v := q.(type) {
	case quiz.Ordering:
		return s.Shuffled(v.Items)
	case quiz.Matching:
		return s.Shuffled(v.RightColumn)
	}
	return nil
}

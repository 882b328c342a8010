package session

import (
	"time"

	"github.com/mind-engage/fapquiz/internal/quiz"
)

func (s *Session) State() State { return s.state }
func (s *Session) Index() int   { return s.index }
func (s *Session) Len() int     { return len(s.questions) }

func (s *Session) StartedAt() time.Time  { return s.startedAt }
func (s *Session) FinishedAt() time.Time { return s.finishedAt }

// Current returns the question under the cursor and its answer key.
func (s *Session) Current() (quiz.Question, string, bool) {
	if len(s.questions) == 0 {
		return nil, "", false
	}
	return s.questions[s.index], s.keys[s.index], true
}

// Questions returns the questions in session order.
func (s *Session) Questions() []quiz.Question {
	return append([]quiz.Question(nil), s.questions...)
}

// Keys returns the answer keys in session order.
func (s *Session) Keys() []string {
	return append([]string(nil), s.keys...)
}

func (s *Session) Answer(key string) (quiz.Answer, bool) {
	a, ok := s.answers[key]
	return a, ok
}

func (s *Session) Score(key string) (float64, bool) {
	v, ok := s.scores[key]
	return v, ok
}

func (s *Session) IsChecked(key string) bool {
	_, ok := s.checked[key]
	return ok
}

// Elapsed returns the recorded time per question in session order.
func (s *Session) Elapsed() []time.Duration {
	return append([]time.Duration(nil), s.elapsed...)
}

// CumulativeScore is the sum of all checked scores.
func (s *Session) CumulativeScore() float64 {
	return s.cumulative.InexactFloat64()
}

// Results returns one record per question in session order.
func (s *Session) Results() []Result {
	out := make([]Result, len(s.questions))
	for i, q := range s.questions {
		k := s.keys[i]
		at, checked := s.checked[k]
		out[i] = Result{
			Index:     i,
			Key:       k,
			Question:  q,
			Answer:    s.answers[k],
			Score:     s.scores[k],
			Checked:   checked,
			CheckedAt: at,
			Elapsed:   s.elapsed[i],
		}
	}
	return out
}

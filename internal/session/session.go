// Package session drives one test run: question sequencing, per-question
// timing, answer locking and the running score. A Session is not safe for
// concurrent use; callers serving many testees keep one per testee behind
// their own lock.
package session

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mind-engage/fapquiz/internal/grading"
	"github.com/mind-engage/fapquiz/internal/quiz"
)

type State int

const (
	NotStarted State = iota
	InProgress
	Finished
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case InProgress:
		return "in_progress"
	case Finished:
		return "finished"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type Direction int

const (
	Previous Direction = iota
	Next
)

// ParseDirection accepts "previous"/"prev" and "next".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "previous", "prev":
		return Previous, nil
	case "next":
		return Next, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrBadDirection, s)
}

// Result is the per-question record of a session.
type Result struct {
	Index     int
	Key       string
	Question  quiz.Question
	Answer    quiz.Answer // nil when nothing was submitted
	Score     float64
	Checked   bool
	CheckedAt time.Time
	Elapsed   time.Duration
}

type Session struct {
	grader grading.Grader

	state     State
	questions []quiz.Question
	keys      []string
	byKey     map[string]int

	index         int
	questionStart time.Time
	startedAt     time.Time
	finishedAt    time.Time

	answers    map[string]quiz.Answer
	checked    map[string]time.Time
	scores     map[string]float64
	elapsed    []time.Duration
	cumulative decimal.Decimal
}

// New returns a session in the NotStarted state. A nil grader means the
// default one.
func New(g grading.Grader) *Session {
	if g == nil {
		g = grading.NewDefaultGrader()
	}
	return &Session{grader: g}
}

// Start begins the run with questions in the given order.
func (s *Session) Start(questions []quiz.Question, now time.Time) error {
	if s.state != NotStarted {
		return ErrAlreadyStarted
	}
	return s.begin(questions, now)
}

// Restart begins a fresh run of a finished session. An empty questions
// slice retakes the previous questions in the same order.
func (s *Session) Restart(questions []quiz.Question, now time.Time) error {
	if s.state != Finished {
		return ErrNotFinished
	}
	if len(questions) == 0 {
		questions = s.questions
	}
	return s.begin(questions, now)
}

func (s *Session) begin(questions []quiz.Question, now time.Time) error {
	if len(questions) == 0 {
		return ErrNoQuestions
	}
	norm := make([]quiz.Question, len(questions))
	keys := make([]string, len(questions))
	byKey := make(map[string]int, len(questions))
	for i, q := range questions {
		if q == nil {
			return fmt.Errorf("question %d: %w", i, ErrNoQuestions)
		}
		q, err := quiz.Normalize(q)
		if err != nil {
			return fmt.Errorf("question %d: %w", i, err)
		}
		if err := q.Validate(); err != nil {
			return err
		}
		k := quiz.AnswerKey(q)
		if _, dup := byKey[k]; dup {
			return &quiz.ValidationError{QuestionID: q.Head().ID, Field: "id", Reason: "duplicate answer key " + k}
		}
		norm[i] = q
		keys[i] = k
		byKey[k] = i
	}

	s.questions = norm
	s.keys = keys
	s.byKey = byKey
	s.index = 0
	s.questionStart = now
	s.startedAt = now
	s.finishedAt = time.Time{}
	s.answers = make(map[string]quiz.Answer, len(questions))
	s.checked = make(map[string]time.Time, len(questions))
	s.scores = make(map[string]float64, len(questions))
	s.elapsed = make([]time.Duration, len(questions))
	s.cumulative = decimal.Zero
	s.state = InProgress
	return nil
}

func (s *Session) mutable() error {
	switch s.state {
	case InProgress:
		return nil
	case Finished:
		return ErrSessionFinished
	}
	return ErrNotInProgress
}

func (s *Session) lookup(key string) (quiz.Question, error) {
	i, ok := s.byKey[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAnswerKey, key)
	}
	return s.questions[i], nil
}

// SubmitAnswer stores a, replacing any earlier unchecked answer for key.
func (s *Session) SubmitAnswer(key string, a quiz.Answer) error {
	if err := s.mutable(); err != nil {
		return err
	}
	q, err := s.lookup(key)
	if err != nil {
		return err
	}
	if _, ok := s.checked[key]; ok {
		return ErrLocked
	}
	if err := quiz.CheckShape(q, a); err != nil {
		return err
	}
	s.answers[key] = a
	return nil
}

// CheckAnswer scores the stored answer for key and locks it.
func (s *Session) CheckAnswer(key string, now time.Time) (float64, error) {
	if err := s.mutable(); err != nil {
		return 0, err
	}
	q, err := s.lookup(key)
	if err != nil {
		return 0, err
	}
	if _, ok := s.checked[key]; ok {
		return 0, ErrAlreadyChecked
	}
	a, ok := s.answers[key]
	if !ok {
		return 0, ErrNoAnswerSubmitted
	}
	score, err := s.grader.Grade(q, a)
	if err != nil {
		return 0, err
	}
	s.scores[key] = score
	s.checked[key] = now
	s.cumulative = s.cumulative.Add(decimal.NewFromFloat(score))
	return score, nil
}

// Navigate records the time spent on the current question and moves the
// cursor one step, staying inside the question list.
func (s *Session) Navigate(d Direction, now time.Time) error {
	if err := s.mutable(); err != nil {
		return err
	}
	next := s.index
	switch d {
	case Previous:
		if next > 0 {
			next--
		}
	case Next:
		if next < len(s.questions)-1 {
			next++
		}
	default:
		return ErrBadDirection
	}
	s.closeQuestion(now)
	s.index = next
	return nil
}

// Finish records the time spent on the current question and ends the run.
func (s *Session) Finish(now time.Time) error {
	if err := s.mutable(); err != nil {
		return err
	}
	s.closeQuestion(now)
	s.finishedAt = now
	s.state = Finished
	return nil
}

// Elapsed time is overwritten on every exit, not accumulated. A clock that
// goes backwards records zero.
func (s *Session) closeQuestion(now time.Time) {
	d := now.Sub(s.questionStart)
	if d < 0 {
		d = 0
	}
	s.elapsed[s.index] = d
	s.questionStart = now
}

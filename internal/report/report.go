// Package report reduces a finished session to a result summary.
package report

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mind-engage/fapquiz/internal/quiz"
	"github.com/mind-engage/fapquiz/internal/session"
)

type Band string

const (
	BandExcellent Band = "pass-excellent"
	BandReview    Band = "pass-review-recommended"
	BandFail      Band = "fail-retraining-required"
)

// Category label used for questions without one.
const Unspecified = "unspecified"

var (
	eighty  = decimal.NewFromInt(80)
	sixty   = decimal.NewFromInt(60)
	hundred = decimal.NewFromInt(100)
)

// BandFor maps a percentage to its band. Lower bounds are inclusive.
func BandFor(pct float64) Band {
	return bandFor(decimal.NewFromFloat(pct))
}

func bandFor(pct decimal.Decimal) Band {
	switch {
	case pct.GreaterThanOrEqual(eighty):
		return BandExcellent
	case pct.GreaterThanOrEqual(sixty):
		return BandReview
	}
	return BandFail
}

// Identity is the testee record captured at login. It is carried through
// untouched.
type Identity struct {
	LastName   string    `json:"last_name"`
	FirstName  string    `json:"first_name"`
	MiddleName string    `json:"middle_name,omitempty"`
	Position   string    `json:"position,omitempty"`
	LoginTime  time.Time `json:"login_time"`
}

// Meta labels the summary; it does not affect any computed value.
type Meta struct {
	AttemptID   string    `json:"attempt_id,omitempty"`
	Run         int       `json:"run,omitempty"` // 1 for the first run, bumped by each restart
	ThemeID     string    `json:"theme_id"`
	ThemeName   string    `json:"theme_name"`
	Category    string    `json:"category,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

type Detail struct {
	Number   int           `json:"number"`
	Index    int           `json:"index"`
	Key      string        `json:"key"`
	Variant  quiz.Variant  `json:"type"`
	Text     string        `json:"question"`
	Category string        `json:"category"`
	Score    float64       `json:"score"`
	Checked  bool          `json:"checked"`
	Elapsed  time.Duration `json:"elapsed_ns"`

	Question quiz.Question `json:"-"`
	Answer   quiz.Answer   `json:"-"`
}

type Summary struct {
	Identity Identity `json:"identity"`
	Meta     Meta     `json:"meta"`

	TotalQuestions int           `json:"total_questions"`
	TotalScore     float64       `json:"total_score"`
	MaxScore       float64       `json:"max_score"`
	Percentage     float64       `json:"percentage"`
	Band           Band          `json:"band"`
	TotalElapsed   time.Duration `json:"total_elapsed_ns"`
	AverageElapsed time.Duration `json:"average_elapsed_ns"`
	StartedAt      time.Time     `json:"started_at"`
	FinishedAt     time.Time     `json:"finished_at"`

	Details []Detail `json:"details"`
}

// Build summarizes a finished session. Every question is worth 1.0.
func Build(s *session.Session, id Identity, meta Meta) (Summary, error) {
	if s.State() != session.Finished {
		return Summary{}, session.ErrNotFinished
	}
	results := s.Results()
	sum := Summary{
		Identity:       id,
		Meta:           meta,
		TotalQuestions: len(results),
		MaxScore:       float64(len(results)),
		StartedAt:      s.StartedAt(),
		FinishedAt:     s.FinishedAt(),
		Details:        make([]Detail, 0, len(results)),
	}

	total := decimal.Zero
	for _, r := range results {
		total = total.Add(decimal.NewFromFloat(r.Score))
		sum.TotalElapsed += r.Elapsed

		h := r.Question.Head()
		cat := h.Category
		if cat == "" {
			cat = Unspecified
		}
		sum.Details = append(sum.Details, Detail{
			Number:   r.Index + 1,
			Index:    r.Index,
			Key:      r.Key,
			Variant:  r.Question.Variant(),
			Text:     h.Question,
			Category: cat,
			Score:    r.Score,
			Checked:  r.Checked,
			Elapsed:  r.Elapsed,
			Question: r.Question,
			Answer:   r.Answer,
		})
	}

	sum.TotalScore = total.RoundBank(2).InexactFloat64()
	pct := decimal.Zero
	if n := len(results); n > 0 {
		pct = total.Mul(hundred).Div(decimal.NewFromInt(int64(n)))
		sum.AverageElapsed = sum.TotalElapsed / time.Duration(n)
	}
	sum.Percentage = pct.RoundBank(1).InexactFloat64()
	sum.Band = bandFor(pct)
	return sum, nil
}

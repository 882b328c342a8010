// Package attempts keeps the live test sessions of the service. Every
// session is independent and guarded by its own lock.
package attempts

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mind-engage/fapquiz/internal/grading"
	"github.com/mind-engage/fapquiz/internal/metrics"
	"github.com/mind-engage/fapquiz/internal/protocol"
	"github.com/mind-engage/fapquiz/internal/quiz"
	"github.com/mind-engage/fapquiz/internal/report"
	"github.com/mind-engage/fapquiz/internal/selector"
	"github.com/mind-engage/fapquiz/internal/session"
	syncx "github.com/mind-engage/fapquiz/internal/sync"
)

var (
	ErrNotFound  = errors.New("attempt not found")
	ErrForbidden = errors.New("attempt belongs to another testee")
)

// Publisher stores the protocols of a finished attempt.
type Publisher interface {
	Publish(ctx context.Context, sum report.Summary) (protocol.Files, error)
}

// Attempt is one testee's run through a question list.
type Attempt struct {
	mu sync.Mutex

	ID       string
	Owner    string
	Identity report.Identity
	Meta     report.Meta
	Session  *session.Session

	// Orders holds the shuffled display order per answer key, for ordering
	// items and the matching right column.
	Orders map[string][]string

	Summary *report.Summary
	Files   *protocol.Files

	touched time.Time // last access, guarded by mu
}

type Manager struct {
	mu    sync.RWMutex
	items map[string]*Attempt

	grader    grading.Grader
	selector  *selector.Selector
	publisher Publisher     // optional
	journal   syncx.Journal // optional
	metrics   *metrics.Metrics
	log       *zap.Logger
	ttl       time.Duration // zero keeps attempts forever
	clock     func() time.Time
}

type Option func(*Manager)

func WithGrader(g grading.Grader) Option { return func(m *Manager) { m.grader = g } }
func WithSelector(s *selector.Selector) Option { return func(m *Manager) { m.selector = s } }
func WithPublisher(p Publisher) Option { return func(m *Manager) { m.publisher = p } }
func WithJournal(j syncx.Journal) Option { return func(m *Manager) { m.journal = j } }
func WithMetrics(mt *metrics.Metrics) Option { return func(m *Manager) { m.metrics = mt } }
func WithLogger(l *zap.Logger) Option { return func(m *Manager) { m.log = l } }
func WithTTL(d time.Duration) Option { return func(m *Manager) { m.ttl = d } }
func WithClock(c func() time.Time) Option { return func(m *Manager) { m.clock = c } }

func NewManager(opts ...Option) *Manager {
	m := &Manager{items: map[string]*Attempt{}}
	for _, o := range opts {
		o(m)
	}
	if m.grader == nil {
		m.grader = grading.NewDefaultGrader()
	}
	if m.selector == nil {
		m.selector = selector.New(nil)
	}
	if m.metrics == nil {
		m.metrics = metrics.New(nil)
	}
	if m.log == nil {
		m.log = zap.NewNop()
	}
	if m.clock == nil {
		m.clock = time.Now
	}
	return m
}

// Create starts a session over questions and registers it for owner.
func (m *Manager) Create(ctx context.Context, owner string, id report.Identity, meta report.Meta, questions []quiz.Question, now time.Time) (*Attempt, error) {
	s := session.New(m.grader)
	if err := s.Start(questions, now); err != nil {
		return nil, err
	}
	a := &Attempt{
		ID:       uuid.NewString(),
		Owner:    owner,
		Identity: id,
		Meta:     meta,
		Session:  s,
		touched:  m.clock(),
	}
	a.Meta.AttemptID = a.ID
	a.Meta.Run = 1
	a.Orders = m.displayOrders(s)

	m.mu.Lock()
	m.items[a.ID] = a
	m.mu.Unlock()

	m.metrics.SessionStarted()
	m.record(ctx, syncx.TypeSessionStarted, a.ID, map[string]any{
		"owner":     owner,
		"theme_id":  meta.ThemeID,
		"category":  meta.Category,
		"questions": s.Len(),
	})
	m.log.Info("session started",
		zap.String("attempt", a.ID),
		zap.String("theme", meta.ThemeID),
		zap.Int("questions", s.Len()),
	)
	return a, nil
}

func (m *Manager) displayOrders(s *session.Session) map[string][]string {
	orders := map[string][]string{}
	keys := s.Keys()
	for i, q := range s.Questions() {
		if order := m.selector.DisplayOrder(q); order != nil {
			orders[keys[i]] = order
		}
	}
	return orders
}

func (m *Manager) get(id, owner string) (*Attempt, error) {
	m.mu.RLock()
	a, ok := m.items[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if a.Owner != owner {
		return nil, ErrForbidden
	}
	return a, nil
}

// Do runs fn with exclusive access to the attempt.
func (m *Manager) Do(id, owner string, fn func(a *Attempt) error) error {
	a, err := m.get(id, owner)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.touched = m.clock()
	return fn(a)
}

// CheckResult is the outcome of checking one answer.
type CheckResult struct {
	Score       float64
	Cumulative  float64
	Explanation string
}

// Check scores and locks the stored answer for key. The running total is
// read under the same lock.
func (m *Manager) Check(id, owner, key string, now time.Time) (CheckResult, error) {
	var res CheckResult
	err := m.Do(id, owner, func(a *Attempt) error {
		score, err := a.Session.CheckAnswer(key, now)
		if err != nil {
			return err
		}
		res.Score = score
		res.Cumulative = a.Session.CumulativeScore()
		if q, ok := a.Question(key); ok {
			res.Explanation = q.Head().Explanation
			m.metrics.AnswerChecked(string(q.Variant()))
		}
		return nil
	})
	return res, err
}

// Finish ends the attempt, builds its summary and publishes the protocols.
// A failed publish is logged; the summary is still returned.
func (m *Manager) Finish(ctx context.Context, id, owner string, now time.Time) (report.Summary, error) {
	var sum report.Summary
	err := m.Do(id, owner, func(a *Attempt) error {
		if err := a.Session.Finish(now); err != nil {
			return err
		}
		meta := a.Meta
		meta.GeneratedAt = now
		var err error
		sum, err = report.Build(a.Session, a.Identity, meta)
		if err != nil {
			return err
		}
		a.Summary = &sum

		if m.publisher != nil {
			files, err := m.publisher.Publish(ctx, sum)
			if err != nil {
				m.log.Error("publish protocols failed", zap.String("attempt", id), zap.Error(err))
			} else {
				a.Files = &files
			}
		}

		m.metrics.SessionFinished(meta.ThemeID, string(sum.Band), sum.Percentage)
		m.record(ctx, syncx.TypeSessionFinished, id, map[string]any{
			"owner":       owner,
			"theme_id":    meta.ThemeID,
			"total_score": sum.TotalScore,
			"percentage":  sum.Percentage,
			"band":        sum.Band,
		})
		m.log.Info("session finished",
			zap.String("attempt", id),
			zap.Float64("score", sum.TotalScore),
			zap.Float64("percentage", sum.Percentage),
			zap.String("band", string(sum.Band)),
		)
		return nil
	})
	return sum, err
}

// Restart retakes the same questions in the same order with fresh answers.
func (m *Manager) Restart(ctx context.Context, id, owner string, now time.Time) error {
	return m.Do(id, owner, func(a *Attempt) error {
		if err := a.Session.Restart(nil, now); err != nil {
			return err
		}
		a.Orders = m.displayOrders(a.Session)
		a.Summary = nil
		a.Files = nil
		a.Meta.Run++
		m.metrics.SessionRestarted()
		m.record(ctx, syncx.TypeSessionStarted, id, map[string]any{
			"owner":     owner,
			"theme_id":  a.Meta.ThemeID,
			"questions": a.Session.Len(),
			"restart":   true,
		})
		return nil
	})
}

// Sweep drops attempts idle since before now minus the TTL and reports how
// many went.
func (m *Manager) Sweep(now time.Time) int {
	if m.ttl <= 0 {
		return 0
	}
	cutoff := now.Add(-m.ttl)

	m.mu.RLock()
	all := make([]*Attempt, 0, len(m.items))
	for _, a := range m.items {
		all = append(all, a)
	}
	m.mu.RUnlock()

	n := 0
	for _, a := range all {
		a.mu.Lock()
		stale := a.touched.Before(cutoff)
		live := a.Session.State() == session.InProgress
		if stale {
			m.mu.Lock()
			delete(m.items, a.ID)
			m.mu.Unlock()
		}
		a.mu.Unlock()
		if !stale {
			continue
		}
		m.metrics.SessionExpired(live)
		m.log.Debug("attempt expired", zap.String("attempt", a.ID), zap.Bool("in_progress", live))
		n++
	}
	return n
}

// Run sweeps expired attempts on the cron schedule spec (e.g. "@every 1m")
// until ctx is done.
func (m *Manager) Run(ctx context.Context, spec string) error {
	if m.ttl <= 0 {
		return nil
	}
	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(spec, func() {
		if n := m.Sweep(m.clock()); n > 0 {
			m.log.Info("expired attempts dropped", zap.Int("count", n), zap.Int("remaining", m.Len()))
		}
	}); err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// Len reports the number of registered attempts.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

func (m *Manager) record(ctx context.Context, typ, key string, data map[string]any) {
	if m.journal == nil {
		return
	}
	ev, err := syncx.NewEvent(typ, key, data)
	if err == nil {
		err = m.journal.Append(ctx, ev)
	}
	if err != nil {
		m.log.Warn("journal append failed", zap.String("type", typ), zap.String("attempt", key), zap.Error(err))
	}
}

// Question returns the question behind an answer key.
func (a *Attempt) Question(key string) (quiz.Question, bool) {
	for i, k := range a.Session.Keys() {
		if k == key {
			return a.Session.Questions()[i], true
		}
	}
	return nil, false
}

// Package editor authors questions and themes on top of a theme store.
package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mind-engage/fapquiz/internal/quiz"
	syncx "github.com/mind-engage/fapquiz/internal/sync"
	"github.com/mind-engage/fapquiz/internal/themes"
)

var (
	ErrThemeExists      = errors.New("theme already exists")
	ErrQuestionNotFound = errors.New("question not found")
)

// Editor serializes load-modify-save cycles so concurrent edits to one
// theme do not drop each other's questions.
type Editor struct {
	mu      sync.Mutex
	store   themes.Store
	journal syncx.Journal // optional
	log     *zap.Logger
}

func New(store themes.Store, journal syncx.Journal, log *zap.Logger) *Editor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Editor{store: store, journal: journal, log: log}
}

func (e *Editor) CreateTheme(ctx context.Context, id, name, description string) (quiz.Theme, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !themes.ValidID(id) {
		return quiz.Theme{}, themes.ErrInvalidID
	}
	if _, err := e.store.LoadTheme(ctx, id); err == nil {
		return quiz.Theme{}, ErrThemeExists
	} else if !errors.Is(err, themes.ErrNotFound) {
		return quiz.Theme{}, err
	}
	t := quiz.Theme{ID: id, Name: name, Description: description, Questions: []quiz.Question{}}
	if err := e.save(ctx, t, "create_theme", 0); err != nil {
		return quiz.Theme{}, err
	}
	return t, nil
}

// AddQuestion appends a question built from d. Its id is one more than the
// largest id in the theme.
func (e *Editor) AddQuestion(ctx context.Context, themeID string, d Draft) (quiz.Question, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, err := e.store.LoadTheme(ctx, themeID)
	if err != nil {
		return nil, err
	}
	q, err := Build(d, NextID(t))
	if err != nil {
		return nil, err
	}
	t.Questions = append(t.Questions, q)
	if err := e.save(ctx, t, "add_question", q.Head().ID); err != nil {
		return nil, err
	}
	return q, nil
}

func (e *Editor) DeleteQuestion(ctx context.Context, themeID string, questionID int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, err := e.store.LoadTheme(ctx, themeID)
	if err != nil {
		return err
	}
	kept := make([]quiz.Question, 0, len(t.Questions))
	for _, q := range t.Questions {
		if q.Head().ID != questionID {
			kept = append(kept, q)
		}
	}
	if len(kept) == len(t.Questions) {
		return ErrQuestionNotFound
	}
	t.Questions = kept
	return e.save(ctx, t, "delete_question", questionID)
}

func (e *Editor) save(ctx context.Context, t quiz.Theme, action string, questionID int) error {
	if err := e.store.SaveTheme(ctx, t); err != nil {
		return fmt.Errorf("save theme %s: %w", t.ID, err)
	}
	e.log.Info("theme edited",
		zap.String("theme", t.ID),
		zap.String("action", action),
		zap.Int("question", questionID),
	)
	if e.journal == nil {
		return nil
	}
	ev, err := syncx.NewEvent(syncx.TypeThemeSaved, t.ID, map[string]any{
		"action":      action,
		"question_id": questionID,
		"questions":   len(t.Questions),
	})
	if err == nil {
		err = e.journal.Append(ctx, ev)
	}
	if err != nil {
		e.log.Warn("journal append failed", zap.String("theme", t.ID), zap.Error(err))
	}
	return nil
}

// NextID returns the id for a new question of t.
func NextID(t quiz.Theme) int {
	top := 0
	for _, q := range t.Questions {
		if id := q.Head().ID; id > top {
			top = id
		}
	}
	return top + 1
}

// SampleTheme is the starter theme written by the -init command.
func SampleTheme() quiz.Theme {
	return quiz.Theme{
		ID:          "fap297",
		Name:        "ФАП 297",
		Description: "Подготовка и выполнение полетов в гражданской авиации",
		Questions: []quiz.Question{
			quiz.SingleChoice{
				Header: quiz.Header{
					ID:          1,
					Type:        quiz.VariantSingleChoice,
					Question:    "Минимальная высота полета над населенным пунктом:",
					Explanation: "Согласно ФАП 297, минимальная высота полета над населенными пунктами составляет 1000 метров.",
					Category:    "Высоты и эшелоны",
				},
				Options: []string{"300 метров", "500 метров", "1000 метров", "1500 метров"},
				Correct: "1000 метров",
			},
		},
	}
}

// Seed stores the sample theme unless a theme with its id already exists.
// It reports whether anything was written.
func Seed(ctx context.Context, store themes.Store) (bool, error) {
	t := SampleTheme()
	_, err := store.LoadTheme(ctx, t.ID)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, themes.ErrNotFound):
		return false, err
	}
	if err := store.SaveTheme(ctx, t); err != nil {
		return false, err
	}
	return true, nil
}

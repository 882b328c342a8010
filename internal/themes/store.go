// Package themes persists regulation themes and their question banks.
package themes

import (
	"context"
	"errors"
	"strings"

	"github.com/mind-engage/fapquiz/internal/quiz"
)

var (
	ErrNotFound  = errors.New("theme not found")
	ErrInvalidID = errors.New("invalid theme id")
)

// Summary is the listing view of a theme.
type Summary struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	QuestionCount int      `json:"question_count"`
	Categories    []string `json:"categories"`
}

func Summarize(t quiz.Theme) Summary {
	return Summary{
		ID:            t.ID,
		Name:          t.Name,
		Description:   t.Description,
		QuestionCount: len(t.Questions),
		Categories:    t.Categories(),
	}
}

type Store interface {
	ListThemes(ctx context.Context) ([]Summary, error)
	LoadTheme(ctx context.Context, id string) (quiz.Theme, error)
	SaveTheme(ctx context.Context, t quiz.Theme) error
	DeleteTheme(ctx context.Context, id string) error
}

// ValidID reports whether id can name a theme file: non-empty, no path
// separators, no leading dot.
func ValidID(id string) bool {
	if id == "" || strings.HasPrefix(id, ".") {
		return false
	}
	return !strings.ContainsAny(id, `/\`)
}

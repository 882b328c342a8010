package themes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mind-engage/fapquiz/internal/quiz"
)

// SQLStore keeps themes in the themes table with the question bank as a JSON
// column. Works on sqlite and postgres.
type SQLStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now}
}

func (s *SQLStore) ListThemes(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,name,description,questions_json FROM themes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list themes: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		t, err := scanTheme(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, Summarize(t))
	}
	return out, rows.Err()
}

func (s *SQLStore) LoadTheme(ctx context.Context, id string) (quiz.Theme, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,name,description,questions_json FROM themes WHERE id=$1`, id)
	t, err := scanTheme(row)
	if errors.Is(err, sql.ErrNoRows) {
		return quiz.Theme{}, ErrNotFound
	}
	if err != nil {
		return quiz.Theme{}, err
	}
	if err := t.Validate(); err != nil {
		return quiz.Theme{}, fmt.Errorf("theme %s: %w", id, err)
	}
	return t, nil
}

func (s *SQLStore) SaveTheme(ctx context.Context, t quiz.Theme) error {
	if !ValidID(t.ID) {
		return ErrInvalidID
	}
	if err := t.Validate(); err != nil {
		return err
	}
	qj, err := quiz.EncodeQuestions(t.Questions)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO themes (id,name,description,questions_json,updated_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, description=EXCLUDED.description,
		  questions_json=EXCLUDED.questions_json, updated_at=EXCLUDED.updated_at`,
		t.ID, t.Name, t.Description, string(qj), s.now().Unix())
	return err
}

func (s *SQLStore) DeleteTheme(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM themes WHERE id=$1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTheme(r scanner) (quiz.Theme, error) {
	var (
		t     quiz.Theme
		qjson string
	)
	if err := r.Scan(&t.ID, &t.Name, &t.Description, &qjson); err != nil {
		return quiz.Theme{}, err
	}
	qs, err := quiz.DecodeQuestions([]byte(qjson))
	if err != nil {
		return quiz.Theme{}, fmt.Errorf("theme %s: %w", t.ID, err)
	}
	t.Questions = qs
	return t, nil
}

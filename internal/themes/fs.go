package themes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/mind-engage/fapquiz/internal/quiz"
)

const ext = ".json"

// FileStore keeps one <id>.json file per theme in a directory. The theme id
// is the file name.
type FileStore struct {
	fs  afero.Fs
	dir string
	log *zap.Logger
}

func NewFileStore(fsys afero.Fs, dir string, log *zap.Logger) *FileStore {
	if dir == "" {
		dir = "./themes"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &FileStore{fs: fsys, dir: dir, log: log}
}

func (s *FileStore) path(id string) string { return filepath.Join(s.dir, id+ext) }

// ListThemes returns every readable theme sorted by id. Unreadable files are
// logged and skipped.
func (s *FileStore) ListThemes(ctx context.Context) ([]Summary, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []Summary{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list themes: %w", err)
	}
	out := make([]Summary, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ext)
		t, err := s.LoadTheme(ctx, id)
		if err != nil {
			s.log.Warn("skip theme file", zap.String("file", e.Name()), zap.Error(err))
			continue
		}
		out = append(out, Summarize(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *FileStore) LoadTheme(_ context.Context, id string) (quiz.Theme, error) {
	if !ValidID(id) {
		return quiz.Theme{}, ErrInvalidID
	}
	b, err := afero.ReadFile(s.fs, s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return quiz.Theme{}, ErrNotFound
	}
	if err != nil {
		return quiz.Theme{}, fmt.Errorf("read theme %s: %w", id, err)
	}
	var t quiz.Theme
	if err := json.Unmarshal(b, &t); err != nil {
		return quiz.Theme{}, fmt.Errorf("decode theme %s: %w", id, err)
	}
	t.ID = id
	if err := t.Validate(); err != nil {
		return quiz.Theme{}, fmt.Errorf("theme %s: %w", id, err)
	}
	return t, nil
}

// SaveTheme writes the theme as indented UTF-8 JSON, creating the directory
// on demand. The file is replaced through a rename.
func (s *FileStore) SaveTheme(_ context.Context, t quiz.Theme) error {
	if !ValidID(t.ID) {
		return ErrInvalidID
	}
	if err := t.Validate(); err != nil {
		return err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("encode theme %s: %w", t.ID, err)
	}
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create themes dir: %w", err)
	}
	tmp := s.path(t.ID) + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write theme %s: %w", t.ID, err)
	}
	if err := s.fs.Rename(tmp, s.path(t.ID)); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("write theme %s: %w", t.ID, err)
	}
	s.log.Info("theme saved", zap.String("theme", t.ID), zap.Int("questions", len(t.Questions)))
	return nil
}

func (s *FileStore) DeleteTheme(_ context.Context, id string) error {
	if !ValidID(id) {
		return ErrInvalidID
	}
	err := s.fs.Remove(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	return err
}

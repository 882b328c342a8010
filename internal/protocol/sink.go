package protocol

import (
	"context"
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/mind-engage/fapquiz/internal/report"
	"github.com/mind-engage/fapquiz/internal/storage"
)

const contentType = "text/plain; charset=utf-8"

// Files names the published protocols of one session.
type Files struct {
	Folder   string `json:"folder"`
	Main     string `json:"main"`
	Detailed string `json:"detailed"`
}

// Sink publishes rendered protocols to a blob store.
type Sink struct {
	store storage.BlobStore
	log   *zap.Logger
}

func NewSink(store storage.BlobStore, log *zap.Logger) *Sink {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sink{store: store, log: log}
}

// Publish writes the main and detailed protocols into a folder named after
// the testee, the finish time and the attempt.
func (s *Sink) Publish(ctx context.Context, sum report.Summary) (Files, error) {
	at := sum.FinishedAt
	if at.IsZero() {
		at = sum.Meta.GeneratedAt
	}
	folder := runFolder(sum, at)
	out := Files{Folder: folder}

	for _, f := range []struct {
		dst  *string
		name string
		body string
	}{
		{&out.Main, MainFileName(sum.Identity), RenderMain(sum)},
		{&out.Detailed, DetailedFileName(sum.Identity), RenderDetailed(sum)},
	} {
		key, err := s.store.Put(ctx, path.Join(folder, f.name), strings.NewReader(f.body), int64(len(f.body)), contentType)
		if err != nil {
			return Files{}, fmt.Errorf("publish %s: %w", f.name, err)
		}
		*f.dst = key
	}
	s.log.Info("protocols published",
		zap.String("folder", folder),
		zap.String("attempt", sum.Meta.AttemptID),
		zap.String("theme", sum.Meta.ThemeID),
		zap.Float64("percentage", sum.Percentage),
	)
	return out, nil
}

package http

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mind-engage/fapquiz/internal/attempts"
	auth "github.com/mind-engage/fapquiz/internal/auth/middleware"
	"github.com/mind-engage/fapquiz/internal/session"
	"github.com/mind-engage/fapquiz/internal/storage"
)

// ProtocolHandler streams a published protocol of the caller's attempt.
// GET /sessions/{id}/protocols/{kind}   kind = main | detailed
func ProtocolHandler(m *attempts.Manager, bs storage.BlobStore, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind := chi.URLParam(r, "kind")
		var key string
		err := m.Do(chi.URLParam(r, "id"), auth.SubjectFromContext(r.Context()), func(a *attempts.Attempt) error {
			if a.Summary == nil {
				return session.ErrNotFinished
			}
			if a.Files != nil {
				switch kind {
				case "main":
					key = a.Files.Main
				case "detailed":
					key = a.Files.Detailed
				}
			}
			return nil
		})
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		if key == "" {
			http.Error(w, "protocol not found", http.StatusNotFound)
			return
		}
		rc, err := bs.Get(r.Context(), key)
		if err != nil {
			http.Error(w, "protocol not found", http.StatusNotFound)
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.Copy(w, rc)
	}
}

package http

import (
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mind-engage/fapquiz/internal/attempts"
	auth "github.com/mind-engage/fapquiz/internal/auth/middleware"
	"github.com/mind-engage/fapquiz/internal/protocol"
	"github.com/mind-engage/fapquiz/internal/quiz"
	"github.com/mind-engage/fapquiz/internal/rbac"
	"github.com/mind-engage/fapquiz/internal/report"
	"github.com/mind-engage/fapquiz/internal/selector"
	"github.com/mind-engage/fapquiz/internal/session"
	"github.com/mind-engage/fapquiz/internal/storage"
	"github.com/mind-engage/fapquiz/internal/themes"
)

const maxAnswerBytes = 64 << 10

// Sessions serves the testee side of a test run. Every call acts on an
// attempt owned by the token subject.
type Sessions struct {
	Attempts     *attempts.Manager
	Themes       themes.Store
	Selector     *selector.Selector
	Blobs        storage.BlobStore // optional; signs protocol links
	Log          *zap.Logger
	DefaultCount int
	Now          func() time.Time
}

func identityOf(r *http.Request, now time.Time) report.Identity {
	if id, ok := auth.IdentityFromContext(r.Context()); ok {
		return id
	}
	return report.Identity{
		LastName:  auth.SubjectFromContext(r.Context()),
		Position:  rbac.RoleFromContext(r.Context()),
		LoginTime: now,
	}
}

// POST /sessions  { "theme_id": "...", "category": "", "count": 10 }
func (h *Sessions) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ThemeID  string `json:"theme_id"`
		Category string `json:"category"`
		Count    int    `json:"count"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if req.Count == 0 {
		req.Count = h.DefaultCount
	}
	t, err := h.Themes.LoadTheme(r.Context(), req.ThemeID)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	qs, err := h.Selector.Select(t, req.Category, req.Count)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	now := h.Now()
	meta := report.Meta{ThemeID: t.ID, ThemeName: t.Name, Category: req.Category}
	a, err := h.Attempts.Create(r.Context(), auth.SubjectFromContext(r.Context()), identityOf(r, now), meta, qs, now)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	h.respond(w, r, http.StatusCreated, a.ID, nil)
}

// respond runs fn under the attempt lock and answers with the session view.
func (h *Sessions) respond(w http.ResponseWriter, r *http.Request, status int, id string, fn func(a *attempts.Attempt) error) {
	var view SessionView
	err := h.Attempts.Do(id, auth.SubjectFromContext(r.Context()), func(a *attempts.Attempt) error {
		if fn != nil {
			if err := fn(a); err != nil {
				return err
			}
		}
		view = sessionView(a)
		return nil
	})
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, status, view)
}

// GET /sessions/{id}
func (h *Sessions) Get(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK, chi.URLParam(r, "id"), nil)
}

// PUT /sessions/{id}/answers/{key}  body: the answer in the shape of the question type
func (h *Sessions) Submit(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxAnswerBytes))
	if err != nil {
		writeError(w, r, h.Log, errBadJSON)
		return
	}
	key := chi.URLParam(r, "key")
	h.respond(w, r, http.StatusOK, chi.URLParam(r, "id"), func(a *attempts.Attempt) error {
		q, ok := a.Question(key)
		if !ok {
			return session.ErrUnknownAnswerKey
		}
		ans, err := quiz.DecodeAnswer(q, raw)
		if err != nil {
			return err
		}
		return a.Session.SubmitAnswer(key, ans)
	})
}

type checkResponse struct {
	Key             string  `json:"key"`
	Score           float64 `json:"score"`
	CumulativeScore float64 `json:"cumulative_score"`
	Explanation     string  `json:"explanation"`
}

// POST /sessions/{id}/answers/{key}/check
func (h *Sessions) Check(w http.ResponseWriter, r *http.Request) {
	id, key := chi.URLParam(r, "id"), chi.URLParam(r, "key")
	owner := auth.SubjectFromContext(r.Context())
	res, err := h.Attempts.Check(id, owner, key, h.Now())
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, checkResponse{
		Key:             key,
		Score:           res.Score,
		CumulativeScore: res.Cumulative,
		Explanation:     res.Explanation,
	})
}

// POST /sessions/{id}/navigate  { "direction": "next" | "previous" }
func (h *Sessions) Navigate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Direction string `json:"direction"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	d, err := session.ParseDirection(req.Direction)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	h.respond(w, r, http.StatusOK, chi.URLParam(r, "id"), func(a *attempts.Attempt) error {
		return a.Session.Navigate(d, h.Now())
	})
}

// POST /sessions/{id}/finish
func (h *Sessions) Finish(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.Attempts.Finish(r.Context(), id, auth.SubjectFromContext(r.Context()), h.Now()); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	h.Report(w, r)
}

// POST /sessions/{id}/restart
func (h *Sessions) Restart(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Attempts.Restart(r.Context(), id, auth.SubjectFromContext(r.Context()), h.Now()); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	h.respond(w, r, http.StatusOK, id, nil)
}

// GET /sessions/{id}/report
func (h *Sessions) Report(w http.ResponseWriter, r *http.Request) {
	var out ReportView
	err := h.Attempts.Do(chi.URLParam(r, "id"), auth.SubjectFromContext(r.Context()), func(a *attempts.Attempt) error {
		if a.Summary == nil {
			return session.ErrNotFinished
		}
		out = ReportView{Summary: *a.Summary, Protocols: a.Files}
		return nil
	})
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	out.Links = h.sign(r, out.Protocols)
	writeJSON(w, http.StatusOK, out)
}

func (h *Sessions) sign(r *http.Request, f *protocol.Files) *ProtocolLinks {
	if h.Blobs == nil || f == nil {
		return nil
	}
	mainURL, err := h.Blobs.SignedURL(r.Context(), f.Main)
	if err == nil {
		var detailedURL string
		if detailedURL, err = h.Blobs.SignedURL(r.Context(), f.Detailed); err == nil {
			return &ProtocolLinks{Main: mainURL, Detailed: detailedURL}
		}
	}
	h.Log.Warn("sign protocol links", zap.String("folder", f.Folder), zap.Error(err))
	return nil
}

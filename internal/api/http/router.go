// Package http exposes the quiz service over HTTP.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/mind-engage/fapquiz/internal/attempts"
	auth "github.com/mind-engage/fapquiz/internal/auth/middleware"
	"github.com/mind-engage/fapquiz/internal/editor"
	"github.com/mind-engage/fapquiz/internal/metrics"
	"github.com/mind-engage/fapquiz/internal/rbac"
	"github.com/mind-engage/fapquiz/internal/selector"
	"github.com/mind-engage/fapquiz/internal/storage"
	"github.com/mind-engage/fapquiz/internal/themes"
)

type Deps struct {
	Auth     *auth.AuthService
	Themes   themes.Store
	Editor   *editor.Editor
	Attempts *attempts.Manager
	Selector *selector.Selector
	Blobs    storage.BlobStore
	Events   EventLister // optional
	Metrics  *metrics.Metrics
	Log      *zap.Logger

	CORSOrigins  []string
	DefaultCount int
	Now          func() time.Time
	Ready        func(ctx context.Context) error // optional
}

// NewRouter mounts every route of the service.
func NewRouter(d Deps) chi.Router {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New(nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger(d.Log), middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(d.Metrics.Middleware)
	if len(d.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   d.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Post("/auth/login", auth.LoginHandler(d.Auth))

	s := &Sessions{
		Attempts:     d.Attempts,
		Themes:       d.Themes,
		Selector:     d.Selector,
		Blobs:        d.Blobs,
		Log:          d.Log,
		DefaultCount: d.DefaultCount,
		Now:          d.Now,
	}

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(d.Auth))

		pr.With(rbac.Require(rbac.PermThemeView)).Get("/themes", ListThemesHandler(d.Themes, d.Log))
		pr.With(rbac.Require(rbac.PermThemeView)).Get("/themes/{themeID}", GetThemeHandler(d.Themes, d.Log))

		// Editor only
		pr.With(rbac.Require(rbac.PermThemeEdit)).Post("/themes", CreateThemeHandler(d.Editor, d.Log))
		pr.With(rbac.Require(rbac.PermThemeEdit)).Post("/themes/{themeID}/questions", AddQuestionHandler(d.Editor, d.Log))
		pr.With(rbac.Require(rbac.PermThemeEdit)).Delete("/themes/{themeID}/questions/{questionID}", DeleteQuestionHandler(d.Editor, d.Log))

		if d.Events != nil {
			pr.With(rbac.Require(rbac.PermJournalView)).Get("/events", ListEventsHandler(d.Events, d.Log))
		}

		pr.With(rbac.Require(rbac.PermSessionCreate)).Post("/sessions", s.Create)
		pr.Route("/sessions/{id}", func(sr chi.Router) {
			sr.Use(rbac.Require(rbac.PermSessionPlay))
			sr.Get("/", s.Get)
			sr.Put("/answers/{key}", s.Submit)
			sr.Post("/answers/{key}/check", s.Check)
			sr.Post("/navigate", s.Navigate)
			sr.Post("/finish", s.Finish)
			sr.Post("/restart", s.Restart)
			sr.Get("/report", s.Report)
			if d.Blobs != nil {
				sr.Get("/protocols/{kind}", ProtocolHandler(d.Attempts, d.Blobs, d.Log))
			}
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.Ready != nil {
			if err := d.Ready(r.Context()); err != nil {
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", d.Metrics.Handler())
	return r
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Debug("http request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

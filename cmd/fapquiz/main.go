package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	api "github.com/mind-engage/fapquiz/internal/api/http"
	"github.com/mind-engage/fapquiz/internal/attempts"
	auth "github.com/mind-engage/fapquiz/internal/auth/middleware"
	"github.com/mind-engage/fapquiz/internal/config"
	"github.com/mind-engage/fapquiz/internal/db"
	"github.com/mind-engage/fapquiz/internal/editor"
	"github.com/mind-engage/fapquiz/internal/logger"
	"github.com/mind-engage/fapquiz/internal/metrics"
	"github.com/mind-engage/fapquiz/internal/protocol"
	"github.com/mind-engage/fapquiz/internal/selector"
	"github.com/mind-engage/fapquiz/internal/storage"
	syncx "github.com/mind-engage/fapquiz/internal/sync"
	"github.com/mind-engage/fapquiz/internal/themes"
)

func main() {
	initOnly := flag.Bool("init", false, "write the sample theme and exit")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	lg, err := logger.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- DB ---
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	dbh, err := db.Open(openCtx, db.Driver(cfg.DB.Driver), cfg.DB.DSN)
	cancel()
	if err != nil {
		lg.Fatal("db open failed", zap.Error(err))
	}
	defer dbh.Close()

	fsys := afero.NewOsFs()
	store := themeStore(cfg, fsys, dbh, lg)

	if *initOnly {
		wrote, err := editor.Seed(ctx, store)
		if err != nil {
			lg.Fatal("seed failed", zap.Error(err))
		}
		lg.Info("sample theme", zap.Bool("written", wrote), zap.String("store", cfg.Themes.Store))
		return
	}

	// --- Protocols ---
	blobs, err := storage.Open(ctx, cfg.Protocols, fsys)
	if err != nil {
		lg.Fatal("protocol store", zap.Error(err))
	}

	// --- Auth ---
	hash := []byte(cfg.Auth.EditorPassHash)
	if len(hash) == 0 && !cfg.IsProduction() {
		hash, err = bcrypt.GenerateFromPassword([]byte("editor"), bcrypt.DefaultCost)
		if err != nil {
			lg.Fatal("hash editor password", zap.Error(err))
		}
		lg.Warn("using the development editor password")
	}
	authSvc := auth.NewAuthService(cfg.Auth.HMACSecret, cfg.Auth.EditorUser, hash)

	journal := syncx.NewEventRepo(dbh)
	mt := metrics.New(nil)
	sel := selector.New(nil)
	manager := attempts.NewManager(
		attempts.WithSelector(sel),
		attempts.WithPublisher(protocol.NewSink(blobs, lg)),
		attempts.WithJournal(journal),
		attempts.WithMetrics(mt),
		attempts.WithLogger(lg),
		attempts.WithTTL(cfg.Quiz.SessionTTL),
	)
	go func() {
		if err := manager.Run(ctx, "@every 1m"); err != nil {
			lg.Error("attempt sweeper", zap.Error(err))
		}
	}()

	router := api.NewRouter(api.Deps{
		Auth:         authSvc,
		Themes:       store,
		Editor:       editor.New(store, journal, lg),
		Attempts:     manager,
		Selector:     sel,
		Blobs:        blobs,
		Events:       journal,
		Metrics:      mt,
		Log:          lg,
		CORSOrigins:  cfg.CORS.Origins,
		DefaultCount: cfg.Quiz.DefaultQuestionCount,
		Ready:        dbh.PingContext,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	lg.Info("listening",
		zap.String("addr", cfg.HTTPAddr),
		zap.String("env", cfg.Env),
		zap.String("db", cfg.DB.Driver),
		zap.String("themes", cfg.Themes.Store),
		zap.String("protocols", cfg.Protocols.Driver),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		lg.Fatal("server failed", zap.Error(err))
	}
	lg.Info("shutdown complete")
}

func themeStore(cfg *config.Config, fsys afero.Fs, dbh *sql.DB, lg *zap.Logger) themes.Store {
	if cfg.Themes.Store == "sql" {
		return themes.NewSQLStore(dbh)
	}
	return themes.NewFileStore(fsys, cfg.Themes.Dir, lg)
}

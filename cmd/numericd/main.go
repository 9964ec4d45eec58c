package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	api "github.com/mind-engage/mindengage-numeric/internal/api/http"
	auth "github.com/mind-engage/mindengage-numeric/internal/auth/middleware"
	"github.com/mind-engage/mindengage-numeric/internal/config"
	"github.com/mind-engage/mindengage-numeric/internal/db"
	"github.com/mind-engage/mindengage-numeric/internal/exercise"
	"github.com/mind-engage/mindengage-numeric/internal/grading"
	"github.com/mind-engage/mindengage-numeric/internal/logging"
	"github.com/mind-engage/mindengage-numeric/internal/storage"
	syncx "github.com/mind-engage/mindengage-numeric/internal/sync"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		// logger is not built yet
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(2)
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}
	defer log.Sync()

	grader := grading.NewDefaultGrader(grading.WithLogger(log.Named("grading")))
	deps := api.Deps{
		Grader:       grader,
		Log:          log.Named("http"),
		DefaultForms: cfg.DefaultForms,
		AllowEmpty:   cfg.AllowEmpty,
	}

	// --- Store ---
	if cfg.DBDriver == "memory" {
		// nothing survives a restart; for demos and offline practice
		deps.Store = exercise.NewInMemoryStore(exercise.WithGrader(grader), exercise.WithLogger(log.Named("store")))
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
		cancel()
		if err != nil {
			log.Fatal("db open failed", zap.Error(err))
		}
		defer dbh.Close()

		deps.Events = syncx.NewEventRepo(dbh)
		deps.Ready = dbh.PingContext
		deps.Store = exercise.NewSQLStore(dbh, cfg.DBDriver,
			exercise.WithGrader(grader),
			exercise.WithEvents(deps.Events),
			exercise.WithLogger(log.Named("store")))
	}

	// --- Prompt assets ---
	if cfg.AssetsDir != "" {
		bs, err := storage.NewFSStore(cfg.AssetsDir, "/assets/")
		if err != nil {
			log.Fatal("assets dir", zap.Error(err))
		}
		deps.Blobs = bs
	}

	// --- Auth (local JWT) ---
	deps.Auth = auth.NewAuthService(cfg.AuthSecret, cfg.AuthorUser, cfg.AuthorPassHash)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	api.Mount(r, deps)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop, release := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer release()
	go func() {
		<-stop.Done()
		shutdown, done := context.WithTimeout(context.Background(), 15*time.Second)
		defer done()
		if err := srv.Shutdown(shutdown); err != nil {
			log.Warn("shutdown", zap.Error(err))
		}
	}()

	log.Info("listening",
		zap.String("addr", cfg.HTTPAddr),
		zap.String("mode", string(cfg.Mode)),
		zap.String("db", cfg.DBDriver))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("serve", zap.Error(err))
	}
}

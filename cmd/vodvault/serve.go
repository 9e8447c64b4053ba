package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"vodvault/internal/collections"
	"vodvault/internal/config"
	"vodvault/internal/constants"
	"vodvault/internal/downloader"
	"vodvault/internal/downloads"
	httpapp "vodvault/internal/http"
	"vodvault/internal/jobqueue"
	"vodvault/internal/logger"
	"vodvault/internal/schedules"
	"vodvault/internal/store"
	"vodvault/internal/tracker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the vodvault server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	appLogger := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	// One process owns the database and the download tree at a time.
	lock := flock.New(filepath.Join(filepath.Dir(cfg.DBPath), constants.LockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire instance lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another vodvault instance is already running")
	}
	defer lock.Unlock()

	db, err := store.NewSQLiteDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to init db: %w", err)
	}
	defer db.Close()

	rec := tracker.NewReconciler(db, appLogger)
	scheduleService := schedules.NewService(db, appLogger)
	engine := collections.NewEngine(db, collections.OSFS{}, rec, scheduleService, appLogger)
	downloadLog := downloads.NewLog(db, appLogger)

	if err := downloader.CheckBinary(); err != nil {
		appLogger.Warn("Downloads will fail until yt-dlp is installed", "error", err)
	}
	ingestor := downloader.NewIngestor(rec, downloadLog, cfg.DownloadRoot, appLogger)
	fetcher := downloader.NewService(downloader.NewYTDLP(appLogger), ingestor, downloadLog, cfg.DownloadRoot, appLogger)
	defer fetcher.Stop()

	dispatcher := jobqueue.NewDispatcher()
	jobqueue.RegisterHandlers(dispatcher, rec, engine)

	queue := jobqueue.NewQueue(db, dispatcher, appLogger)
	queue.StalePolicy = cfg.StaleJobPolicy
	queue.StaleGrace = cfg.StaleJobGrace
	queue.Start()
	defer queue.Stop()

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	h := httpapp.NewHandler(queue, engine, rec, scheduleService, downloadLog, fetcher, appLogger)
	h.RegisterRoutes(r)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		appLogger.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	appLogger.Info("Server exiting")
	return nil
}

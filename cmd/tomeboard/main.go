package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	githubadapter "github.com/ericfisherdev/tomeboard/internal/adapter/driven/github"
	sqliteadapter "github.com/ericfisherdev/tomeboard/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/tomeboard/internal/adapter/driving/http"
	"github.com/ericfisherdev/tomeboard/internal/application"
	"github.com/ericfisherdev/tomeboard/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on invalid values).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogger(cfg.LogLevel)
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"default_ref", cfg.DefaultRef,
		"fetch_timeout", cfg.FetchTimeout,
		"cache_ttl", cfg.CacheTTL,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire adapters.
	snapshotStore := sqliteadapter.NewSnapshotRepo(db)
	ghClient := githubadapter.NewClient(cfg.FetchTimeout, cfg.CacheTTL)

	// 5b. Prune aged-out snapshots from previous runs.
	if pruned, err := snapshotStore.Prune(ctx, time.Now().Add(-cfg.SnapshotMaxAge)); err != nil {
		slog.Error("snapshot prune failed", "error", err)
	} else if pruned > 0 {
		slog.Info("pruned stale snapshots", "count", pruned)
	}

	// 6. Create pipeline services.
	loadSvc := application.NewLoadService(ghClient)
	joinSvc := application.NewJoinService(nil)
	boardSvc := application.NewBoardService(loadSvc, joinSvc, snapshotStore, nil)

	// 7. Create HTTP handler and register API routes.
	apiHandler := httphandler.NewHandler(boardSvc, cfg.DefaultRef, slog.Default())
	mux := http.NewServeMux()
	httphandler.RegisterAPIRoutes(mux, apiHandler)

	// Apply middleware.
	handler := httphandler.ApplyMiddleware(mux, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	// 8. Log startup complete.
	slog.Info("tomeboard started",
		"listen_addr", cfg.ListenAddr,
		"default_ref", cfg.DefaultRef,
	)

	// 9. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 10. Graceful shutdown with 10s timeout for HTTP server drain.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// setupLogger replaces the default slog handler with one honoring the
// configured level.
func setupLogger(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

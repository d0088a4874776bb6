package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/reeltalk/reeltalk/internal/config"
	"github.com/reeltalk/reeltalk/internal/db"
	"github.com/reeltalk/reeltalk/internal/handlers"
	"github.com/reeltalk/reeltalk/internal/httpserver"
	"github.com/reeltalk/reeltalk/internal/kvstore"
	"github.com/reeltalk/reeltalk/internal/middleware"
	"github.com/reeltalk/reeltalk/internal/state"
	"github.com/reeltalk/reeltalk/internal/storage"
)

// Run bootstraps the ReelTalk application.
func Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("expected command: serve, seed, or export")
	}

	switch args[0] {
	case "serve":
		return serve(ctx)
	case "seed":
		return runSeed(ctx)
	case "export":
		return runExport(ctx)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	kv, blobs, cleanup, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	core, err := state.Rehydrate(ctx, kv, blobs, logger)
	if err != nil {
		return err
	}

	deps := buildDependencies(core, cfg)

	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, deps)

	handler := middleware.RequestLogger(logger)(mux)

	srv := httpserver.New(cfg.AppPort, handler)

	logger.Info("starting http server", "port", cfg.AppPort)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.Start()
	}()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	case sig := <-signalCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), httpserver.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	// Drain pending snapshot writes before the process exits.
	return core.Close(shutdownCtx)
}

// runSeed forces the demo accounts and demo feed back into the store by
// clearing the persisted collections; the next rehydration reseeds.
func runSeed(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg)

	kv, blobs, cleanup, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	for _, key := range []string{kvstore.KeyUsers, kvstore.KeyVideos, kvstore.KeyConversations, kvstore.KeySession} {
		if err := kv.Delete(ctx, key); err != nil {
			return fmt.Errorf("clear %s snapshot: %w", key, err)
		}
	}

	core, err := state.Rehydrate(ctx, kv, blobs, logger)
	if err != nil {
		return err
	}
	if err := core.Close(ctx); err != nil {
		return err
	}

	fmt.Println("store reset to demo data")
	return nil
}

// runExport prints the logged-in user's profile export to stdout.
func runExport(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg)

	kv, blobs, cleanup, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	core, err := state.Rehydrate(ctx, kv, blobs, logger)
	if err != nil {
		return err
	}
	defer core.Close(ctx)

	export, err := core.Export()
	if err != nil {
		if errors.Is(err, state.ErrNoSession) {
			return errors.New("no logged-in user to export")
		}
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}

func newLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true, Level: level}))
}

// openStores selects the durable backends from configuration: Postgres
// when a database URL is set, the local filesystem otherwise; S3 when a
// bucket is set, the local filesystem otherwise.
func openStores(ctx context.Context, cfg config.Config) (kvstore.Store, storage.BlobStore, func(), error) {
	cleanup := func() {}

	var kv kvstore.Store
	if cfg.DatabaseURL != "" {
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		store := kvstore.NewPostgresStore(pool)
		if err := store.Init(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		kv = store
		cleanup = pool.Close
	} else {
		store, err := kvstore.NewFileStore(filepath.Join(cfg.DataDir, "state"))
		if err != nil {
			return nil, nil, nil, err
		}
		kv = store
	}

	var blobs storage.BlobStore
	if cfg.S3Bucket != "" {
		store, err := storage.NewS3Store(ctx, storage.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			KeyPrefix: cfg.S3KeyPrefix,
		})
		if err != nil {
			cleanup()
			return nil, nil, nil, err
		}
		blobs = store
	} else {
		store, err := storage.NewFSStore(filepath.Join(cfg.DataDir, "blobs"))
		if err != nil {
			cleanup()
			return nil, nil, nil, err
		}
		blobs = store
	}

	return kv, blobs, cleanup, nil
}

// Package main is the entry point for the Motion Video server, the REST
// backend for the Motion wellness app: user accounts with login streaks,
// profile storage, and the exercise video catalog with range streaming.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/vijaymanda323/motion-video/internal/auth"
	"github.com/vijaymanda323/motion-video/internal/cache/memory"
	cacheredis "github.com/vijaymanda323/motion-video/internal/cache/redis"
	"github.com/vijaymanda323/motion-video/internal/config"
	"github.com/vijaymanda323/motion-video/internal/handler"
	"github.com/vijaymanda323/motion-video/internal/lock"
	"github.com/vijaymanda323/motion-video/internal/metrics"
	"github.com/vijaymanda323/motion-video/internal/repository"
	"github.com/vijaymanda323/motion-video/internal/repository/postgres"
	"github.com/vijaymanda323/motion-video/internal/repository/sqlite"
	"github.com/vijaymanda323/motion-video/internal/service"
	"github.com/vijaymanda323/motion-video/internal/storage"
	"github.com/vijaymanda323/motion-video/internal/storage/filesystem"
	s3storage "github.com/vijaymanda323/motion-video/internal/storage/s3"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(*configPath)
	logger := newLogger(cfg.Logging)

	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Msg("starting motion video server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server exited with error")
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	repos, dbHealth, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer dbHealth.Close()

	blobs, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}

	var (
		cache  repository.Cache
		locker lock.Locker
	)
	if cfg.Redis.Enabled {
		client, err := cacheredis.NewClient(ctx, cfg.Redis, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer client.Close()

		cache = cacheredis.NewCache(client, logger)
		locker = lock.NewRedisLocker(client)
	} else {
		memCache := memory.NewCache()
		defer memCache.Stop()

		cache = memCache
		locker = lock.NewMemoryLocker()
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiration)
	m := metrics.New(prometheus.DefaultRegisterer)

	authService := service.NewAuthService(repos.User, locker, tokens, cfg.Auth.BcryptCost, logger)
	videoService := service.NewVideoService(repos.Video, repos.User, blobs, cache, cfg.Upload.MaxFileSize, logger)

	router := handler.NewRouter(handler.RouterConfig{
		UserHandler:    handler.NewUserHandler(authService, m, logger),
		VideoHandler:   handler.NewVideoHandler(videoService, m, cfg.Upload.MaxMemory, cfg.Upload.MaxFileSize, logger),
		AuthMiddleware: auth.OptionalMiddleware(tokens),
		RequireAuth:    auth.Middleware(tokens),
		DBHealth:       dbHealth,
		Metrics:        m,
		MetricsEnabled: cfg.Metrics.Enabled,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	return nil
}

func openDatabase(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (repository.Repositories, repository.DatabaseHealth, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			return repository.Repositories{}, nil, fmt.Errorf("failed to create database directory: %w", err)
		}

		sqliteCfg := sqlite.DefaultConfig(cfg.Database.Path)
		if cfg.Database.JournalMode != "" {
			sqliteCfg.JournalMode = cfg.Database.JournalMode
		}
		if cfg.Database.BusyTimeout > 0 {
			sqliteCfg.BusyTimeout = cfg.Database.BusyTimeout
		}
		if cfg.Database.SynchronousMode != "" {
			sqliteCfg.SynchronousMode = cfg.Database.SynchronousMode
		}

		db, err := sqlite.NewDB(ctx, sqliteCfg, logger)
		if err != nil {
			return repository.Repositories{}, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return repository.Repositories{}, nil, err
		}

		return repository.Repositories{
			User:  sqlite.NewUserRepository(db),
			Video: sqlite.NewVideoRepository(db),
		}, db, nil

	case "postgres":
		db, err := postgres.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			return repository.Repositories{}, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return repository.Repositories{}, nil, err
		}

		return repository.Repositories{
			User:  postgres.NewUserRepository(db.Pool),
			Video: postgres.NewVideoRepository(db.Pool),
		}, db, nil

	default:
		return repository.Repositories{}, nil, fmt.Errorf("unknown database driver: %s", cfg.Database.Driver)
	}
}

func openStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (storage.Backend, error) {
	switch cfg.Storage.Backend {
	case "filesystem":
		return filesystem.NewBackend(cfg.Storage.DataDir, logger)
	case "s3":
		return s3storage.NewBackend(ctx, cfg.Storage.S3, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}
}

func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	var logger zerolog.Logger
	if cfg.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stderr)
	}

	return logger.Level(level).With().Timestamp().Logger()
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"debt-planner/config"
	"debt-planner/database"
	httpLayer "debt-planner/http"
	"debt-planner/repository"
	"debt-planner/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("debt planner stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg.Env)
	slog.SetDefault(logger)

	ctx := context.Background()

	store, cache, cleanup, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s planner store: %w", cfg.Store.Backend, err)
	}
	defer cleanup()

	plannerService := service.NewPlannerService(store, cache)
	if err := plannerService.Load(ctx); err != nil {
		return err
	}

	advisorService := service.NewAdvisorService(cfg.Advisor)

	plannerHandler := httpLayer.NewPlannerHandler(plannerService, advisorService)
	exportHandler := httpLayer.NewExportHandler(plannerService)

	rateLimiter := httpLayer.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
	defer rateLimiter.Stop()

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      httpLayer.NewRouter(logger, rateLimiter, plannerHandler, exportHandler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("debt planner listening",
			slog.String("addr", server.Addr),
			slog.String("store", cfg.Store.Backend),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("start server: %w", err)
	case <-quit:
		logger.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", slog.String("error", err.Error()))
	}

	logger.Info("server exited")
	return nil
}

func newLogger(env string) *slog.Logger {
	if env == "local" {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// openStore builds the state store for the configured backend. The returned
// cache memoises simulations and is nil for the memory backend.
func openStore(ctx context.Context, cfg config.Config) (repository.StateStore, repository.CacheRepository, func(), error) {
	switch cfg.Store.Backend {
	case config.StoreRedis:
		stateCache, cache := redisCaches(cfg.Redis)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := cache.Ping(pingCtx); err != nil {
			_ = cache.Close()
			return nil, nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		closeCache := func() {
			if err := cache.Close(); err != nil {
				slog.Warn("failed to close redis", slog.String("error", err.Error()))
			}
		}
		return repository.NewKVStateStore(stateCache), cache, closeCache, nil

	case config.StorePostgres:
		pool, err := database.Open(ctx, cfg.Database)
		if err != nil {
			return nil, nil, nil, err
		}
		store := repository.NewPostgresStateStore(pool)
		if err := store.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		return store, repository.NewMemoryCache(), pool.Close, nil

	default:
		return repository.NewMemoryStateStore(), nil, func() {}, nil
	}
}

// redisCaches shares one client between the planner state, which never
// expires, and the simulation cache, which uses the configured TTL.
func redisCaches(cfg config.RedisConfig) (state, simulations *repository.RedisCache) {
	simulations = repository.NewRedisCache(cfg.Addr, cfg.Password, cfg.DB, cfg.TTL)
	return simulations.WithTTL(0), simulations
}

// Package main is the entry point for the orderflow API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"orderflow/internal/config"
	"orderflow/internal/domain/pipeline"
	v1 "orderflow/internal/infrastructure/http/v1"
	"orderflow/internal/infrastructure/backend"
	"orderflow/internal/infrastructure/cache"
	"orderflow/internal/infrastructure/http/v1/handlers"
	"orderflow/internal/infrastructure/metrics"
	"orderflow/internal/infrastructure/wire"
	"orderflow/pkg/logger"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.IsDevelopment(),
		Version:     version,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := logger.WithLogger(context.Background(), log)
	log.Infow("starting orderflow server", "version", version, "storage", cfg.Storage)

	recorder := metrics.New()
	checks := map[string]handlers.Check{}

	// --- Storage, numbering and catalog ---
	st, err := openStorage(ctx, cfg, recorder, checks)
	if err != nil {
		log.Fatalw("failed to open storage", "error", err)
	}
	defer st.close()

	opts := []pipeline.Option{pipeline.WithObserver(recorder)}
	if wh := st.defaultWarehouse; wh != nil {
		opts = append(opts, pipeline.WithDefaultWarehouse(*wh))
		log.Infow("default warehouse", "warehouse_id", wh.String())
	}
	if st.events != nil {
		opts = append(opts, pipeline.WithEventSink(st.events))
	}
	service := pipeline.NewService(st.stores, st.catalog, st.numbers, st.txManager, opts...)

	// --- Idempotency ---
	var idempotency cache.IdempotencyStore = cache.NewMemoryIdempotencyStore(cfg.IdempotencyTTL)
	if st.idempotency != nil {
		idempotency = st.idempotency
	}
	if cfg.RedisURL != "" {
		client, err := cache.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalw("failed to connect to redis", "error", err)
		}
		defer client.Close()
		idempotency = cache.NewRedisIdempotencyStore(client, cfg.IdempotencyTTL)
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		log.Info("redis idempotency store enabled")
	}

	// --- ERP backend ---
	normalizer := wire.NewNormalizer(cfg.CurrencyScale)
	var backendClient *backend.Client
	if cfg.BackendURL != "" {
		bc := backend.DefaultConfig(cfg.BackendURL)
		bc.Timeout = cfg.BackendTimeout
		backendClient = backend.New(bc, normalizer)
		log.Infow("backend proxy enabled", "url", cfg.BackendURL)
	}

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Service:     service,
		Logger:      log,
		Idempotency: idempotency,
		Metrics:     recorder,
		Backend:     backendClient,
		Normalizer:  normalizer,
		Health:      handlers.NewHealthHandler(version, cfg.Storage, checks),
		Debug:       cfg.IsDevelopment(),
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

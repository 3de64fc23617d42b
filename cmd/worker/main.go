// Package main is the entry point for the orderflow outbox worker. It relays
// document transitions committed to sys_outbox into a Redis stream.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"orderflow/internal/config"
	"orderflow/internal/infrastructure/cache"
	"orderflow/internal/infrastructure/storage/postgres"
	"orderflow/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.IsDevelopment(),
		Service:     "orderflow-worker",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if cfg.Storage != config.StoragePostgres || cfg.RedisURL == "" {
		log.Fatalw("worker needs postgres storage and a redis url",
			"storage", cfg.Storage)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx = logger.WithLogger(ctx, log)

	log.Info("starting orderflow outbox worker")

	pool, err := postgres.NewPool(ctx, poolConfig(cfg))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalw("failed to connect to redis", "error", err)
	}
	defer func() { _ = redisClient.Close() }()

	txm := postgres.NewTxManager(pool, postgres.WithStatementTimeout(cfg.DB.StatementTimeout))
	stream := cache.NewTransitionStream(redisClient, cfg.Outbox.Stream, cfg.Outbox.StreamMaxLen)
	relay := postgres.NewOutboxRelay(txm, cfg.Outbox.BatchSize, streamHandler(stream))
	keys := postgres.NewIdempotencyStore(txm, cfg.IdempotencyTTL)

	run(ctx, relay, keys, cfg.Outbox, log)
	log.Info("worker stopped")
}

// streamHandler publishes transition events; other event types are dropped.
func streamHandler(stream *cache.TransitionStream) postgres.OutboxHandler {
	return postgres.OutboxHandlerFunc(func(ctx context.Context, msg *postgres.OutboxMessage) error {
		if msg.EventType != postgres.EventTransitioned {
			logger.Warn(ctx, "skipping unknown outbox event", "event_type", msg.EventType, "id", msg.ID.String())
			return nil
		}
		t, err := msg.Transition()
		if err != nil {
			return err
		}
		_, err = stream.Publish(ctx, msg.ID.String(), t)
		return err
	})
}

func run(ctx context.Context, relay *postgres.OutboxRelay, keys *postgres.IdempotencyStore, cfg config.Outbox, log *logger.Logger) {
	log = log.WithComponent("outbox")

	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	cleanupTicker := time.NewTicker(time.Hour)
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// drain while full batches keep coming
			for {
				res, err := relay.ProcessBatch(ctx)
				if err != nil {
					if ctx.Err() == nil {
						log.Errorw("outbox batch failed", "error", err)
					}
					break
				}
				if res.Published+res.Failed > 0 {
					log.Debugw("outbox batch processed", "published", res.Published, "failed", res.Failed)
				}
				if res.Published+res.Failed < cfg.BatchSize {
					break
				}
			}
		case <-cleanupTicker.C:
			if n, err := relay.Cleanup(ctx, cfg.Retention); err != nil {
				log.Errorw("outbox cleanup failed", "error", err)
			} else if n > 0 {
				log.Infow("outbox cleaned up", "deleted", n)
			}
			if n, err := keys.CleanupExpired(ctx); err != nil {
				log.Errorw("idempotency cleanup failed", "error", err)
			} else if n > 0 {
				log.Infow("expired idempotency keys removed", "deleted", n)
			}
		}
	}
}

func poolConfig(cfg *config.Config) postgres.PoolConfig {
	pc := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	pc.ApplicationName = "orderflow-worker"
	pc.MaxConns = cfg.DB.MaxConns
	pc.MinConns = cfg.DB.MinConns
	return pc
}

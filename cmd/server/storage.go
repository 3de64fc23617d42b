package main

import (
	"context"
	"fmt"

	"orderflow/internal/config"
	"orderflow/internal/core/id"
	corenumerator "orderflow/internal/core/numerator"
	"orderflow/internal/core/tx"
	"orderflow/internal/domain/catalogs"
	"orderflow/internal/domain/pipeline"
	"orderflow/internal/infrastructure/cache"
	"orderflow/internal/infrastructure/http/v1/handlers"
	"orderflow/internal/infrastructure/metrics"
	"orderflow/internal/infrastructure/storage/memory"
	"orderflow/internal/infrastructure/storage/postgres"
	"orderflow/internal/infrastructure/storage/postgres/catalog_repo"
	"orderflow/pkg/logger"
	"orderflow/pkg/numerator"
)

// storage bundles what the pipeline service needs from the storage mode.
type storage struct {
	stores           pipeline.Stores
	txManager        tx.Manager
	numbers          corenumerator.Generator
	catalog          catalogs.Lookup
	defaultWarehouse *id.ID
	events           pipeline.EventSink
	idempotency      cache.IdempotencyStore
	close            func()
}

func openStorage(ctx context.Context, cfg *config.Config, recorder *metrics.Recorder, checks map[string]handlers.Check) (*storage, error) {
	if cfg.Storage == config.StoragePostgres {
		return openPostgres(ctx, cfg, recorder, checks)
	}
	return openMemory(ctx, cfg)
}

func openMemory(ctx context.Context, cfg *config.Config) (*storage, error) {
	catalog := catalogs.NewMemoryCatalog()
	if cfg.CatalogFile != "" {
		seed, err := catalogs.LoadSeedFile(cfg.CatalogFile)
		if err != nil {
			return nil, err
		}
		seed.Load(catalog)
		logger.Info(ctx, "catalog loaded",
			"file", cfg.CatalogFile,
			"items", len(seed.Items),
			"warehouses", len(seed.Warehouses))
	} else {
		logger.Warn(ctx, "memory catalog is empty, set ORDERFLOW_CATALOG_FILE")
	}

	stores, txm := memory.NewStores()
	st := &storage{
		stores:    stores,
		txManager: txm,
		numbers:   corenumerator.NewMemory(),
		catalog:   catalog,
		close:     func() {},
	}

	if wh := cfg.DefaultWarehouseID(); !id.IsNil(wh) {
		st.defaultWarehouse = &wh
	} else if wh, ok := catalog.DefaultWarehouse(); ok {
		st.defaultWarehouse = &wh.ID
	}
	return st, nil
}

func openPostgres(ctx context.Context, cfg *config.Config, recorder *metrics.Recorder, checks map[string]handlers.Check) (*storage, error) {
	if err := postgres.Migrate(ctx, cfg.DatabaseURL); err != nil {
		return nil, err
	}

	pool, err := postgres.NewPool(ctx, poolConfig(cfg))
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "database connection established")

	txm := postgres.NewTxManager(pool, postgres.WithStatementTimeout(cfg.DB.StatementTimeout))
	history, err := postgres.NewHistory(txm)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("create history: %w", err)
	}

	catalog := catalog_repo.New(txm)
	if cfg.CatalogFile != "" {
		seed, err := catalogs.LoadSeedFile(cfg.CatalogFile)
		if err != nil {
			pool.Close()
			return nil, err
		}
		if err := catalog.Import(ctx, seed); err != nil {
			pool.Close()
			return nil, fmt.Errorf("import catalog: %w", err)
		}
	}

	recorder.RegisterPool(func() metrics.PoolStats {
		s := pool.Stats()
		return metrics.PoolStats{Total: s.TotalConns, Acquired: s.AcquiredConns, Idle: s.IdleConns, Max: s.MaxConns}
	})
	checks["database"] = func(ctx context.Context) error { return pool.Ping(ctx) }

	// Cached number ranges are reserved on the pool, outside the change set.
	st := &storage{
		stores:      postgres.NewStores(txm, history),
		txManager:   txm,
		numbers:     numerator.New(txm, numerator.WithRangeQuerier(pool)),
		catalog:     catalog,
		events:      postgres.NewOutboxPublisher(txm),
		idempotency: postgres.NewIdempotencyStore(txm, cfg.IdempotencyTTL),
		close:       pool.Close,
	}

	if wh := cfg.DefaultWarehouseID(); !id.IsNil(wh) {
		st.defaultWarehouse = &wh
	} else {
		wh, ok, err := catalog.DefaultWarehouse(ctx)
		if err != nil {
			pool.Close()
			return nil, err
		}
		if ok {
			st.defaultWarehouse = &wh.ID
		}
	}
	return st, nil
}

func poolConfig(cfg *config.Config) postgres.PoolConfig {
	pc := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	pc.ApplicationName = "orderflow"
	pc.MaxConns = cfg.DB.MaxConns
	pc.MinConns = cfg.DB.MinConns
	return pc
}

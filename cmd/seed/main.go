// Package main provides a CLI tool that loads a catalog seed file into the
// database.
//
// Usage:
//
//	ORDERFLOW_DATABASE_URL=postgres://... seed catalog.json
package main

import (
	"context"
	"fmt"
	"os"

	"orderflow/internal/config"
	"orderflow/internal/domain/catalogs"
	"orderflow/internal/infrastructure/storage/postgres"
	"orderflow/internal/infrastructure/storage/postgres/catalog_repo"
	"orderflow/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := logger.WithLogger(context.Background(), log)

	if len(os.Args) != 2 {
		log.Fatal("usage: seed <catalog.json>")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("invalid configuration", "error", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("ORDERFLOW_DATABASE_URL environment variable is required")
	}

	seed, err := catalogs.LoadSeedFile(os.Args[1])
	if err != nil {
		log.Fatalw("failed to read catalog seed", "error", err)
	}

	if err := postgres.Migrate(ctx, cfg.DatabaseURL); err != nil {
		log.Fatalw("failed to migrate database", "error", err)
	}

	pool, err := postgres.NewPool(ctx, poolConfig(cfg))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	catalog := catalog_repo.New(postgres.NewTxManager(pool, postgres.WithStatementTimeout(cfg.DB.StatementTimeout)))
	if err := catalog.Import(ctx, seed); err != nil {
		log.Fatalw("failed to import catalog", "error", err)
	}

	log.Infow("seeding completed successfully",
		"items", len(seed.Items),
		"warehouses", len(seed.Warehouses),
		"suppliers", len(seed.Suppliers),
		"customers", len(seed.Customers),
	)
}

func poolConfig(cfg *config.Config) postgres.PoolConfig {
	pc := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	pc.ApplicationName = "orderflow-seed"
	pc.MaxConns = cfg.DB.MaxConns
	pc.MinConns = cfg.DB.MinConns
	return pc
}

package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jhoicas/taller-inventario/internal/domain/repository"
	"github.com/jhoicas/taller-inventario/internal/infrastructure/memory"
	"github.com/jhoicas/taller-inventario/internal/infrastructure/postgres"
	"github.com/jhoicas/taller-inventario/pkg/config"
)

// backend agrupa los puertos de almacenamiento del driver elegido.
type backend struct {
	tx         repository.TxRunner
	repos      repository.Repositories
	stockQuery repository.StockQueryRepository
	ping       func(ctx context.Context) error
	close      func()
}

func openBackend(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*backend, error) {
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		log.Warn().Msg("usando almacenamiento en memoria: los datos se pierden al reiniciar")
		store := memory.NewStore()
		return &backend{
			tx:         store,
			repos:      store.Repositories(),
			stockQuery: store.StockQuery(),
			ping:       func(context.Context) error { return nil },
			close:      func() {},
		}, nil

	case config.StoragePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		if cfg.DB.AutoMigrate {
			if err := postgres.Migrate(ctx, pool, log); err != nil {
				pool.Close()
				return nil, fmt.Errorf("migraciones: %w", err)
			}
		}
		return &backend{
			tx:         postgres.NewTxRunner(pool),
			repos:      postgres.NewRepositories(pool),
			stockQuery: postgres.NewStockQueryRepository(pool),
			ping:       pool.Ping,
			close:      pool.Close,
		}, nil
	}
	return nil, fmt.Errorf("driver de almacenamiento desconocido %q", cfg.Storage.Driver)
}

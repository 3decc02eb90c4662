package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/taller-inventario/internal/domain/repository"
)

// Querier es lo común entre *pgxpool.Pool y pgx.Tx; los repositorios sirven dentro y fuera de una transacción.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewRepositories construye todos los repositorios sobre el mismo Querier.
func NewRepositories(q Querier) repository.Repositories {
	return repository.Repositories{
		Products:   NewProductRepository(q),
		Warehouses: NewWarehouseRepository(q),
		Sections:   NewSectionRepository(q),
		Lots:       NewLotRepository(q),
		Stock:      NewStockRepository(q),
		Movements:  NewInventoryMovementRepository(q),
	}
}

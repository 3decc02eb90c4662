package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-inventario/internal/domain/entity"
)

// InventoryMovementRepository define el puerto de persistencia para movimientos.
// Solo inserta y consulta: los movimientos nunca se actualizan ni se eliminan.
type InventoryMovementRepository interface {
	Create(ctx context.Context, movement *entity.InventoryMovement) error
	GetByID(ctx context.Context, id string) (*entity.InventoryMovement, error)
	// ListByIdempotencyKey devuelve los movimientos registrados con esa clave (orden de inserción).
	ListByIdempotencyKey(ctx context.Context, key string) ([]*entity.InventoryMovement, error)
	List(ctx context.Context, filter entity.MovementFilter) ([]*entity.InventoryMovement, error)
	CountByLot(ctx context.Context, lotID string) (int, error)
	// SumByLot suma los deltas del producto agrupados por lote.
	SumByLot(ctx context.Context, productID string) (map[string]decimal.Decimal, error)
}

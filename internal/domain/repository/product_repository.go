package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-inventario/internal/domain/entity"
)

// ProductFilter filtra el listado del catálogo.
type ProductFilter struct {
	ActiveOnly bool
	Limit      int
	Offset     int
}

// ProductRepository define el puerto de persistencia para Product (DIP).
// Los métodos Get devuelven domain.ErrNotFound cuando el producto no existe.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetBySKU(ctx context.Context, sku string) (*entity.Product, error)
	// GetForUpdate bloquea la fila del producto (SELECT FOR UPDATE) para recalcular el costo.
	GetForUpdate(ctx context.Context, id string) (*entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	UpdateCost(ctx context.Context, productID string, cost decimal.Decimal) error
	List(ctx context.Context, filter ProductFilter) ([]*entity.Product, error)
}

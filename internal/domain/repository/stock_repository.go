package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-inventario/internal/domain/entity"
)

// StockRepository define el puerto para consultar/actualizar saldos por lote+producto.
// Usado dentro de transacciones para garantizar consistencia.
type StockRepository interface {
	// Get devuelve el saldo (cero si la fila no existe).
	Get(ctx context.Context, lotID, productID string) (*entity.LotStock, error)
	// GetForUpdate crea la fila en cero si no existe y la bloquea (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, lotID, productID string) (*entity.LotStock, error)
	SetQuantity(ctx context.Context, lotID, productID string, quantity decimal.Decimal) error
	// ProductTotal suma el saldo del producto en todos los lotes.
	ProductTotal(ctx context.Context, productID string) (decimal.Decimal, error)
	LotTotal(ctx context.Context, lotID string) (decimal.Decimal, error)
	SectionTotal(ctx context.Context, sectionID string) (decimal.Decimal, error)
	WarehouseTotal(ctx context.Context, warehouseID string) (decimal.Decimal, error)
	// DeleteEmptyByLot elimina las filas en cero de un lote antes de borrarlo.
	DeleteEmptyByLot(ctx context.Context, lotID string) error
}

// StockQueryRepository agrega el estado actual de los lotes para consultas (solo lectura).
type StockQueryRepository interface {
	// StockOnHand suma el saldo del producto en lotes activos.
	StockOnHand(ctx context.Context, productID string) (decimal.Decimal, error)
	// StockByLocation devuelve filas con cantidad > 0 ordenadas por bodega, sección y lote.
	StockByLocation(ctx context.Context, productID string) ([]entity.StockLocation, error)
	// ProductsWithStock devuelve los productos con cantidad > 0 en la bodega.
	ProductsWithStock(ctx context.Context, warehouseID string) ([]entity.ProductStock, error)
	// ProductLevels devuelve cada producto activo con su stock en lotes activos.
	ProductLevels(ctx context.Context) ([]entity.ProductStock, error)
	// LotBalances devuelve los saldos del producto por lote (incluye lotes inactivos).
	LotBalances(ctx context.Context, productID string) ([]entity.LotStock, error)
}

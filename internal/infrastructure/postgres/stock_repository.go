package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-inventario/internal/domain/entity"
	"github.com/jhoicas/taller-inventario/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre lot_stock (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de saldos. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// Get obtiene el saldo de un producto en un lote (cero si no hay fila).
func (r *StockRepo) Get(ctx context.Context, lotID, productID string) (*entity.LotStock, error) {
	var s entity.LotStock
	err := r.q.QueryRow(ctx, `
		SELECT lot_id, product_id, quantity, updated_at
		FROM lot_stock WHERE lot_id = $1 AND product_id = $2`, lotID, productID,
	).Scan(&s.LotID, &s.ProductID, &s.Quantity, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.LotStock{LotID: lotID, ProductID: productID, Quantity: decimal.Zero}, nil
		}
		return nil, mapError("get stock", err)
	}
	return &s, nil
}

// GetForUpdate asegura que la fila exista y la bloquea (SELECT FOR UPDATE) hasta el fin de la tx.
func (r *StockRepo) GetForUpdate(ctx context.Context, lotID, productID string) (*entity.LotStock, error) {
	if _, err := r.q.Exec(ctx, `
		INSERT INTO lot_stock (lot_id, product_id, quantity, updated_at)
		VALUES ($1, $2, 0, now())
		ON CONFLICT (lot_id, product_id) DO NOTHING`, lotID, productID); err != nil {
		return nil, mapInsertError("ensure stock row", err)
	}
	var s entity.LotStock
	err := r.q.QueryRow(ctx, `
		SELECT lot_id, product_id, quantity, updated_at
		FROM lot_stock WHERE lot_id = $1 AND product_id = $2
		FOR UPDATE`, lotID, productID,
	).Scan(&s.LotID, &s.ProductID, &s.Quantity, &s.UpdatedAt)
	if err != nil {
		return nil, mapError("get stock for update", err)
	}
	return &s, nil
}

// SetQuantity fija el saldo. El CHECK (quantity >= 0) rechaza saldos negativos.
func (r *StockRepo) SetQuantity(ctx context.Context, lotID, productID string, quantity decimal.Decimal) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO lot_stock (lot_id, product_id, quantity, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (lot_id, product_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = now()`, lotID, productID, quantity)
	return mapInsertError("set stock", err)
}

func (r *StockRepo) sum(ctx context.Context, op, query string, arg string) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := r.q.QueryRow(ctx, query, arg).Scan(&total); err != nil {
		return decimal.Zero, mapError(op, err)
	}
	return total, nil
}

func (r *StockRepo) ProductTotal(ctx context.Context, productID string) (decimal.Decimal, error) {
	return r.sum(ctx, "product stock total",
		`SELECT COALESCE(SUM(quantity), 0) FROM lot_stock WHERE product_id = $1`, productID)
}

func (r *StockRepo) LotTotal(ctx context.Context, lotID string) (decimal.Decimal, error) {
	return r.sum(ctx, "lot stock total",
		`SELECT COALESCE(SUM(quantity), 0) FROM lot_stock WHERE lot_id = $1`, lotID)
}

func (r *StockRepo) SectionTotal(ctx context.Context, sectionID string) (decimal.Decimal, error) {
	return r.sum(ctx, "section stock total", `
		SELECT COALESCE(SUM(ls.quantity), 0)
		FROM lot_stock ls JOIN lots l ON l.id = ls.lot_id
		WHERE l.section_id = $1`, sectionID)
}

func (r *StockRepo) WarehouseTotal(ctx context.Context, warehouseID string) (decimal.Decimal, error) {
	return r.sum(ctx, "warehouse stock total", `
		SELECT COALESCE(SUM(ls.quantity), 0)
		FROM lot_stock ls JOIN lots l ON l.id = ls.lot_id
		WHERE l.warehouse_id = $1`, warehouseID)
}

func (r *StockRepo) DeleteEmptyByLot(ctx context.Context, lotID string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM lot_stock WHERE lot_id = $1 AND quantity = 0`, lotID)
	return mapError("delete empty stock rows", err)
}

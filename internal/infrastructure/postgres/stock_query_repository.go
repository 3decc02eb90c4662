package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-inventario/internal/domain/entity"
	"github.com/jhoicas/taller-inventario/internal/domain/repository"
)

var _ repository.StockQueryRepository = (*StockQueryRepo)(nil)

// StockQueryRepo agregaciones de solo lectura sobre lot_stock. Corre sobre el pool, sin bloqueos.
type StockQueryRepo struct {
	q Querier
}

// NewStockQueryRepository construye el repositorio de consultas.
func NewStockQueryRepository(q Querier) *StockQueryRepo {
	return &StockQueryRepo{q: q}
}

func (r *StockQueryRepo) StockOnHand(ctx context.Context, productID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(ls.quantity), 0)
		FROM lot_stock ls JOIN lots l ON l.id = ls.lot_id
		WHERE ls.product_id = $1 AND l.active`, productID,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, mapError("stock on hand", err)
	}
	return total, nil
}

func (r *StockQueryRepo) StockByLocation(ctx context.Context, productID string) ([]entity.StockLocation, error) {
	rows, err := r.q.Query(ctx, `
		SELECT w.id, w.name, s.id, s.name, l.id, l.code, ls.quantity
		FROM lot_stock ls
		JOIN lots l ON l.id = ls.lot_id
		JOIN sections s ON s.id = l.section_id
		JOIN warehouses w ON w.id = l.warehouse_id
		WHERE ls.product_id = $1 AND ls.quantity > 0
		ORDER BY w.name, s.name, l.code`, productID)
	if err != nil {
		return nil, mapError("stock by location", err)
	}
	defer rows.Close()
	var out []entity.StockLocation
	for rows.Next() {
		var sl entity.StockLocation
		if err := rows.Scan(&sl.WarehouseID, &sl.WarehouseName, &sl.SectionID, &sl.SectionName,
			&sl.LotID, &sl.LotCode, &sl.Quantity); err != nil {
			return nil, fmt.Errorf("scan stock location: %w", err)
		}
		out = append(out, sl)
	}
	return out, rows.Err()
}

func (r *StockQueryRepo) ProductsWithStock(ctx context.Context, warehouseID string) ([]entity.ProductStock, error) {
	return collectProductStock(r.q.Query(ctx, `
		SELECT `+prefixed("p")+`, SUM(ls.quantity)
		FROM lot_stock ls
		JOIN lots l ON l.id = ls.lot_id
		JOIN products p ON p.id = ls.product_id
		WHERE l.warehouse_id = $1
		GROUP BY p.id
		HAVING SUM(ls.quantity) > 0
		ORDER BY p.sku`, warehouseID))
}

func (r *StockQueryRepo) ProductLevels(ctx context.Context) ([]entity.ProductStock, error) {
	return collectProductStock(r.q.Query(ctx, `
		SELECT `+prefixed("p")+`, COALESCE(SUM(ls.quantity) FILTER (WHERE l.active), 0)
		FROM products p
		LEFT JOIN lot_stock ls ON ls.product_id = p.id
		LEFT JOIN lots l ON l.id = ls.lot_id
		WHERE p.active
		GROUP BY p.id
		ORDER BY p.sku`))
}

func (r *StockQueryRepo) LotBalances(ctx context.Context, productID string) ([]entity.LotStock, error) {
	rows, err := r.q.Query(ctx, `
		SELECT lot_id::text, product_id::text, quantity, updated_at
		FROM lot_stock WHERE product_id = $1 ORDER BY lot_id::text`, productID)
	if err != nil {
		return nil, mapError("lot balances", err)
	}
	defer rows.Close()
	var out []entity.LotStock
	for rows.Next() {
		var ls entity.LotStock
		if err := rows.Scan(&ls.LotID, &ls.ProductID, &ls.Quantity, &ls.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan lot balance: %w", err)
		}
		out = append(out, ls)
	}
	return out, rows.Err()
}

func prefixed(alias string) string {
	return alias + ".id, " + alias + ".sku, " + alias + ".name, " + alias + ".description, " +
		alias + ".unit_measure, " + alias + ".price, " + alias + ".cost, " + alias + ".min_stock, " +
		alias + ".max_stock, " + alias + ".active, " + alias + ".created_at, " + alias + ".updated_at"
}

func collectProductStock(rows pgx.Rows, err error) ([]entity.ProductStock, error) {
	if err != nil {
		return nil, mapError("product stock", err)
	}
	defer rows.Close()
	var out []entity.ProductStock
	for rows.Next() {
		var ps entity.ProductStock
		p := &ps.Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.UnitMeasure, &p.Price, &p.Cost,
			&p.MinStock, &p.MaxStock, &p.Active, &p.CreatedAt, &p.UpdatedAt, &ps.Quantity); err != nil {
			return nil, fmt.Errorf("scan product stock: %w", err)
		}
		out = append(out, ps)
	}
	return out, rows.Err()
}

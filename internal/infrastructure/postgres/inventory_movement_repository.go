package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-inventario/internal/domain/entity"
	"github.com/jhoicas/taller-inventario/internal/domain/repository"
)

var _ repository.InventoryMovementRepository = (*InventoryMovementRepo)(nil)

const movementColumns = `id, COALESCE(transfer_id::text, ''), type, product_id, lot_id, warehouse_id,
	quantity, unit_cost, total_cost, reference, COALESCE(idempotency_key, ''), created_by, created_at`

// InventoryMovementRepo implementación del ledger append-only sobre inventory_movements.
type InventoryMovementRepo struct {
	q Querier
}

// NewInventoryMovementRepository construye el adaptador de movimientos.
func NewInventoryMovementRepository(q Querier) *InventoryMovementRepo {
	return &InventoryMovementRepo{q: q}
}

func scanMovement(row pgx.Row) (*entity.InventoryMovement, error) {
	var m entity.InventoryMovement
	err := row.Scan(&m.ID, &m.TransferID, &m.Type, &m.ProductID, &m.LotID, &m.WarehouseID,
		&m.Quantity, &m.UnitCost, &m.TotalCost, &m.Reference, &m.IdempotencyKey, &m.CreatedBy, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func collectMovements(rows pgx.Rows, err error) ([]*entity.InventoryMovement, error) {
	if err != nil {
		return nil, mapError("list movements", err)
	}
	defer rows.Close()
	var list []*entity.InventoryMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// Create agrega un movimiento. La clave de idempotencia es única por tipo.
func (r *InventoryMovementRepo) Create(ctx context.Context, m *entity.InventoryMovement) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO inventory_movements (id, transfer_id, type, product_id, lot_id, warehouse_id,
			quantity, unit_cost, total_cost, reference, idempotency_key, created_by, created_at)
		VALUES ($1, $2::uuid, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		m.ID, nullIfEmpty(m.TransferID), m.Type, m.ProductID, m.LotID, m.WarehouseID,
		m.Quantity, m.UnitCost, m.TotalCost, m.Reference, nullIfEmpty(m.IdempotencyKey), m.CreatedBy, m.CreatedAt,
	)
	return mapInsertError("insert movement", err)
}

func (r *InventoryMovementRepo) GetByID(ctx context.Context, id string) (*entity.InventoryMovement, error) {
	m, err := scanMovement(r.q.QueryRow(ctx, `SELECT `+movementColumns+` FROM inventory_movements WHERE id = $1`, id))
	if err != nil {
		return nil, mapError("get movement "+id, err)
	}
	return m, nil
}

func (r *InventoryMovementRepo) ListByIdempotencyKey(ctx context.Context, key string) ([]*entity.InventoryMovement, error) {
	return collectMovements(r.q.Query(ctx, `
		SELECT `+movementColumns+` FROM inventory_movements
		WHERE idempotency_key = $1 ORDER BY seq`, key))
}

// List devuelve movimientos filtrados, más recientes primero.
func (r *InventoryMovementRepo) List(ctx context.Context, f entity.MovementFilter) ([]*entity.InventoryMovement, error) {
	return collectMovements(r.q.Query(ctx, `
		SELECT `+movementColumns+` FROM inventory_movements
		WHERE ($1 = '' OR product_id::text = $1)
		  AND ($2 = '' OR lot_id::text = $2)
		  AND ($3 = '' OR warehouse_id::text = $3)
		  AND ($4 = '' OR reference = $4)
		  AND ($5::timestamptz IS NULL OR created_at >= $5)
		  AND ($6::timestamptz IS NULL OR created_at <= $6)
		ORDER BY seq DESC
		LIMIT NULLIF($7, 0) OFFSET $8`,
		f.ProductID, f.LotID, f.WarehouseID, f.Reference, f.From, f.To, f.Limit, f.Offset))
}

func (r *InventoryMovementRepo) CountByLot(ctx context.Context, lotID string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `SELECT count(*) FROM inventory_movements WHERE lot_id = $1`, lotID).Scan(&n)
	return n, mapError("count movements", err)
}

func (r *InventoryMovementRepo) SumByLot(ctx context.Context, productID string) (map[string]decimal.Decimal, error) {
	rows, err := r.q.Query(ctx, `
		SELECT lot_id::text, SUM(quantity) FROM inventory_movements
		WHERE product_id = $1 GROUP BY lot_id`, productID)
	if err != nil {
		return nil, mapError("sum movements by lot", err)
	}
	defer rows.Close()
	out := map[string]decimal.Decimal{}
	for rows.Next() {
		var lotID string
		var total decimal.Decimal
		if err := rows.Scan(&lotID, &total); err != nil {
			return nil, fmt.Errorf("scan movement sum: %w", err)
		}
		out[lotID] = total
	}
	return out, rows.Err()
}

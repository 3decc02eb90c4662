package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/taller-inventario/internal/domain/entity"
	"github.com/jhoicas/taller-inventario/internal/domain/repository"
)

var _ repository.WarehouseRepository = (*WarehouseRepo)(nil)

const warehouseColumns = `id, code, name, kind, address, created_at, updated_at`

// WarehouseRepo implementación de WarehouseRepository sobre PostgreSQL.
type WarehouseRepo struct {
	q Querier
}

// NewWarehouseRepository construye el adaptador de bodegas.
func NewWarehouseRepository(q Querier) *WarehouseRepo {
	return &WarehouseRepo{q: q}
}

func scanWarehouse(row pgx.Row) (*entity.Warehouse, error) {
	var w entity.Warehouse
	if err := row.Scan(&w.ID, &w.Code, &w.Name, &w.Kind, &w.Address, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	return &w, nil
}

// Create persiste una bodega.
func (r *WarehouseRepo) Create(ctx context.Context, w *entity.Warehouse) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO warehouses (`+warehouseColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		w.ID, w.Code, w.Name, w.Kind, w.Address, w.CreatedAt, w.UpdatedAt,
	)
	return mapInsertError("insert warehouse", err)
}

// GetByID obtiene una bodega por ID.
func (r *WarehouseRepo) GetByID(ctx context.Context, id string) (*entity.Warehouse, error) {
	w, err := scanWarehouse(r.q.QueryRow(ctx, `SELECT `+warehouseColumns+` FROM warehouses WHERE id = $1`, id))
	if err != nil {
		return nil, mapError("get warehouse "+id, err)
	}
	return w, nil
}

// GetByCode obtiene una bodega por código.
func (r *WarehouseRepo) GetByCode(ctx context.Context, code string) (*entity.Warehouse, error) {
	w, err := scanWarehouse(r.q.QueryRow(ctx, `SELECT `+warehouseColumns+` FROM warehouses WHERE code = $1`, code))
	if err != nil {
		return nil, mapError("get warehouse by code "+code, err)
	}
	return w, nil
}

// Update actualiza nombre, tipo y dirección.
func (r *WarehouseRepo) Update(ctx context.Context, w *entity.Warehouse) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE warehouses SET code = $2, name = $3, kind = $4, address = $5, updated_at = $6 WHERE id = $1`,
		w.ID, w.Code, w.Name, w.Kind, w.Address, w.UpdatedAt,
	)
	if err != nil {
		return mapError("update warehouse", err)
	}
	if cmd.RowsAffected() == 0 {
		return mapError("update warehouse "+w.ID, pgx.ErrNoRows)
	}
	return nil
}

// List lista bodegas ordenadas por nombre.
func (r *WarehouseRepo) List(ctx context.Context, limit, offset int) ([]*entity.Warehouse, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+warehouseColumns+` FROM warehouses ORDER BY name LIMIT NULLIF($1, 0) OFFSET $2`, limit, offset)
	if err != nil {
		return nil, mapError("list warehouses", err)
	}
	defer rows.Close()
	var list []*entity.Warehouse
	for rows.Next() {
		w, err := scanWarehouse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan warehouse: %w", err)
		}
		list = append(list, w)
	}
	return list, rows.Err()
}

// Delete elimina una bodega. Las secciones o lotes que la referencian lo impiden (23503).
func (r *WarehouseRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM warehouses WHERE id = $1`, id)
	if err != nil {
		return mapError("delete warehouse", err)
	}
	if cmd.RowsAffected() == 0 {
		return mapError("delete warehouse "+id, pgx.ErrNoRows)
	}
	return nil
}

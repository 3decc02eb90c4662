package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/taller-inventario/internal/domain/entity"
	"github.com/jhoicas/taller-inventario/internal/domain/repository"
)

var _ repository.LotRepository = (*LotRepo)(nil)

const lotColumns = `id, section_id, warehouse_id, code, active, created_at, updated_at`

// LotRepo implementación de LotRepository sobre PostgreSQL.
type LotRepo struct {
	q Querier
}

// NewLotRepository construye el adaptador de lotes.
func NewLotRepository(q Querier) *LotRepo {
	return &LotRepo{q: q}
}

func scanLot(row pgx.Row) (*entity.Lot, error) {
	var l entity.Lot
	if err := row.Scan(&l.ID, &l.SectionID, &l.WarehouseID, &l.Code, &l.Active, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *LotRepo) Create(ctx context.Context, l *entity.Lot) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO lots (`+lotColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		l.ID, l.SectionID, l.WarehouseID, l.Code, l.Active, l.CreatedAt, l.UpdatedAt,
	)
	return mapInsertError("insert lot", err)
}

func (r *LotRepo) GetByID(ctx context.Context, id string) (*entity.Lot, error) {
	l, err := scanLot(r.q.QueryRow(ctx, `SELECT `+lotColumns+` FROM lots WHERE id = $1`, id))
	if err != nil {
		return nil, mapError("get lot "+id, err)
	}
	return l, nil
}

// GetForShare impide que otra transacción desactive o borre el lote hasta el commit.
func (r *LotRepo) GetForShare(ctx context.Context, id string) (*entity.Lot, error) {
	l, err := scanLot(r.q.QueryRow(ctx, `SELECT `+lotColumns+` FROM lots WHERE id = $1 FOR SHARE`, id))
	if err != nil {
		return nil, mapError("get lot for share "+id, err)
	}
	return l, nil
}

func (r *LotRepo) GetForUpdate(ctx context.Context, id string) (*entity.Lot, error) {
	l, err := scanLot(r.q.QueryRow(ctx, `SELECT `+lotColumns+` FROM lots WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, mapError("get lot for update "+id, err)
	}
	return l, nil
}

func (r *LotRepo) GetByCode(ctx context.Context, sectionID, code string) (*entity.Lot, error) {
	l, err := scanLot(r.q.QueryRow(ctx,
		`SELECT `+lotColumns+` FROM lots WHERE section_id = $1 AND code = $2`, sectionID, code))
	if err != nil {
		return nil, mapError("get lot by code "+code, err)
	}
	return l, nil
}

func (r *LotRepo) Update(ctx context.Context, l *entity.Lot) error {
	cmd, err := r.q.Exec(ctx, `UPDATE lots SET code = $2, active = $3, updated_at = $4 WHERE id = $1`,
		l.ID, l.Code, l.Active, l.UpdatedAt)
	if err != nil {
		return mapError("update lot", err)
	}
	if cmd.RowsAffected() == 0 {
		return mapError("update lot "+l.ID, pgx.ErrNoRows)
	}
	return nil
}

func (r *LotRepo) ListBySection(ctx context.Context, sectionID string) ([]*entity.Lot, error) {
	rows, err := r.q.Query(ctx, `SELECT `+lotColumns+` FROM lots WHERE section_id = $1 ORDER BY code`, sectionID)
	if err != nil {
		return nil, mapError("list lots", err)
	}
	defer rows.Close()
	var list []*entity.Lot
	for rows.Next() {
		l, err := scanLot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lot: %w", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

func (r *LotRepo) CountBySection(ctx context.Context, sectionID string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `SELECT count(*) FROM lots WHERE section_id = $1`, sectionID).Scan(&n)
	return n, mapError("count lots", err)
}

// Delete elimina un lote. Saldos o movimientos que lo referencian lo impiden (23503).
func (r *LotRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM lots WHERE id = $1`, id)
	if err != nil {
		return mapError("delete lot", err)
	}
	if cmd.RowsAffected() == 0 {
		return mapError("delete lot "+id, pgx.ErrNoRows)
	}
	return nil
}

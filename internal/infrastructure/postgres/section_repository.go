package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/taller-inventario/internal/domain/entity"
	"github.com/jhoicas/taller-inventario/internal/domain/repository"
)

var _ repository.SectionRepository = (*SectionRepo)(nil)

const sectionColumns = `id, warehouse_id, code, name, allowed_brand, allowed_type, created_at, updated_at`

// SectionRepo implementación de SectionRepository sobre PostgreSQL.
type SectionRepo struct {
	q Querier
}

// NewSectionRepository construye el adaptador de secciones.
func NewSectionRepository(q Querier) *SectionRepo {
	return &SectionRepo{q: q}
}

func scanSection(row pgx.Row) (*entity.Section, error) {
	var s entity.Section
	if err := row.Scan(&s.ID, &s.WarehouseID, &s.Code, &s.Name, &s.AllowedBrand, &s.AllowedType,
		&s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SectionRepo) Create(ctx context.Context, s *entity.Section) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO sections (`+sectionColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		s.ID, s.WarehouseID, s.Code, s.Name, s.AllowedBrand, s.AllowedType, s.CreatedAt, s.UpdatedAt,
	)
	return mapInsertError("insert section", err)
}

func (r *SectionRepo) GetByID(ctx context.Context, id string) (*entity.Section, error) {
	s, err := scanSection(r.q.QueryRow(ctx, `SELECT `+sectionColumns+` FROM sections WHERE id = $1`, id))
	if err != nil {
		return nil, mapError("get section "+id, err)
	}
	return s, nil
}

func (r *SectionRepo) GetByCode(ctx context.Context, warehouseID, code string) (*entity.Section, error) {
	s, err := scanSection(r.q.QueryRow(ctx,
		`SELECT `+sectionColumns+` FROM sections WHERE warehouse_id = $1 AND code = $2`, warehouseID, code))
	if err != nil {
		return nil, mapError("get section by code "+code, err)
	}
	return s, nil
}

func (r *SectionRepo) Update(ctx context.Context, s *entity.Section) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE sections SET code = $2, name = $3, allowed_brand = $4, allowed_type = $5, updated_at = $6
		WHERE id = $1`,
		s.ID, s.Code, s.Name, s.AllowedBrand, s.AllowedType, s.UpdatedAt,
	)
	if err != nil {
		return mapError("update section", err)
	}
	if cmd.RowsAffected() == 0 {
		return mapError("update section "+s.ID, pgx.ErrNoRows)
	}
	return nil
}

func (r *SectionRepo) ListByWarehouse(ctx context.Context, warehouseID string) ([]*entity.Section, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+sectionColumns+` FROM sections WHERE warehouse_id = $1 ORDER BY name`, warehouseID)
	if err != nil {
		return nil, mapError("list sections", err)
	}
	defer rows.Close()
	var list []*entity.Section
	for rows.Next() {
		s, err := scanSection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func (r *SectionRepo) CountByWarehouse(ctx context.Context, warehouseID string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `SELECT count(*) FROM sections WHERE warehouse_id = $1`, warehouseID).Scan(&n)
	return n, mapError("count sections", err)
}

func (r *SectionRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM sections WHERE id = $1`, id)
	if err != nil {
		return mapError("delete section", err)
	}
	if cmd.RowsAffected() == 0 {
		return mapError("delete section "+id, pgx.ErrNoRows)
	}
	return nil
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-inventario/internal/domain/entity"
	"github.com/jhoicas/taller-inventario/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `id, sku, name, description, unit_measure, price, cost, min_stock, max_stock, active, created_at, updated_at`

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.UnitMeasure, &p.Price, &p.Cost,
		&p.MinStock, &p.MaxStock, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create persiste un nuevo producto. Cost inicia en 0.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID, p.SKU, p.Name, p.Description, p.UnitMeasure, p.Price, p.Cost,
		p.MinStock, p.MaxStock, p.Active, p.CreatedAt, p.UpdatedAt,
	)
	return mapInsertError("insert product", err)
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		return nil, mapError("get product "+id, err)
	}
	return p, nil
}

// GetBySKU obtiene un producto por SKU.
func (r *ProductRepo) GetBySKU(ctx context.Context, sku string) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE sku = $1`, sku))
	if err != nil {
		return nil, mapError("get product by sku "+sku, err)
	}
	return p, nil
}

// GetForUpdate obtiene el producto y bloquea la fila (SELECT FOR UPDATE) para recalcular el costo.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, mapError("get product for update "+id, err)
	}
	return p, nil
}

// Update actualiza un producto existente. No modifica Cost (se maneja vía movimientos).
func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE products SET sku = $2, name = $3, description = $4, unit_measure = $5, price = $6,
			min_stock = $7, max_stock = $8, active = $9, updated_at = $10
		WHERE id = $1`,
		p.ID, p.SKU, p.Name, p.Description, p.UnitMeasure, p.Price,
		p.MinStock, p.MaxStock, p.Active, p.UpdatedAt,
	)
	if err != nil {
		return mapError("update product", err)
	}
	if cmd.RowsAffected() == 0 {
		return mapError("update product "+p.ID, pgx.ErrNoRows)
	}
	return nil
}

// UpdateCost actualiza solo el costo del producto (usado por el motor de inventario).
func (r *ProductRepo) UpdateCost(ctx context.Context, productID string, cost decimal.Decimal) error {
	_, err := r.q.Exec(ctx, `UPDATE products SET cost = $2, updated_at = now() WHERE id = $1`, productID, cost)
	return mapError("update product cost", err)
}

// List lista productos ordenados por SKU.
func (r *ProductRepo) List(ctx context.Context, filter repository.ProductFilter) ([]*entity.Product, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE ($1::boolean = FALSE OR active)
		ORDER BY sku
		LIMIT NULLIF($2, 0) OFFSET $3`,
		filter.ActiveOnly, filter.Limit, filter.Offset,
	)
	if err != nil {
		return nil, mapError("list products", err)
	}
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-inventario/internal/application/dto"
	"github.com/jhoicas/taller-inventario/internal/domain"
	"github.com/jhoicas/taller-inventario/internal/domain/entity"
	"github.com/jhoicas/taller-inventario/internal/domain/repository"
)

// DefaultUnitMeasure unidad por defecto de los repuestos.
const DefaultUnitMeasure = "unidad"

// ProductUseCase casos de uso del catálogo. Cost y Stock se manejan vía movimientos.
type ProductUseCase struct {
	repo repository.ProductRepository
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository) *ProductUseCase {
	return &ProductUseCase{repo: repo}
}

// Create crea un nuevo producto activo. Cost inicia en 0.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	sku := strings.TrimSpace(in.SKU)
	if sku == "" || strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("sku y nombre requeridos: %w", domain.ErrInvalidInput)
	}
	if in.Price.IsNegative() {
		return nil, fmt.Errorf("precio negativo: %w", domain.ErrInvalidInput)
	}
	if err := validateThresholds(in.MinStock, in.MaxStock); err != nil {
		return nil, err
	}
	existing, err := uc.repo.GetBySKU(ctx, sku)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("sku %s: %w", sku, domain.ErrDuplicateKey)
	}
	if in.UnitMeasure == "" {
		in.UnitMeasure = DefaultUnitMeasure
	}
	now := time.Now()
	product := &entity.Product{
		ID:          uuid.NewString(),
		SKU:         sku,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		UnitMeasure: in.UnitMeasure,
		Price:       in.Price,
		Cost:        decimal.Zero,
		MinStock:    in.MinStock,
		MaxStock:    in.MaxStock,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// GetByID obtiene un producto por ID.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// GetBySKU obtiene un producto por SKU.
func (uc *ProductUseCase) GetBySKU(ctx context.Context, sku string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// Update actualiza un producto. No permite modificar Cost ni Stock (se manejan vía movimientos).
func (uc *ProductUseCase) Update(ctx context.Context, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, fmt.Errorf("nombre vacío: %w", domain.ErrInvalidInput)
		}
		product.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.UnitMeasure != nil {
		product.UnitMeasure = *in.UnitMeasure
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return nil, fmt.Errorf("precio negativo: %w", domain.ErrInvalidInput)
		}
		product.Price = *in.Price
	}
	if in.MinStock != nil {
		product.MinStock = *in.MinStock
	}
	if in.MaxStock != nil {
		product.MaxStock = *in.MaxStock
	}
	if in.Active != nil {
		product.Active = *in.Active
	}
	if err := validateThresholds(product.MinStock, product.MaxStock); err != nil {
		return nil, err
	}
	product.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// Deactivate retira el producto de los reportes de stock bajo. Su historial se conserva.
func (uc *ProductUseCase) Deactivate(ctx context.Context, id string) (*dto.ProductResponse, error) {
	inactive := false
	return uc.Update(ctx, id, dto.UpdateProductRequest{Active: &inactive})
}

// List lista productos con paginación.
func (uc *ProductUseCase) List(ctx context.Context, activeOnly bool, limit, offset int) (*dto.ProductListResponse, error) {
	list, err := uc.repo.List(ctx, repository.ProductFilter{ActiveOnly: activeOnly, Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

func validateThresholds(minStock, maxStock decimal.Decimal) error {
	if minStock.IsNegative() || maxStock.IsNegative() {
		return fmt.Errorf("umbrales negativos: %w", domain.ErrInvalidInput)
	}
	if maxStock.IsPositive() && maxStock.LessThan(minStock) {
		return fmt.Errorf("máximo %s menor que mínimo %s: %w", maxStock, minStock, domain.ErrInvalidInput)
	}
	return nil
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:          p.ID,
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		UnitMeasure: p.UnitMeasure,
		Price:       p.Price,
		Cost:        p.Cost,
		MinStock:    p.MinStock,
		MaxStock:    p.MaxStock,
		Active:      p.Active,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

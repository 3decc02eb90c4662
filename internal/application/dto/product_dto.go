package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto.
type CreateProductRequest struct {
	SKU         string          `json:"sku" validate:"required,min=1,max=100"`
	Name        string          `json:"name" validate:"required,min=1,max=200"`
	Description string          `json:"description"`
	UnitMeasure string          `json:"unit_measure"`
	Price       decimal.Decimal `json:"price"`
	MinStock    decimal.Decimal `json:"min_stock"`
	MaxStock    decimal.Decimal `json:"max_stock"`
}

// UpdateProductRequest entrada para actualizar un producto (sin Cost ni Stock).
type UpdateProductRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string          `json:"description"`
	UnitMeasure *string          `json:"unit_measure"`
	Price       *decimal.Decimal `json:"price"`
	MinStock    *decimal.Decimal `json:"min_stock"`
	MaxStock    *decimal.Decimal `json:"max_stock"`
	Active      *bool            `json:"active"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID          string          `json:"id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	UnitMeasure string          `json:"unit_measure"`
	Price       decimal.Decimal `json:"price"`
	Cost        decimal.Decimal `json:"cost"`
	MinStock    decimal.Decimal `json:"min_stock"`
	MaxStock    decimal.Decimal `json:"max_stock"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

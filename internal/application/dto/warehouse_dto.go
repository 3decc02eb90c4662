package dto

import "time"

// CreateWarehouseRequest entrada para crear una bodega.
type CreateWarehouseRequest struct {
	Code    string `json:"code" validate:"required,min=1,max=50"`
	Name    string `json:"name" validate:"required,min=1,max=200"`
	Kind    string `json:"kind" validate:"omitempty,oneof=principal branch depot in_transit"`
	Address string `json:"address"`
}

// UpdateWarehouseRequest entrada para actualizar una bodega.
type UpdateWarehouseRequest struct {
	Name    *string `json:"name" validate:"omitempty,min=1,max=200"`
	Kind    *string `json:"kind"`
	Address *string `json:"address"`
}

// WarehouseResponse salida de una bodega.
type WarehouseResponse struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WarehouseListResponse lista paginada de bodegas.
type WarehouseListResponse struct {
	Items []WarehouseResponse `json:"items"`
	Page  PageResponse        `json:"page"`
}

// CreateSectionRequest entrada para crear una sección dentro de una bodega.
type CreateSectionRequest struct {
	WarehouseID  string `json:"warehouse_id" validate:"required"`
	Code         string `json:"code" validate:"required,min=1,max=50"`
	Name         string `json:"name" validate:"required,min=1,max=200"`
	AllowedBrand string `json:"allowed_brand"`
	AllowedType  string `json:"allowed_type"`
}

// UpdateSectionRequest entrada para actualizar una sección.
type UpdateSectionRequest struct {
	Name         *string `json:"name"`
	AllowedBrand *string `json:"allowed_brand"`
	AllowedType  *string `json:"allowed_type"`
}

// SectionResponse salida de una sección.
type SectionResponse struct {
	ID           string    `json:"id"`
	WarehouseID  string    `json:"warehouse_id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	AllowedBrand string    `json:"allowed_brand,omitempty"`
	AllowedType  string    `json:"allowed_type,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateLotRequest entrada para crear un lote dentro de una sección.
type CreateLotRequest struct {
	SectionID string `json:"section_id" validate:"required"`
	Code      string `json:"code" validate:"required,min=1,max=50"`
}

// UpdateLotRequest entrada para renombrar un lote.
type UpdateLotRequest struct {
	Code *string `json:"code"`
}

// LotResponse salida de un lote.
type LotResponse struct {
	ID          string    `json:"id"`
	SectionID   string    `json:"section_id"`
	WarehouseID string    `json:"warehouse_id"`
	Code        string    `json:"code"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

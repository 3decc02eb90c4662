package entity

import "time"

// Lot es la unidad mínima de almacenamiento. WarehouseID se desnormaliza desde la sección.
type Lot struct {
	ID          string
	SectionID   string
	WarehouseID string
	Code        string // único dentro de la sección
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

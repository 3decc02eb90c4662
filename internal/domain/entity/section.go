package entity

import "time"

// Section agrupa lotes dentro de una bodega. Code es único dentro de la bodega.
// AllowedBrand y AllowedType son informativos; el ledger no los valida.
type Section struct {
	ID           string
	WarehouseID  string
	Code         string
	Name         string
	AllowedBrand string
	AllowedType  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

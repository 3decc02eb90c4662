package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de inventario.
const (
	MovementTypeReceipt     = "receipt"
	MovementTypeConsumption = "consumption"
	MovementTypeTransferOut = "transfer_out"
	MovementTypeTransferIn  = "transfer_in"
	MovementTypeAdjustment  = "adjustment"
)

// InventoryMovement es un registro inmutable del ledger. Quantity es el delta con signo.
// Las dos patas de un traslado comparten Reference y TransferID.
type InventoryMovement struct {
	ID             string
	TransferID     string
	Type           string
	ProductID      string
	LotID          string
	WarehouseID    string
	Quantity       decimal.Decimal
	UnitCost       decimal.Decimal
	TotalCost      decimal.Decimal
	Reference      string
	IdempotencyKey string
	CreatedBy      string
	CreatedAt      time.Time
}

// MovementFilter filtra el historial de movimientos. Campos vacíos no filtran.
type MovementFilter struct {
	ProductID   string
	LotID       string
	WarehouseID string
	Reference   string
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}

// Matches evalúa el filtro en memoria (sin paginación).
func (f MovementFilter) Matches(m *InventoryMovement) bool {
	if f.ProductID != "" && m.ProductID != f.ProductID {
		return false
	}
	if f.LotID != "" && m.LotID != f.LotID {
		return false
	}
	if f.WarehouseID != "" && m.WarehouseID != f.WarehouseID {
		return false
	}
	if f.Reference != "" && m.Reference != f.Reference {
		return false
	}
	if f.From != nil && m.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && m.CreatedAt.After(*f.To) {
		return false
	}
	return true
}

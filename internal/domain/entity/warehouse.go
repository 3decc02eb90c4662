package entity

import "time"

// Tipos de bodega.
const (
	WarehouseKindPrincipal = "principal"
	WarehouseKindBranch    = "branch"
	WarehouseKindDepot     = "depot"
	WarehouseKindInTransit = "in_transit"
)

// Warehouse representa una bodega o sucursal física. Code es único globalmente.
type Warehouse struct {
	ID        string
	Code      string
	Name      string
	Kind      string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidWarehouseKind valida el tipo de bodega.
func ValidWarehouseKind(kind string) bool {
	switch kind {
	case WarehouseKindPrincipal, WarehouseKindBranch, WarehouseKindDepot, WarehouseKindInTransit:
		return true
	}
	return false
}

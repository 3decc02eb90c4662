package repository

import (
	"context"

	"github.com/jhoicas/taller-inventario/internal/domain/entity"
)

// WarehouseRepository define el puerto de persistencia para Warehouse (DIP).
type WarehouseRepository interface {
	Create(ctx context.Context, warehouse *entity.Warehouse) error
	GetByID(ctx context.Context, id string) (*entity.Warehouse, error)
	GetByCode(ctx context.Context, code string) (*entity.Warehouse, error)
	Update(ctx context.Context, warehouse *entity.Warehouse) error
	List(ctx context.Context, limit, offset int) ([]*entity.Warehouse, error)
	Delete(ctx context.Context, id string) error
}

// SectionRepository define el puerto de persistencia para Section.
type SectionRepository interface {
	Create(ctx context.Context, section *entity.Section) error
	GetByID(ctx context.Context, id string) (*entity.Section, error)
	GetByCode(ctx context.Context, warehouseID, code string) (*entity.Section, error)
	Update(ctx context.Context, section *entity.Section) error
	ListByWarehouse(ctx context.Context, warehouseID string) ([]*entity.Section, error)
	CountByWarehouse(ctx context.Context, warehouseID string) (int, error)
	Delete(ctx context.Context, id string) error
}

// LotRepository define el puerto de persistencia para Lot.
type LotRepository interface {
	Create(ctx context.Context, lot *entity.Lot) error
	GetByID(ctx context.Context, id string) (*entity.Lot, error)
	// GetForShare lee el lote con bloqueo compartido (FOR SHARE) antes de escribir saldos en él.
	GetForShare(ctx context.Context, id string) (*entity.Lot, error)
	// GetForUpdate bloquea el lote (FOR UPDATE) antes de desactivarlo o borrarlo.
	GetForUpdate(ctx context.Context, id string) (*entity.Lot, error)
	GetByCode(ctx context.Context, sectionID, code string) (*entity.Lot, error)
	Update(ctx context.Context, lot *entity.Lot) error
	ListBySection(ctx context.Context, sectionID string) ([]*entity.Lot, error)
	CountBySection(ctx context.Context, sectionID string) (int, error)
	Delete(ctx context.Context, id string) error
}

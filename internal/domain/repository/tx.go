package repository

import "context"

// Repositories agrupa los repositorios atados a una misma transacción.
type Repositories struct {
	Products   ProductRepository
	Warehouses WarehouseRepository
	Sections   SectionRepository
	Lots       LotRepository
	Stock      StockRepository
	Movements  InventoryMovementRepository
}

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback; si no, Commit.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos Repositories) error) error
}

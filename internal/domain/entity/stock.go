package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// LotStock es el saldo de un producto en un lote. Quantity nunca es negativa.
type LotStock struct {
	LotID     string
	ProductID string
	Quantity  decimal.Decimal
	UpdatedAt time.Time
}

// StockLocation es una fila de stockByLocation.
type StockLocation struct {
	WarehouseID   string
	WarehouseName string
	SectionID     string
	SectionName   string
	LotID         string
	LotCode       string
	Quantity      decimal.Decimal
}

// ProductStock asocia un producto con una cantidad agregada.
type ProductStock struct {
	Product  Product
	Quantity decimal.Decimal
}

// LotDiscrepancy reporta un lote cuyo saldo no coincide con la suma de sus movimientos.
type LotDiscrepancy struct {
	LotID         string
	Balance       decimal.Decimal
	MovementTotal decimal.Decimal
}

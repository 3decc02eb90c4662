package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReceiveRequest body para POST /api/inventory/receipts.
type ReceiveRequest struct {
	ProductID      string          `json:"product_id"`
	LotID          string          `json:"lot_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	Reference      string          `json:"reference"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
}

// ConsumeRequest body para POST /api/inventory/consumptions.
type ConsumeRequest struct {
	ProductID      string          `json:"product_id"`
	LotID          string          `json:"lot_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	Reference      string          `json:"reference"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
}

// TransferRequest body para POST /api/inventory/transfers.
type TransferRequest struct {
	ProductID        string          `json:"product_id"`
	OriginLotID      string          `json:"origin_lot_id"`
	DestinationLotID string          `json:"destination_lot_id"`
	Quantity         decimal.Decimal `json:"quantity"`
	Reference        string          `json:"reference,omitempty"`
	IdempotencyKey   string          `json:"idempotency_key,omitempty"`
}

// AdjustRequest body para POST /api/inventory/adjustments. Delta con signo.
type AdjustRequest struct {
	ProductID      string           `json:"product_id"`
	LotID          string           `json:"lot_id"`
	Delta          decimal.Decimal  `json:"delta"`
	UnitCost       *decimal.Decimal `json:"unit_cost,omitempty"`
	Reference      string           `json:"reference"`
	IdempotencyKey string           `json:"idempotency_key,omitempty"`
}

// MovementResponse salida de un movimiento del ledger.
type MovementResponse struct {
	ID          string          `json:"id"`
	TransferID  string          `json:"transfer_id,omitempty"`
	Type        string          `json:"type"`
	ProductID   string          `json:"product_id"`
	LotID       string          `json:"lot_id"`
	WarehouseID string          `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	TotalCost   decimal.Decimal `json:"total_cost"`
	Reference   string          `json:"reference"`
	CreatedBy   string          `json:"created_by,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// TransferResponse las dos patas de un traslado.
type TransferResponse struct {
	Reference string           `json:"reference"`
	Out       MovementResponse `json:"out"`
	In        MovementResponse `json:"in"`
}

// StockOnHandResponse total de un producto en lotes activos.
type StockOnHandResponse struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// StockLocationResponse una fila de stock por ubicación.
type StockLocationResponse struct {
	WarehouseID   string          `json:"warehouse_id"`
	WarehouseName string          `json:"warehouse_name"`
	SectionID     string          `json:"section_id"`
	SectionName   string          `json:"section_name"`
	LotID         string          `json:"lot_id"`
	LotCode       string          `json:"lot_code"`
	Quantity      decimal.Decimal `json:"quantity"`
}

// ProductStockResponse producto con su cantidad agregada.
type ProductStockResponse struct {
	ProductID string          `json:"product_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	MinStock  decimal.Decimal `json:"min_stock"`
	MaxStock  decimal.Decimal `json:"max_stock"`
}

// LotDiscrepancyResponse lote cuyo saldo no cuadra con sus movimientos.
type LotDiscrepancyResponse struct {
	LotID         string          `json:"lot_id"`
	Balance       decimal.Decimal `json:"balance"`
	MovementTotal decimal.Decimal `json:"movement_total"`
}

// ReplenishmentSuggestionDTO sugerencia de reposición para un SKU en stock bajo.
type ReplenishmentSuggestionDTO struct {
	ProductID          string          `json:"product_id"`
	SKU                string          `json:"sku"`
	ProductName        string          `json:"product_name"`
	CurrentStock       decimal.Decimal `json:"current_stock"`
	MinStock           decimal.Decimal `json:"min_stock"`
	TargetStock        decimal.Decimal `json:"target_stock"`
	SuggestedOrderQty  decimal.Decimal `json:"suggested_order_qty"`
	UnitCost           decimal.Decimal `json:"unit_cost"`
	EstimatedOrderCost decimal.Decimal `json:"estimated_order_cost"`
	ConsumedLast90Days decimal.Decimal `json:"consumed_last_90d"`
	Priority           int             `json:"priority"`
}

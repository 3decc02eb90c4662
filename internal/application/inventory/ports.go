package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// StockChanged se emite después de confirmar cada movimiento, una vez por lote afectado.
type StockChanged struct {
	MovementID   string          `json:"movement_id"`
	MovementType string          `json:"movement_type"`
	ProductID    string          `json:"product_id"`
	LotID        string          `json:"lot_id"`
	WarehouseID  string          `json:"warehouse_id"`
	Delta        decimal.Decimal `json:"delta"`
	Balance      decimal.Decimal `json:"balance"`
	Reference    string          `json:"reference"`
	OccurredAt   time.Time       `json:"occurred_at"`
}

// StockNotifier recibe las notificaciones de cambio de stock (bus en proceso, Redis, etc.).
// Un error no revierte el movimiento: el motor solo lo registra.
type StockNotifier interface {
	NotifyStockChanged(ctx context.Context, events []StockChanged) error
}

// NopNotifier descarta las notificaciones.
type NopNotifier struct{}

// NotifyStockChanged implementa StockNotifier.
func (NopNotifier) NotifyStockChanged(context.Context, []StockChanged) error { return nil }

// TransferSlipRenderer genera el comprobante imprimible de un traslado.
type TransferSlipRenderer interface {
	RenderTransferSlip(slip TransferSlip) ([]byte, error)
}

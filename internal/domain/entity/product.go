package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un repuesto o SKU del catálogo del taller.
// Cost es el promedio ponderado que mantiene el motor de movimientos; el catálogo no lo modifica.
type Product struct {
	ID          string
	SKU         string // único en el catálogo
	Name        string
	Description string
	UnitMeasure string
	Price       decimal.Decimal // precio de lista
	Cost        decimal.Decimal // costo promedio ponderado (inicia en 0)
	MinStock    decimal.Decimal // umbral de stock bajo
	MaxStock    decimal.Decimal // 0 = sin máximo
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsLow indica si el stock total está en o por debajo del mínimo.
func (p *Product) IsLow(onHand decimal.Decimal) bool {
	return onHand.LessThanOrEqual(p.MinStock)
}

// IsOver indica si el stock total supera el máximo configurado.
func (p *Product) IsOver(onHand decimal.Decimal) bool {
	return p.MaxStock.IsPositive() && onHand.GreaterThan(p.MaxStock)
}

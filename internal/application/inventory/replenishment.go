package inventory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-inventario/internal/domain/entity"
)

// ReplenishmentSuggestion sugerencia de reposición para un producto en stock bajo.
type ReplenishmentSuggestion struct {
	Product            entity.Product
	CurrentStock       decimal.Decimal
	TargetStock        decimal.Decimal // MaxStock, o MinStock * 1.5 si no hay máximo
	SuggestedOrderQty  decimal.Decimal
	EstimatedOrderCost decimal.Decimal
	ConsumedLast90Days decimal.Decimal
	Priority           int // 1 = más urgente
}

var replenishmentFactor = decimal.NewFromFloat(1.5)

// ReplenishmentList parte de LowStock y sugiere cuánto pedir, priorizando por consumo reciente
// y luego por déficit absoluto.
func (s *StockQueryService) ReplenishmentList(ctx context.Context) ([]ReplenishmentSuggestion, error) {
	low, err := s.LowStock(ctx)
	if err != nil {
		return nil, err
	}
	from := time.Now().AddDate(0, 0, -90)
	out := make([]ReplenishmentSuggestion, 0, len(low))
	for _, l := range low {
		target := l.Product.MaxStock
		if !target.IsPositive() {
			target = l.Product.MinStock.Mul(replenishmentFactor)
		}
		qty := target.Sub(l.Quantity)
		if qty.IsNegative() {
			qty = decimal.Zero
		}
		consumed, err := s.consumedSince(ctx, l.Product.ID, from)
		if err != nil {
			return nil, err
		}
		out = append(out, ReplenishmentSuggestion{
			Product:            l.Product,
			CurrentStock:       l.Quantity,
			TargetStock:        target,
			SuggestedOrderQty:  qty,
			EstimatedOrderCost: qty.Mul(l.Product.Cost).Round(2),
			ConsumedLast90Days: consumed,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.ConsumedLast90Days.Equal(b.ConsumedLast90Days) {
			return a.ConsumedLast90Days.GreaterThan(b.ConsumedLast90Days)
		}
		return a.SuggestedOrderQty.GreaterThan(b.SuggestedOrderQty)
	})
	for i := range out {
		out[i].Priority = i + 1
	}
	return out, nil
}

func (s *StockQueryService) consumedSince(ctx context.Context, productID string, from time.Time) (decimal.Decimal, error) {
	list, err := s.movements.List(ctx, entity.MovementFilter{ProductID: productID, From: &from})
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, m := range list {
		if m.Type == entity.MovementTypeConsumption {
			total = total.Sub(m.Quantity)
		}
	}
	return total, nil
}

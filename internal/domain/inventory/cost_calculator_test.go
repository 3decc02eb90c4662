package inventory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/taller-inventario/internal/domain/inventory"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCostCalculator(t *testing.T) {
	tests := []struct {
		name                              string
		stock, cost, entrada, costoEntrada string
		want                              string
	}{
		{"sin stock previo toma el costo de entrada", "0", "0", "10", "12.5", "12.5"},
		{"promedio ponderado", "10", "100", "10", "200", "150"},
		{"pesos distintos", "30", "10", "10", "20", "12.5"},
		{"redondeo a cuatro decimales", "3", "1", "3", "2", "1.5"},
		{"tercios", "2", "1", "1", "2", "1.3333"},
		{"entrada no positiva conserva el costo", "5", "7", "0", "99", "7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := inventory.CostCalculator(d(tt.stock), d(tt.cost), d(tt.entrada), d(tt.costoEntrada))
			assert.True(t, got.Equal(d(tt.want)), "esperado %s, obtenido %s", tt.want, got)
		})
	}
}

func TestValuation(t *testing.T) {
	assert.True(t, inventory.Valuation(d("-4"), d("2.12345")).Equal(d("-8.4938")))
}

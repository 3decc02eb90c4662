package inventory

import "github.com/shopspring/decimal"

// CostScale es la cantidad de decimales con que se guarda el costo promedio (NUMERIC(18,4)).
const CostScale = 4

// CostCalculator implementa el costo promedio ponderado móvil sobre el stock global del producto.
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
// Si el stock previo es cero o negativo el costo de la entrada reemplaza al anterior.
func CostCalculator(stockActual, costoActual, cantEntrada, costoEntrada decimal.Decimal) decimal.Decimal {
	if !cantEntrada.IsPositive() {
		return costoActual
	}
	if !stockActual.IsPositive() {
		return costoEntrada.Round(CostScale)
	}
	sum := stockActual.Add(cantEntrada)
	num := stockActual.Mul(costoActual).Add(cantEntrada.Mul(costoEntrada))
	return num.DivRound(sum, CostScale)
}

// Valuation devuelve cantidad * costo unitario redondeado a la escala de costo.
func Valuation(quantity, unitCost decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitCost).Round(CostScale)
}

package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-inventario/internal/domain/entity"
	"github.com/jhoicas/taller-inventario/internal/domain/repository"
)

var _ repository.StockQueryRepository = (*stockQueryRepo)(nil)

type stockQueryRepo struct{ tx txView }

func (r *stockQueryRepo) StockOnHand(_ context.Context, productID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.tx.read(func(st *state) error {
		total = sumStock(st, func(k stockKey, _ entity.LotStock) bool {
			return k.productID == productID && st.lots[k.lotID].Active
		})
		return nil
	})
	return total, err
}

func (r *stockQueryRepo) StockByLocation(_ context.Context, productID string) ([]entity.StockLocation, error) {
	var rows []entity.StockLocation
	err := r.tx.read(func(st *state) error {
		for k, ls := range st.stock {
			if k.productID != productID || !ls.Quantity.IsPositive() {
				continue
			}
			lot := st.lots[k.lotID]
			sec := st.sections[lot.SectionID]
			wh := st.warehouses[lot.WarehouseID]
			rows = append(rows, entity.StockLocation{
				WarehouseID:   wh.ID,
				WarehouseName: wh.Name,
				SectionID:     sec.ID,
				SectionName:   sec.Name,
				LotID:         lot.ID,
				LotCode:       lot.Code,
				Quantity:      ls.Quantity,
			})
		}
		return nil
	})
	slices.SortFunc(rows, func(a, b entity.StockLocation) int {
		return cmp.Or(
			strings.Compare(a.WarehouseName, b.WarehouseName),
			strings.Compare(a.SectionName, b.SectionName),
			strings.Compare(a.LotCode, b.LotCode),
		)
	})
	return rows, err
}

func (r *stockQueryRepo) ProductsWithStock(_ context.Context, warehouseID string) ([]entity.ProductStock, error) {
	totals := map[string]decimal.Decimal{}
	var out []entity.ProductStock
	err := r.tx.read(func(st *state) error {
		for k, ls := range st.stock {
			if st.lots[k.lotID].WarehouseID == warehouseID {
				totals[k.productID] = totals[k.productID].Add(ls.Quantity)
			}
		}
		for id, qty := range totals {
			if qty.IsPositive() {
				out = append(out, entity.ProductStock{Product: st.products[id], Quantity: qty})
			}
		}
		return nil
	})
	sortBySKU(out)
	return out, err
}

func (r *stockQueryRepo) ProductLevels(_ context.Context) ([]entity.ProductStock, error) {
	var out []entity.ProductStock
	err := r.tx.read(func(st *state) error {
		totals := map[string]decimal.Decimal{}
		for k, ls := range st.stock {
			if st.lots[k.lotID].Active {
				totals[k.productID] = totals[k.productID].Add(ls.Quantity)
			}
		}
		for id, p := range st.products {
			if p.Active {
				out = append(out, entity.ProductStock{Product: p, Quantity: totals[id]})
			}
		}
		return nil
	})
	sortBySKU(out)
	return out, err
}

func (r *stockQueryRepo) LotBalances(_ context.Context, productID string) ([]entity.LotStock, error) {
	var out []entity.LotStock
	err := r.tx.read(func(st *state) error {
		for k, ls := range st.stock {
			if k.productID == productID {
				out = append(out, ls)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b entity.LotStock) int { return strings.Compare(a.LotID, b.LotID) })
	return out, err
}

func sortBySKU(list []entity.ProductStock) {
	slices.SortFunc(list, func(a, b entity.ProductStock) int { return strings.Compare(a.Product.SKU, b.Product.SKU) })
}

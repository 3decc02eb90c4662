package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-inventario/internal/domain"
	"github.com/jhoicas/taller-inventario/internal/domain/entity"
	"github.com/jhoicas/taller-inventario/internal/domain/repository"
)

var (
	_ repository.ProductRepository           = (*productRepo)(nil)
	_ repository.WarehouseRepository         = (*warehouseRepo)(nil)
	_ repository.SectionRepository           = (*sectionRepo)(nil)
	_ repository.LotRepository               = (*lotRepo)(nil)
	_ repository.StockRepository             = (*stockRepo)(nil)
	_ repository.InventoryMovementRepository = (*movementRepo)(nil)
)

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)
}

func paginate[T any](list []T, limit, offset int) []T {
	if offset > len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}

// ── productos ────────────────────────────────────────────────────────────────

type productRepo struct{ tx txView }

func (r *productRepo) Create(ctx context.Context, p *entity.Product) error {
	return r.tx.write(ctx, "products.create", func(st *state) error {
		for _, other := range st.products {
			if other.SKU == p.SKU {
				return fmt.Errorf("sku %s: %w", p.SKU, domain.ErrDuplicateKey)
			}
		}
		st.products[p.ID] = *p
		return nil
	})
}

func (r *productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	err := r.tx.read(func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return notFound("producto", id)
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *productRepo) GetBySKU(_ context.Context, sku string) (*entity.Product, error) {
	var out *entity.Product
	err := r.tx.read(func(st *state) error {
		for _, p := range st.products {
			if p.SKU == sku {
				out = &p
				return nil
			}
		}
		return notFound("producto", sku)
	})
	return out, err
}

// GetForUpdate no necesita bloqueo: las transacciones ya están serializadas.
func (r *productRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

func (r *productRepo) Update(ctx context.Context, p *entity.Product) error {
	return r.tx.write(ctx, "products.update", func(st *state) error {
		cur, ok := st.products[p.ID]
		if !ok {
			return notFound("producto", p.ID)
		}
		for _, other := range st.products {
			if other.ID != p.ID && other.SKU == p.SKU {
				return fmt.Errorf("sku %s: %w", p.SKU, domain.ErrDuplicateKey)
			}
		}
		updated := *p
		updated.Cost = cur.Cost
		st.products[p.ID] = updated
		return nil
	})
}

func (r *productRepo) UpdateCost(ctx context.Context, productID string, cost decimal.Decimal) error {
	return r.tx.write(ctx, "products.update_cost", func(st *state) error {
		p, ok := st.products[productID]
		if !ok {
			return notFound("producto", productID)
		}
		p.Cost = cost
		p.UpdatedAt = time.Now()
		st.products[productID] = p
		return nil
	})
}

func (r *productRepo) List(_ context.Context, filter repository.ProductFilter) ([]*entity.Product, error) {
	var list []*entity.Product
	err := r.tx.read(func(st *state) error {
		for _, p := range st.products {
			if filter.ActiveOnly && !p.Active {
				continue
			}
			list = append(list, &p)
		}
		return nil
	})
	slices.SortFunc(list, func(a, b *entity.Product) int { return strings.Compare(a.SKU, b.SKU) })
	return paginate(list, filter.Limit, filter.Offset), err
}

// ── bodegas ──────────────────────────────────────────────────────────────────

type warehouseRepo struct{ tx txView }

func (r *warehouseRepo) Create(ctx context.Context, w *entity.Warehouse) error {
	return r.tx.write(ctx, "warehouses.create", func(st *state) error {
		for _, other := range st.warehouses {
			if other.Code == w.Code {
				return fmt.Errorf("bodega %s: %w", w.Code, domain.ErrDuplicateKey)
			}
		}
		st.warehouses[w.ID] = *w
		return nil
	})
}

func (r *warehouseRepo) GetByID(_ context.Context, id string) (*entity.Warehouse, error) {
	var out *entity.Warehouse
	err := r.tx.read(func(st *state) error {
		w, ok := st.warehouses[id]
		if !ok {
			return notFound("bodega", id)
		}
		out = &w
		return nil
	})
	return out, err
}

func (r *warehouseRepo) GetByCode(_ context.Context, code string) (*entity.Warehouse, error) {
	var out *entity.Warehouse
	err := r.tx.read(func(st *state) error {
		for _, w := range st.warehouses {
			if w.Code == code {
				out = &w
				return nil
			}
		}
		return notFound("bodega", code)
	})
	return out, err
}

func (r *warehouseRepo) Update(ctx context.Context, w *entity.Warehouse) error {
	return r.tx.write(ctx, "warehouses.update", func(st *state) error {
		if _, ok := st.warehouses[w.ID]; !ok {
			return notFound("bodega", w.ID)
		}
		for _, other := range st.warehouses {
			if other.ID != w.ID && other.Code == w.Code {
				return fmt.Errorf("bodega %s: %w", w.Code, domain.ErrDuplicateKey)
			}
		}
		st.warehouses[w.ID] = *w
		return nil
	})
}

func (r *warehouseRepo) List(_ context.Context, limit, offset int) ([]*entity.Warehouse, error) {
	var list []*entity.Warehouse
	err := r.tx.read(func(st *state) error {
		for _, w := range st.warehouses {
			list = append(list, &w)
		}
		return nil
	})
	slices.SortFunc(list, func(a, b *entity.Warehouse) int { return strings.Compare(a.Name, b.Name) })
	return paginate(list, limit, offset), err
}

func (r *warehouseRepo) Delete(ctx context.Context, id string) error {
	return r.tx.write(ctx, "warehouses.delete", func(st *state) error {
		if _, ok := st.warehouses[id]; !ok {
			return notFound("bodega", id)
		}
		for _, s := range st.sections {
			if s.WarehouseID == id {
				return fmt.Errorf("bodega %s: %w", id, domain.ErrHasDependentStock)
			}
		}
		delete(st.warehouses, id)
		return nil
	})
}

// ── secciones ────────────────────────────────────────────────────────────────

type sectionRepo struct{ tx txView }

func (r *sectionRepo) Create(ctx context.Context, s *entity.Section) error {
	return r.tx.write(ctx, "sections.create", func(st *state) error {
		if _, ok := st.warehouses[s.WarehouseID]; !ok {
			return notFound("bodega", s.WarehouseID)
		}
		for _, other := range st.sections {
			if other.WarehouseID == s.WarehouseID && other.Code == s.Code {
				return fmt.Errorf("sección %s: %w", s.Code, domain.ErrDuplicateKey)
			}
		}
		st.sections[s.ID] = *s
		return nil
	})
}

func (r *sectionRepo) GetByID(_ context.Context, id string) (*entity.Section, error) {
	var out *entity.Section
	err := r.tx.read(func(st *state) error {
		s, ok := st.sections[id]
		if !ok {
			return notFound("sección", id)
		}
		out = &s
		return nil
	})
	return out, err
}

func (r *sectionRepo) GetByCode(_ context.Context, warehouseID, code string) (*entity.Section, error) {
	var out *entity.Section
	err := r.tx.read(func(st *state) error {
		for _, s := range st.sections {
			if s.WarehouseID == warehouseID && s.Code == code {
				out = &s
				return nil
			}
		}
		return notFound("sección", code)
	})
	return out, err
}

func (r *sectionRepo) Update(ctx context.Context, s *entity.Section) error {
	return r.tx.write(ctx, "sections.update", func(st *state) error {
		if _, ok := st.sections[s.ID]; !ok {
			return notFound("sección", s.ID)
		}
		for _, other := range st.sections {
			if other.ID != s.ID && other.WarehouseID == s.WarehouseID && other.Code == s.Code {
				return fmt.Errorf("sección %s: %w", s.Code, domain.ErrDuplicateKey)
			}
		}
		st.sections[s.ID] = *s
		return nil
	})
}

func (r *sectionRepo) ListByWarehouse(_ context.Context, warehouseID string) ([]*entity.Section, error) {
	var list []*entity.Section
	err := r.tx.read(func(st *state) error {
		for _, s := range st.sections {
			if s.WarehouseID == warehouseID {
				list = append(list, &s)
			}
		}
		return nil
	})
	slices.SortFunc(list, func(a, b *entity.Section) int { return strings.Compare(a.Name, b.Name) })
	return list, err
}

func (r *sectionRepo) CountByWarehouse(_ context.Context, warehouseID string) (int, error) {
	n := 0
	err := r.tx.read(func(st *state) error {
		for _, s := range st.sections {
			if s.WarehouseID == warehouseID {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *sectionRepo) Delete(ctx context.Context, id string) error {
	return r.tx.write(ctx, "sections.delete", func(st *state) error {
		if _, ok := st.sections[id]; !ok {
			return notFound("sección", id)
		}
		for _, l := range st.lots {
			if l.SectionID == id {
				return fmt.Errorf("sección %s: %w", id, domain.ErrHasDependentStock)
			}
		}
		delete(st.sections, id)
		return nil
	})
}

// ── lotes ────────────────────────────────────────────────────────────────────

type lotRepo struct{ tx txView }

func (r *lotRepo) Create(ctx context.Context, l *entity.Lot) error {
	return r.tx.write(ctx, "lots.create", func(st *state) error {
		if _, ok := st.sections[l.SectionID]; !ok {
			return notFound("sección", l.SectionID)
		}
		for _, other := range st.lots {
			if other.SectionID == l.SectionID && other.Code == l.Code {
				return fmt.Errorf("lote %s: %w", l.Code, domain.ErrDuplicateKey)
			}
		}
		st.lots[l.ID] = *l
		return nil
	})
}

func (r *lotRepo) GetByID(_ context.Context, id string) (*entity.Lot, error) {
	var out *entity.Lot
	err := r.tx.read(func(st *state) error {
		l, ok := st.lots[id]
		if !ok {
			return notFound("lote", id)
		}
		out = &l
		return nil
	})
	return out, err
}

// GetForShare y GetForUpdate no bloquean: las transacciones ya están serializadas.
func (r *lotRepo) GetForShare(ctx context.Context, id string) (*entity.Lot, error) {
	return r.GetByID(ctx, id)
}

func (r *lotRepo) GetForUpdate(ctx context.Context, id string) (*entity.Lot, error) {
	return r.GetByID(ctx, id)
}

func (r *lotRepo) GetByCode(_ context.Context, sectionID, code string) (*entity.Lot, error) {
	var out *entity.Lot
	err := r.tx.read(func(st *state) error {
		for _, l := range st.lots {
			if l.SectionID == sectionID && l.Code == code {
				out = &l
				return nil
			}
		}
		return notFound("lote", code)
	})
	return out, err
}

func (r *lotRepo) Update(ctx context.Context, l *entity.Lot) error {
	return r.tx.write(ctx, "lots.update", func(st *state) error {
		if _, ok := st.lots[l.ID]; !ok {
			return notFound("lote", l.ID)
		}
		for _, other := range st.lots {
			if other.ID != l.ID && other.SectionID == l.SectionID && other.Code == l.Code {
				return fmt.Errorf("lote %s: %w", l.Code, domain.ErrDuplicateKey)
			}
		}
		st.lots[l.ID] = *l
		return nil
	})
}

func (r *lotRepo) ListBySection(_ context.Context, sectionID string) ([]*entity.Lot, error) {
	var list []*entity.Lot
	err := r.tx.read(func(st *state) error {
		for _, l := range st.lots {
			if l.SectionID == sectionID {
				list = append(list, &l)
			}
		}
		return nil
	})
	slices.SortFunc(list, func(a, b *entity.Lot) int { return strings.Compare(a.Code, b.Code) })
	return list, err
}

func (r *lotRepo) CountBySection(_ context.Context, sectionID string) (int, error) {
	n := 0
	err := r.tx.read(func(st *state) error {
		for _, l := range st.lots {
			if l.SectionID == sectionID {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *lotRepo) Delete(ctx context.Context, id string) error {
	return r.tx.write(ctx, "lots.delete", func(st *state) error {
		if _, ok := st.lots[id]; !ok {
			return notFound("lote", id)
		}
		for k := range st.stock {
			if k.lotID == id {
				return fmt.Errorf("lote %s: %w", id, domain.ErrHasDependentStock)
			}
		}
		for _, m := range st.movements {
			if m.LotID == id {
				return fmt.Errorf("lote %s: %w", id, domain.ErrHasDependentStock)
			}
		}
		delete(st.lots, id)
		return nil
	})
}

// ── saldos ───────────────────────────────────────────────────────────────────

type stockRepo struct{ tx txView }

func (r *stockRepo) Get(_ context.Context, lotID, productID string) (*entity.LotStock, error) {
	out := &entity.LotStock{LotID: lotID, ProductID: productID, Quantity: decimal.Zero}
	err := r.tx.read(func(st *state) error {
		if ls, ok := st.stock[stockKey{lotID, productID}]; ok {
			*out = ls
		}
		return nil
	})
	return out, err
}

func (r *stockRepo) GetForUpdate(ctx context.Context, lotID, productID string) (*entity.LotStock, error) {
	return r.Get(ctx, lotID, productID)
}

func (r *stockRepo) SetQuantity(ctx context.Context, lotID, productID string, quantity decimal.Decimal) error {
	return r.tx.write(ctx, "stock.set", func(st *state) error {
		if quantity.IsNegative() {
			return fmt.Errorf("lote %s: %w", lotID, domain.ErrInsufficientStock)
		}
		if _, ok := st.lots[lotID]; !ok {
			return notFound("lote", lotID)
		}
		if _, ok := st.products[productID]; !ok {
			return notFound("producto", productID)
		}
		st.stock[stockKey{lotID, productID}] = entity.LotStock{
			LotID: lotID, ProductID: productID, Quantity: quantity, UpdatedAt: time.Now(),
		}
		return nil
	})
}

func (r *stockRepo) ProductTotal(_ context.Context, productID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.tx.read(func(st *state) error {
		total = sumStock(st, func(k stockKey, _ entity.LotStock) bool { return k.productID == productID })
		return nil
	})
	return total, err
}

func (r *stockRepo) LotTotal(_ context.Context, lotID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.tx.read(func(st *state) error {
		total = sumStock(st, func(k stockKey, _ entity.LotStock) bool { return k.lotID == lotID })
		return nil
	})
	return total, err
}

func (r *stockRepo) SectionTotal(_ context.Context, sectionID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.tx.read(func(st *state) error {
		total = sumStock(st, func(k stockKey, _ entity.LotStock) bool { return st.lots[k.lotID].SectionID == sectionID })
		return nil
	})
	return total, err
}

func (r *stockRepo) WarehouseTotal(_ context.Context, warehouseID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.tx.read(func(st *state) error {
		total = sumStock(st, func(k stockKey, _ entity.LotStock) bool { return st.lots[k.lotID].WarehouseID == warehouseID })
		return nil
	})
	return total, err
}

func (r *stockRepo) DeleteEmptyByLot(ctx context.Context, lotID string) error {
	return r.tx.write(ctx, "stock.delete_empty", func(st *state) error {
		for k, ls := range st.stock {
			if k.lotID == lotID && ls.Quantity.IsZero() {
				delete(st.stock, k)
			}
		}
		return nil
	})
}

// ── movimientos ──────────────────────────────────────────────────────────────

type movementRepo struct{ tx txView }

func (r *movementRepo) Create(ctx context.Context, m *entity.InventoryMovement) error {
	return r.tx.write(ctx, "movements.create", func(st *state) error {
		if m.IdempotencyKey != "" {
			for _, other := range st.movements {
				if other.IdempotencyKey == m.IdempotencyKey && other.Type == m.Type {
					return fmt.Errorf("movimiento %s: %w", m.IdempotencyKey, domain.ErrDuplicateKey)
				}
			}
		}
		st.movements = append(st.movements, *m)
		return nil
	})
}

func (r *movementRepo) GetByID(_ context.Context, id string) (*entity.InventoryMovement, error) {
	var out *entity.InventoryMovement
	err := r.tx.read(func(st *state) error {
		for _, m := range st.movements {
			if m.ID == id {
				out = &m
				return nil
			}
		}
		return notFound("movimiento", id)
	})
	return out, err
}

func (r *movementRepo) ListByIdempotencyKey(_ context.Context, key string) ([]*entity.InventoryMovement, error) {
	var list []*entity.InventoryMovement
	err := r.tx.read(func(st *state) error {
		for _, m := range st.movements {
			if m.IdempotencyKey == key {
				list = append(list, &m)
			}
		}
		return nil
	})
	return list, err
}

// List devuelve los movimientos más recientes primero.
func (r *movementRepo) List(_ context.Context, filter entity.MovementFilter) ([]*entity.InventoryMovement, error) {
	var list []*entity.InventoryMovement
	err := r.tx.read(func(st *state) error {
		for i := len(st.movements) - 1; i >= 0; i-- {
			m := st.movements[i]
			if filter.Matches(&m) {
				list = append(list, &m)
			}
		}
		return nil
	})
	return paginate(list, filter.Limit, filter.Offset), err
}

func (r *movementRepo) CountByLot(_ context.Context, lotID string) (int, error) {
	n := 0
	err := r.tx.read(func(st *state) error {
		for _, m := range st.movements {
			if m.LotID == lotID {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *movementRepo) SumByLot(_ context.Context, productID string) (map[string]decimal.Decimal, error) {
	out := map[string]decimal.Decimal{}
	err := r.tx.read(func(st *state) error {
		for _, m := range st.movements {
			if m.ProductID == productID {
				out[m.LotID] = out[m.LotID].Add(m.Quantity)
			}
		}
		return nil
	})
	return out, err
}

package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/taller-inventario/internal/application/dto"
	"github.com/jhoicas/taller-inventario/internal/application/inventory"
	"github.com/jhoicas/taller-inventario/internal/application/location"
	"github.com/jhoicas/taller-inventario/internal/application/usecase"
	"github.com/jhoicas/taller-inventario/internal/domain"
	"github.com/jhoicas/taller-inventario/internal/domain/entity"
	"github.com/jhoicas/taller-inventario/internal/infrastructure/memory"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// recorder guarda cada lote de notificaciones recibido.
type recorder struct {
	mu      sync.Mutex
	batches [][]inventory.StockChanged
	err     error
}

func (r *recorder) NotifyStockChanged(_ context.Context, events []inventory.StockChanged) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, events)
	return r.err
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

// ledger arma el motor, las consultas y las ubicaciones sobre un store en memoria.
type ledger struct {
	store    *memory.Store
	engine   *inventory.MovementEngine
	query    *inventory.StockQueryService
	loc      *location.LocationUseCase
	products *usecase.ProductUseCase
	events   *recorder
}

func newLedger(t *testing.T) *ledger {
	t.Helper()
	store := memory.NewStore()
	repos := store.Repositories()
	events := &recorder{}
	return &ledger{
		store:    store,
		engine:   inventory.NewMovementEngine(store, events, zerolog.Nop()),
		query:    inventory.NewStockQueryService(store.StockQuery(), repos),
		loc:      location.NewLocationUseCase(store, repos, zerolog.Nop()),
		products: usecase.NewProductUseCase(repos.Products),
		events:   events,
	}
}

func (l *ledger) product(t *testing.T, sku, minStock, maxStock string) string {
	t.Helper()
	p, err := l.products.Create(context.Background(), dto.CreateProductRequest{
		SKU: sku, Name: "Producto " + sku, Price: d("100"), MinStock: d(minStock), MaxStock: d(maxStock),
	})
	require.NoError(t, err)
	return p.ID
}

func (l *ledger) warehouse(t *testing.T, code string) string {
	t.Helper()
	ctx := context.Background()
	w, err := l.store.Repositories().Warehouses.GetByCode(ctx, code)
	if err == nil {
		return w.ID
	}
	require.True(t, errors.Is(err, domain.ErrNotFound))
	out, err := l.loc.CreateWarehouse(ctx, dto.CreateWarehouseRequest{Code: code, Name: "Bodega " + code})
	require.NoError(t, err)
	return out.ID
}

func (l *ledger) section(t *testing.T, warehouseCode, code string) string {
	t.Helper()
	ctx := context.Background()
	whID := l.warehouse(t, warehouseCode)
	s, err := l.store.Repositories().Sections.GetByCode(ctx, whID, code)
	if err == nil {
		return s.ID
	}
	out, err := l.loc.CreateSection(ctx, dto.CreateSectionRequest{WarehouseID: whID, Code: code, Name: "Sección " + code})
	require.NoError(t, err)
	return out.ID
}

// lot crea (o reutiliza) bodega y sección y devuelve un lote nuevo.
func (l *ledger) lot(t *testing.T, warehouseCode, sectionCode, code string) string {
	t.Helper()
	out, err := l.loc.CreateLot(context.Background(), dto.CreateLotRequest{
		SectionID: l.section(t, warehouseCode, sectionCode), Code: code,
	})
	require.NoError(t, err)
	return out.ID
}

func (l *ledger) receive(t *testing.T, productID, lotID, qty, cost string) *entity.InventoryMovement {
	t.Helper()
	m, err := l.engine.Receive(context.Background(), inventory.ReceiveInput{
		ProductID: productID, LotID: lotID, Quantity: d(qty), UnitCost: d(cost), Reference: "OC-1",
	})
	require.NoError(t, err)
	return m
}

func (l *ledger) lotQty(t *testing.T, lotID, productID string) decimal.Decimal {
	t.Helper()
	ls, err := l.store.Repositories().Stock.Get(context.Background(), lotID, productID)
	require.NoError(t, err)
	return ls.Quantity
}

func (l *ledger) movements(t *testing.T, productID string) []*entity.InventoryMovement {
	t.Helper()
	list, err := l.store.Repositories().Movements.List(context.Background(), entity.MovementFilter{ProductID: productID})
	require.NoError(t, err)
	return list
}

func (l *ledger) onHand(t *testing.T, productID string) decimal.Decimal {
	t.Helper()
	q, err := l.query.StockOnHand(context.Background(), productID)
	require.NoError(t, err)
	return q
}

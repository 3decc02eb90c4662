package inventory

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

// StockQueryService agrega el estado actual de los lotes. Solo lectura, sin bloqueos.
type StockQueryService struct {
	stock      repository.StockQueryRepository
	products   repository.ProductRepository
	warehouses repository.WarehouseRepository
	sections   repository.SectionRepository
	lots       repository.LotRepository
	movements  repository.InventoryMovementRepository
}

// NewStockQueryService construye el servicio. stock puede ser el repositorio con caché.
func NewStockQueryService(stock repository.StockQueryRepository, repos repository.Repositories) *StockQueryService {
	return &StockQueryService{
		stock:      stock,
		products:   repos.Products,
		warehouses: repos.Warehouses,
		sections:   repos.Sections,
		lots:       repos.Lots,
		movements:  repos.Movements,
	}
}

// StockOnHand total del producto en lotes activos.
func (s *StockQueryService) StockOnHand(ctx context.Context, productID string) (decimal.Decimal, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return decimal.Zero, err
	}
	return s.stock.StockOnHand(ctx, productID)
}

// StockByLocation filas (bodega, sección, lote, cantidad) con cantidad > 0, ordenadas por bodega y sección.
func (s *StockQueryService) StockByLocation(ctx context.Context, productID string) ([]entity.StockLocation, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	return s.stock.StockByLocation(ctx, productID)
}

// ProductsWithStock productos con cantidad > 0 en la bodega (inventario vendible de una sucursal).
func (s *StockQueryService) ProductsWithStock(ctx context.Context, warehouseID string) ([]entity.ProductStock, error) {
	if _, err := s.warehouses.GetByID(ctx, warehouseID); err != nil {
		return nil, err
	}
	return s.stock.ProductsWithStock(ctx, warehouseID)
}

// LowStock productos activos con stockOnHand <= MinStock.
func (s *StockQueryService) LowStock(ctx context.Context) ([]entity.ProductStock, error) {
	levels, err := s.stock.ProductLevels(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]entity.ProductStock, 0)
	for _, l := range levels {
		if l.Product.IsLow(l.Quantity) {
			out = append(out, l)
		}
	}
	return out, nil
}

// OverStock productos activos con MaxStock > 0 y stockOnHand > MaxStock.
func (s *StockQueryService) OverStock(ctx context.Context) ([]entity.ProductStock, error) {
	levels, err := s.stock.ProductLevels(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]entity.ProductStock, 0)
	for _, l := range levels {
		if l.Product.IsOver(l.Quantity) {
			out = append(out, l)
		}
	}
	return out, nil
}

// Reconcile compara el saldo de cada lote con la suma de sus movimientos.
// Devuelve solo los lotes que no cuadran (vacío si el ledger es consistente).
func (s *StockQueryService) Reconcile(ctx context.Context, productID string) ([]entity.LotDiscrepancy, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	balances, err := s.stock.LotBalances(ctx, productID)
	if err != nil {
		return nil, err
	}
	sums, err := s.movements.SumByLot(ctx, productID)
	if err != nil {
		return nil, err
	}
	out := make([]entity.LotDiscrepancy, 0)
	seen := make(map[string]bool, len(balances))
	for _, b := range balances {
		seen[b.LotID] = true
		if total := sums[b.LotID]; !total.Equal(b.Quantity) {
			out = append(out, entity.LotDiscrepancy{LotID: b.LotID, Balance: b.Quantity, MovementTotal: total})
		}
	}
	for lotID, total := range sums {
		if !seen[lotID] && !total.IsZero() {
			out = append(out, entity.LotDiscrepancy{LotID: lotID, Balance: decimal.Zero, MovementTotal: total})
		}
	}
	slices.SortFunc(out, func(a, b entity.LotDiscrepancy) int { return strings.Compare(a.LotID, b.LotID) })
	return out, nil
}

// Movements historial de movimientos, más recientes primero.
func (s *StockQueryService) Movements(ctx context.Context, filter entity.MovementFilter) ([]*entity.InventoryMovement, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.movements.List(ctx, filter)
}

// TransferLegs devuelve las dos patas del traslado con esa referencia. Si varios traslados
// comparten la referencia, gana el más reciente.
func (s *StockQueryService) TransferLegs(ctx context.Context, reference string) (*TransferResult, error) {
	list, err := s.movements.List(ctx, entity.MovementFilter{Reference: reference})
	if err != nil {
		return nil, err
	}
	res := legs(latestTransfer(list))
	if res.Out == nil || res.In == nil {
		return nil, fmt.Errorf("traslado %s: %w", reference, domain.ErrNotFound)
	}
	return res, nil
}

// latestTransfer filtra las patas del traslado más reciente. list viene ordenada del más nuevo al más viejo.
func latestTransfer(list []*entity.InventoryMovement) []*entity.InventoryMovement {
	var (
		transferID string
		out        []*entity.InventoryMovement
	)
	for _, m := range list {
		if m.TransferID == "" {
			continue
		}
		if transferID == "" {
			transferID = m.TransferID
		}
		if m.TransferID == transferID {
			out = append(out, m)
		}
	}
	return out
}

// SlipLocation ubicación legible de una pata del traslado.
type SlipLocation struct {
	WarehouseCode string
	WarehouseName string
	SectionName   string
	LotCode       string
}

// TransferSlip datos del comprobante de traslado.
type TransferSlip struct {
	Reference   string
	Date        time.Time
	CreatedBy   string
	SKU         string
	ProductName string
	UnitMeasure string
	Quantity    decimal.Decimal
	UnitCost    decimal.Decimal
	TotalCost   decimal.Decimal
	Origin      SlipLocation
	Destination SlipLocation
}

// TransferSlip arma los datos del comprobante a partir del historial y las ubicaciones.
func (s *StockQueryService) TransferSlip(ctx context.Context, reference string) (*TransferSlip, error) {
	res, err := s.TransferLegs(ctx, reference)
	if err != nil {
		return nil, err
	}
	product, err := s.products.GetByID(ctx, res.In.ProductID)
	if err != nil {
		return nil, err
	}
	origin, err := s.slipLocation(ctx, res.Out.LotID)
	if err != nil {
		return nil, err
	}
	dest, err := s.slipLocation(ctx, res.In.LotID)
	if err != nil {
		return nil, err
	}
	return &TransferSlip{
		Reference:   reference,
		Date:        res.In.CreatedAt,
		CreatedBy:   res.In.CreatedBy,
		SKU:         product.SKU,
		ProductName: product.Name,
		UnitMeasure: product.UnitMeasure,
		Quantity:    res.In.Quantity,
		UnitCost:    res.In.UnitCost,
		TotalCost:   res.In.TotalCost,
		Origin:      origin,
		Destination: dest,
	}, nil
}

func (s *StockQueryService) slipLocation(ctx context.Context, lotID string) (SlipLocation, error) {
	lot, err := s.lots.GetByID(ctx, lotID)
	if err != nil {
		return SlipLocation{}, err
	}
	sec, err := s.sections.GetByID(ctx, lot.SectionID)
	if err != nil {
		return SlipLocation{}, err
	}
	wh, err := s.warehouses.GetByID(ctx, lot.WarehouseID)
	if err != nil {
		return SlipLocation{}, err
	}
	return SlipLocation{WarehouseCode: wh.Code, WarehouseName: wh.Name, SectionName: sec.Name, LotCode: lot.Code}, nil
}

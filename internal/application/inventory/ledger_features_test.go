package inventory_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cucumber/godog"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-inventario/internal/application/dto"
	"github.com/jhoicas/taller-inventario/internal/application/inventory"
	"github.com/jhoicas/taller-inventario/internal/application/location"
	"github.com/jhoicas/taller-inventario/internal/domain"
	"github.com/jhoicas/taller-inventario/internal/domain/entity"
	"github.com/jhoicas/taller-inventario/internal/domain/repository"
	"github.com/jhoicas/taller-inventario/internal/infrastructure/memory"
)

var domainErrors = map[string]error{
	"NotFound":          domain.ErrNotFound,
	"InvalidInput":      domain.ErrInvalidInput,
	"InvalidQuantity":   domain.ErrInvalidQuantity,
	"DuplicateKey":      domain.ErrDuplicateKey,
	"InsufficientStock": domain.ErrInsufficientStock,
	"HasDependentStock": domain.ErrHasDependentStock,
}

type ledgerFeature struct {
	store    *memory.Store
	repos    repository.Repositories
	engine   *inventory.MovementEngine
	query    *inventory.StockQueryService
	loc      *location.LocationUseCase
	products map[string]string // sku -> id
	lots     map[string]string // código -> id
	transfer *inventory.TransferResult
	err      error
}

func (f *ledgerFeature) reset() {
	f.store = memory.NewStore()
	f.repos = f.store.Repositories()
	f.engine = inventory.NewMovementEngine(f.store, nil, zerolog.Nop())
	f.query = inventory.NewStockQueryService(f.store.StockQuery(), f.repos)
	f.loc = location.NewLocationUseCase(f.store, f.repos, zerolog.Nop())
	f.products = map[string]string{}
	f.lots = map[string]string{}
	f.transfer = nil
	f.err = nil
}

func (f *ledgerFeature) warehouse(code string) (string, error) {
	ctx := context.Background()
	if w, err := f.repos.Warehouses.GetByCode(ctx, code); err == nil {
		return w.ID, nil
	}
	w, err := f.loc.CreateWarehouse(ctx, dto.CreateWarehouseRequest{Code: code, Name: "Bodega " + code})
	if err != nil {
		return "", err
	}
	return w.ID, nil
}

func (f *ledgerFeature) product(sku string) (string, error) {
	if id, ok := f.products[sku]; ok {
		return id, nil
	}
	p, err := f.repos.Products.GetBySKU(context.Background(), sku)
	if err == nil {
		f.products[sku] = p.ID
		return p.ID, nil
	}
	id := fmt.Sprintf("prod-%s", sku)
	if err := f.repos.Products.Create(context.Background(), &entity.Product{ID: id, SKU: sku, Name: sku, Active: true}); err != nil {
		return "", err
	}
	f.products[sku] = id
	return id, nil
}

func (f *ledgerFeature) laBodega(code string) error {
	_, err := f.warehouse(code)
	return err
}

func (f *ledgerFeature) unLoteVacio(lotCode, warehouseCode string) error {
	ctx := context.Background()
	whID, err := f.warehouse(warehouseCode)
	if err != nil {
		return err
	}
	sec, err := f.loc.CreateSection(ctx, dto.CreateSectionRequest{WarehouseID: whID, Code: "SEC-" + lotCode, Name: "Sección " + lotCode})
	if err != nil {
		return err
	}
	lot, err := f.loc.CreateLot(ctx, dto.CreateLotRequest{SectionID: sec.ID, Code: lotCode})
	if err != nil {
		return err
	}
	f.lots[lotCode] = lot.ID
	return nil
}

func (f *ledgerFeature) unLoteConUnidades(lotCode, warehouseCode, qty, sku string) error {
	if err := f.unLoteVacio(lotCode, warehouseCode); err != nil {
		return err
	}
	productID, err := f.product(sku)
	if err != nil {
		return err
	}
	q, err := decimal.NewFromString(qty)
	if err != nil {
		return err
	}
	_, err = f.engine.Receive(context.Background(), inventory.ReceiveInput{
		ProductID: productID, LotID: f.lots[lotCode], Quantity: q, UnitCost: decimal.NewFromInt(1), Reference: "INICIAL",
	})
	return err
}

func (f *ledgerFeature) consumo(qty, sku, lotCode string) error {
	productID, err := f.product(sku)
	if err != nil {
		return err
	}
	q, err := decimal.NewFromString(qty)
	if err != nil {
		return err
	}
	_, f.err = f.engine.Consume(context.Background(), inventory.ConsumeInput{ProductID: productID, LotID: f.lots[lotCode], Quantity: q})
	return nil
}

func (f *ledgerFeature) traslado(qty, sku, from, to string) error {
	productID, err := f.product(sku)
	if err != nil {
		return err
	}
	q, err := decimal.NewFromString(qty)
	if err != nil {
		return err
	}
	f.transfer, f.err = f.engine.Transfer(context.Background(), inventory.TransferInput{
		ProductID: productID, OriginLotID: f.lots[from], DestinationLotID: f.lots[to], Quantity: q,
	})
	return nil
}

func (f *ledgerFeature) creoLaSeccion(code, warehouseCode string) error {
	whID, err := f.warehouse(warehouseCode)
	if err != nil {
		return err
	}
	_, f.err = f.loc.CreateSection(context.Background(), dto.CreateSectionRequest{WarehouseID: whID, Code: code, Name: "Sección " + code})
	return nil
}

func (f *ledgerFeature) sectionOf(lotCode string) (string, error) {
	lot, err := f.repos.Lots.GetByID(context.Background(), f.lots[lotCode])
	if err != nil {
		return "", err
	}
	return lot.SectionID, nil
}

func (f *ledgerFeature) eliminoLaSeccion(lotCode string) error {
	secID, err := f.sectionOf(lotCode)
	if err != nil {
		return err
	}
	f.err = f.loc.DeleteSection(context.Background(), secID)
	return nil
}

func (f *ledgerFeature) laSeccionSigueExistiendo(lotCode string) error {
	secID, err := f.sectionOf(lotCode)
	if err != nil {
		return err
	}
	_, err = f.loc.GetSection(context.Background(), secID)
	return err
}

func (f *ledgerFeature) terminaBien() error {
	if f.err != nil {
		return fmt.Errorf("se esperaba éxito, se obtuvo: %w", f.err)
	}
	return nil
}

func (f *ledgerFeature) fallaCon(name string) error {
	target, ok := domainErrors[name]
	if !ok {
		return fmt.Errorf("error desconocido en el escenario: %s", name)
	}
	if !errors.Is(f.err, target) {
		return fmt.Errorf("se esperaba %s, se obtuvo %v", name, f.err)
	}
	return nil
}

func (f *ledgerFeature) elLoteTiene(lotCode, qty, sku string) error {
	productID, err := f.product(sku)
	if err != nil {
		return err
	}
	ls, err := f.repos.Stock.Get(context.Background(), f.lots[lotCode], productID)
	if err != nil {
		return err
	}
	if !ls.Quantity.Equal(decimal.RequireFromString(qty)) {
		return fmt.Errorf("lote %s: se esperaban %s, hay %s", lotCode, qty, ls.Quantity)
	}
	return nil
}

func (f *ledgerFeature) tieneMovimientos(sku string, n int) error {
	productID, err := f.product(sku)
	if err != nil {
		return err
	}
	list, err := f.query.Movements(context.Background(), entity.MovementFilter{ProductID: productID})
	if err != nil {
		return err
	}
	if len(list) != n {
		return fmt.Errorf("se esperaban %d movimientos, hay %d", n, len(list))
	}
	return nil
}

func (f *ledgerFeature) lasPatasCompartenReferencia() error {
	if f.transfer == nil || f.transfer.Out == nil || f.transfer.In == nil {
		return errors.New("no hay traslado registrado")
	}
	if f.transfer.Out.Reference != f.transfer.In.Reference || f.transfer.Out.TransferID != f.transfer.In.TransferID {
		return fmt.Errorf("referencias distintas: %s / %s", f.transfer.Out.Reference, f.transfer.In.Reference)
	}
	return nil
}

func (f *ledgerFeature) stockTotal(sku, qty string) error {
	productID, err := f.product(sku)
	if err != nil {
		return err
	}
	total, err := f.query.StockOnHand(context.Background(), productID)
	if err != nil {
		return err
	}
	if !total.Equal(decimal.RequireFromString(qty)) {
		return fmt.Errorf("stock total %s, se esperaba %s", total, qty)
	}
	return nil
}

func (f *ledgerFeature) bodegaTieneSecciones(warehouseCode string, n int, code string) error {
	whID, err := f.warehouse(warehouseCode)
	if err != nil {
		return err
	}
	list, err := f.loc.ListSections(context.Background(), whID)
	if err != nil {
		return err
	}
	found := 0
	for _, s := range list {
		if s.Code == code {
			found++
		}
	}
	if found != n {
		return fmt.Errorf("se esperaban %d secciones %s, hay %d", n, code, found)
	}
	return nil
}

func initializeLedgerScenario(ctx *godog.ScenarioContext) {
	f := &ledgerFeature{}

	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		f.reset()
		return ctx, nil
	})

	ctx.Step(`^la bodega "([^"]*)"$`, f.laBodega)
	ctx.Step(`^un lote "([^"]*)" en la bodega "([^"]*)" con (\S+) unidades de "([^"]*)"$`, f.unLoteConUnidades)
	ctx.Step(`^un lote vacío "([^"]*)" en la bodega "([^"]*)"$`, f.unLoteVacio)

	ctx.Step(`^consumo (\S+) unidades de "([^"]*)" del lote "([^"]*)"$`, f.consumo)
	ctx.Step(`^traslado (\S+) unidades de "([^"]*)" del lote "([^"]*)" al lote "([^"]*)"$`, f.traslado)
	ctx.Step(`^creo la sección "([^"]*)" en la bodega "([^"]*)"$`, f.creoLaSeccion)
	ctx.Step(`^elimino la sección del lote "([^"]*)"$`, f.eliminoLaSeccion)

	ctx.Step(`^la operación termina bien$`, f.terminaBien)
	ctx.Step(`^la operación falla con "([^"]*)"$`, f.fallaCon)
	ctx.Step(`^el lote "([^"]*)" tiene (\S+) unidades de "([^"]*)"$`, f.elLoteTiene)
	ctx.Step(`^"([^"]*)" tiene (\d+) movimientos?$`, f.tieneMovimientos)
	ctx.Step(`^las dos patas comparten la referencia$`, f.lasPatasCompartenReferencia)
	ctx.Step(`^el stock total de "([^"]*)" es (\S+)$`, f.stockTotal)
	ctx.Step(`^la bodega "([^"]*)" tiene (\d+) secci(?:ón|ones) con código "([^"]*)"$`, f.bodegaTieneSecciones)
	ctx.Step(`^la sección del lote "([^"]*)" sigue existiendo$`, f.laSeccionSigueExistiendo)
}

func TestLedgerFeatures(t *testing.T) {
	suite := godog.TestSuite{
		Name:                "ledger",
		ScenarioInitializer: initializeLedgerScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
			Strict:   true,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("los escenarios del ledger fallaron")
	}
}

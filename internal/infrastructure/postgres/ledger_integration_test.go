package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/taller-inventario/internal/application/dto"
	"github.com/jhoicas/taller-inventario/internal/application/inventory"
	"github.com/jhoicas/taller-inventario/internal/application/location"
	"github.com/jhoicas/taller-inventario/internal/application/usecase"
	"github.com/jhoicas/taller-inventario/internal/domain"
	"github.com/jhoicas/taller-inventario/internal/domain/entity"
	"github.com/jhoicas/taller-inventario/internal/domain/repository"
	"github.com/jhoicas/taller-inventario/internal/infrastructure/postgres"
	"github.com/jhoicas/taller-inventario/pkg/config"
)

// Requiere una base desechable: INTEGRATION_DATABASE_URL=postgres://... go test ./internal/infrastructure/postgres/
func TestLedger_Postgres(t *testing.T) {
	dsn := os.Getenv("INTEGRATION_DATABASE_URL")
	if dsn == "" {
		t.Skip("INTEGRATION_DATABASE_URL no definido")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 5, MinConns: 1})
	require.NoError(t, err)
	defer pool.Close()
	require.NoError(t, postgres.Migrate(ctx, pool, zerolog.Nop()))

	repos := postgres.NewRepositories(pool)
	tx := postgres.NewTxRunner(pool)
	loc := location.NewLocationUseCase(tx, repos, zerolog.Nop())
	engine := inventory.NewMovementEngine(tx, nil, zerolog.Nop())
	query := inventory.NewStockQueryService(postgres.NewStockQueryRepository(pool), repos)

	suffix := uuid.NewString()[:8]
	p, err := usecase.NewProductUseCase(repos.Products).Create(ctx, dto.CreateProductRequest{SKU: "IT-" + suffix, Name: "Integración"})
	require.NoError(t, err)

	lot := func(whCode string) string {
		w, err := loc.CreateWarehouse(ctx, dto.CreateWarehouseRequest{Code: whCode + "-" + suffix, Name: whCode})
		require.NoError(t, err)
		s, err := loc.CreateSection(ctx, dto.CreateSectionRequest{WarehouseID: w.ID, Code: "S1", Name: "S1"})
		require.NoError(t, err)
		_, err = loc.CreateSection(ctx, dto.CreateSectionRequest{WarehouseID: w.ID, Code: "S1", Name: "S1"})
		require.ErrorIs(t, err, domain.ErrDuplicateKey)
		l, err := loc.CreateLot(ctx, dto.CreateLotRequest{SectionID: s.ID, Code: "L1"})
		require.NoError(t, err)
		return l.ID
	}
	a, b := lot("W1"), lot("W2")

	rec := inventory.ReceiveInput{ProductID: p.ID, LotID: a, Quantity: decimal.NewFromInt(10), UnitCost: decimal.NewFromInt(7), IdempotencyKey: "it:" + suffix}
	first, err := engine.Receive(ctx, rec)
	require.NoError(t, err)
	again, err := engine.Receive(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	res, err := engine.Transfer(ctx, inventory.TransferInput{ProductID: p.ID, OriginLotID: a, DestinationLotID: b, Quantity: decimal.NewFromInt(6)})
	require.NoError(t, err)
	assert.Equal(t, res.Out.TransferID, res.In.TransferID)

	_, err = engine.Consume(ctx, inventory.ConsumeInput{ProductID: p.ID, LotID: a, Quantity: decimal.NewFromInt(5)})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	total, err := query.StockOnHand(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(10)))

	rows, err := query.StockByLocation(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	diffs, err := query.Reconcile(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, diffs)

	legs, err := query.TransferLegs(ctx, res.Out.Reference)
	require.NoError(t, err)
	assert.Equal(t, res.In.ID, legs.In.ID)

	_, err = engine.Receive(ctx, inventory.ReceiveInput{ProductID: p.ID, LotID: a, Quantity: decimal.RequireFromString("2.00005")})
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)

	// Una entrada en curso retiene el lote: la desactivación espera y ve el saldo nuevo.
	c := lot("W3")
	locked := make(chan struct{})
	deactivated := make(chan error, 1)
	err = tx.Run(ctx, func(r repository.Repositories) error {
		l, err := r.Lots.GetForShare(ctx, c)
		if err != nil {
			return err
		}
		close(locked)
		go func() {
			_, err := loc.SetLotActive(ctx, c, false)
			deactivated <- err
		}()
		select {
		case err := <-deactivated:
			t.Errorf("la desactivación no esperó al commit: %v", err)
		case <-time.After(300 * time.Millisecond):
		}
		if err := r.Stock.SetQuantity(ctx, c, p.ID, decimal.NewFromInt(3)); err != nil {
			return err
		}
		return r.Movements.Create(ctx, &entity.InventoryMovement{
			ID: uuid.NewString(), Type: entity.MovementTypeReceipt, ProductID: p.ID, LotID: c, WarehouseID: l.WarehouseID,
			Quantity: decimal.NewFromInt(3), Reference: "IT-LOCK", CreatedBy: "it", CreatedAt: time.Now(),
		})
	})
	require.NoError(t, err)
	<-locked
	require.ErrorIs(t, <-deactivated, domain.ErrHasDependentStock)

	total, err = query.StockOnHand(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(13)), "el lote sigue activo y cuenta")
	diffs, err = query.Reconcile(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, diffs)
}

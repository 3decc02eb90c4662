package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/taller-inventario/internal/domain"
	"github.com/jhoicas/taller-inventario/internal/domain/entity"
	"github.com/jhoicas/taller-inventario/internal/domain/repository"
	"github.com/jhoicas/taller-inventario/internal/infrastructure/memory"
)

func warehouse(code string) *entity.Warehouse {
	now := time.Now()
	return &entity.Warehouse{ID: "wh-" + code, Code: code, Name: code, Kind: entity.WarehouseKindBranch, CreatedAt: now, UpdatedAt: now}
}

func TestStore_RunCommitsOrDiscards(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	err := store.Run(ctx, func(repos repository.Repositories) error {
		if err := repos.Warehouses.Create(ctx, warehouse("W1")); err != nil {
			return err
		}
		return errors.New("abortar")
	})
	require.Error(t, err)
	_, err = store.Repositories().Warehouses.GetByCode(ctx, "W1")
	assert.ErrorIs(t, err, domain.ErrNotFound, "el rollback descarta la escritura")

	err = store.Run(ctx, func(repos repository.Repositories) error {
		return repos.Warehouses.Create(ctx, warehouse("W1"))
	})
	require.NoError(t, err)
	_, err = store.Repositories().Warehouses.GetByCode(ctx, "W1")
	assert.NoError(t, err)
}

func TestStore_UncommittedWritesAreInvisible(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	err := store.Run(ctx, func(repos repository.Repositories) error {
		require.NoError(t, repos.Warehouses.Create(ctx, warehouse("W1")))
		_, err := repos.Warehouses.GetByCode(ctx, "W1")
		assert.NoError(t, err, "visible dentro de la transacción")

		_, err = store.Repositories().Warehouses.GetByCode(ctx, "W1")
		assert.ErrorIs(t, err, domain.ErrNotFound, "invisible fuera antes del commit")
		return nil
	})
	require.NoError(t, err)
}

func TestStore_FaultAbortsCommit(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	store.Fault = func(op string) error {
		if op == "commit" {
			return errors.New("conexión perdida")
		}
		return nil
	}

	err := store.Run(ctx, func(repos repository.Repositories) error {
		return repos.Warehouses.Create(ctx, warehouse("W1"))
	})
	require.ErrorIs(t, err, memory.ErrInjectedFault)

	store.Fault = nil
	_, err = store.Repositories().Warehouses.GetByCode(ctx, "W1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_CancelledContext(t *testing.T) {
	store := memory.NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := store.Run(ctx, func(repository.Repositories) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestStockRepo_Totals(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	repos := store.Repositories()
	now := time.Now()

	require.NoError(t, repos.Warehouses.Create(ctx, warehouse("W1")))
	require.NoError(t, repos.Sections.Create(ctx, &entity.Section{ID: "s1", WarehouseID: "wh-W1", Code: "S1", Name: "S1", CreatedAt: now, UpdatedAt: now}))
	for _, id := range []string{"l1", "l2"} {
		require.NoError(t, repos.Lots.Create(ctx, &entity.Lot{ID: id, SectionID: "s1", WarehouseID: "wh-W1", Code: id, Active: true, CreatedAt: now, UpdatedAt: now}))
	}
	for _, id := range []string{"p1", "p2"} {
		require.NoError(t, repos.Products.Create(ctx, &entity.Product{ID: id, SKU: "SKU-" + id, Name: id, UnitMeasure: "unidad", Active: true, CreatedAt: now, UpdatedAt: now}))
	}
	err := repos.Stock.SetQuantity(ctx, "l1", "p9", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, domain.ErrNotFound, "producto inexistente")
	require.NoError(t, repos.Stock.SetQuantity(ctx, "l1", "p1", decimal.NewFromInt(3)))
	require.NoError(t, repos.Stock.SetQuantity(ctx, "l2", "p1", decimal.NewFromInt(4)))
	require.NoError(t, repos.Stock.SetQuantity(ctx, "l2", "p2", decimal.NewFromInt(1)))

	total, err := repos.Stock.ProductTotal(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(7)))

	total, err = repos.Stock.LotTotal(ctx, "l2")
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(5)))

	total, err = repos.Stock.WarehouseTotal(ctx, "wh-W1")
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(8)))

	empty, err := repos.Stock.Get(ctx, "l1", "p2")
	require.NoError(t, err)
	assert.True(t, empty.Quantity.IsZero(), "sin fila el saldo es cero")
}

func TestLotRepo_LockedReadsSeeCommittedLot(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	repos := store.Repositories()
	now := time.Now()

	require.NoError(t, repos.Warehouses.Create(ctx, warehouse("W1")))
	require.NoError(t, repos.Sections.Create(ctx, &entity.Section{ID: "s1", WarehouseID: "wh-W1", Code: "S1", Name: "S1", CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, repos.Lots.Create(ctx, &entity.Lot{ID: "l1", SectionID: "s1", WarehouseID: "wh-W1", Code: "L1", Active: true, CreatedAt: now, UpdatedAt: now}))

	err := store.Run(ctx, func(tx repository.Repositories) error {
		l, err := tx.Lots.GetForUpdate(ctx, "l1")
		require.NoError(t, err)
		l.Active = false
		return tx.Lots.Update(ctx, l)
	})
	require.NoError(t, err)

	l, err := repos.Lots.GetForShare(ctx, "l1")
	require.NoError(t, err)
	assert.False(t, l.Active)
	_, err = repos.Lots.GetForShare(ctx, "nada")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

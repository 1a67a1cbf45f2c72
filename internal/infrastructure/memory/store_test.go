package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jhoicas/pos-stock-engine/internal/domain"
	"github.com/jhoicas/pos-stock-engine/internal/domain/entity"
	"github.com/jhoicas/pos-stock-engine/internal/domain/repository"
	"github.com/jhoicas/pos-stock-engine/internal/infrastructure/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_ErrorDescartaCambios(t *testing.T) {
	store := memory.NewStore(nil)
	ctx := context.Background()

	err := store.Run(ctx, time.Second, func(ctx context.Context, ledgers repository.LedgerRepository, movs repository.MovementRepository) error {
		_, _, err := ledgers.Ensure(ctx, &entity.StockLedger{ProductID: "p1", Quantity: decimal.NewFromInt(5)})
		require.NoError(t, err)
		require.NoError(t, movs.Create(ctx, &entity.StockMovement{ID: "m1", ProductID: "p1", Type: entity.MovementTypeAdjustment, Quantity: decimal.NewFromInt(5)}))
		return domain.ErrInsufficientStock
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.NotErrorIs(t, err, domain.ErrStorage, "los errores de negocio pasan sin envolver")

	_, err = store.Ledgers().Get(ctx, "p1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	totals, err := store.Movements().Totals(ctx, repository.MovementFilter{ProductID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, 0, totals.Count)
}

func TestRun_FalloInyectadoEsErrorDeAlmacenamiento(t *testing.T) {
	store := memory.NewStore(nil)
	store.SetFault(func(op string) error {
		if op == "ledgers.ensure" {
			return errors.New("conexión perdida")
		}
		return nil
	})

	err := store.Run(context.Background(), time.Second, func(ctx context.Context, ledgers repository.LedgerRepository, _ repository.MovementRepository) error {
		_, _, err := ledgers.Ensure(ctx, &entity.StockLedger{ProductID: "p1"})
		return err
	})
	assert.ErrorIs(t, err, domain.ErrStorage)
}

func TestRun_TimeoutAborta(t *testing.T) {
	store := memory.NewStore(nil)

	err := store.Run(context.Background(), 10*time.Millisecond, func(ctx context.Context, ledgers repository.LedgerRepository, _ repository.MovementRepository) error {
		_, _, err := ledgers.Ensure(ctx, &entity.StockLedger{ProductID: "p1"})
		require.NoError(t, err)
		<-ctx.Done()
		return nil
	})
	require.ErrorIs(t, err, domain.ErrStorage)

	_, err = store.Ledgers().Get(context.Background(), "p1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLocationStock_SinFilaEsCero(t *testing.T) {
	store := memory.NewStore(nil)
	ctx := context.Background()

	got, err := store.LocationStock().Get(ctx, "p1", "l1")
	require.NoError(t, err)
	assert.True(t, got.Quantity.IsZero())

	list, err := store.LocationStock().ListByLocation(ctx, "l1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestTransfers_NumeroDuplicado(t *testing.T) {
	store := memory.NewStore(nil)
	ctx := context.Background()

	first := &entity.StockTransfer{ID: "t1", TransferNumber: "TRF-000001", Status: entity.TransferStatusPending, FromLocationID: "a", ToLocationID: "b"}
	require.NoError(t, store.Transfers().Create(ctx, first))

	dup := &entity.StockTransfer{ID: "t2", TransferNumber: "TRF-000001", Status: entity.TransferStatusPending, FromLocationID: "a", ToLocationID: "b"}
	assert.ErrorIs(t, store.Transfers().Create(ctx, dup), domain.ErrDuplicate)

	last, err := store.Transfers().LastNumberWithPrefix(ctx, "TRF")
	require.NoError(t, err)
	assert.Equal(t, "TRF-000001", last)
}

package inventory_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jhoicas/pos-stock-engine/internal/application/inventory"
	"github.com/jhoicas/pos-stock-engine/internal/domain/entity"
	"github.com/jhoicas/pos-stock-engine/internal/domain/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchAdjust_NetaPorProductoYUnMovimientoPorLinea(t *testing.T) {
	f := newFixture(t)
	f.ensure(t, "p1", "10", "0")
	f.ensure(t, "p2", "4", "0")
	ref := "venta-42"

	f.uc.BatchAdjust(context.Background(), inventory.BatchAdjustInput{
		ReferenceID: &ref,
		ActorID:     "cajero-1",
		Lines: []inventory.BatchLine{
			{ProductID: "p1", Quantity: d("-2")},
			{ProductID: "p2", Quantity: d("-1")},
			{ProductID: "p1", Quantity: d("-3")},
		},
	})

	p1, err := f.uc.GetLedger(context.Background(), "p1")
	require.NoError(t, err)
	assertQty(t, "5", p1.Quantity)
	p2, err := f.uc.GetLedger(context.Background(), "p2")
	require.NoError(t, err)
	assertQty(t, "3", p2.Quantity)

	page := f.movements(t, repository.MovementFilter{ReferenceID: ref})
	assert.Equal(t, 3, page.Page.Total, "un movimiento por línea original")
	for _, m := range page.Items {
		assert.Equal(t, entity.MovementTypeSale, m.Type)
	}
	assertQty(t, p1.Quantity.String(), f.sumMovements(t, "p1"))
}

func TestBatchAdjust_RecortaACeroEnVezDeRechazar(t *testing.T) {
	f := newFixture(t)
	f.ensure(t, "p1", "2", "0")
	f.ensure(t, "p2", "8", "0")

	f.uc.BatchAdjust(context.Background(), inventory.BatchAdjustInput{
		Lines: []inventory.BatchLine{
			{ProductID: "p1", Quantity: d("-5")},
			{ProductID: "p2", Quantity: d("-1")},
		},
	})

	p1, err := f.uc.GetLedger(context.Background(), "p1")
	require.NoError(t, err)
	assertQty(t, "0", p1.Quantity)
	p2, err := f.uc.GetLedger(context.Background(), "p2")
	require.NoError(t, err)
	assertQty(t, "7", p2.Quantity) // el resto del lote se aplica

	sales := f.movements(t, repository.MovementFilter{ProductID: "p1", Type: entity.MovementTypeSale})
	require.Len(t, sales.Items, 1)
	assertQty(t, "-5", sales.Items[0].Quantity)
}

func TestBatchAdjust_PermiteNegativoConPolitica(t *testing.T) {
	f := newFixture(t)
	f.ensure(t, "p1", "2", "0")

	f.uc.BatchAdjust(context.Background(), inventory.BatchAdjustInput{
		AllowNegative: true,
		Lines:         []inventory.BatchLine{{ProductID: "p1", Quantity: d("-5")}},
	})

	p1, err := f.uc.GetLedger(context.Background(), "p1")
	require.NoError(t, err)
	assertQty(t, "-3", p1.Quantity)
}

func TestBatchAdjust_FalloDeAlmacenamientoAbortaTodo(t *testing.T) {
	f := newFixture(t)
	f.ensure(t, "p1", "10", "0")
	f.ensure(t, "p2", "10", "0")
	f.pub.reset()
	f.store.SetFault(func(op string) error {
		if op == "movements.create_many" {
			return errors.New("timeout de escritura")
		}
		return nil
	})
	ref := "venta-7"

	assert.NotPanics(t, func() {
		f.uc.BatchAdjust(context.Background(), inventory.BatchAdjustInput{
			ReferenceID: &ref,
			Lines: []inventory.BatchLine{
				{ProductID: "p1", Quantity: d("-1")},
				{ProductID: "p2", Quantity: d("-1")},
			},
		})
	})
	f.store.SetFault(nil)

	for _, id := range []string{"p1", "p2"} {
		got, err := f.uc.GetLedger(context.Background(), id)
		require.NoError(t, err)
		assertQty(t, "10", got.Quantity)
	}
	assert.Equal(t, 0, f.movements(t, repository.MovementFilter{ReferenceID: ref}).Page.Total)

	require.Equal(t, []string{entity.EventBatchFailed}, f.pub.types())
	var payload entity.BatchFailedPayload
	require.NoError(t, json.Unmarshal(f.pub.events[0].Payload, &payload))
	assert.Equal(t, ref, payload.ReferenceID)
	assert.ElementsMatch(t, []string{"p1", "p2"}, payload.ProductIDs)
	assert.Equal(t, 2, payload.Lines)
}

func TestBatchAdjust_DescartaLineasInvalidas(t *testing.T) {
	f := newFixture(t)
	f.ensure(t, "p1", "10", "0")

	f.uc.BatchAdjust(context.Background(), inventory.BatchAdjustInput{
		Lines: []inventory.BatchLine{
			{ProductID: "p1", Quantity: d("-1")},
			{ProductID: "fantasma", Quantity: d("-1")},
			{ProductID: "p1", Quantity: d("0")},
			{ProductID: "p1", Quantity: d("-1"), Type: "regalo"},
		},
	})

	p1, err := f.uc.GetLedger(context.Background(), "p1")
	require.NoError(t, err)
	assertQty(t, "9", p1.Quantity)
	_, err = f.uc.GetLedger(context.Background(), "fantasma")
	assert.Error(t, err)
}

func TestBatchAdjust_EventoDeStockBajo(t *testing.T) {
	f := newFixture(t)
	f.ensure(t, "p1", "6", "5")
	f.pub.reset()

	f.uc.BatchAdjust(context.Background(), inventory.BatchAdjustInput{
		Lines: []inventory.BatchLine{{ProductID: "p1", Quantity: d("-1")}, {ProductID: "p1", Quantity: d("-1")}},
	})

	assert.Equal(t, []string{entity.EventInventoryChanged, entity.EventLowStock}, f.pub.types())
}

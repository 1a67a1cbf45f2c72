package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-stock-engine/internal/application/dto"
	"github.com/jhoicas/pos-stock-engine/internal/application/inventory"
	"github.com/jhoicas/pos-stock-engine/internal/application/transfer"
	"github.com/jhoicas/pos-stock-engine/internal/domain/entity"
	"github.com/jhoicas/pos-stock-engine/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/pos-stock-engine/internal/interfaces/http"
	"github.com/jhoicas/pos-stock-engine/pkg/config"
	pkgjwt "github.com/jhoicas/pos-stock-engine/pkg/jwt"
)

type apiFixture struct {
	app   *fiber.App
	store *memory.Store
	admin string
	sales string
}

func newAPI(t *testing.T, allowNegative bool) *apiFixture {
	t.Helper()
	return newAPIWithRunner(t, allowNegative, func(fn func()) bool { fn(); return true })
}

func newAPIWithRunner(t *testing.T, allowNegative bool, runBatch func(func()) bool) *apiFixture {
	t.Helper()
	store := memory.NewStore(nil)
	store.AddProduct(entity.Product{ID: "p1", SKU: "SKU-1", Name: "Arroz"})
	store.AddProduct(entity.Product{ID: "p2", SKU: "SKU-2", Name: "Café"})
	store.AddLocation(entity.Location{ID: "A", Code: "TDA-01", Name: "Tienda centro", Active: true})
	store.AddLocation(entity.Location{ID: "B", Code: "BOD-01", Name: "Bodega norte", Active: true})

	ledgerUC := inventory.NewLedgerUseCase(store, store.Ledgers(), store.Movements(), store.Products(), nil, nil, 30)
	transferUC := transfer.NewUseCase(store, store.Transfers(), store.Locations(), store.LocationStock(), store.Products(), nil, nil, "TRF")

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		LedgerUC:   ledgerUC,
		TransferUC: transferUC,
		Policy:     config.InventoryConfig{AllowNegativeStock: allowNegative},
		JWTSecret:  testJWTSecret,
		RunBatch:   runBatch,
	})
	return &apiFixture{
		app:   app,
		store: store,
		admin: tokenForRole(t, pkgjwt.RoleAdmin),
		sales: tokenForRole(t, pkgjwt.RoleVendedor),
	}
}

func (f *apiFixture) call(t *testing.T, method, path, token string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestAPI_requiresToken(t *testing.T) {
	f := newAPI(t, false)
	status := f.call(t, http.MethodGet, "/api/inventory/ledgers/p1", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status = f.call(t, http.MethodGet, "/health", "", nil, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestAPI_ledgerAndAdjustments(t *testing.T) {
	f := newAPI(t, false)

	var ledger dto.LedgerResponse
	status := f.call(t, http.MethodPut, "/api/inventory/ledgers/p1", f.admin,
		map[string]any{"initial_quantity": "10", "reorder_level": "3"}, &ledger)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, decimal.RequireFromString("10").Equal(ledger.Quantity))

	var adjusted dto.AdjustResponse
	status = f.call(t, http.MethodPost, "/api/inventory/adjustments", f.admin,
		map[string]any{"product_id": "p1", "quantity": "-4", "type": "damage", "reason": "rotura"}, &adjusted)
	require.Equal(t, http.StatusCreated, status)
	assert.True(t, decimal.RequireFromString("6").Equal(adjusted.Ledger.Quantity))
	assert.Equal(t, entity.MovementTypeDamage, adjusted.Movement.Type)

	var errBody dto.ErrorResponse
	status = f.call(t, http.MethodPost, "/api/inventory/adjustments", f.admin,
		map[string]any{"product_id": "p1", "quantity": "-50", "type": "sale"}, &errBody)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INSUFFICIENT_STOCK", errBody.Code)

	status = f.call(t, http.MethodPost, "/api/inventory/adjustments", f.admin,
		map[string]any{"product_id": "p1", "quantity": "1", "type": "gift"}, &errBody)
	assert.Equal(t, http.StatusBadRequest, status)

	status = f.call(t, http.MethodGet, "/api/inventory/ledgers/p2", f.sales, nil, &errBody)
	assert.Equal(t, http.StatusNotFound, status)

	status = f.call(t, http.MethodPatch, "/api/inventory/ledgers/p1/reorder-level", f.admin,
		map[string]any{"reorder_level": "8"}, &ledger)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, ledger.BelowReorder)
}

func TestAPI_vendedorCannotAdjustButCanSendBatches(t *testing.T) {
	f := newAPI(t, false)

	status := f.call(t, http.MethodPost, "/api/inventory/adjustments", f.sales,
		map[string]any{"product_id": "p1", "quantity": "5", "type": "purchase"}, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status = f.call(t, http.MethodPost, "/api/inventory/batch-adjustments", f.sales, map[string]any{
		"reference_id": "sale-1",
		"lines": []map[string]any{
			{"product_id": "p1", "quantity": "5", "type": "purchase"},
			{"product_id": "p1", "quantity": "-2", "type": "sale"},
		},
	}, nil)
	require.Equal(t, http.StatusAccepted, status)

	var ledger dto.LedgerResponse
	require.Equal(t, http.StatusOK, f.call(t, http.MethodGet, "/api/inventory/ledgers/p1", f.sales, nil, &ledger))
	assert.True(t, decimal.RequireFromString("3").Equal(ledger.Quantity))

	var page dto.MovementListResponse
	status = f.call(t, http.MethodGet, "/api/inventory/movements?product_id=p1&reference_id=sale-1&limit=10", f.sales, nil, &page)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, page.Items, 2)
	assert.True(t, decimal.RequireFromString("5").Equal(page.TotalIn))
	assert.True(t, decimal.RequireFromString("-2").Equal(page.TotalOut))

	status = f.call(t, http.MethodPost, "/api/inventory/batch-adjustments", f.sales, map[string]any{"lines": []any{}}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status = f.call(t, http.MethodGet, "/api/inventory/movements?from=ayer", f.sales, nil, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAPI_lotesPendientesSeDrenanAntesDelApagado(t *testing.T) {
	runner := apphttp.NewBatchRunner()
	f := newAPIWithRunner(t, false, runner.Go)

	batch := map[string]any{
		"reference_id": "sale-9",
		"lines":        []map[string]any{{"product_id": "p1", "quantity": "4", "type": "purchase"}},
	}
	require.Equal(t, http.StatusAccepted, f.call(t, http.MethodPost, "/api/inventory/batch-adjustments", f.sales, batch, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, runner.Wait(ctx))

	// Tras Wait el lote ya está confirmado.
	var ledger dto.LedgerResponse
	require.Equal(t, http.StatusOK, f.call(t, http.MethodGet, "/api/inventory/ledgers/p1", f.sales, nil, &ledger))
	assert.True(t, decimal.RequireFromString("4").Equal(ledger.Quantity))

	var errBody dto.ErrorResponse
	status := f.call(t, http.MethodPost, "/api/inventory/batch-adjustments", f.sales, batch, &errBody)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "SHUTTING_DOWN", errBody.Code)
}

func TestBatchRunner_WaitVenceConLoteEnCurso(t *testing.T) {
	runner := apphttp.NewBatchRunner()
	release := make(chan struct{})
	require.True(t, runner.Go(func() { <-release }))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, runner.Wait(ctx), context.DeadlineExceeded)
	assert.False(t, runner.Go(func() {}), "no acepta lotes nuevos mientras cierra")

	close(release)
	require.NoError(t, runner.Wait(context.Background()))
}

func TestAPI_transferLifecycle(t *testing.T) {
	f := newAPI(t, false)

	var stock dto.LocationStockResponse
	status := f.call(t, http.MethodPost, "/api/locations/A/stock", f.admin,
		map[string]any{"product_id": "p1", "quantity": "20", "reason": "conteo"}, &stock)
	require.Equal(t, http.StatusOK, status)

	var created dto.TransferResponse
	status = f.call(t, http.MethodPost, "/api/transfers", f.admin, map[string]any{
		"from_location_id": "A",
		"to_location_id":   "B",
		"items":            []map[string]any{{"product_id": "p1", "quantity": "8"}},
	}, &created)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, entity.TransferStatusPending, created.Status)
	require.Len(t, created.Items, 1)

	var dispatched dto.TransferResponse
	require.Equal(t, http.StatusOK, f.call(t, http.MethodPost, "/api/transfers/"+created.ID+"/dispatch", f.admin, nil, &dispatched))
	assert.Equal(t, entity.TransferStatusInTransit, dispatched.Status)

	var completed dto.TransferResponse
	status = f.call(t, http.MethodPost, "/api/transfers/"+created.ID+"/complete", f.admin, map[string]any{
		"items": []map[string]any{{"item_id": created.Items[0].ID, "received_quantity": "6"}},
	}, &completed)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, entity.TransferStatusCompleted, completed.Status)

	var list dto.LocationStockListResponse
	require.Equal(t, http.StatusOK, f.call(t, http.MethodGet, "/api/locations/B/stock", f.sales, nil, &list))
	require.Len(t, list.Items, 1)
	assert.True(t, decimal.RequireFromString("6").Equal(list.Items[0].Quantity))

	var errBody dto.ErrorResponse
	status = f.call(t, http.MethodPost, "/api/transfers/"+created.ID+"/cancel", f.admin, nil, &errBody)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INVALID_STATE", errBody.Code)

	var transfers dto.TransferListResponse
	require.Equal(t, http.StatusOK, f.call(t, http.MethodGet, "/api/transfers?status=completed", f.sales, nil, &transfers))
	assert.Equal(t, 1, transfers.Page.Total)

	status = f.call(t, http.MethodGet, "/api/transfers/no-existe", f.sales, nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jhoicas/pos-stock-engine/internal/application/dto"
	"github.com/jhoicas/pos-stock-engine/internal/application/inventory"
	"github.com/jhoicas/pos-stock-engine/internal/application/transfer"
	"github.com/jhoicas/pos-stock-engine/internal/domain"
	"github.com/jhoicas/pos-stock-engine/internal/domain/entity"
	"github.com/jhoicas/pos-stock-engine/internal/domain/repository"
	"github.com/jhoicas/pos-stock-engine/internal/infrastructure/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []entity.StockEvent
}

func (r *recorder) Publish(_ context.Context, events ...entity.StockEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertQty(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "cantidad esperada %s, obtenida %s", want, got)
}

type fixture struct {
	store *memory.Store
	pub   *recorder
	uc    *inventory.LedgerUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore(nil)
	for _, id := range []string{"p1", "p2", "p3"} {
		store.AddProduct(entity.Product{ID: id, SKU: "SKU-" + id, Name: "Producto " + id})
	}
	pub := &recorder{}
	uc := inventory.NewLedgerUseCase(store, store.Ledgers(), store.Movements(), store.Products(), pub, nil, 30)
	return &fixture{store: store, pub: pub, uc: uc}
}

func (f *fixture) ensure(t *testing.T, productID, qty, reorder string) {
	t.Helper()
	_, err := f.uc.EnsureLedger(context.Background(), productID, "u-1", dto.EnsureLedgerRequest{
		InitialQuantity: d(qty),
		ReorderLevel:    d(reorder),
	})
	require.NoError(t, err)
}

func (f *fixture) movements(t *testing.T, filter repository.MovementFilter) *dto.MovementListResponse {
	t.Helper()
	page, err := f.uc.ListMovements(context.Background(), filter, dto.PageRequest{Limit: 100})
	require.NoError(t, err)
	return page
}

func (f *fixture) sumMovements(t *testing.T, productID string) decimal.Decimal {
	t.Helper()
	page := f.movements(t, repository.MovementFilter{ProductID: productID})
	return page.TotalIn.Add(page.TotalOut)
}

func TestEnsureLedger_Idempotente(t *testing.T) {
	f := newFixture(t)
	f.ensure(t, "p1", "10", "5")
	// La segunda llamada no sobrescribe ni duplica.
	f.ensure(t, "p1", "99", "1")

	got, err := f.uc.GetLedger(context.Background(), "p1")
	require.NoError(t, err)
	assertQty(t, "10", got.Quantity)
	assertQty(t, "5", got.ReorderLevel)
	assert.Equal(t, 1, f.movements(t, repository.MovementFilter{ProductID: "p1"}).Page.Total, "solo el saldo inicial")
}

func TestEnsureLedger_ProductoInexistente(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.EnsureLedger(context.Background(), "nope", "", dto.EnsureLedgerRequest{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetLedger_NoExiste(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.GetLedger(context.Background(), "p1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAdjust_VentaDescuentaYRegistraUnMovimiento(t *testing.T) {
	f := newFixture(t)
	f.ensure(t, "p1", "10", "5")
	before := f.movements(t, repository.MovementFilter{ProductID: "p1"}).Page.Total

	res, err := f.uc.Adjust(context.Background(), inventory.AdjustInput{
		ProductID: "p1", Delta: d("-3"), Type: entity.MovementTypeSale, Reason: "venta", ActorID: "u-1",
	})
	require.NoError(t, err)
	assertQty(t, "7", res.Ledger.Quantity)
	assertQty(t, "-3", res.Movement.Quantity)

	sales := f.movements(t, repository.MovementFilter{ProductID: "p1", Type: entity.MovementTypeSale})
	require.Len(t, sales.Items, 1)
	assertQty(t, "-3", sales.Items[0].Quantity)
	assert.Equal(t, before+1, f.movements(t, repository.MovementFilter{ProductID: "p1"}).Page.Total)
}

func TestAdjust_StockInsuficienteNoDejaRastro(t *testing.T) {
	f := newFixture(t)
	f.ensure(t, "p1", "2", "0")
	f.pub.reset()
	before := f.movements(t, repository.MovementFilter{ProductID: "p1"}).Page.Total

	_, err := f.uc.Adjust(context.Background(), inventory.AdjustInput{
		ProductID: "p1", Delta: d("-5"), Type: entity.MovementTypeSale, AllowNegative: false,
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	got, err := f.uc.GetLedger(context.Background(), "p1")
	require.NoError(t, err)
	assertQty(t, "2", got.Quantity)
	assert.Equal(t, before, f.movements(t, repository.MovementFilter{ProductID: "p1"}).Page.Total)
	assert.Empty(t, f.pub.types(), "sin eventos cuando se rechaza")
}

func TestAdjust_StockInsuficienteSinLedgerPrevio(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.Adjust(context.Background(), inventory.AdjustInput{
		ProductID: "p1", Delta: d("-1"), Type: entity.MovementTypeSale,
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	// El rollback también descarta el ledger creado de forma perezosa.
	_, err = f.uc.GetLedger(context.Background(), "p1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAdjust_PositivoSiempreSeAcepta(t *testing.T) {
	f := newFixture(t)
	f.ensure(t, "p1", "2", "0")

	res, err := f.uc.Adjust(context.Background(), inventory.AdjustInput{
		ProductID: "p1", Delta: d("-5"), Type: entity.MovementTypeSale, AllowNegative: true,
	})
	require.NoError(t, err)
	assertQty(t, "-3", res.Ledger.Quantity)

	// Con la política desactivada, un delta positivo se acepta aunque el resultado siga negativo.
	res, err = f.uc.Adjust(context.Background(), inventory.AdjustInput{
		ProductID: "p1", Delta: d("1"), Type: entity.MovementTypePurchase, AllowNegative: false,
	})
	require.NoError(t, err)
	assertQty(t, "-2", res.Ledger.Quantity)
}

func TestAdjust_VencimientoFIFO(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	later := time.Date(2027, 6, 1, 0, 0, 0, 0, time.UTC)
	earlier := time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC)

	_, err := f.uc.Adjust(ctx, inventory.AdjustInput{ProductID: "p1", Delta: d("5"), Type: entity.MovementTypePurchase, ExpiryDate: &later})
	require.NoError(t, err)
	res, err := f.uc.Adjust(ctx, inventory.AdjustInput{ProductID: "p1", Delta: d("5"), Type: entity.MovementTypePurchase, ExpiryDate: &earlier})
	require.NoError(t, err)
	require.NotNil(t, res.Ledger.ExpiryDate)
	assert.True(t, res.Ledger.ExpiryDate.Equal(earlier))

	res, err = f.uc.Adjust(ctx, inventory.AdjustInput{ProductID: "p1", Delta: d("5"), Type: entity.MovementTypePurchase, ExpiryDate: &later})
	require.NoError(t, err)
	assert.True(t, res.Ledger.ExpiryDate.Equal(earlier), "conserva el vencimiento más temprano")

	// Un delta negativo no toca el vencimiento.
	other := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	res, err = f.uc.Adjust(ctx, inventory.AdjustInput{ProductID: "p1", Delta: d("-1"), Type: entity.MovementTypeSale, ExpiryDate: &other})
	require.NoError(t, err)
	assert.True(t, res.Ledger.ExpiryDate.Equal(earlier))
}

func TestAdjust_EventosPostCommit(t *testing.T) {
	f := newFixture(t)
	f.ensure(t, "p1", "6", "5")
	f.pub.reset()

	_, err := f.uc.Adjust(context.Background(), inventory.AdjustInput{ProductID: "p1", Delta: d("-2"), Type: entity.MovementTypeDamage, Reason: "rotura"})
	require.NoError(t, err)
	assert.Equal(t, []string{entity.EventInventoryChanged, entity.EventLowStock, entity.EventStockAdjusted}, f.pub.types())

	// Ya bajo el punto de reorden: no se repite stock.low.
	f.pub.reset()
	_, err = f.uc.Adjust(context.Background(), inventory.AdjustInput{ProductID: "p1", Delta: d("-1"), Type: entity.MovementTypeSale})
	require.NoError(t, err)
	assert.Equal(t, []string{entity.EventInventoryChanged}, f.pub.types())
}

func TestAdjust_AvisoDeVencimiento(t *testing.T) {
	f := newFixture(t)
	soon := time.Now().AddDate(0, 0, 10)

	_, err := f.uc.Adjust(context.Background(), inventory.AdjustInput{ProductID: "p1", Delta: d("3"), Type: entity.MovementTypePurchase, ExpiryDate: &soon})
	require.NoError(t, err)
	assert.Contains(t, f.pub.types(), entity.EventExpiryWarning)
}

func TestAdjust_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.Adjust(ctx, inventory.AdjustInput{ProductID: "p1", Delta: d("0"), Type: entity.MovementTypeSale})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.uc.Adjust(ctx, inventory.AdjustInput{ProductID: "p1", Delta: d("1"), Type: "regalo"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.uc.Adjust(ctx, inventory.AdjustInput{ProductID: "", Delta: d("1"), Type: entity.MovementTypeSale})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.uc.Adjust(ctx, inventory.AdjustInput{ProductID: "nope", Delta: d("1"), Type: entity.MovementTypeSale})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAdjust_FalloDeAlmacenamiento(t *testing.T) {
	f := newFixture(t)
	f.ensure(t, "p1", "10", "0")
	f.store.SetFault(func(op string) error {
		if op == "movements.create" {
			return errors.New("disco lleno")
		}
		return nil
	})

	_, err := f.uc.Adjust(context.Background(), inventory.AdjustInput{ProductID: "p1", Delta: d("-1"), Type: entity.MovementTypeSale})
	require.ErrorIs(t, err, domain.ErrStorage)

	f.store.SetFault(nil)
	got, err := f.uc.GetLedger(context.Background(), "p1")
	require.NoError(t, err)
	assertQty(t, "10", got.Quantity)
}

func TestLedgerIgualSumaDeMovimientos(t *testing.T) {
	f := newFixture(t)
	f.ensure(t, "p1", "4", "0")
	ctx := context.Background()

	deltas := []string{"3", "-2", "-5", "10", "-20", "-1.5", "0.25", "-7"}
	for _, delta := range deltas {
		// Algunos se rechazan; los rechazados no dejan movimiento.
		_, _ = f.uc.Adjust(ctx, inventory.AdjustInput{ProductID: "p1", Delta: d(delta), Type: entity.MovementTypeAdjustment})
	}

	got, err := f.uc.GetLedger(ctx, "p1")
	require.NoError(t, err)
	assertQty(t, got.Quantity.String(), f.sumMovements(t, "p1"))
}

func TestLedgerIgualSumaDeMovimientos_ConStockPorUbicacion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.AddLocation(entity.Location{ID: "A", Code: "TDA-01", Name: "Tienda", Active: true})
	f.store.AddLocation(entity.Location{ID: "B", Code: "BOD-01", Name: "Bodega", Active: true})
	transfers := transfer.NewUseCase(f.store, f.store.Transfers(), f.store.Locations(), f.store.LocationStock(), f.store.Products(), nil, nil, "TRF")

	f.ensure(t, "p1", "10", "0")
	_, err := transfers.AdjustLocationStock(ctx, "A", "u-1", dto.AdjustLocationStockRequest{ProductID: "p1", Quantity: d("7")})
	require.NoError(t, err)
	_, err = f.uc.Adjust(ctx, inventory.AdjustInput{ProductID: "p1", Delta: d("-3"), Type: entity.MovementTypeSale})
	require.NoError(t, err)

	tr, err := transfers.Create(ctx, "u-1", dto.CreateTransferRequest{
		FromLocationID: "A", ToLocationID: "B",
		Items: []dto.TransferItemRequest{{ProductID: "p1", Quantity: d("4")}},
	})
	require.NoError(t, err)
	_, err = transfers.Complete(ctx, tr.ID, "u-1", []transfer.ReceivedItem{{ItemID: tr.Items[0].ID, ReceivedQuantity: d("4")}})
	require.NoError(t, err)

	got, err := f.uc.GetLedger(ctx, "p1")
	require.NoError(t, err)
	assertQty(t, "7", got.Quantity)
	assertQty(t, "7", f.sumMovements(t, "p1"))

	ledgerPage := f.movements(t, repository.MovementFilter{ProductID: "p1"})
	assert.Equal(t, 2, ledgerPage.Page.Total, "saldo inicial y venta")
	assertQty(t, "10", ledgerPage.TotalIn)
	assertQty(t, "-3", ledgerPage.TotalOut)

	// Los movimientos por ubicación siguen consultables con su propio alcance.
	locPage := f.movements(t, repository.MovementFilter{Scope: repository.MovementScopeLocation, ProductID: "p1"})
	assert.Equal(t, 3, locPage.Page.Total)
	all := f.movements(t, repository.MovementFilter{Scope: repository.MovementScopeAll, ProductID: "p1"})
	assert.Equal(t, 5, all.Page.Total)
	byLocation := f.movements(t, repository.MovementFilter{LocationID: "B"})
	assert.Equal(t, 1, byLocation.Page.Total)

	_, err = f.uc.ListMovements(ctx, repository.MovementFilter{Scope: "todo"}, dto.PageRequest{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdateReorderLevel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	got, err := f.uc.UpdateReorderLevel(ctx, "p2", "u-1", d("4"))
	require.NoError(t, err, "crea el ledger si no existe")
	assertQty(t, "4", got.ReorderLevel)
	assert.True(t, got.BelowReorder)

	f.ensure(t, "p1", "10", "2")
	got, err = f.uc.UpdateReorderLevel(ctx, "p1", "u-1", d("3"))
	require.NoError(t, err)
	assertQty(t, "3", got.ReorderLevel)
	assertQty(t, "10", got.Quantity)

	_, err = f.uc.UpdateReorderLevel(ctx, "p1", "u-1", d("-1"))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestListMovements_FiltrosYTotales(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ref := "venta-1"
	for _, delta := range []string{"10", "-2", "-3"} {
		typ := entity.MovementTypePurchase
		if d(delta).IsNegative() {
			typ = entity.MovementTypeSale
		}
		_, err := f.uc.Adjust(ctx, inventory.AdjustInput{ProductID: "p1", Delta: d(delta), Type: typ, ActorID: "u-9", ReferenceID: &ref})
		require.NoError(t, err)
	}

	page, err := f.uc.ListMovements(ctx, repository.MovementFilter{ProductID: "p1"}, dto.PageRequest{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 3, page.Page.Total)
	assertQty(t, "10", page.TotalIn)
	assertQty(t, "-5", page.TotalOut)
	assertQty(t, "-3", page.Items[0].Quantity) // más recientes primero

	page, err = f.uc.ListMovements(ctx, repository.MovementFilter{ActorID: "u-9", Type: entity.MovementTypeSale}, dto.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Page.Total)

	_, err = f.uc.ListMovements(ctx, repository.MovementFilter{Type: "otro"}, dto.PageRequest{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestMovementFilterFromRequest(t *testing.T) {
	f, err := inventory.MovementFilterFromRequest(dto.MovementFilterRequest{From: "2026-10-01", To: "2026-10-16"})
	require.NoError(t, err)
	require.NotNil(t, f.From)
	require.NotNil(t, f.To)
	assert.Equal(t, time.Date(2026, 10, 16, 23, 59, 59, 999999999, time.UTC), *f.To)

	_, err = inventory.MovementFilterFromRequest(dto.MovementFilterRequest{From: "ayer"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

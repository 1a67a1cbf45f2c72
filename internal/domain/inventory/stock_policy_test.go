package inventory_test

import (
	"testing"
	"time"

	"github.com/jhoicas/pos-stock-engine/internal/domain"
	"github.com/jhoicas/pos-stock-engine/internal/domain/inventory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestApplyDelta_SalidaNormal(t *testing.T) {
	next, err := inventory.ApplyDelta(d(10), d(-3), false)
	require.NoError(t, err)
	assert.True(t, next.Equal(d(7)))
}

func TestApplyDelta_RechazaNegativoSinPolitica(t *testing.T) {
	next, err := inventory.ApplyDelta(d(2), d(-5), false)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.True(t, next.Equal(d(2)), "la cantidad devuelta no debe cambiar al rechazar")
}

func TestApplyDelta_PermiteNegativoConPolitica(t *testing.T) {
	next, err := inventory.ApplyDelta(d(2), d(-5), true)
	require.NoError(t, err)
	assert.True(t, next.Equal(d(-3)))
}

// Un delta positivo siempre se acepta, aunque el stock siga negativo.
func TestApplyDelta_PositivoSobreNegativoSiempreAcepta(t *testing.T) {
	next, err := inventory.ApplyDelta(d(-10), d(4), false)
	require.NoError(t, err)
	assert.True(t, next.Equal(d(-6)))
}

func TestApplyBatchDelta_RecortaACero(t *testing.T) {
	next, clamped := inventory.ApplyBatchDelta(d(3), d(-8), false)
	assert.True(t, clamped)
	assert.True(t, next.IsZero())

	next, clamped = inventory.ApplyBatchDelta(d(3), d(-8), true)
	assert.False(t, clamped)
	assert.True(t, next.Equal(d(-5)))
}

// El recorte de ubicación aplica aunque la política global permita negativos.
func TestClampLocation_IgnoraPoliticaGlobal(t *testing.T) {
	next, clamped := inventory.ClampLocation(d(4), d(-9))
	assert.True(t, clamped)
	assert.True(t, next.IsZero())

	next, clamped = inventory.ClampLocation(d(4), d(6))
	assert.False(t, clamped)
	assert.True(t, next.Equal(d(10)))
}

func TestEarlierExpiry_RetieneLaMasTemprana(t *testing.T) {
	jan := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	assert.Nil(t, inventory.EarlierExpiry(nil, nil))
	assert.Equal(t, jan, *inventory.EarlierExpiry(nil, &jan))
	assert.Equal(t, jan, *inventory.EarlierExpiry(&jan, &mar))
	assert.Equal(t, jan, *inventory.EarlierExpiry(&mar, &jan))
	assert.Equal(t, mar, *inventory.EarlierExpiry(&mar, nil))
}

func TestCrossedReorder(t *testing.T) {
	assert.True(t, inventory.CrossedReorder(d(6), d(5), d(5)))
	assert.False(t, inventory.CrossedReorder(d(5), d(4), d(5)), "ya estaba bajo el reorden")
	assert.False(t, inventory.CrossedReorder(d(10), d(7), d(5)))
	assert.False(t, inventory.CrossedReorder(d(10), d(0), d(0)), "reorden en cero desactiva la alerta")
}

func TestExpiresWithin(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	soon := now.AddDate(0, 0, 5)
	late := now.AddDate(0, 2, 0)
	assert.True(t, inventory.ExpiresWithin(&soon, now, 30))
	assert.False(t, inventory.ExpiresWithin(&late, now, 30))
	assert.False(t, inventory.ExpiresWithin(nil, now, 30))
	assert.False(t, inventory.ExpiresWithin(&soon, now, 0))
}

func TestNetDeltas_AgrupaPorProducto(t *testing.T) {
	net, order := inventory.NetDeltas([]inventory.Delta{
		{ProductID: "a", Quantity: d(-2)},
		{ProductID: "b", Quantity: d(-1)},
		{ProductID: "a", Quantity: d(-3)},
		{ProductID: "a", Quantity: d(1)},
	})
	assert.Equal(t, []string{"a", "b"}, order)
	assert.True(t, net["a"].Equal(d(-4)))
	assert.True(t, net["b"].Equal(d(-1)))
}

func TestBatchTimeout_EscalaConTamano(t *testing.T) {
	assert.Equal(t, 15*time.Second, inventory.BatchTimeout(1))
	assert.Equal(t, 15*time.Second, inventory.BatchTimeout(50))
	assert.Equal(t, 25*time.Second, inventory.BatchTimeout(150))
	assert.Equal(t, 60*time.Second, inventory.BatchTimeout(10_000))
}

// Package inventory contiene las reglas puras del motor de stock (servicios de dominio sin E/S).
package inventory

import (
	"time"

	"github.com/jhoicas/pos-stock-engine/internal/domain"
	"github.com/shopspring/decimal"
)

// ApplyDelta aplica la política de stock negativo del camino de ajuste individual.
// Un delta negativo que deja la cantidad bajo cero se rechaza si allowNegative es false.
// Un delta positivo siempre se acepta, aunque el resultado siga siendo negativo.
func ApplyDelta(current, delta decimal.Decimal, allowNegative bool) (decimal.Decimal, error) {
	next := current.Add(delta)
	if delta.IsNegative() && next.IsNegative() && !allowNegative {
		return current, domain.ErrInsufficientStock
	}
	return next, nil
}

// ApplyBatchDelta es la variante del procesador por lotes: en vez de rechazar, recorta a cero.
// Diverge de ApplyDelta a propósito para no fallar una venta completa por un producto.
func ApplyBatchDelta(current, net decimal.Decimal, allowNegative bool) (next decimal.Decimal, clamped bool) {
	next = current.Add(net)
	if net.IsNegative() && next.IsNegative() && !allowNegative {
		return decimal.Zero, true
	}
	return next, false
}

// ClampLocation aplica un delta al stock de una ubicación; el resultado nunca baja de cero,
// sin importar la política global de stock negativo.
func ClampLocation(current, delta decimal.Decimal) (next decimal.Decimal, clamped bool) {
	next = current.Add(delta)
	if next.IsNegative() {
		return decimal.Zero, true
	}
	return next, false
}

// EarlierExpiry retiene el vencimiento más temprano conocido (FIFO).
func EarlierExpiry(existing, incoming *time.Time) *time.Time {
	if incoming == nil {
		return existing
	}
	if existing == nil || incoming.Before(*existing) {
		d := *incoming
		return &d
	}
	return existing
}

// CrossedReorder indica si la cantidad cruzó hacia abajo el punto de reorden en este cambio.
func CrossedReorder(previous, next, reorderLevel decimal.Decimal) bool {
	if !reorderLevel.IsPositive() {
		return false
	}
	return previous.GreaterThan(reorderLevel) && next.LessThanOrEqual(reorderLevel)
}

// ExpiresWithin indica si expiry cae dentro de la ventana de aviso contada desde now.
func ExpiresWithin(expiry *time.Time, now time.Time, days int) bool {
	if expiry == nil || days <= 0 {
		return false
	}
	return expiry.Before(now.AddDate(0, 0, days))
}

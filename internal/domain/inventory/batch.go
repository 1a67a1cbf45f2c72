package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// Límites de tiempo de las transacciones del motor.
const (
	AdjustTimeout    = 10 * time.Second
	BatchBaseTimeout = 15 * time.Second
	TransferTimeout  = 15 * time.Second
	batchFreeLines   = 50
	batchPerLine     = 100 * time.Millisecond
	batchMaxTimeout  = 60 * time.Second
)

// BatchTimeout escala el timeout del lote con su tamaño: 15s base más 100ms por línea
// a partir de la 50, con tope de 60s.
func BatchTimeout(lines int) time.Duration {
	d := BatchBaseTimeout
	if lines > batchFreeLines {
		d += time.Duration(lines-batchFreeLines) * batchPerLine
	}
	if d > batchMaxTimeout {
		d = batchMaxTimeout
	}
	return d
}

// Delta línea mínima para agrupar.
type Delta struct {
	ProductID string
	Quantity  decimal.Decimal
}

// NetDeltas agrupa los deltas por producto y devuelve el neto de cada uno junto con el orden
// de primera aparición (orden estable para bloquear filas siempre igual).
func NetDeltas(lines []Delta) (map[string]decimal.Decimal, []string) {
	net := make(map[string]decimal.Decimal, len(lines))
	order := make([]string, 0, len(lines))
	for _, l := range lines {
		cur, ok := net[l.ProductID]
		if !ok {
			order = append(order, l.ProductID)
		}
		net[l.ProductID] = cur.Add(l.Quantity)
	}
	return net, order
}

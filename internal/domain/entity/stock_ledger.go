package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockLedger es la cantidad autoritativa de un producto (vista de una sola ubicación).
// Se crea de forma perezosa en el primer uso y nunca se elimina.
type StockLedger struct {
	ProductID    string
	Quantity     decimal.Decimal // puede ser negativa solo si la política lo permite
	ReorderLevel decimal.Decimal
	ExpiryDate   *time.Time // vencimiento más temprano conocido (FIFO)
	LastUpdated  time.Time
}

// BelowReorder indica si la cantidad está en o por debajo del punto de reorden.
// Un ReorderLevel en cero desactiva la alerta.
func (l *StockLedger) BelowReorder() bool {
	if !l.ReorderLevel.IsPositive() {
		return false
	}
	return l.Quantity.LessThanOrEqual(l.ReorderLevel)
}

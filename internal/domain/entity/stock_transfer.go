package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un traslado entre ubicaciones.
const (
	TransferStatusPending   = "pending"
	TransferStatusInTransit = "in_transit"
	TransferStatusCompleted = "completed"
	TransferStatusCancelled = "cancelled"
)

// StockTransfer traslado de varios productos entre dos ubicaciones.
// Nace en pending; completed y cancelled son terminales.
type StockTransfer struct {
	ID             string     `db:"id"`
	TransferNumber string     `db:"transfer_number"`
	FromLocationID string     `db:"from_location_id"`
	ToLocationID   string     `db:"to_location_id"`
	Status         string     `db:"status"`
	Notes          string     `db:"notes"`
	RequestedByID  string     `db:"requested_by_id"`
	CompletedByID  *string    `db:"completed_by_id"`
	CancelledByID  *string    `db:"cancelled_by_id"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
	DispatchedAt   *time.Time `db:"dispatched_at"`
	CompletedAt    *time.Time `db:"completed_at"`
	CancelledAt    *time.Time `db:"cancelled_at"`

	Items []StockTransferItem `db:"-"`
}

// StockTransferItem línea de un traslado.
type StockTransferItem struct {
	ID               string          `db:"id"`
	TransferID       string          `db:"transfer_id"`
	ProductID        string          `db:"product_id"`
	Quantity         decimal.Decimal `db:"quantity"`          // solicitada
	ReceivedQuantity decimal.Decimal `db:"received_quantity"` // real, <= Quantity
	Notes            string          `db:"notes"`
}

// IsTerminal indica si el traslado ya no admite transiciones.
func (t *StockTransfer) IsTerminal() bool {
	return t.Status == TransferStatusCompleted || t.Status == TransferStatusCancelled
}

// CanDispatch pending -> in_transit.
func (t *StockTransfer) CanDispatch() bool {
	return t.Status == TransferStatusPending
}

// CanComplete y CanCancel: solo desde pending o in_transit.
func (t *StockTransfer) CanComplete() bool { return !t.IsTerminal() }
func (t *StockTransfer) CanCancel() bool   { return !t.IsTerminal() }

// Item busca una línea por ID.
func (t *StockTransfer) Item(itemID string) (*StockTransferItem, bool) {
	for i := range t.Items {
		if t.Items[i].ID == itemID {
			return &t.Items[i], true
		}
	}
	return nil, false
}

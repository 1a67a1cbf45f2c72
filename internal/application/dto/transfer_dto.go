package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferItemRequest línea solicitada en un traslado.
type TransferItemRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	Notes     string          `json:"notes"`
}

// CreateTransferRequest body para POST /api/transfers.
type CreateTransferRequest struct {
	FromLocationID string                `json:"from_location_id"`
	ToLocationID   string                `json:"to_location_id"`
	Notes          string                `json:"notes"`
	Items          []TransferItemRequest `json:"items"`
}

// ReceivedItemRequest cantidad realmente recibida de una línea.
type ReceivedItemRequest struct {
	ItemID           string          `json:"item_id"`
	ReceivedQuantity decimal.Decimal `json:"received_quantity"`
}

// CompleteTransferRequest body para POST /api/transfers/:id/complete.
type CompleteTransferRequest struct {
	Items []ReceivedItemRequest `json:"items"`
}

// TransferFilterRequest query de GET /api/transfers.
type TransferFilterRequest struct {
	PageRequest
	Status     string `query:"status"`
	LocationID string `query:"location_id"`
}

// TransferItemResponse línea de un traslado.
type TransferItemResponse struct {
	ID               string          `json:"id"`
	ProductID        string          `json:"product_id"`
	Quantity         decimal.Decimal `json:"quantity"`
	ReceivedQuantity decimal.Decimal `json:"received_quantity"`
	Notes            string          `json:"notes,omitempty"`
}

// TransferResponse salida de un traslado.
type TransferResponse struct {
	ID             string                 `json:"id"`
	TransferNumber string                 `json:"transfer_number"`
	FromLocationID string                 `json:"from_location_id"`
	ToLocationID   string                 `json:"to_location_id"`
	Status         string                 `json:"status"`
	Notes          string                 `json:"notes,omitempty"`
	RequestedByID  string                 `json:"requested_by_id"`
	CompletedByID  *string                `json:"completed_by_id,omitempty"`
	CancelledByID  *string                `json:"cancelled_by_id,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
	DispatchedAt   *time.Time             `json:"dispatched_at,omitempty"`
	CompletedAt    *time.Time             `json:"completed_at,omitempty"`
	CancelledAt    *time.Time             `json:"cancelled_at,omitempty"`
	Items          []TransferItemResponse `json:"items"`
}

// TransferListResponse lista paginada de traslados (sin líneas).
type TransferListResponse struct {
	Items []TransferResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

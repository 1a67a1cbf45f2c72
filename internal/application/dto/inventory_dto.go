package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// EnsureLedgerRequest body para PUT /api/inventory/ledgers/:product_id.
// Los valores solo se usan si el ledger no existe todavía.
type EnsureLedgerRequest struct {
	InitialQuantity decimal.Decimal `json:"initial_quantity"`
	ReorderLevel    decimal.Decimal `json:"reorder_level"`
}

// UpdateReorderLevelRequest body para PATCH del punto de reorden.
type UpdateReorderLevelRequest struct {
	ReorderLevel decimal.Decimal `json:"reorder_level"`
}

// LedgerResponse salida de un ledger.
type LedgerResponse struct {
	ProductID    string          `json:"product_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	ReorderLevel decimal.Decimal `json:"reorder_level"`
	ExpiryDate   *time.Time      `json:"expiry_date,omitempty"`
	LastUpdated  time.Time       `json:"last_updated"`
	BelowReorder bool            `json:"below_reorder"`
}

// AdjustRequest body para POST /api/inventory/adjustments. Quantity es el delta con signo.
type AdjustRequest struct {
	ProductID   string          `json:"product_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	Type        string          `json:"type"`
	Reason      string          `json:"reason"`
	ReferenceID *string         `json:"reference_id,omitempty"`
	ExpiryDate  *time.Time      `json:"expiry_date,omitempty"`
}

// AdjustResponse ledger actualizado y el movimiento escrito.
type AdjustResponse struct {
	Ledger   LedgerResponse   `json:"ledger"`
	Movement MovementResponse `json:"movement"`
}

// BatchLineRequest una línea del lote (por ejemplo, un ítem de una venta).
type BatchLineRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	Type      string          `json:"type"`
	Reason    string          `json:"reason"`
}

// BatchAdjustRequest body para POST /api/inventory/batch-adjustments.
type BatchAdjustRequest struct {
	ReferenceID *string            `json:"reference_id,omitempty"`
	Lines       []BatchLineRequest `json:"lines"`
}

// MovementFilterRequest query de GET /api/inventory/movements.
type MovementFilterRequest struct {
	PageRequest
	Scope       string `query:"scope"` // ledger (defecto) | location | all
	ProductID   string `query:"product_id"`
	Type        string `query:"type"`
	ActorID     string `query:"actor_id"`
	LocationID  string `query:"location_id"`
	ReferenceID string `query:"reference_id"`
	From        string `query:"from"` // RFC3339 o YYYY-MM-DD
	To          string `query:"to"`
}

// MovementResponse salida de un movimiento.
type MovementResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	LocationID  *string         `json:"location_id,omitempty"`
	Type        string          `json:"type"`
	Quantity    decimal.Decimal `json:"quantity"`
	Reason      string          `json:"reason"`
	ActorID     *string         `json:"actor_id,omitempty"`
	ReferenceID *string         `json:"reference_id,omitempty"`
	ExpiryDate  *time.Time      `json:"expiry_date,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// MovementListResponse página de movimientos con totales calculados al consultar.
type MovementListResponse struct {
	Items    []MovementResponse `json:"items"`
	TotalIn  decimal.Decimal    `json:"total_in"`
	TotalOut decimal.Decimal    `json:"total_out"`
	Page     PageResponse       `json:"page"`
}

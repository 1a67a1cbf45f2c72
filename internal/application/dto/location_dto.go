package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// AdjustLocationStockRequest body para POST /api/locations/:id/stock (recepciones y conteos).
type AdjustLocationStockRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	Reason    string          `json:"reason"`
}

// LocationStockResponse stock de un producto en una ubicación.
type LocationStockResponse struct {
	ProductID  string          `json:"product_id"`
	LocationID string          `json:"location_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	Clamped    bool            `json:"clamped,omitempty"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// LocationStockListResponse stock de una ubicación.
type LocationStockListResponse struct {
	LocationID string                  `json:"location_id"`
	Items      []LocationStockResponse `json:"items"`
}

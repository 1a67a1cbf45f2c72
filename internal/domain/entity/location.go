package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Location representa una ubicación física (tienda, bodega) entre las que se traslada stock.
type Location struct {
	ID        string
	Code      string
	Name      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LocationStock cantidad de un producto en una ubicación.
// Independiente del StockLedger; nunca es negativa.
type LocationStock struct {
	ProductID  string          `db:"product_id"`
	LocationID string          `db:"location_id"`
	Quantity   decimal.Decimal `db:"quantity"`
	UpdatedAt  time.Time       `db:"updated_at"`
}

package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de stock.
const (
	MovementTypeAdjustment = "adjustment"
	MovementTypeTransfer   = "transfer"
	MovementTypeDamage     = "damage"
	MovementTypeExpiry     = "expiry"
	MovementTypePurchase   = "purchase"
	MovementTypeSale       = "sale"
	MovementTypeReturn     = "return"
)

var movementTypes = map[string]struct{}{
	MovementTypeAdjustment: {},
	MovementTypeTransfer:   {},
	MovementTypeDamage:     {},
	MovementTypeExpiry:     {},
	MovementTypePurchase:   {},
	MovementTypeSale:       {},
	MovementTypeReturn:     {},
}

// ValidMovementType indica si t es uno de los tipos conocidos.
func ValidMovementType(t string) bool {
	_, ok := movementTypes[t]
	return ok
}

// StockMovement registro inmutable de un cambio de cantidad (auditoría append-only).
type StockMovement struct {
	ID          string          `db:"id"`
	ProductID   string          `db:"product_id"`
	LocationID  *string         `db:"location_id"` // solo para movimientos de ubicación/traslado
	Type        string          `db:"type"`
	Quantity    decimal.Decimal `db:"quantity"` // delta con signo
	Reason      string          `db:"reason"`
	ActorID     *string         `db:"actor_id"`
	ReferenceID *string         `db:"reference_id"` // venta, compra o traslado
	ExpiryDate  *time.Time      `db:"expiry_date"`
	CreatedAt   time.Time       `db:"created_at"`
}

package repository

import (
	"context"
	"time"

	"github.com/jhoicas/pos-stock-engine/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Alcance de una consulta de movimientos. El ledger solo se audita contra sus propios
// movimientos (location_id nulo); los de stock por ubicación y traslados van aparte.
const (
	MovementScopeLedger   = "ledger"
	MovementScopeLocation = "location"
	MovementScopeAll      = "all"
)

// MovementFilter filtros opcionales para consultar el historial; campos vacíos no filtran.
// Scope vacío equivale a "location" si hay LocationID y a "ledger" en otro caso.
type MovementFilter struct {
	Scope       string
	ProductID   string
	Type        string
	ActorID     string
	LocationID  string
	ReferenceID string
	From        *time.Time
	To          *time.Time
}

// EffectiveScope resuelve el alcance por defecto.
func (f MovementFilter) EffectiveScope() string {
	if f.Scope != "" {
		return f.Scope
	}
	if f.LocationID != "" {
		return MovementScopeLocation
	}
	return MovementScopeLedger
}

// ValidMovementScope indica si s es un alcance reconocido (vacío incluido).
func ValidMovementScope(s string) bool {
	switch s {
	case "", MovementScopeLedger, MovementScopeLocation, MovementScopeAll:
		return true
	}
	return false
}

// MovementTotals agregados calculados al momento de la consulta (no se mantienen incrementalmente).
type MovementTotals struct {
	Count    int             `db:"count"`
	TotalIn  decimal.Decimal `db:"total_in"`  // suma de deltas positivos
	TotalOut decimal.Decimal `db:"total_out"` // suma de deltas negativos
}

// MovementRepository puerto del registro de movimientos (append-only: no hay Update ni Delete).
type MovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	CreateMany(ctx context.Context, movements []*entity.StockMovement) error
	List(ctx context.Context, filter MovementFilter, limit, offset int) ([]*entity.StockMovement, error)
	Totals(ctx context.Context, filter MovementFilter) (MovementTotals, error)
}

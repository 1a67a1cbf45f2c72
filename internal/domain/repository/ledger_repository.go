package repository

import (
	"context"

	"github.com/jhoicas/pos-stock-engine/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// LedgerRepository define el puerto de persistencia del StockLedger.
// Las lecturas ForUpdate solo tienen sentido dentro de una transacción (SELECT ... FOR UPDATE).
type LedgerRepository interface {
	// Ensure crea el ledger si no existe y devuelve la fila vigente; nunca sobrescribe.
	// created indica si la fila se insertó en esta llamada.
	Ensure(ctx context.Context, ledger *entity.StockLedger) (current *entity.StockLedger, created bool, err error)
	Get(ctx context.Context, productID string) (*entity.StockLedger, error)
	GetForUpdate(ctx context.Context, productID string) (*entity.StockLedger, error)
	// GetManyForUpdate bloquea y devuelve los ledgers indicados en una sola lectura.
	GetManyForUpdate(ctx context.Context, productIDs []string) (map[string]*entity.StockLedger, error)
	Update(ctx context.Context, ledger *entity.StockLedger) error
	UpdateMany(ctx context.Context, ledgers []*entity.StockLedger) error
	UpdateReorderLevel(ctx context.Context, productID string, level decimal.Decimal) error
}

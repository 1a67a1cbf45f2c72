package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/pos-stock-engine/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD acotada por timeout,
// pasando repositorios atados a esa tx. Si fn devuelve error se hace Rollback completo.
type TxRunner interface {
	Run(ctx context.Context, timeout time.Duration, fn func(
		ctx context.Context,
		ledgerRepo repository.LedgerRepository,
		movRepo repository.MovementRepository,
	) error) error
}

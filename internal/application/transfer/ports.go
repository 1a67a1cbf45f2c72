package transfer

import (
	"context"
	"time"

	"github.com/jhoicas/pos-stock-engine/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción con los repos de traslados,
// stock por ubicación y movimientos. Completar un traslado es todo o nada.
type TxRunner interface {
	RunTransfer(ctx context.Context, timeout time.Duration, fn func(
		ctx context.Context,
		transferRepo repository.TransferRepository,
		locStockRepo repository.LocationStockRepository,
		movRepo repository.MovementRepository,
	) error) error
}

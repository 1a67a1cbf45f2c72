package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/pos-stock-engine/internal/application/inventory"
	"github.com/jhoicas/pos-stock-engine/internal/application/transfer"
	"github.com/jhoicas/pos-stock-engine/internal/domain"
	"github.com/jhoicas/pos-stock-engine/internal/domain/repository"
	"github.com/jhoicas/pos-stock-engine/pkg/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var _ inventory.TxRunner = (*TxRunner)(nil)
var _ transfer.TxRunner = (*TxRunner)(nil)

var tracer = otel.Tracer("pos-stock-engine/postgres")

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL acotada por timeout.
type TxRunner struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool, log *logger.Logger) *TxRunner {
	if log == nil {
		log = logger.Nop()
	}
	return &TxRunner{pool: pool, log: log.Component("tx")}
}

// Run inicia una transacción con los repos de ledger y movimientos.
func (r *TxRunner) Run(ctx context.Context, timeout time.Duration, fn func(
	ctx context.Context,
	ledgerRepo repository.LedgerRepository,
	movRepo repository.MovementRepository,
) error) error {
	return r.inTx(ctx, "ledger", timeout, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, NewLedgerRepository(tx), NewMovementRepository(tx))
	})
}

// RunTransfer inicia una transacción con los repos de traslados, stock por ubicación y movimientos.
func (r *TxRunner) RunTransfer(ctx context.Context, timeout time.Duration, fn func(
	ctx context.Context,
	transferRepo repository.TransferRepository,
	locStockRepo repository.LocationStockRepository,
	movRepo repository.MovementRepository,
) error) error {
	return r.inTx(ctx, "transfer", timeout, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, NewTransferRepository(tx), NewLocationStockRepository(tx), NewMovementRepository(tx))
	})
}

// inTx abre la tx en READ COMMITTED, fija statement_timeout al plazo restante y hace Commit
// o Rollback. Los errores de negocio se devuelven tal cual; el resto se envuelve en ErrStorage.
func (r *TxRunner) inTx(ctx context.Context, name string, timeout time.Duration, fn func(ctx context.Context, tx pgx.Tx) error) (err error) {
	ctx, span := tracer.Start(ctx, "postgres.tx."+name,
		trace.WithAttributes(attribute.Int64("tx.timeout_ms", timeout.Milliseconds())),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return r.classify(name, fmt.Errorf("begin transaction: %w", err))
	}
	defer func() {
		// El ctx puede estar vencido; el rollback debe llegar igual.
		_ = tx.Rollback(context.Background())
	}()

	if timeout > 0 {
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL statement_timeout = '%dms'", timeout.Milliseconds())); err != nil {
			return r.classify(name, fmt.Errorf("set statement_timeout: %w", err))
		}
	}

	if err := fn(ctx, tx); err != nil {
		return r.classify(name, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return r.classify(name, fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

func (r *TxRunner) classify(name string, err error) error {
	if domain.IsBusinessError(err) {
		return err
	}
	r.log.Error().Err(err).Str("tx", name).Msg("transacción revertida")
	return errors.Join(domain.ErrStorage, err)
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/pos-stock-engine/internal/domain"
	"github.com/jhoicas/pos-stock-engine/internal/domain/entity"
	"github.com/jhoicas/pos-stock-engine/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

const ledgerColumns = `product_id, quantity, reorder_level, expiry_date, last_updated`

// LedgerRepo implementación de LedgerRepository sobre la tabla stock_ledger.
type LedgerRepo struct {
	q Querier
}

// NewLedgerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLedgerRepository(q Querier) *LedgerRepo {
	return &LedgerRepo{q: q}
}

// Ensure inserta el ledger si no existe (ON CONFLICT DO NOTHING) y devuelve la fila vigente.
func (r *LedgerRepo) Ensure(ctx context.Context, ledger *entity.StockLedger) (*entity.StockLedger, bool, error) {
	query := `
		INSERT INTO stock_ledger (product_id, quantity, reorder_level, expiry_date, last_updated)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (product_id) DO NOTHING
		RETURNING ` + ledgerColumns
	created, err := scanLedger(r.q.QueryRow(ctx, query,
		ledger.ProductID, ledger.Quantity, ledger.ReorderLevel, ledger.ExpiryDate, ledger.LastUpdated,
	))
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		if isForeignKeyViolation(err) {
			return nil, false, domain.ErrNotFound
		}
		return nil, false, fmt.Errorf("ensure ledger: %w", err)
	}
	current, err := r.Get(ctx, ledger.ProductID)
	if err != nil {
		return nil, false, err
	}
	return current, false, nil
}

// Get obtiene el ledger de un producto.
func (r *LedgerRepo) Get(ctx context.Context, productID string) (*entity.StockLedger, error) {
	query := `SELECT ` + ledgerColumns + ` FROM stock_ledger WHERE product_id = $1`
	l, err := scanLedger(r.q.QueryRow(ctx, query, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get ledger: %w", err)
	}
	return l, nil
}

// GetForUpdate obtiene el ledger y bloquea la fila (SELECT FOR UPDATE).
func (r *LedgerRepo) GetForUpdate(ctx context.Context, productID string) (*entity.StockLedger, error) {
	query := `SELECT ` + ledgerColumns + ` FROM stock_ledger WHERE product_id = $1 FOR UPDATE`
	l, err := scanLedger(r.q.QueryRow(ctx, query, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get ledger for update: %w", err)
	}
	return l, nil
}

// GetManyForUpdate bloquea los ledgers en orden de product_id para que dos lotes
// concurrentes no se bloqueen mutuamente.
func (r *LedgerRepo) GetManyForUpdate(ctx context.Context, productIDs []string) (map[string]*entity.StockLedger, error) {
	out := make(map[string]*entity.StockLedger, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	query := `
		SELECT ` + ledgerColumns + `
		FROM stock_ledger WHERE product_id = ANY($1)
		ORDER BY product_id
		FOR UPDATE`
	rows, err := r.q.Query(ctx, query, productIDs)
	if err != nil {
		return nil, fmt.Errorf("lock ledgers: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		l, err := scanLedger(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger: %w", err)
		}
		out[l.ProductID] = l
	}
	return out, rows.Err()
}

// Update persiste cantidad, vencimiento y marca de tiempo.
func (r *LedgerRepo) Update(ctx context.Context, ledger *entity.StockLedger) error {
	tag, err := r.q.Exec(ctx, updateLedgerSQL,
		ledger.ProductID, ledger.Quantity, ledger.ExpiryDate, ledger.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("update ledger: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

const updateLedgerSQL = `
	UPDATE stock_ledger
	SET quantity = $2, expiry_date = $3, last_updated = $4
	WHERE product_id = $1`

// UpdateMany envía todas las actualizaciones del lote en un solo round-trip (pgx.Batch).
func (r *LedgerRepo) UpdateMany(ctx context.Context, ledgers []*entity.StockLedger) error {
	if len(ledgers) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, l := range ledgers {
		batch.Queue(updateLedgerSQL, l.ProductID, l.Quantity, l.ExpiryDate, l.LastUpdated)
	}
	br := r.q.SendBatch(ctx, batch)
	defer br.Close()
	for _, l := range ledgers {
		tag, err := br.Exec()
		if err != nil {
			return fmt.Errorf("update ledger %s: %w", l.ProductID, err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
	}
	return br.Close()
}

// UpdateReorderLevel cambia solo el punto de reorden.
func (r *LedgerRepo) UpdateReorderLevel(ctx context.Context, productID string, level decimal.Decimal) error {
	query := `UPDATE stock_ledger SET reorder_level = $2, last_updated = now() WHERE product_id = $1`
	tag, err := r.q.Exec(ctx, query, productID, level)
	if err != nil {
		return fmt.Errorf("update reorder level: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanLedger(row pgx.Row) (*entity.StockLedger, error) {
	var l entity.StockLedger
	if err := row.Scan(&l.ProductID, &l.Quantity, &l.ReorderLevel, &l.ExpiryDate, &l.LastUpdated); err != nil {
		return nil, err
	}
	return &l, nil
}

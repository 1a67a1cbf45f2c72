package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/pos-stock-engine/internal/domain"
	"github.com/jhoicas/pos-stock-engine/internal/domain/entity"
	"github.com/jhoicas/pos-stock-engine/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.TransferRepository = (*TransferRepo)(nil)

var transferColumns = []string{
	"id", "transfer_number", "from_location_id", "to_location_id", "status", "notes",
	"requested_by_id", "completed_by_id", "cancelled_by_id",
	"created_at", "updated_at", "dispatched_at", "completed_at", "cancelled_at",
}

// TransferRepo traslados entre ubicaciones (stock_transfers y stock_transfer_items).
type TransferRepo struct {
	q Querier
}

// NewTransferRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransferRepository(q Querier) *TransferRepo {
	return &TransferRepo{q: q}
}

// Create inserta cabecera y líneas en un solo batch. El número de traslado es UNIQUE:
// una colisión se devuelve como domain.ErrDuplicate para que el caso de uso reintente.
func (r *TransferRepo) Create(ctx context.Context, t *entity.StockTransfer) error {
	header, args, err := psql.Insert("stock_transfers").Columns(transferColumns...).Values(
		t.ID, t.TransferNumber, t.FromLocationID, t.ToLocationID, t.Status, t.Notes,
		t.RequestedByID, t.CompletedByID, t.CancelledByID,
		t.CreatedAt, t.UpdatedAt, t.DispatchedAt, t.CompletedAt, t.CancelledAt,
	).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	batch := &pgx.Batch{}
	batch.Queue(header, args...)
	for _, it := range t.Items {
		batch.Queue(`
			INSERT INTO stock_transfer_items (id, transfer_id, product_id, quantity, received_quantity, notes)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			it.ID, t.ID, it.ProductID, it.Quantity, it.ReceivedQuantity, it.Notes,
		)
	}
	br := r.q.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			switch {
			case isUniqueViolation(err):
				return domain.ErrDuplicate
			case isForeignKeyViolation(err):
				return domain.ErrNotFound
			}
			return fmt.Errorf("insert transfer: %w", err)
		}
	}
	return br.Close()
}

// GetByID obtiene el traslado con sus líneas.
func (r *TransferRepo) GetByID(ctx context.Context, id string) (*entity.StockTransfer, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate bloquea la cabecera del traslado; dos Complete concurrentes se serializan aquí.
func (r *TransferRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockTransfer, error) {
	return r.get(ctx, id, true)
}

func (r *TransferRepo) get(ctx context.Context, id string, forUpdate bool) (*entity.StockTransfer, error) {
	q := psql.Select(transferColumns...).From("stock_transfers").Where(squirrel.Eq{"id": id})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var t entity.StockTransfer
	if err := pgxscan.Get(ctx, r.q, &t, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get transfer: %w", err)
	}

	itemsSQL := `
		SELECT id, transfer_id, product_id, quantity, received_quantity, notes
		FROM stock_transfer_items WHERE transfer_id = $1
		ORDER BY product_id`
	if err := pgxscan.Select(ctx, r.q, &t.Items, itemsSQL, id); err != nil {
		return nil, fmt.Errorf("get transfer items: %w", err)
	}
	return &t, nil
}

// UpdateStatus persiste estado, responsables y marcas de tiempo.
func (r *TransferRepo) UpdateStatus(ctx context.Context, t *entity.StockTransfer) error {
	query := `
		UPDATE stock_transfers
		SET status = $2, completed_by_id = $3, cancelled_by_id = $4, updated_at = $5,
		    dispatched_at = $6, completed_at = $7, cancelled_at = $8
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		t.ID, t.Status, t.CompletedByID, t.CancelledByID, t.UpdatedAt,
		t.DispatchedAt, t.CompletedAt, t.CancelledAt,
	)
	if err != nil {
		return fmt.Errorf("update transfer status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateItemReceived registra la cantidad recibida de una línea.
func (r *TransferRepo) UpdateItemReceived(ctx context.Context, itemID string, received decimal.Decimal) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE stock_transfer_items SET received_quantity = $2 WHERE id = $1`,
		itemID, received,
	)
	if err != nil {
		return fmt.Errorf("update transfer item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// LastNumberWithPrefix mayor número con el prefijo. Se ordena por longitud primero para que
// TRF-10000 quede por encima de TRF-09999.
func (r *TransferRepo) LastNumberWithPrefix(ctx context.Context, prefix string) (string, error) {
	query := `
		SELECT transfer_number FROM stock_transfers
		WHERE transfer_number LIKE $1 || '%'
		ORDER BY length(transfer_number) DESC, transfer_number DESC
		LIMIT 1`
	var last string
	err := r.q.QueryRow(ctx, query, prefix).Scan(&last)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("last transfer number: %w", err)
	}
	return last, nil
}

// List devuelve cabeceras (sin líneas), más recientes primero, y el total filtrado.
func (r *TransferRepo) List(ctx context.Context, f repository.TransferFilter, limit, offset int) ([]*entity.StockTransfer, int, error) {
	q := psql.Select(transferColumns...).From("stock_transfers")
	if f.Status != "" {
		q = q.Where(squirrel.Eq{"status": f.Status})
	}
	if f.LocationID != "" {
		q = q.Where(squirrel.Or{
			squirrel.Eq{"from_location_id": f.LocationID},
			squirrel.Eq{"to_location_id": f.LocationID},
		})
	}

	countSQL, countArgs, err := psql.Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count: %w", err)
	}
	var total int
	if err := r.q.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transfers: %w", err)
	}

	q = q.OrderBy("created_at DESC", "transfer_number DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	if offset > 0 {
		q = q.Offset(uint64(offset))
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build query: %w", err)
	}
	var items []*entity.StockTransfer
	if err := pgxscan.Select(ctx, r.q, &items, sql, args...); err != nil {
		return nil, 0, fmt.Errorf("list transfers: %w", err)
	}
	return items, total, nil
}

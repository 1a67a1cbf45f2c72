package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/pos-stock-engine/internal/domain"
	"github.com/jhoicas/pos-stock-engine/internal/domain/entity"
	"github.com/jhoicas/pos-stock-engine/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var movementColumns = []string{
	"id", "product_id", "location_id", "type", "quantity", "reason",
	"actor_id", "reference_id", "expiry_date", "created_at",
}

// MovementRepo registro append-only de movimientos (tabla stock_movements).
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Create inserta un movimiento.
func (r *MovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	sql, args, err := psql.Insert("stock_movements").Columns(movementColumns...).Values(movementRow(m)...).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.q.Exec(ctx, sql, args...); err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

// CreateMany escribe los movimientos de un lote con COPY.
func (r *MovementRepo) CreateMany(ctx context.Context, movements []*entity.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(movements))
	for _, m := range movements {
		rows = append(rows, movementRow(m))
	}
	n, err := r.q.CopyFrom(ctx, pgx.Identifier{"stock_movements"}, movementColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("copy movements: %w", err)
	}
	if int(n) != len(movements) {
		return fmt.Errorf("copy movements: esperadas %d filas, insertadas %d", len(movements), n)
	}
	return nil
}

// List devuelve movimientos filtrados, más recientes primero.
func (r *MovementRepo) List(ctx context.Context, filter repository.MovementFilter, limit, offset int) ([]*entity.StockMovement, error) {
	q := applyMovementFilter(psql.Select(movementColumns...).From("stock_movements"), filter).
		OrderBy("created_at DESC", "id DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	if offset > 0 {
		q = q.Offset(uint64(offset))
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var items []*entity.StockMovement
	if err := pgxscan.Select(ctx, r.q, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return items, nil
}

// Totals calcula en una sola consulta el conteo y las sumas de entradas y salidas.
func (r *MovementRepo) Totals(ctx context.Context, filter repository.MovementFilter) (repository.MovementTotals, error) {
	q := applyMovementFilter(psql.Select(
		"COUNT(*) AS count",
		"COALESCE(SUM(quantity) FILTER (WHERE quantity > 0), 0) AS total_in",
		"COALESCE(SUM(quantity) FILTER (WHERE quantity < 0), 0) AS total_out",
	).From("stock_movements"), filter)
	var totals repository.MovementTotals
	sql, args, err := q.ToSql()
	if err != nil {
		return totals, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Get(ctx, r.q, &totals, sql, args...); err != nil {
		return totals, fmt.Errorf("movement totals: %w", err)
	}
	return totals, nil
}

func applyMovementFilter(q squirrel.SelectBuilder, f repository.MovementFilter) squirrel.SelectBuilder {
	switch f.EffectiveScope() {
	case repository.MovementScopeLedger:
		q = q.Where(squirrel.Eq{"location_id": nil})
	case repository.MovementScopeLocation:
		q = q.Where(squirrel.NotEq{"location_id": nil})
	}
	if f.ProductID != "" {
		q = q.Where(squirrel.Eq{"product_id": f.ProductID})
	}
	if f.Type != "" {
		q = q.Where(squirrel.Eq{"type": f.Type})
	}
	if f.ActorID != "" {
		q = q.Where(squirrel.Eq{"actor_id": f.ActorID})
	}
	if f.LocationID != "" {
		q = q.Where(squirrel.Eq{"location_id": f.LocationID})
	}
	if f.ReferenceID != "" {
		q = q.Where(squirrel.Eq{"reference_id": f.ReferenceID})
	}
	if f.From != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *f.From})
	}
	if f.To != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *f.To})
	}
	return q
}

func movementRow(m *entity.StockMovement) []any {
	return []any{
		m.ID, m.ProductID, m.LocationID, m.Type, m.Quantity, m.Reason,
		m.ActorID, m.ReferenceID, m.ExpiryDate, m.CreatedAt,
	}
}

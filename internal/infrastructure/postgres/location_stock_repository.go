package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/pos-stock-engine/internal/domain"
	"github.com/jhoicas/pos-stock-engine/internal/domain/entity"
	"github.com/jhoicas/pos-stock-engine/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.LocationStockRepository = (*LocationStockRepo)(nil)

// LocationStockRepo stock por producto y ubicación (tabla location_stock).
type LocationStockRepo struct {
	q Querier
}

// NewLocationStockRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLocationStockRepository(q Querier) *LocationStockRepo {
	return &LocationStockRepo{q: q}
}

// Get obtiene el stock de un producto en una ubicación; cero si no hay fila.
func (r *LocationStockRepo) Get(ctx context.Context, productID, locationID string) (*entity.LocationStock, error) {
	query := `
		SELECT product_id, location_id, quantity, updated_at
		FROM location_stock WHERE product_id = $1 AND location_id = $2`
	return r.get(ctx, query, productID, locationID)
}

// GetForUpdate crea la fila en cero si falta y la bloquea (SELECT FOR UPDATE). Sin la fila
// previa dos transacciones leerían cero sin bloqueo y la segunda pisaría a la primera.
func (r *LocationStockRepo) GetForUpdate(ctx context.Context, productID, locationID string) (*entity.LocationStock, error) {
	ensure := `
		INSERT INTO location_stock (product_id, location_id, quantity, updated_at)
		VALUES ($1, $2, 0, now())
		ON CONFLICT (product_id, location_id) DO NOTHING`
	if _, err := r.q.Exec(ctx, ensure, productID, locationID); err != nil {
		if isForeignKeyViolation(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("ensure location stock: %w", err)
	}
	query := `
		SELECT product_id, location_id, quantity, updated_at
		FROM location_stock WHERE product_id = $1 AND location_id = $2
		FOR UPDATE`
	return r.get(ctx, query, productID, locationID)
}

func (r *LocationStockRepo) get(ctx context.Context, query, productID, locationID string) (*entity.LocationStock, error) {
	var s entity.LocationStock
	err := r.q.QueryRow(ctx, query, productID, locationID).Scan(
		&s.ProductID, &s.LocationID, &s.Quantity, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.LocationStock{ProductID: productID, LocationID: locationID, Quantity: decimal.Zero}, nil
		}
		return nil, fmt.Errorf("get location stock: %w", err)
	}
	return &s, nil
}

// Upsert inserta o actualiza la cantidad (por producto y ubicación).
func (r *LocationStockRepo) Upsert(ctx context.Context, stock *entity.LocationStock) error {
	if stock.Quantity.IsNegative() {
		return domain.ErrInvalidInput
	}
	query := `
		INSERT INTO location_stock (product_id, location_id, quantity, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (product_id, location_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = now()`
	_, err := r.q.Exec(ctx, query, stock.ProductID, stock.LocationID, stock.Quantity)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("upsert location stock: %w", err)
	}
	return nil
}

// ListByLocation lista el stock de una ubicación ordenado por producto.
func (r *LocationStockRepo) ListByLocation(ctx context.Context, locationID string) ([]*entity.LocationStock, error) {
	query := `
		SELECT product_id, location_id, quantity, updated_at
		FROM location_stock WHERE location_id = $1
		ORDER BY product_id`
	var items []*entity.LocationStock
	if err := pgxscan.Select(ctx, r.q, &items, query, locationID); err != nil {
		return nil, fmt.Errorf("list location stock: %w", err)
	}
	return items, nil
}

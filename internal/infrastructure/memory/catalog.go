package memory

import (
	"context"
	"time"

	"github.com/jhoicas/pos-stock-engine/internal/domain"
	"github.com/jhoicas/pos-stock-engine/internal/domain/entity"
	"github.com/jhoicas/pos-stock-engine/internal/domain/repository"
)

var (
	_ repository.ProductRepository       = (*ProductRepo)(nil)
	_ repository.LocationRepository      = (*LocationRepo)(nil)
	_ repository.LocationStockRepository = (*LocationStockRepo)(nil)
)

// ProductRepo catálogo en memoria.
type ProductRepo struct{ repoBase }

func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	p, ok := r.view().products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r *ProductRepo) ExistingIDs(_ context.Context, ids []string) (map[string]bool, error) {
	st := r.view()
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := st.products[id]; ok {
			out[id] = true
		}
	}
	return out, nil
}

// LocationRepo ubicaciones en memoria.
type LocationRepo struct{ repoBase }

func (r *LocationRepo) GetByID(_ context.Context, id string) (*entity.Location, error) {
	l, ok := r.view().locations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &l, nil
}

// LocationStockRepo stock por ubicación en memoria.
type LocationStockRepo struct{ repoBase }

func (r *LocationStockRepo) Get(_ context.Context, productID, locationID string) (*entity.LocationStock, error) {
	s, ok := r.view().locStock[locKey{productID, locationID}]
	if !ok {
		return &entity.LocationStock{ProductID: productID, LocationID: locationID}, nil
	}
	return &s, nil
}

func (r *LocationStockRepo) GetForUpdate(ctx context.Context, productID, locationID string) (*entity.LocationStock, error) {
	return r.Get(ctx, productID, locationID)
}

func (r *LocationStockRepo) Upsert(ctx context.Context, stock *entity.LocationStock) error {
	return r.write(ctx, "location_stock.upsert", func(st *state) error {
		if stock.Quantity.IsNegative() {
			return domain.ErrInvalidInput
		}
		s := *stock
		if s.UpdatedAt.IsZero() {
			s.UpdatedAt = time.Now()
		}
		st.locStock[locKey{stock.ProductID, stock.LocationID}] = s
		return nil
	})
}

func (r *LocationStockRepo) ListByLocation(_ context.Context, locationID string) ([]*entity.LocationStock, error) {
	out := make([]*entity.LocationStock, 0)
	for k, v := range r.view().locStock {
		if k.locationID == locationID {
			s := v
			out = append(out, &s)
		}
	}
	sortLocationStock(out)
	return out, nil
}

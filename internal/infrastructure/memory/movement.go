package memory

import (
	"context"

	"github.com/jhoicas/pos-stock-engine/internal/domain/entity"
	"github.com/jhoicas/pos-stock-engine/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo registro append-only en memoria.
type MovementRepo struct{ repoBase }

func (r *MovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	return r.write(ctx, "movements.create", func(st *state) error {
		st.movements = append(st.movements, *m)
		return nil
	})
}

func (r *MovementRepo) CreateMany(ctx context.Context, movements []*entity.StockMovement) error {
	return r.write(ctx, "movements.create_many", func(st *state) error {
		for _, m := range movements {
			st.movements = append(st.movements, *m)
		}
		return nil
	})
}

// List devuelve los movimientos más recientes primero.
func (r *MovementRepo) List(_ context.Context, f repository.MovementFilter, limit, offset int) ([]*entity.StockMovement, error) {
	all := r.view().movements
	out := make([]*entity.StockMovement, 0, limit)
	skipped := 0
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		if !matches(&all[i], f) {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		m := all[i]
		out = append(out, &m)
	}
	return out, nil
}

func (r *MovementRepo) Totals(_ context.Context, f repository.MovementFilter) (repository.MovementTotals, error) {
	t := repository.MovementTotals{TotalIn: decimal.Zero, TotalOut: decimal.Zero}
	all := r.view().movements
	for i := range all {
		m := &all[i]
		if !matches(m, f) {
			continue
		}
		t.Count++
		if m.Quantity.IsPositive() {
			t.TotalIn = t.TotalIn.Add(m.Quantity)
		} else {
			t.TotalOut = t.TotalOut.Add(m.Quantity)
		}
	}
	return t, nil
}

func matches(m *entity.StockMovement, f repository.MovementFilter) bool {
	switch f.EffectiveScope() {
	case repository.MovementScopeLedger:
		if m.LocationID != nil {
			return false
		}
	case repository.MovementScopeLocation:
		if m.LocationID == nil {
			return false
		}
	}
	if f.ProductID != "" && m.ProductID != f.ProductID {
		return false
	}
	if f.Type != "" && m.Type != f.Type {
		return false
	}
	if f.ActorID != "" && (m.ActorID == nil || *m.ActorID != f.ActorID) {
		return false
	}
	if f.LocationID != "" && (m.LocationID == nil || *m.LocationID != f.LocationID) {
		return false
	}
	if f.ReferenceID != "" && (m.ReferenceID == nil || *m.ReferenceID != f.ReferenceID) {
		return false
	}
	if f.From != nil && m.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && m.CreatedAt.After(*f.To) {
		return false
	}
	return true
}

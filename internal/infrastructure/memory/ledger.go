package memory

import (
	"context"

	"github.com/jhoicas/pos-stock-engine/internal/domain"
	"github.com/jhoicas/pos-stock-engine/internal/domain/entity"
	"github.com/jhoicas/pos-stock-engine/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

// LedgerRepo implementación en memoria de repository.LedgerRepository.
type LedgerRepo struct{ repoBase }

func (r *LedgerRepo) Ensure(ctx context.Context, ledger *entity.StockLedger) (*entity.StockLedger, bool, error) {
	var out entity.StockLedger
	var created bool
	err := r.write(ctx, "ledgers.ensure", func(st *state) error {
		if cur, ok := st.ledgers[ledger.ProductID]; ok {
			out = cur
			return nil
		}
		st.ledgers[ledger.ProductID] = *ledger
		out, created = *ledger, true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &out, created, nil
}

func (r *LedgerRepo) Get(_ context.Context, productID string) (*entity.StockLedger, error) {
	l, ok := r.view().ledgers[productID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &l, nil
}

// GetForUpdate dentro de la tx equivale a Get: el store ya serializa las transacciones.
func (r *LedgerRepo) GetForUpdate(ctx context.Context, productID string) (*entity.StockLedger, error) {
	return r.Get(ctx, productID)
}

func (r *LedgerRepo) GetManyForUpdate(_ context.Context, productIDs []string) (map[string]*entity.StockLedger, error) {
	st := r.view()
	out := make(map[string]*entity.StockLedger, len(productIDs))
	for _, id := range productIDs {
		if l, ok := st.ledgers[id]; ok {
			out[id] = &l
		}
	}
	return out, nil
}

func (r *LedgerRepo) Update(ctx context.Context, ledger *entity.StockLedger) error {
	return r.write(ctx, "ledgers.update", func(st *state) error {
		if _, ok := st.ledgers[ledger.ProductID]; !ok {
			return domain.ErrNotFound
		}
		st.ledgers[ledger.ProductID] = *ledger
		return nil
	})
}

func (r *LedgerRepo) UpdateMany(ctx context.Context, ledgers []*entity.StockLedger) error {
	return r.write(ctx, "ledgers.update_many", func(st *state) error {
		for _, l := range ledgers {
			if _, ok := st.ledgers[l.ProductID]; !ok {
				return domain.ErrNotFound
			}
			st.ledgers[l.ProductID] = *l
		}
		return nil
	})
}

func (r *LedgerRepo) UpdateReorderLevel(ctx context.Context, productID string, level decimal.Decimal) error {
	return r.write(ctx, "ledgers.update_reorder_level", func(st *state) error {
		l, ok := st.ledgers[productID]
		if !ok {
			return domain.ErrNotFound
		}
		l.ReorderLevel = level
		st.ledgers[productID] = l
		return nil
	})
}

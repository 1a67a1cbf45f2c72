package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/jhoicas/pos-stock-engine/internal/domain"
	"github.com/jhoicas/pos-stock-engine/internal/domain/entity"
	"github.com/jhoicas/pos-stock-engine/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.TransferRepository = (*TransferRepo)(nil)

// TransferRepo traslados en memoria.
type TransferRepo struct{ repoBase }

func (r *TransferRepo) Create(ctx context.Context, t *entity.StockTransfer) error {
	return r.write(ctx, "transfers.create", func(st *state) error {
		for _, existing := range st.transfers {
			if existing.TransferNumber == t.TransferNumber {
				return domain.ErrDuplicate
			}
		}
		c := *t
		c.Items = append([]entity.StockTransferItem(nil), t.Items...)
		st.transfers[t.ID] = c
		return nil
	})
}

func (r *TransferRepo) GetByID(_ context.Context, id string) (*entity.StockTransfer, error) {
	t, ok := r.view().transfers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	t.Items = append([]entity.StockTransferItem(nil), t.Items...)
	return &t, nil
}

func (r *TransferRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockTransfer, error) {
	return r.GetByID(ctx, id)
}

func (r *TransferRepo) UpdateStatus(ctx context.Context, t *entity.StockTransfer) error {
	return r.write(ctx, "transfers.update_status", func(st *state) error {
		cur, ok := st.transfers[t.ID]
		if !ok {
			return domain.ErrNotFound
		}
		items := cur.Items
		cur = *t
		cur.Items = items
		st.transfers[t.ID] = cur
		return nil
	})
}

func (r *TransferRepo) UpdateItemReceived(ctx context.Context, itemID string, received decimal.Decimal) error {
	return r.write(ctx, "transfers.update_item_received", func(st *state) error {
		for id, t := range st.transfers {
			for i := range t.Items {
				if t.Items[i].ID == itemID {
					t.Items[i].ReceivedQuantity = received
					st.transfers[id] = t
					return nil
				}
			}
		}
		return domain.ErrNotFound
	})
}

func (r *TransferRepo) LastNumberWithPrefix(_ context.Context, prefix string) (string, error) {
	last := ""
	for _, t := range r.view().transfers {
		n := t.TransferNumber
		if !strings.HasPrefix(n, prefix) {
			continue
		}
		if len(n) > len(last) || (len(n) == len(last) && n > last) {
			last = n
		}
	}
	return last, nil
}

// List más recientes primero; las líneas no se incluyen.
func (r *TransferRepo) List(_ context.Context, f repository.TransferFilter, limit, offset int) ([]*entity.StockTransfer, int, error) {
	var all []entity.StockTransfer
	for _, t := range r.view().transfers {
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.LocationID != "" && t.FromLocationID != f.LocationID && t.ToLocationID != f.LocationID {
			continue
		}
		t.Items = nil
		all = append(all, t)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].TransferNumber > all[j].TransferNumber
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := len(all)
	out := make([]*entity.StockTransfer, 0, limit)
	for i := offset; i < total && len(out) < limit; i++ {
		t := all[i]
		out = append(out, &t)
	}
	return out, total, nil
}

func sortLocationStock(list []*entity.LocationStock) {
	sort.Slice(list, func(i, j int) bool { return list[i].ProductID < list[j].ProductID })
}

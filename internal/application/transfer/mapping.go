package transfer

import (
	"github.com/jhoicas/pos-stock-engine/internal/application/dto"
	"github.com/jhoicas/pos-stock-engine/internal/domain/entity"
)

// ReceivedFromRequest adapta el body de completar traslado.
func ReceivedFromRequest(in dto.CompleteTransferRequest) []ReceivedItem {
	out := make([]ReceivedItem, 0, len(in.Items))
	for _, it := range in.Items {
		out = append(out, ReceivedItem{ItemID: it.ItemID, ReceivedQuantity: it.ReceivedQuantity})
	}
	return out
}

func toTransferResponse(t *entity.StockTransfer) *dto.TransferResponse {
	items := make([]dto.TransferItemResponse, 0, len(t.Items))
	for _, it := range t.Items {
		items = append(items, dto.TransferItemResponse{
			ID:               it.ID,
			ProductID:        it.ProductID,
			Quantity:         it.Quantity,
			ReceivedQuantity: it.ReceivedQuantity,
			Notes:            it.Notes,
		})
	}
	return &dto.TransferResponse{
		ID:             t.ID,
		TransferNumber: t.TransferNumber,
		FromLocationID: t.FromLocationID,
		ToLocationID:   t.ToLocationID,
		Status:         t.Status,
		Notes:          t.Notes,
		RequestedByID:  t.RequestedByID,
		CompletedByID:  t.CompletedByID,
		CancelledByID:  t.CancelledByID,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
		DispatchedAt:   t.DispatchedAt,
		CompletedAt:    t.CompletedAt,
		CancelledAt:    t.CancelledAt,
		Items:          items,
	}
}

func toLocationStockResponse(s *entity.LocationStock, clamped bool) dto.LocationStockResponse {
	return dto.LocationStockResponse{
		ProductID:  s.ProductID,
		LocationID: s.LocationID,
		Quantity:   s.Quantity,
		Clamped:    clamped,
		UpdatedAt:  s.UpdatedAt,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

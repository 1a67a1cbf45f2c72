package inventory

import (
	"github.com/jhoicas/pos-stock-engine/internal/application/dto"
	"github.com/jhoicas/pos-stock-engine/internal/domain/entity"
)

func toLedgerResponse(l *entity.StockLedger) *dto.LedgerResponse {
	return &dto.LedgerResponse{
		ProductID:    l.ProductID,
		Quantity:     l.Quantity,
		ReorderLevel: l.ReorderLevel,
		ExpiryDate:   l.ExpiryDate,
		LastUpdated:  l.LastUpdated,
		BelowReorder: l.BelowReorder(),
	}
}

func toMovementResponse(m *entity.StockMovement) *dto.MovementResponse {
	return &dto.MovementResponse{
		ID:          m.ID,
		ProductID:   m.ProductID,
		LocationID:  m.LocationID,
		Type:        m.Type,
		Quantity:    m.Quantity,
		Reason:      m.Reason,
		ActorID:     m.ActorID,
		ReferenceID: m.ReferenceID,
		ExpiryDate:  m.ExpiryDate,
		CreatedAt:   m.CreatedAt,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

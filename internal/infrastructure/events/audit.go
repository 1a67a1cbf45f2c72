package events

import (
	"context"

	"github.com/jhoicas/pos-stock-engine/internal/domain/entity"
)

// AuditStore destino de la bitácora (postgres.AuditRepo).
type AuditStore interface {
	Append(ctx context.Context, e entity.StockEvent) error
}

// AuditAppender registra todos los eventos en la bitácora.
type AuditAppender struct {
	store AuditStore
}

// NewAuditAppender construye el handler.
func NewAuditAppender(store AuditStore) *AuditAppender {
	return &AuditAppender{store: store}
}

// Handle agrega el evento.
func (a *AuditAppender) Handle(ctx context.Context, e entity.StockEvent) error {
	return a.store.Append(ctx, e)
}

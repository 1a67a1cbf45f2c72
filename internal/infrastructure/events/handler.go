// Package events entrega los eventos post-commit del motor de stock a sus consumidores:
// reglas de alerta, notificaciones, invalidación de caché de reportes y bitácora de auditoría.
// El despacho es inline (canal + workers) o vía outbox (Relay en cmd/worker).
package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/jhoicas/pos-stock-engine/internal/domain/entity"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("pos-stock-engine/events")

// Handler consume un evento. Un error hace que el outbox reintente el mensaje.
type Handler interface {
	Handle(ctx context.Context, e entity.StockEvent) error
}

// HandlerFunc adapta una función a Handler.
type HandlerFunc func(ctx context.Context, e entity.StockEvent) error

// Handle llama a f.
func (f HandlerFunc) Handle(ctx context.Context, e entity.StockEvent) error { return f(ctx, e) }

// Fanout entrega cada evento a todos los handlers; un fallo no impide que los demás se ejecuten.
type Fanout []Handler

// Handle ejecuta todos los handlers y une sus errores.
func (f Fanout) Handle(ctx context.Context, e entity.StockEvent) error {
	ctx, span := tracer.Start(ctx, "events.handle",
		trace.WithAttributes(
			attribute.String("event.type", e.Type),
			attribute.String("event.aggregate_id", e.AggregateID),
		),
	)
	defer span.End()

	var errs []error
	for _, h := range f {
		if err := h.Handle(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	err := errors.Join(errs...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("evento %s (%s): %w", e.Type, e.ID, err)
	}
	return nil
}

// Notification mensaje para el emisor de notificaciones (Kafka).
type Notification struct {
	Kind        string         `json:"kind"`
	AggregateID string         `json:"aggregate_id"`
	EventID     string         `json:"event_id,omitempty"`
	Message     string         `json:"message"`
	Data        map[string]any `json:"data,omitempty"`
}

// Notifier envía notificaciones a los usuarios (tienda, bodega, administración).
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

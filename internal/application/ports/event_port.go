package ports

import (
	"context"
	"time"

	"github.com/jhoicas/pos-stock-engine/internal/domain/entity"
	"github.com/jhoicas/pos-stock-engine/pkg/logger"
)

// EventPublisher define el puerto de salida para los efectos posteriores al commit
// (alertas, notificaciones, invalidación de caché, auditoría).
// Los casos de uso lo invocan solo después de confirmar la transacción; un error aquí
// se registra en log y nunca se devuelve al llamador.
type EventPublisher interface {
	Publish(ctx context.Context, events ...entity.StockEvent) error
}

// NopPublisher descarta los eventos (tests y herramientas de línea de comandos).
type NopPublisher struct{}

// Publish no hace nada.
func (NopPublisher) Publish(context.Context, ...entity.StockEvent) error { return nil }

// Events acumula los eventos de una operación para publicarlos juntos tras el commit.
type Events []entity.StockEvent

// Add serializa payload y agrega el evento.
func (e *Events) Add(eventType, aggregateID, actorID string, payload any, at time.Time) error {
	ev, err := entity.NewStockEvent(eventType, aggregateID, actorID, payload, at)
	if err != nil {
		return err
	}
	*e = append(*e, ev)
	return nil
}

// Emit publica los eventos sin propagar errores: los efectos posteriores al commit son de
// mejor esfuerzo. Se desacopla de la cancelación del request porque la escritura ya se confirmó.
func Emit(ctx context.Context, pub EventPublisher, log *logger.Logger, events Events) {
	if pub == nil || len(events) == 0 {
		return
	}
	if err := pub.Publish(context.WithoutCancel(ctx), events...); err != nil {
		ids := make([]string, 0, len(events))
		for _, ev := range events {
			ids = append(ids, ev.AggregateID)
		}
		log.Error().Err(err).Strs("aggregate_ids", ids).Int("events", len(events)).
			Msg("no se pudieron publicar los eventos post-commit")
	}
}

package events

import (
	"context"
	"time"

	"github.com/jhoicas/pos-stock-engine/internal/domain/entity"
	"github.com/jhoicas/pos-stock-engine/pkg/logger"
)

// Source outbox del que el relay reclama mensajes (postgres.OutboxRepo).
type Source interface {
	ProcessBatch(ctx context.Context, limit int, handle func(ctx context.Context, e entity.StockEvent) error) (int, error)
}

// Relay consume el outbox periódicamente y entrega cada mensaje al handler.
type Relay struct {
	source   Source
	handler  Handler
	interval time.Duration
	batch    int
	log      *logger.Logger
}

// NewRelay construye el relay.
func NewRelay(source Source, handler Handler, interval time.Duration, batch int, log *logger.Logger) *Relay {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if batch <= 0 {
		batch = 100
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Relay{source: source, handler: handler, interval: interval, batch: batch, log: log.Component("relay")}
}

// Run procesa lotes hasta que ctx se cancela. Si un lote sale lleno se pide el siguiente
// sin esperar al ticker.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		for {
			n, err := r.RunOnce(ctx)
			if err != nil {
				r.log.Error().Err(err).Msg("error procesando outbox")
				break
			}
			if n < r.batch {
				break
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce procesa un lote y devuelve cuántos mensajes se reclamaron con éxito.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	n, err := r.source.ProcessBatch(ctx, r.batch, func(ctx context.Context, e entity.StockEvent) error {
		if err := r.handler.Handle(ctx, e); err != nil {
			r.log.Warn().Err(err).Str("event", e.Type).Str("event_id", e.ID).Msg("evento del outbox falló, se reintentará")
			return err
		}
		return nil
	})
	if n > 0 {
		r.log.Debug().Int("published", n).Msg("lote del outbox publicado")
	}
	return n, err
}

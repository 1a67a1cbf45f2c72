package events

import (
	"context"
	"sync"

	"github.com/jhoicas/pos-stock-engine/internal/application/ports"
	"github.com/jhoicas/pos-stock-engine/internal/domain/entity"
	"github.com/jhoicas/pos-stock-engine/pkg/logger"
)

var _ ports.EventPublisher = (*Dispatcher)(nil)

// Dispatcher publicador inline: encola los eventos en un canal con buffer y N workers los
// entregan al handler. Publish nunca bloquea; si el buffer está lleno el evento se descarta
// con un warning.
type Dispatcher struct {
	handler Handler
	queue   chan entity.StockEvent
	workers int
	log     *logger.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher construye el dispatcher. Llamar Start antes de publicar.
func NewDispatcher(handler Handler, workers, buffer int, log *logger.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if buffer <= 0 {
		buffer = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Dispatcher{
		handler: handler,
		queue:   make(chan entity.StockEvent, buffer),
		workers: workers,
		log:     log.Component("dispatcher"),
	}
}

// Start lanza los workers. Usan ctx para los handlers; Close drena la cola antes de salir.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for e := range d.queue {
				if err := d.handler.Handle(ctx, e); err != nil {
					d.log.Error().Err(err).Str("event", e.Type).Str("aggregate_id", e.AggregateID).Msg("handler de evento falló")
				}
			}
		}()
	}
}

// Publish encola sin bloquear.
func (d *Dispatcher) Publish(_ context.Context, events ...entity.StockEvent) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return nil
	}
	for _, e := range events {
		select {
		case d.queue <- e:
		default:
			d.log.Warn().Str("event", e.Type).Str("aggregate_id", e.AggregateID).Msg("cola de eventos llena, evento descartado")
		}
	}
	return nil
}

// Close deja de aceptar eventos y espera a que los workers vacíen la cola.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	d.wg.Wait()
}

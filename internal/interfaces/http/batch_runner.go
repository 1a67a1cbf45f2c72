package http

import (
	"context"
	"sync"
)

// BatchRunner ejecuta en segundo plano los lotes aceptados con 202 y permite esperarlos
// antes de cerrar el publicador de eventos y el pool de conexiones.
type BatchRunner struct {
	mu      sync.Mutex
	wg      sync.WaitGroup
	closing bool
}

// NewBatchRunner crea un runner vacío.
func NewBatchRunner() *BatchRunner {
	return &BatchRunner{}
}

// Go lanza fn en una goroutine. Devuelve false si el runner ya está cerrando: el lote no se acepta.
func (r *BatchRunner) Go(fn func()) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closing {
		return false
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		fn()
	}()
	return true
}

// Wait deja de aceptar lotes y espera los que están en curso o hasta que ctx venza.
func (r *BatchRunner) Wait(ctx context.Context) error {
	r.mu.Lock()
	r.closing = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

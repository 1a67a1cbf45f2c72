package main

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jhoicas/pos-stock-engine/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowRelay sigue escribiendo un momento después de que ctx se cancela.
type slowRelay struct {
	writing atomic.Bool
}

func (r *slowRelay) Run(ctx context.Context) error {
	r.writing.Store(true)
	<-ctx.Done()
	time.Sleep(20 * time.Millisecond)
	r.writing.Store(false)
	return ctx.Err()
}

func TestServe_CierraElWriterCuandoElRelayTermino(t *testing.T) {
	relay := &slowRelay{}
	var closedWhileWriting atomic.Bool
	var closed atomic.Int32
	closeWriter := func() error {
		closed.Add(1)
		closedWhileWriting.Store(relay.writing.Load())
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, relay, closeWriter, logger.Nop()) }()

	require.Eventually(t, relay.writing.Load, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("serve no terminó")
	}
	assert.Equal(t, int32(1), closed.Load())
	assert.False(t, closedWhileWriting.Load(), "el writer se cerró con el relay activo")
}

func TestServe_ErrorDeCierreNoOcultaElDelRelay(t *testing.T) {
	boom := errors.New("relay caído")
	err := serve(context.Background(), runnerFunc(func(context.Context) error { return boom }),
		func() error { return errors.New("cerrar") }, logger.Nop())
	assert.ErrorIs(t, err, boom)
}

type runnerFunc func(context.Context) error

func (f runnerFunc) Run(ctx context.Context) error { return f(ctx) }

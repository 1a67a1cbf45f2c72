// worker entrega los eventos de stock_outbox (EVENTS_MODE=outbox) a los consumidores:
// reglas de alerta, notificaciones Kafka, invalidación de caché y bitácora.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/jhoicas/pos-stock-engine/internal/infrastructure/events"
	"github.com/jhoicas/pos-stock-engine/internal/infrastructure/postgres"
	"github.com/jhoicas/pos-stock-engine/pkg/config"
	"github.com/jhoicas/pos-stock-engine/pkg/logger"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	}).Component("worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	audit, err := postgres.NewAuditRepository(pool, 0)
	if err != nil {
		log.Fatal().Err(err).Msg("bitácora de eventos")
	}
	chain, closeWriter, err := events.BuildHandlers(events.HandlerDeps{
		AlertRules:   cfg.Alerts.Rules,
		KafkaBrokers: cfg.Kafka.Brokers,
		KafkaTopic:   cfg.Kafka.Topic,
		Channel:      postgres.NewNotifier(pool),
		CacheChannel: postgres.ReportCacheChannel,
		Audit:        audit,
		Log:          log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("reglas de alerta")
	}

	relay := events.NewRelay(postgres.NewOutboxRepository(pool), chain, cfg.Events.RelayInterval, cfg.Events.RelayBatch, log)

	log.Info().Dur("interval", cfg.Events.RelayInterval).Int("batch", cfg.Events.RelayBatch).Msg("relay de outbox iniciado")
	runErr := serve(ctx, relay, closeWriter, log)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error().Err(runErr).Msg("worker finalizado con error")
		os.Exit(1)
	}
	log.Info().Msg("worker detenido")
}

type runner interface {
	Run(ctx context.Context) error
}

// serve corre el relay hasta que ctx termine y cierra el writer de Kafka cuando el relay
// ya no escribe.
func serve(ctx context.Context, relay runner, closeWriter func() error, log *logger.Logger) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return relay.Run(gctx)
	})
	runErr := g.Wait()
	if err := closeWriter(); err != nil {
		log.Error().Err(err).Msg("cerrar writer de Kafka")
	}
	return runErr
}

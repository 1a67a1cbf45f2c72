// @title						POS Stock Engine API
// @version					1.0
// @description				Libro de stock por producto, historial de movimientos y traslados entre ubicaciones.
// @BasePath					/
// @securityDefinitions.apikey	Bearer
// @in							header
// @name						Authorization
// @description				Token JWT con el prefijo "Bearer ".
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jhoicas/pos-stock-engine/docs"
	"github.com/jhoicas/pos-stock-engine/internal/application/inventory"
	"github.com/jhoicas/pos-stock-engine/internal/application/ports"
	"github.com/jhoicas/pos-stock-engine/internal/application/transfer"
	"github.com/jhoicas/pos-stock-engine/internal/domain/entity"
	"github.com/jhoicas/pos-stock-engine/internal/domain/repository"
	"github.com/jhoicas/pos-stock-engine/internal/infrastructure/events"
	"github.com/jhoicas/pos-stock-engine/internal/infrastructure/memory"
	"github.com/jhoicas/pos-stock-engine/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/pos-stock-engine/internal/interfaces/http"
	"github.com/jhoicas/pos-stock-engine/pkg/config"
	"github.com/jhoicas/pos-stock-engine/pkg/logger"
)

// storage repositorios y runners de transacción del backend elegido.
type storage struct {
	ledgerTx   inventory.TxRunner
	transferTx transfer.TxRunner
	ledgers    repository.LedgerRepository
	movements  repository.MovementRepository
	products   repository.ProductRepository
	locations  repository.LocationRepository
	locStock   repository.LocationStockRepository
	transfers  repository.TransferRepository
	pool       *pgxpool.Pool
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Str("events", cfg.Events.Mode).
		Msg("iniciando aplicación")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	st := openStorage(ctx, cfg, log)
	if st.pool != nil {
		defer st.pool.Close()
	}

	publisher, closeEvents := buildPublisher(ctx, cfg, st, log)
	defer closeEvents()

	ledgerUC := inventory.NewLedgerUseCase(
		st.ledgerTx, st.ledgers, st.movements, st.products,
		publisher, log, cfg.Inventory.ExpiryWarningDays,
	)
	transferUC := transfer.NewUseCase(
		st.transferTx, st.transfers, st.locations, st.locStock, st.products,
		publisher, log, cfg.Inventory.TransferPrefix,
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "POS Stock Engine API",
	}))

	batches := httpRouter.NewBatchRunner()
	httpRouter.Router(app, httpRouter.RouterDeps{
		LedgerUC:   ledgerUC,
		TransferUC: transferUC,
		Policy:     cfg.Inventory,
		JWTSecret:  cfg.JWT.Secret,
		RunBatch:   batches.Go,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	// Los lotes aceptados con 202 terminan antes de cerrar eventos y pool.
	batchCtx, cancelBatches := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancelBatches()
	if err := batches.Wait(batchCtx); err != nil {
		log.Error().Err(err).Msg("lotes pendientes sin terminar")
	}

	log.Info().Msg("aplicación detenida")
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) storage {
	if cfg.Storage.Driver == "memory" {
		store := memory.NewStore(log)
		seedDemoCatalog(store)
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		return storage{
			ledgerTx:   store,
			transferTx: store,
			ledgers:    store.Ledgers(),
			movements:  store.Movements(),
			products:   store.Products(),
			locations:  store.Locations(),
			locStock:   store.LocationStock(),
			transfers:  store.Transfers(),
		}
	}

	pool, err := postgres.NewPool(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
	}
	txRunner := postgres.NewTxRunner(pool, log)
	return storage{
		ledgerTx:   txRunner,
		transferTx: txRunner,
		ledgers:    postgres.NewLedgerRepository(pool),
		movements:  postgres.NewMovementRepository(pool),
		products:   postgres.NewProductRepository(pool),
		locations:  postgres.NewLocationRepository(pool),
		locStock:   postgres.NewLocationStockRepository(pool),
		transfers:  postgres.NewTransferRepository(pool),
		pool:       pool,
	}
}

// buildPublisher en modo inline los eventos van a un Dispatcher en proceso; en modo outbox se
// escriben en stock_outbox y los entrega cmd/worker.
func buildPublisher(ctx context.Context, cfg *config.Config, st storage, log *logger.Logger) (ports.EventPublisher, func()) {
	if cfg.Events.Mode == "outbox" {
		if st.pool == nil {
			log.Fatal().Msg("EVENTS_MODE=outbox requiere PostgreSQL")
		}
		return postgres.NewOutboxRepository(st.pool), func() {}
	}

	deps := events.HandlerDeps{
		AlertRules:   cfg.Alerts.Rules,
		KafkaBrokers: cfg.Kafka.Brokers,
		KafkaTopic:   cfg.Kafka.Topic,
		CacheChannel: postgres.ReportCacheChannel,
		Log:          log,
	}
	if st.pool != nil {
		audit, err := postgres.NewAuditRepository(st.pool, 0)
		if err != nil {
			log.Fatal().Err(err).Msg("bitácora de eventos")
		}
		deps.Channel = postgres.NewNotifier(st.pool)
		deps.Audit = audit
	}
	chain, closeWriter, err := events.BuildHandlers(deps)
	if err != nil {
		log.Fatal().Err(err).Msg("reglas de alerta")
	}

	dispatcher := events.NewDispatcher(chain, cfg.Events.Workers, cfg.Events.BufferSize, log)
	dispatcher.Start(ctx)
	return dispatcher, func() {
		dispatcher.Close()
		if err := closeWriter(); err != nil {
			log.Error().Err(err).Msg("cerrar writer de Kafka")
		}
	}
}

// seedDemoCatalog productos y ubicaciones de ejemplo para el modo en memoria.
func seedDemoCatalog(store *memory.Store) {
	for _, p := range []entity.Product{
		{ID: "prod-arroz", SKU: "ARZ-500", Name: "Arroz 500g"},
		{ID: "prod-aceite", SKU: "ACT-1L", Name: "Aceite 1L"},
		{ID: "prod-leche", SKU: "LCH-1L", Name: "Leche entera 1L"},
	} {
		store.AddProduct(p)
	}
	for _, l := range []entity.Location{
		{ID: "loc-bodega", Code: "BOD", Name: "Bodega principal", Active: true},
		{ID: "loc-centro", Code: "CEN", Name: "Tienda centro", Active: true},
	} {
		store.AddLocation(l)
	}
}

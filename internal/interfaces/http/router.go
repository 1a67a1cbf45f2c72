package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/pos-stock-engine/internal/application/inventory"
	"github.com/jhoicas/pos-stock-engine/internal/application/transfer"
	"github.com/jhoicas/pos-stock-engine/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	LedgerUC   *inventory.LedgerUseCase
	TransferUC *transfer.UseCase
	Policy     StockPolicy
	JWTSecret  string
	// RunBatch ejecuta los lotes aceptados (ver BatchRunner.Go); nil usa un runner propio.
	RunBatch func(func()) bool
}

// Router registra las rutas de la API. Todas requieren Bearer Token; las escrituras de
// inventario y traslados quedan para admin y bodeguero, los lotes de venta también para vendedor.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))
	staff := RequireRole(jwt.RoleAdmin, jwt.RoleBodeguero)
	anyRole := RequireRole(jwt.RoleAdmin, jwt.RoleBodeguero, jwt.RoleVendedor)

	inv := api.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.LedgerUC, deps.Policy, deps.RunBatch)
	inv.Put("/ledgers/:product_id", staff, inventoryHandler.EnsureLedger)
	inv.Get("/ledgers/:product_id", anyRole, inventoryHandler.GetLedger)
	inv.Patch("/ledgers/:product_id/reorder-level", staff, inventoryHandler.UpdateReorderLevel)
	inv.Post("/adjustments", staff, inventoryHandler.Adjust)
	inv.Post("/batch-adjustments", anyRole, inventoryHandler.BatchAdjust)
	inv.Get("/movements", anyRole, inventoryHandler.ListMovements)

	locations := api.Group("/locations")
	locationHandler := NewLocationHandler(deps.TransferUC)
	locations.Get("/:id/stock", anyRole, locationHandler.GetStock)
	locations.Post("/:id/stock", staff, locationHandler.AdjustStock)

	transfers := api.Group("/transfers")
	transferHandler := NewTransferHandler(deps.TransferUC)
	transfers.Post("/", staff, transferHandler.Create)
	transfers.Get("/", anyRole, transferHandler.List)
	transfers.Get("/:id", anyRole, transferHandler.GetByID)
	transfers.Post("/:id/dispatch", staff, transferHandler.Dispatch)
	transfers.Post("/:id/complete", staff, transferHandler.Complete)
	transfers.Post("/:id/cancel", staff, transferHandler.Cancel)
}

package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/pos-stock-engine/internal/application/dto"
	"github.com/jhoicas/pos-stock-engine/internal/application/inventory"
)

// StockPolicy política de stock negativo, leída en cada request (config.InventoryConfig).
type StockPolicy interface {
	AllowNegative() bool
}

// InventoryHandler maneja ledgers, ajustes, lotes y el historial de movimientos (protegido).
type InventoryHandler struct {
	uc       *inventory.LedgerUseCase
	policy   StockPolicy
	runBatch func(func()) bool
}

// NewInventoryHandler construye el handler. runBatch decide cómo se ejecutan los lotes
// aceptados con 202 y devuelve false si ya no los acepta; nil usa un BatchRunner propio.
func NewInventoryHandler(uc *inventory.LedgerUseCase, policy StockPolicy, runBatch func(func()) bool) *InventoryHandler {
	if runBatch == nil {
		runBatch = NewBatchRunner().Go
	}
	return &InventoryHandler{uc: uc, policy: policy, runBatch: runBatch}
}

// EnsureLedger godoc
// @Summary      Crear ledger de un producto (idempotente)
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        product_id  path  string                   true  "ID del producto"
// @Param        body        body  dto.EnsureLedgerRequest  true  "cantidad inicial y punto de reorden"
// @Success      200  {object}  dto.LedgerResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/ledgers/{product_id} [put]
func (h *InventoryHandler) EnsureLedger(c *fiber.Ctx) error {
	var in dto.EnsureLedgerRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	out, err := h.uc.EnsureLedger(c.Context(), c.Params("product_id"), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetLedger godoc
// @Summary      Consultar ledger de un producto
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id  path  string  true  "ID del producto"
// @Success      200  {object}  dto.LedgerResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/ledgers/{product_id} [get]
func (h *InventoryHandler) GetLedger(c *fiber.Ctx) error {
	out, err := h.uc.GetLedger(c.Context(), c.Params("product_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// UpdateReorderLevel godoc
// @Summary      Cambiar punto de reorden
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        product_id  path  string                         true  "ID del producto"
// @Param        body        body  dto.UpdateReorderLevelRequest  true  "nuevo punto de reorden"
// @Success      200  {object}  dto.LedgerResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/ledgers/{product_id}/reorder-level [patch]
func (h *InventoryHandler) UpdateReorderLevel(c *fiber.Ctx) error {
	var in dto.UpdateReorderLevelRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.UpdateReorderLevel(c.Context(), c.Params("product_id"), GetUserID(c), in.ReorderLevel)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Adjust godoc
// @Summary      Ajustar stock de un producto
// @Description  Aplica un delta con signo bajo bloqueo de fila y registra el movimiento.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustRequest  true  "product_id, quantity (con signo), type, reason"
// @Success      201  {object}  dto.AdjustResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/adjustments [post]
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.uc.AdjustFromRequest(c.Context(), GetUserID(c), h.policy.AllowNegative(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.AdjustResponse{Ledger: res.Ledger, Movement: res.Movement})
}

// BatchAdjust godoc
// @Summary      Aplicar un lote de movimientos (venta, compra)
// @Description  Se acepta de inmediato; un fallo se informa con el evento stock.batch_failed.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.BatchAdjustRequest  true  "líneas del lote"
// @Success      202  {object}  map[string]interface{}
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/inventory/batch-adjustments [post]
func (h *InventoryHandler) BatchAdjust(c *fiber.Ctx) error {
	var in dto.BatchAdjustRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if len(in.Lines) == 0 {
		return writeError(c, errEmptyBatch)
	}
	actorID := GetUserID(c)
	allowNegative := h.policy.AllowNegative()
	// El RequestCtx de fasthttp se recicla al responder: el lote corre con su propio contexto.
	accepted := h.runBatch(func() {
		h.uc.BatchAdjustFromRequest(context.Background(), actorID, allowNegative, in)
	})
	if !accepted {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
			Code:    "SHUTTING_DOWN",
			Message: "el servicio se está deteniendo, reintente el lote",
		})
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"accepted": len(in.Lines)})
}

// ListMovements godoc
// @Summary      Historial de movimientos
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        scope         query  string  false  "ledger (defecto), location o all"
// @Param        product_id    query  string  false  "producto"
// @Param        type          query  string  false  "tipo de movimiento"
// @Param        actor_id      query  string  false  "actor"
// @Param        location_id   query  string  false  "ubicación"
// @Param        reference_id  query  string  false  "venta, compra o traslado"
// @Param        from          query  string  false  "desde (RFC3339 o YYYY-MM-DD)"
// @Param        to            query  string  false  "hasta (RFC3339 o YYYY-MM-DD)"
// @Param        limit         query  int     false  "máximo 100"
// @Param        offset        query  int     false  "desplazamiento"
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	var in dto.MovementFilterRequest
	if err := c.QueryParser(&in); err != nil {
		return writeError(c, errBadQuery)
	}
	filter, err := inventory.MovementFilterFromRequest(in)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.ListMovements(c.Context(), filter, in.PageRequest)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

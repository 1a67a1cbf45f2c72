package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/pos-stock-engine/internal/application/dto"
	"github.com/jhoicas/pos-stock-engine/internal/application/transfer"
)

// LocationHandler stock por ubicación (protegido).
type LocationHandler struct {
	uc *transfer.UseCase
}

// NewLocationHandler construye el handler.
func NewLocationHandler(uc *transfer.UseCase) *LocationHandler {
	return &LocationHandler{uc: uc}
}

// GetStock godoc
// @Summary      Stock de una ubicación
// @Tags         locations
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la ubicación"
// @Success      200  {object}  dto.LocationStockListResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/locations/{id}/stock [get]
func (h *LocationHandler) GetStock(c *fiber.Ctx) error {
	out, err := h.uc.GetLocationStock(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// AdjustStock godoc
// @Summary      Ajustar stock de un producto en una ubicación
// @Description  El resultado nunca baja de cero; clamped indica que se recortó.
// @Tags         locations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                          true  "ID de la ubicación"
// @Param        body  body  dto.AdjustLocationStockRequest  true  "product_id, quantity (con signo), reason"
// @Success      200  {object}  dto.LocationStockResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/locations/{id}/stock [post]
func (h *LocationHandler) AdjustStock(c *fiber.Ctx) error {
	var in dto.AdjustLocationStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.AdjustLocationStock(c.Context(), c.Params("id"), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/bodegas-api/internal/application/activity"
	"github.com/jhoicas/bodegas-api/internal/application/usecase"
)

// ActivityHandler log de actividad reciente.
type ActivityHandler struct {
	svc *usecase.InventoryService
	log zerolog.Logger
}

// NewActivityHandler construye el handler.
func NewActivityHandler(svc *usecase.InventoryService, log zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{svc: svc, log: log}
}

// Recent godoc
// @Summary      Actividad reciente
// @Tags         activity
// @Produce      json
// @Param        limit  query  int  false  "Cantidad de entradas"  default(5)
// @Success      200  {array}   dto.ActivityResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/activity [get]
func (h *ActivityHandler) Recent(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", activity.DefaultRecentLimit)
	if limit <= 0 {
		return badRequest(c, "VALIDATION", "limit debe ser mayor que 0")
	}
	out, err := h.svc.RecentActivity(c.UserContext(), limit)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/bodegas-api/internal/application/dto"
	"github.com/jhoicas/bodegas-api/internal/application/usecase"
)

// TransferHandler traslados entre bodegas.
type TransferHandler struct {
	svc *usecase.InventoryService
	log zerolog.Logger
}

// NewTransferHandler construye el handler.
func NewTransferHandler(svc *usecase.InventoryService, log zerolog.Logger) *TransferHandler {
	return &TransferHandler{svc: svc, log: log}
}

// Create godoc
// @Summary      Trasladar inventario
// @Description  Mueve quantity unidades de un SKU entre dos bodegas de forma atómica. Acepta Idempotency-Key.
// @Tags         transfers
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string               false  "Clave de idempotencia"
// @Param        body             body    dto.TransferRequest  true   "Traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/transfers [post]
func (h *TransferHandler) Create(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.svc.Transfer(c.UserContext(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/bodegas-api/internal/application/dto"
	"github.com/jhoicas/bodegas-api/internal/application/usecase"
)

// ItemHandler maneja los ítems de una bodega.
type ItemHandler struct {
	svc *usecase.InventoryService
	log zerolog.Logger
}

// NewItemHandler construye el handler.
func NewItemHandler(svc *usecase.InventoryService, log zerolog.Logger) *ItemHandler {
	return &ItemHandler{svc: svc, log: log}
}

// Create godoc
// @Summary      Crear ítem
// @Description  Da de alta un SKU en la bodega con su cantidad inicial, que ocupa capacidad.
// @Tags         items
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID de la bodega"
// @Param        body  body  dto.CreateItemRequest  true  "Datos del ítem"
// @Success      201   {object}  dto.ItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/warehouses/{id}/items [post]
func (h *ItemHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.svc.CreateItem(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar ítems de una bodega
// @Tags         items
// @Produce      json
// @Param        id        path   string  true   "ID de la bodega"
// @Param        category  query  string  false  "Categoría"
// @Param        sku       query  string  false  "Prefijo de SKU"
// @Param        limit     query  int     false  "Límite"  default(0)
// @Param        offset    query  int     false  "Offset"  default(0)
// @Success      200  {array}   dto.ItemResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/warehouses/{id}/items [get]
func (h *ItemHandler) List(c *fiber.Ctx) error {
	in := dto.ListItemsRequest{
		PageRequest: dto.PageRequest{
			Limit:  c.QueryInt("limit", 0),
			Offset: c.QueryInt("offset", 0),
		},
		Category:  c.Query("category"),
		SKUPrefix: c.Query("sku"),
	}
	out, err := h.svc.ListItems(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar ítem
// @Description  Un cambio de quantity ajusta la ocupación de la bodega en la misma operación.
// @Tags         items
// @Accept       json
// @Produce      json
// @Param        id      path  string                 true  "ID de la bodega"
// @Param        itemId  path  string                 true  "ID del ítem"
// @Param        body    body  dto.UpdateItemRequest  true  "Campos a cambiar"
// @Success      200  {object}  dto.ItemResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/warehouses/{id}/items/{itemId} [put]
func (h *ItemHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.svc.UpdateItem(c.UserContext(), c.Params("id"), c.Params("itemId"), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar ítem
// @Tags         items
// @Param        id      path  string  true  "ID de la bodega"
// @Param        itemId  path  string  true  "ID del ítem"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/warehouses/{id}/items/{itemId} [delete]
func (h *ItemHandler) Delete(c *fiber.Ctx) error {
	if err := h.svc.DeleteItem(c.UserContext(), c.Params("id"), c.Params("itemId")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

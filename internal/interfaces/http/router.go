package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/bodegas-api/internal/application/usecase"
	"github.com/jhoicas/bodegas-api/internal/domain/repository"
)

// DefaultIdempotencyTTL vigencia de una Idempotency-Key si no se configura otra.
const DefaultIdempotencyTTL = 24 * time.Hour

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Service        *usecase.InventoryService
	Idempotency    repository.IdempotencyStore // nil = sin soporte de Idempotency-Key
	IdempotencyTTL time.Duration
	HealthChecks   []HealthCheck
	Auth           AuthConfig
	Logger         zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	ttl := deps.IdempotencyTTL
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	log := deps.Logger

	app.Get("/health", NewHealthHandler(deps.HealthChecks, log).Check)

	api := app.Group("/api")
	if deps.Auth.Enabled() {
		api.Use(AuthMiddleware(deps.Auth))
	}

	// Warehouses; /alerts antes de /:id
	warehouses := api.Group("/warehouses")
	warehouseHandler := NewWarehouseHandler(deps.Service, log)
	warehouses.Get("/", warehouseHandler.List)
	warehouses.Post("/", warehouseHandler.Create)
	warehouses.Get("/alerts", warehouseHandler.Alerts)
	warehouses.Get("/:id", warehouseHandler.GetByID)
	warehouses.Put("/:id", warehouseHandler.Update)
	warehouses.Delete("/:id", warehouseHandler.Delete)

	// Items de una bodega
	itemHandler := NewItemHandler(deps.Service, log)
	warehouses.Get("/:id/items", itemHandler.List)
	warehouses.Post("/:id/items", itemHandler.Create)
	warehouses.Put("/:id/items/:itemId", itemHandler.Update)
	warehouses.Delete("/:id/items/:itemId", itemHandler.Delete)

	// Transfers
	transferHandler := NewTransferHandler(deps.Service, log)
	api.Post("/transfers", Idempotency(deps.Idempotency, ttl, log), transferHandler.Create)

	// Activity y verificación
	api.Get("/activity", NewActivityHandler(deps.Service, log).Recent)
	api.Get("/ledger/verify", warehouseHandler.VerifyLedger)
}

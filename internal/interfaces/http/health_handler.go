package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

const healthTimeout = 2 * time.Second

// HealthCheck dependencia revisada por /health (postgres, redis).
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthHandler estado del servicio y sus dependencias.
type HealthHandler struct {
	checks []HealthCheck
	log    zerolog.Logger
}

// NewHealthHandler construye el handler.
func NewHealthHandler(checks []HealthCheck, log zerolog.Logger) *HealthHandler {
	return &HealthHandler{checks: checks, log: log}
}

// Check godoc
// @Summary      Health check
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /health [get]
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	out := fiber.Map{"status": "ok"}
	status := fiber.StatusOK
	for _, hc := range h.checks {
		ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
		err := hc.Check(ctx)
		cancel()
		if err != nil {
			h.log.Warn().Err(err).Str("dependency", hc.Name).Msg("health check falló")
			out[hc.Name] = "down"
			out["status"] = "degraded"
			status = fiber.StatusServiceUnavailable
			continue
		}
		out[hc.Name] = "up"
	}
	return c.Status(status).JSON(out)
}

package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/bodegas-api/internal/application/activity"
	"github.com/jhoicas/bodegas-api/internal/application/dto"
	"github.com/jhoicas/bodegas-api/pkg/jwt"
)

// Locals keys del operador autenticado.
const (
	LocalOperator = "operator"
	LocalRole     = "role"
)

// AuthConfig verificación de tokens. Secret vacío = API abierta.
type AuthConfig struct {
	Secret string
	Issuer string
}

// Enabled indica si la API exige token.
func (c AuthConfig) Enabled() bool { return c.Secret != "" }

// AuthMiddleware valida el Bearer Token JWT, carga operador y rol en c.Locals, deja el operador
// en el contexto de usuario para el log de actividad y restringe los métodos de escritura a los roles que pueden modificar inventario.
func AuthMiddleware(cfg AuthConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return unauthorized(c, "MISSING_TOKEN", "Authorization header requerido")
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return unauthorized(c, "INVALID_TOKEN", "formato: Bearer <token>")
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return unauthorized(c, "MISSING_TOKEN", "token vacío")
		}
		claims, err := jwt.Parse(cfg.Secret, cfg.Issuer, tokenString)
		if err != nil {
			return unauthorized(c, "INVALID_TOKEN", "token inválido o expirado")
		}
		if claims.Role == "" {
			return unauthorized(c, "MISSING_ROLE", "el token no incluye rol")
		}
		c.Locals(LocalOperator, claims.Subject)
		c.Locals(LocalRole, claims.Role)
		c.SetUserContext(activity.WithOperator(c.UserContext(), claims.Subject))

		if !isReadOnly(c.Method()) && !jwt.CanWrite(claims.Role) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:  "FORBIDDEN",
				Error: "el rol " + claims.Role + " no puede modificar inventario",
			})
		}
		return c.Next()
	}
}

func isReadOnly(method string) bool {
	return method == fiber.MethodGet || method == fiber.MethodHead || method == fiber.MethodOptions
}

func unauthorized(c *fiber.Ctx, code, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: code, Error: msg})
}

package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/bodegas-api/internal/application/dto"
	"github.com/jhoicas/bodegas-api/internal/domain"
)

// retryAfterSeconds valor de Retry-After para errores de contención.
const retryAfterSeconds = "1"

// errorStatus status HTTP y código de la API para un error del dominio.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrCapacityExceeded):
		return fiber.StatusConflict, "CAPACITY_EXCEEDED"
	case errors.Is(err, domain.ErrInsufficientQuantity):
		return fiber.StatusConflict, "INSUFFICIENT_QUANTITY"
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, "CONFLICT"
	case errors.Is(err, domain.ErrContention):
		return fiber.StatusServiceUnavailable, "CONTENTION"
	default:
		return fiber.StatusInternalServerError, "INTERNAL"
	}
}

// writeError único punto de traducción error -> respuesta. Los errores no tipados se registran
// y el cliente recibe un mensaje genérico.
func writeError(c *fiber.Ctx, log zerolog.Logger, err error) error {
	status, code := errorStatus(err)
	body := dto.ErrorResponse{Code: code}

	if de, ok := domain.AsError(err); ok && status != fiber.StatusInternalServerError {
		body.Error = de.Message
		body.Details = de.Details
	} else {
		log.Error().Err(err).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Str("request_id", requestID(c)).
			Msg("error interno")
		body.Error = "error interno del servidor"
	}
	if status == fiber.StatusServiceUnavailable {
		c.Set(fiber.HeaderRetryAfter, retryAfterSeconds)
	}
	return c.Status(status).JSON(body)
}

func badRequest(c *fiber.Ctx, code, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Error: msg})
}

// ErrorHandler para errores que llegan a fiber sin pasar por un handler (rutas inexistentes, panics recuperados).
func ErrorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code := "HTTP_ERROR"
			switch fe.Code {
			case fiber.StatusNotFound:
				code = "NOT_FOUND"
			case fiber.StatusMethodNotAllowed:
				code = "METHOD_NOT_ALLOWED"
			case fiber.StatusRequestEntityTooLarge:
				code = "BODY_TOO_LARGE"
			}
			return c.Status(fe.Code).JSON(dto.ErrorResponse{Code: code, Error: fe.Message})
		}
		return writeError(c, log, err)
	}
}

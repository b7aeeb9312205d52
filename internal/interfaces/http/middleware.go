package http

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/bodegas-api/internal/application/dto"
	"github.com/jhoicas/bodegas-api/internal/domain/repository"
)

const (
	// HeaderIdempotencyKey cabecera con la clave de idempotencia del cliente.
	HeaderIdempotencyKey = "Idempotency-Key"
	// HeaderIdempotentReplay marca una respuesta servida desde el store de idempotencia.
	HeaderIdempotentReplay = "Idempotent-Replayed"

	maxIdempotencyKeyLen = 128
)

// RequestID asigna X-Request-ID si el cliente no lo envía.
func RequestID() fiber.Handler {
	return requestid.New()
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(requestid.ConfigDefault.ContextKey).(string); ok {
		return id
	}
	return c.Get(fiber.HeaderXRequestID)
}

// RequestLogger registra cada petición con zerolog: 5xx en error, 4xx en warn, el resto en info.
func RequestLogger(log zerolog.Logger) fiber.Handler {
	log = log.With().Str("component", "http").Logger()
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// Deja que el ErrorHandler escriba la respuesta antes de leer el status.
			if hErr := c.App().ErrorHandler(c, err); hErr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		status := c.Response().StatusCode()

		ev := log.Info()
		switch {
		case status >= fiber.StatusInternalServerError:
			ev = log.Error()
		case status >= fiber.StatusBadRequest:
			ev = log.Warn()
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("request_id", requestID(c)).
			Msg("petición HTTP")
		return nil
	}
}

// Idempotency hace que un POST con Idempotency-Key se ejecute una sola vez: una repetición recibe la
// respuesta guardada y una repetición concurrente recibe 409. La clave queda atada al hash de la
// petición; reusarla con otro cuerpo da 422. Solo se guardan respuestas 2xx; ante cualquier otro
// resultado, incluido un panic del handler, la reserva se libera para permitir el reintento.
func Idempotency(store repository.IdempotencyStore, ttl time.Duration, log zerolog.Logger) fiber.Handler {
	log = log.With().Str("component", "idempotency").Logger()
	return func(c *fiber.Ctx) error {
		key := c.Get(HeaderIdempotencyKey)
		if key == "" || store == nil {
			return c.Next()
		}
		if len(key) > maxIdempotencyKeyLen {
			return badRequest(c, "VALIDATION", "Idempotency-Key demasiado larga")
		}
		ctx := c.UserContext()
		hash := requestHash(c)

		if stored, err := store.Load(ctx, key); err != nil {
			return idempotencyUnavailable(c, log, err)
		} else if stored != nil {
			return replay(c, stored, hash)
		}

		acquired, err := store.Acquire(ctx, key, ttl)
		if err != nil {
			return idempotencyUnavailable(c, log, err)
		}
		if !acquired {
			if stored, err := store.Load(ctx, key); err == nil && stored != nil {
				return replay(c, stored, hash)
			}
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Code:  "IDEMPOTENCY_IN_PROGRESS",
				Error: "ya hay una petición en curso con esta Idempotency-Key",
			})
		}

		settled := false
		defer func() {
			if settled {
				return
			}
			if err := store.Release(context.WithoutCancel(ctx), key); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("no se pudo liberar la clave idempotente")
			}
		}()

		if err := c.Next(); err != nil {
			return err
		}

		status := c.Response().StatusCode()
		if status >= 200 && status < 300 {
			// Un Save fallido deja la reserva pendiente hasta el TTL: no se re-ejecuta una operación aplicada.
			settled = true
			body := append([]byte(nil), c.Response().Body()...)
			resp := repository.StoredResponse{Status: status, Body: body, RequestHash: hash}
			if err := store.Save(ctx, key, resp, ttl); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("no se pudo guardar la respuesta idempotente")
			}
		}
		return nil
	}
}

// requestHash identifica la petición atada a una clave: método, ruta y cuerpo.
func requestHash(c *fiber.Ctx) string {
	h := sha256.New()
	h.Write([]byte(c.Method()))
	h.Write([]byte{' '})
	h.Write([]byte(c.Path()))
	h.Write([]byte{'\n'})
	h.Write(c.Body())
	return hex.EncodeToString(h.Sum(nil))
}

func replay(c *fiber.Ctx, stored *repository.StoredResponse, hash string) error {
	if stored.RequestHash != hash {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
			Code:  "IDEMPOTENCY_KEY_REUSED",
			Error: "la Idempotency-Key ya se usó con otra petición",
		})
	}
	c.Set(HeaderIdempotentReplay, "true")
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(stored.Status).Send(stored.Body)
}

func idempotencyUnavailable(c *fiber.Ctx, log zerolog.Logger, err error) error {
	log.Error().Err(err).Msg("store de idempotencia no disponible")
	c.Set(fiber.HeaderRetryAfter, retryAfterSeconds)
	return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
		Code:  "IDEMPOTENCY_UNAVAILABLE",
		Error: "no se pudo verificar la Idempotency-Key, intente más tarde",
	})
}

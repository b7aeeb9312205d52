package repository

import (
	"context"
	"time"
)

// StoredResponse respuesta guardada para una Idempotency-Key ya resuelta. RequestHash identifica la
// petición que la produjo.
type StoredResponse struct {
	Status      int    `json:"status"`
	Body        []byte `json:"body"`
	RequestHash string `json:"requestHash"`
}

// IdempotencyStore reserva claves de idempotencia y guarda la respuesta asociada.
type IdempotencyStore interface {
	// Acquire reserva la clave por ttl. false si ya estaba reservada (en curso o resuelta).
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Save guarda la respuesta final de la clave.
	Save(ctx context.Context, key string, resp StoredResponse, ttl time.Duration) error
	// Load devuelve la respuesta guardada; nil si la clave está en curso o no existe.
	Load(ctx context.Context, key string) (*StoredResponse, error)
	// Release libera una reserva sin respuesta para permitir reintentos.
	Release(ctx context.Context, key string) error
}

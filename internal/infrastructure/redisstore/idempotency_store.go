package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/bodegas-api/internal/domain/repository"
)

const (
	idempotencyKeyPrefix = "idempotency:transfer:"
	pendingMarker        = "pending"
)

// releaseScript borra la reserva solo si sigue pendiente (no pisa una respuesta ya guardada).
var releaseScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if current == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

var _ repository.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore reserva claves con SETNX y guarda la respuesta serializada en la misma clave.
type IdempotencyStore struct {
	client *redis.Client
}

// NewIdempotencyStore construye el adaptador.
func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client}
}

// Acquire reserva la clave.
func (s *IdempotencyStore) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, idempotencyKeyPrefix+key, pendingMarker, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("setnx idempotencia: %w", err)
	}
	return ok, nil
}

// Save reemplaza la reserva por la respuesta final.
func (s *IdempotencyStore) Save(ctx context.Context, key string, resp repository.StoredResponse, ttl time.Duration) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("serializar respuesta: %w", err)
	}
	if err := s.client.Set(ctx, idempotencyKeyPrefix+key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("set idempotencia: %w", err)
	}
	return nil
}

// Load devuelve la respuesta guardada; nil si no existe o sigue pendiente.
func (s *IdempotencyStore) Load(ctx context.Context, key string) (*repository.StoredResponse, error) {
	raw, err := s.client.Get(ctx, idempotencyKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get idempotencia: %w", err)
	}
	if raw == pendingMarker {
		return nil, nil
	}
	var resp repository.StoredResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("deserializar respuesta: %w", err)
	}
	return &resp, nil
}

// Release libera una reserva pendiente.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if err := releaseScript.Run(ctx, s.client, []string{idempotencyKeyPrefix + key}, pendingMarker).Err(); err != nil {
		return fmt.Errorf("liberar idempotencia: %w", err)
	}
	return nil
}

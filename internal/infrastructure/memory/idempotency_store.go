package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/bodegas-api/internal/domain/repository"
)

var _ repository.IdempotencyStore = (*IdempotencyStore)(nil)

type idempotencyEntry struct {
	resp      *repository.StoredResponse
	expiresAt time.Time
}

// IdempotencyStore reservas de Idempotency-Key en memoria, con expiración perezosa.
type IdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]idempotencyEntry
	now     func() time.Time
}

// NewIdempotencyStore construye el store vacío.
func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{entries: make(map[string]idempotencyEntry), now: time.Now}
}

func (s *IdempotencyStore) live(key string) (idempotencyEntry, bool) {
	e, ok := s.entries[key]
	if ok && s.now().After(e.expiresAt) {
		delete(s.entries, key)
		return idempotencyEntry{}, false
	}
	return e, ok
}

// Acquire reserva la clave si no existe.
func (s *IdempotencyStore) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.live(key); ok {
		return false, nil
	}
	s.entries[key] = idempotencyEntry{expiresAt: s.now().Add(ttl)}
	return true, nil
}

// Save guarda la respuesta de la clave.
func (s *IdempotencyStore) Save(_ context.Context, key string, resp repository.StoredResponse, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	body := append([]byte(nil), resp.Body...)
	s.entries[key] = idempotencyEntry{
		resp:      &repository.StoredResponse{Status: resp.Status, Body: body, RequestHash: resp.RequestHash},
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

// Load devuelve la respuesta guardada o nil.
func (s *IdempotencyStore) Load(_ context.Context, key string) (*repository.StoredResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(key)
	if !ok || e.resp == nil {
		return nil, nil
	}
	cp := *e.resp
	return &cp, nil
}

// Release elimina la reserva si todavía no tiene respuesta.
func (s *IdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok && e.resp == nil {
		delete(s.entries, key)
	}
	return nil
}

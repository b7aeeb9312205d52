package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/bodegas-api/internal/domain/repository"
)

const (
	idempotencyPending = "pending"
	idempotencyDone    = "done"
)

var _ repository.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore claves de idempotencia en la tabla idempotency_keys. Se usa cuando no hay Redis.
type IdempotencyStore struct {
	q   Querier
	now func() time.Time
}

// NewIdempotencyStore construye el store.
func NewIdempotencyStore(q Querier) *IdempotencyStore {
	return &IdempotencyStore{q: q, now: func() time.Time { return time.Now().UTC() }}
}

// Acquire inserta la clave en estado pending. Una clave vencida se reutiliza.
func (s *IdempotencyStore) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	now := s.now()
	var got string
	err := s.q.QueryRow(ctx, `
		INSERT INTO idempotency_keys (key, status, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
			SET status = EXCLUDED.status, response = NULL, response_status = 0, request_hash = '',
			    created_at = now(), expires_at = EXCLUDED.expires_at
			WHERE idempotency_keys.expires_at < $4
		RETURNING key`, key, idempotencyPending, now.Add(ttl), now).Scan(&got)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("acquire idempotency key: %w", classify(err))
	}
	return true, nil
}

// Save guarda la respuesta final.
func (s *IdempotencyStore) Save(ctx context.Context, key string, resp repository.StoredResponse, ttl time.Duration) error {
	_, err := s.q.Exec(ctx, `
		UPDATE idempotency_keys
		SET status = $2, response_status = $3, response = $4, request_hash = $5, expires_at = $6
		WHERE key = $1`, key, idempotencyDone, resp.Status, resp.Body, resp.RequestHash, s.now().Add(ttl))
	if err != nil {
		return fmt.Errorf("save idempotency key: %w", classify(err))
	}
	return nil
}

// Load devuelve la respuesta guardada; nil si no existe, está vencida o sigue pendiente.
func (s *IdempotencyStore) Load(ctx context.Context, key string) (*repository.StoredResponse, error) {
	var (
		status string
		resp   repository.StoredResponse
	)
	err := s.q.QueryRow(ctx, `
		SELECT status, response_status, COALESCE(response, ''::bytea), request_hash
		FROM idempotency_keys WHERE key = $1 AND expires_at >= $2`, key, s.now()).
		Scan(&status, &resp.Status, &resp.Body, &resp.RequestHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load idempotency key: %w", classify(err))
	}
	if status != idempotencyDone {
		return nil, nil
	}
	return &resp, nil
}

// Release borra una reserva pendiente.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	_, err := s.q.Exec(ctx, `DELETE FROM idempotency_keys WHERE key = $1 AND status = $2`, key, idempotencyPending)
	if err != nil {
		return fmt.Errorf("release idempotency key: %w", classify(err))
	}
	return nil
}

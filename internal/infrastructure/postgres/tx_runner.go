package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jhoicas/bodegas-api/internal/application/inventory"
	"github.com/jhoicas/bodegas-api/internal/domain/repository"
)

var tracer = otel.Tracer("bodegas-api/postgres")

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL (READ COMMITTED + SELECT FOR UPDATE).
type TxRunner struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
	log         zerolog.Logger
}

// NewTxRunner construye el runner. lockTimeout acota cada espera de bloqueo de fila (SET LOCAL lock_timeout).
func NewTxRunner(pool *pgxpool.Pool, lockTimeout time.Duration, log zerolog.Logger) *TxRunner {
	return &TxRunner{pool: pool, lockTimeout: lockTimeout, log: log.With().Str("component", "tx_runner").Logger()}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Los errores de bloqueo (55P03, 40P01, 40001) salen como ErrContention.
func (r *TxRunner) Run(ctx context.Context, fn inventory.TxFunc) (err error) {
	ctx, span := tracer.Start(ctx, "postgres.tx")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", classify(err))
	}
	defer func() {
		if err == nil {
			return
		}
		// Background: el rollback debe completarse aunque ctx haya vencido.
		if rbErr := tx.Rollback(context.Background()); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			r.log.Error().Err(rbErr).AnErr("original_error", err).Msg("rollback falló")
		}
	}()

	if r.lockTimeout > 0 {
		span.SetAttributes(attribute.Int64("db.lock_timeout_ms", r.lockTimeout.Milliseconds()))
		if _, err = tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())); err != nil {
			return fmt.Errorf("set lock_timeout: %w", classify(err))
		}
	}

	var warehouseRepo repository.WarehouseRepository = NewWarehouseRepository(tx)
	var itemRepo repository.ItemRepository = NewItemRepository(tx)
	if err = fn(ctx, warehouseRepo, itemRepo); err != nil {
		return classify(err)
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", classify(err))
	}
	return nil
}

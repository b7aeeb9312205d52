// Package bootstrap arma el grafo de dependencias a partir de la configuración: persistencia
// (postgres o memoria), sumideros de actividad, publicador de eventos e idempotencia.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/bodegas-api/internal/application/activity"
	"github.com/jhoicas/bodegas-api/internal/application/inventory"
	"github.com/jhoicas/bodegas-api/internal/application/usecase"
	"github.com/jhoicas/bodegas-api/internal/domain/repository"
	"github.com/jhoicas/bodegas-api/internal/infrastructure/events"
	"github.com/jhoicas/bodegas-api/internal/infrastructure/memory"
	"github.com/jhoicas/bodegas-api/internal/infrastructure/postgres"
	"github.com/jhoicas/bodegas-api/internal/infrastructure/redisstore"
	httpRouter "github.com/jhoicas/bodegas-api/internal/interfaces/http"
	"github.com/jhoicas/bodegas-api/pkg/config"
)

// Components lo que necesitan los comandos.
type Components struct {
	Service      *usecase.InventoryService
	Idempotency  repository.IdempotencyStore
	HealthChecks []httpRouter.HealthCheck

	closers []func() error
}

// Close libera conexiones y vacía el publicador, en orden inverso al de creación.
func (c *Components) Close() error {
	var first error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	c.closers = nil
	return first
}

type stores struct {
	txRunner      inventory.TxRunner
	warehouseRepo repository.WarehouseRepository
	itemRepo      repository.ItemRepository
	activity      repository.ActivityRepository
	idempotency   repository.IdempotencyStore
}

// Build construye los componentes. Ante error cierra lo que ya se había abierto.
func Build(ctx context.Context, cfg *config.Config, log zerolog.Logger) (_ *Components, err error) {
	c := &Components{}
	defer func() {
		if err != nil {
			_ = c.Close()
		}
	}()

	var st stores
	switch cfg.App.StoreDriver {
	case config.StoreDriverMemory:
		store := memory.NewStore(cfg.Transfer.LockTimeout)
		st = stores{
			txRunner:      store,
			warehouseRepo: store.Warehouses(),
			itemRepo:      store.Items(),
			activity:      memory.NewActivityRing(cfg.Inventory.ActivityLogSize),
			idempotency:   memory.NewIdempotencyStore(),
		}
		log.Warn().Msg("STORE_DRIVER=memory: los datos se pierden al reiniciar")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		c.closers = append(c.closers, func() error { pool.Close(); return nil })
		if err := postgres.Migrate(ctx, pool); err != nil {
			return nil, fmt.Errorf("migraciones: %w", err)
		}
		st = stores{
			txRunner:      postgres.NewTxRunner(pool, cfg.Transfer.LockTimeout, log),
			warehouseRepo: postgres.NewWarehouseRepository(pool),
			itemRepo:      postgres.NewItemRepository(pool),
			activity:      postgres.NewActivityRepository(pool),
			idempotency:   postgres.NewIdempotencyStore(pool),
		}
		c.HealthChecks = append(c.HealthChecks, httpRouter.HealthCheck{Name: "postgres", Check: pool.Ping})
	}

	// Redis: lista acotada de actividad (sumidero extra) e idempotencia con SETNX.
	var extraSinks []repository.ActivityRepository
	if cfg.Redis.Enabled() {
		client, err := redisstore.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, client.Close)
		extraSinks = append(extraSinks, redisstore.NewActivityList(client, cfg.Inventory.ActivityLogSize))
		st.idempotency = redisstore.NewIdempotencyStore(client)
		c.HealthChecks = append(c.HealthChecks, httpRouter.HealthCheck{Name: "redis", Check: redisPing(client)})
	}

	var publisher activity.EventPublisher = events.NoopPublisher{}
	if cfg.Kafka.Enabled() {
		publisher = events.NewKafkaPublisher(cfg.Kafka, cfg.App.Name)
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("publicación de eventos habilitada")
	}
	c.closers = append(c.closers, publisher.Close)

	recorder := activity.NewRecorder(st.activity, publisher, log, extraSinks...)
	engine := inventory.NewEngine(st.txRunner, st.warehouseRepo, st.itemRepo, recorder,
		inventory.WithTxTimeout(cfg.Transfer.TxTimeout),
		inventory.WithLogger(log),
	)
	c.Service = usecase.NewInventoryService(engine, st.warehouseRepo, st.itemRepo, recorder, recorder,
		cfg.Inventory.HighUsageThreshold, log)
	c.Idempotency = st.idempotency
	return c, nil
}

func redisPing(client *redis.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error { return client.Ping(ctx).Err() }
}

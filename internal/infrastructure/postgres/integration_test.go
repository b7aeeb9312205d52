package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/bodegas-api/internal/application/inventory"
	"github.com/jhoicas/bodegas-api/internal/domain"
	"github.com/jhoicas/bodegas-api/internal/domain/entity"
	domaininv "github.com/jhoicas/bodegas-api/internal/domain/inventory"
	"github.com/jhoicas/bodegas-api/internal/domain/repository"
	"github.com/jhoicas/bodegas-api/internal/infrastructure/postgres"
	"github.com/jhoicas/bodegas-api/pkg/config"
)

// Requiere TEST_DATABASE_URL apuntando a una base desechable; sin ella los tests se omiten.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL no definido")
	}
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: url, MaxConns: 20})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, postgres.Migrate(ctx, pool))
	return pool
}

type pgFixture struct {
	pool       *pgxpool.Pool
	runner     *postgres.TxRunner
	warehouses *postgres.WarehouseRepo
	items      *postgres.ItemRepo
	engine     *inventory.Engine
}

func newPGFixture(t *testing.T, lockTimeout time.Duration) *pgFixture {
	pool := testPool(t)
	f := &pgFixture{
		pool:       pool,
		runner:     postgres.NewTxRunner(pool, lockTimeout, zerolog.Nop()),
		warehouses: postgres.NewWarehouseRepository(pool),
		items:      postgres.NewItemRepository(pool),
	}
	f.engine = inventory.NewEngine(f.runner, f.warehouses, f.items, nil, inventory.WithTxTimeout(10*time.Second))
	return f
}

func (f *pgFixture) warehouse(t *testing.T, max int) string {
	t.Helper()
	id := uuid.New().String()
	now := time.Now().UTC()
	require.NoError(t, f.warehouses.Create(context.Background(), &entity.Warehouse{
		ID: id, Name: "it-" + id[:8], Location: "Cali", MaxCapacity: max, CreatedAt: now, UpdatedAt: now,
	}))
	t.Cleanup(func() {
		ctx := context.Background()
		_, _ = f.pool.Exec(ctx, `DELETE FROM items WHERE warehouse_id = $1`, id)
		_, _ = f.pool.Exec(ctx, `DELETE FROM warehouses WHERE id = $1`, id)
	})
	return id
}

func (f *pgFixture) item(t *testing.T, warehouseID, sku string, qty int) {
	t.Helper()
	_, _, err := f.engine.ReceiveItem(context.Background(), warehouseID, &entity.Item{SKU: sku, Name: sku, Quantity: qty})
	require.NoError(t, err)
}

func (f *pgFixture) verify(t *testing.T, ids ...string) {
	t.Helper()
	ctx := context.Background()
	for _, id := range ids {
		w, err := f.warehouses.GetByID(ctx, id)
		require.NoError(t, err)
		items, err := f.items.ListByWarehouse(ctx, id, repository.ItemFilter{})
		require.NoError(t, err)
		assert.NoError(t, domaininv.Verify(w, items))
	}
}

func TestPostgres_TrasladoConfirmaAtomico(t *testing.T) {
	f := newPGFixture(t, 2*time.Second)
	a := f.warehouse(t, 100)
	b := f.warehouse(t, 30)
	f.item(t, a, "X", 50)

	res, err := f.engine.Transfer(context.Background(), entity.Transfer{SourceWarehouseID: a, DestinationWarehouseID: b, SKU: "X", Quantity: 20})
	require.NoError(t, err)
	assert.True(t, res.DestinationCreated)
	assert.Equal(t, 30, res.SourceWarehouse.CurrentCapacity)
	assert.Equal(t, 20, res.DestinationWarehouse.CurrentCapacity)

	_, err = f.engine.Transfer(context.Background(), entity.Transfer{SourceWarehouseID: a, DestinationWarehouseID: b, SKU: "X", Quantity: 11})
	require.ErrorIs(t, err, domain.ErrCapacityExceeded)
	f.verify(t, a, b)

	require.ErrorIs(t, f.engine.DeleteWarehouse(context.Background(), b), domain.ErrConflict)
}

func TestPostgres_LockTimeoutEsContencion(t *testing.T) {
	f := newPGFixture(t, 100*time.Millisecond)
	a := f.warehouse(t, 100)
	b := f.warehouse(t, 100)
	f.item(t, a, "X", 10)

	locked := make(chan struct{})
	release := make(chan struct{})
	held := make(chan error, 1)
	go func() {
		held <- f.runner.Run(context.Background(), func(ctx context.Context, wr repository.WarehouseRepository, _ repository.ItemRepository) error {
			if _, err := wr.GetForUpdate(ctx, b); err != nil {
				return err
			}
			close(locked)
			<-release
			return nil
		})
	}()
	<-locked

	_, err := f.engine.Transfer(context.Background(), entity.Transfer{SourceWarehouseID: a, DestinationWarehouseID: b, SKU: "X", Quantity: 1})
	close(release)
	require.NoError(t, <-held)
	require.ErrorIs(t, err, domain.ErrContention)
	f.verify(t, a, b)
}

func TestPostgres_TrasladosOpuestosConservanStock(t *testing.T) {
	f := newPGFixture(t, 5*time.Second)
	a := f.warehouse(t, 200)
	b := f.warehouse(t, 200)
	f.item(t, a, "X", 100)
	f.item(t, b, "X", 100)

	var g errgroup.Group
	for i := 0; i < 40; i++ {
		src, dst := a, b
		if i%2 == 1 {
			src, dst = b, a
		}
		g.Go(func() error {
			_, err := f.engine.Transfer(context.Background(), entity.Transfer{SourceWarehouseID: src, DestinationWarehouseID: dst, SKU: "X", Quantity: 2})
			return err
		})
	}
	require.NoError(t, g.Wait())
	f.verify(t, a, b)

	wa, err := f.warehouses.GetByID(context.Background(), a)
	require.NoError(t, err)
	wb, err := f.warehouses.GetByID(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, 200, wa.CurrentCapacity+wb.CurrentCapacity)
}

func TestPostgres_CicloDeVidaIdempotencia(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	store := postgres.NewIdempotencyStore(pool)
	key := "it-" + uuid.NewString()
	t.Cleanup(func() { _, _ = pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE key = $1`, key) })

	ok, err := store.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = store.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "clave en curso")

	got, err := store.Load(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.Release(ctx, key))
	ok, err = store.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	require.True(t, ok, "liberada se puede reservar otra vez")

	require.NoError(t, store.Save(ctx, key, repository.StoredResponse{Status: 200, Body: []byte(`{"ok":true}`), RequestHash: "h-1"}, time.Minute))
	got, err = store.Load(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 200, got.Status)
	assert.JSONEq(t, `{"ok":true}`, string(got.Body))
	assert.Equal(t, "h-1", got.RequestHash)

	require.NoError(t, store.Release(ctx, key))
	got, err = store.Load(ctx, key)
	require.NoError(t, err)
	assert.NotNil(t, got, "Release no borra respuestas guardadas")
}

func TestPostgres_MigrarDosVecesNoFalla(t *testing.T) {
	pool := testPool(t)
	require.NoError(t, postgres.Migrate(context.Background(), pool))
}

func TestPostgres_PrefijoDeSKULiteral(t *testing.T) {
	f := newPGFixture(t, time.Second)
	w := f.warehouse(t, 100)
	f.item(t, w, "50%-A", 1)
	f.item(t, w, "50X-B", 1)
	f.item(t, w, "5_0", 1)

	list, err := f.items.ListByWarehouse(context.Background(), w, repository.ItemFilter{SKUPrefix: "50%"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "50%-A", list[0].SKU)

	list, err = f.items.ListByWarehouse(context.Background(), w, repository.ItemFilter{SKUPrefix: "5_"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "5_0", list[0].SKU)
}

package inventory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"

	"github.com/jhoicas/bodegas-api/internal/domain"
	"github.com/jhoicas/bodegas-api/internal/domain/entity"
	"github.com/jhoicas/bodegas-api/internal/domain/repository"
)

var tracer = otel.Tracer("bodegas-api/inventory")

// DefaultTxTimeout tiempo máximo de una operación del motor una vez desacoplada del llamador.
const DefaultTxTimeout = 15 * time.Second

// Engine es el motor de inventario: toda mutación conjunta de cantidad de ítem y ocupación de bodega
// pasa por aquí, dentro de una transacción y bajo las secciones exclusivas de las bodegas involucradas.
type Engine struct {
	txRunner      TxRunner
	warehouseRepo repository.WarehouseRepository
	itemRepo      repository.ItemRepository
	activity      ActivityRecorder
	log           zerolog.Logger
	txTimeout     time.Duration
	now           func() time.Time
	newID         func() string
}

// Option configura el motor.
type Option func(*Engine)

// WithTxTimeout cambia el tiempo máximo de cada operación.
func WithTxTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.txTimeout = d
		}
	}
}

// WithLogger asigna el logger del motor.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l.With().Str("component", "inventory_engine").Logger() }
}

// WithClock reemplaza el reloj (tests).
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine construye el motor. warehouseRepo e itemRepo se usan solo para la prevalidación sin bloqueos.
func NewEngine(
	txRunner TxRunner,
	warehouseRepo repository.WarehouseRepository,
	itemRepo repository.ItemRepository,
	activity ActivityRecorder,
	opts ...Option,
) *Engine {
	e := &Engine{
		txRunner:      txRunner,
		warehouseRepo: warehouseRepo,
		itemRepo:      itemRepo,
		activity:      activity,
		log:           zerolog.Nop(),
		txTimeout:     DefaultTxTimeout,
		now:           func() time.Time { return time.Now().UTC() },
		newID:         func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// detach desacopla la operación de la cancelación del llamador: si el cliente se desconecta,
// la transacción igual llega a su conclusión atómica. El límite lo pone txTimeout.
func (e *Engine) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), e.txTimeout)
}

func (e *Engine) record(ctx context.Context, a *entity.Activity) {
	if e.activity == nil {
		return
	}
	if a.ID == "" {
		a.ID = e.newID()
	}
	if a.OccurredAt.IsZero() {
		a.OccurredAt = e.now()
	}
	e.activity.Record(ctx, a)
}

// lockInOrder abre las secciones exclusivas de las bodegas en orden ascendente de ID,
// independiente del rol origen/destino, para evitar esperas circulares entre traslados opuestos.
func lockInOrder(ctx context.Context, repo repository.WarehouseRepository, ids ...string) (map[string]*entity.Warehouse, error) {
	ordered := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			ordered = append(ordered, id)
		}
	}
	sort.Strings(ordered)

	locked := make(map[string]*entity.Warehouse, len(ordered))
	for _, id := range ordered {
		w, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		if w == nil {
			return nil, domain.NotFound("bodega", id)
		}
		locked[id] = w
	}
	return locked, nil
}

// Package memory implementa los puertos de persistencia en memoria, con transacciones
// copy-on-write y secciones exclusivas por bodega. Se usa en desarrollo (STORE_DRIVER=memory) y en tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/bodegas-api/internal/application/inventory"
	"github.com/jhoicas/bodegas-api/internal/domain"
	"github.com/jhoicas/bodegas-api/internal/domain/entity"
)

// DefaultLockTimeout espera máxima por la sección exclusiva de una bodega.
const DefaultLockTimeout = 2 * time.Second

var _ inventory.TxRunner = (*Store)(nil)

// Store estado compartido. mu protege los mapas; los commits toman mu en escritura para que
// los lectores vean el estado anterior o el posterior, nunca uno intermedio.
type Store struct {
	mu         sync.RWMutex
	warehouses map[string]*entity.Warehouse
	items      map[string]*entity.Item

	locksMu sync.Mutex
	locks   map[string]chan struct{}

	lockTimeout time.Duration
}

// NewStore construye un store vacío. lockTimeout <= 0 usa DefaultLockTimeout.
func NewStore(lockTimeout time.Duration) *Store {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &Store{
		warehouses:  make(map[string]*entity.Warehouse),
		items:       make(map[string]*entity.Item),
		locks:       make(map[string]chan struct{}),
		lockTimeout: lockTimeout,
	}
}

// Warehouses repositorio fuera de transacción.
func (s *Store) Warehouses() *WarehouseRepo {
	return &WarehouseRepo{store: s}
}

// Items repositorio fuera de transacción.
func (s *Store) Items() *ItemRepo {
	return &ItemRepo{store: s}
}

// Run ejecuta fn en una transacción: las escrituras se acumulan en la tx y se aplican juntas al final.
// Si fn falla nada se aplica. Las secciones exclusivas tomadas se liberan siempre.
func (s *Store) Run(ctx context.Context, fn inventory.TxFunc) error {
	t := newTx(s)
	defer t.release()
	if err := fn(ctx, &WarehouseRepo{store: s, tx: t}, &ItemRepo{store: s, tx: t}); err != nil {
		return err
	}
	t.commit()
	return nil
}

func (s *Store) semaphore(id string) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	ch, ok := s.locks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[id] = ch
	}
	return ch
}

// acquire toma la sección exclusiva de la bodega o falla con ErrContention al vencer el timeout.
func (s *Store) acquire(ctx context.Context, id string) error {
	ch := s.semaphore(id)
	timer := time.NewTimer(s.lockTimeout)
	defer timer.Stop()
	select {
	case ch <- struct{}{}:
		return nil
	case <-timer.C:
		return domain.Contention("no se obtuvo el bloqueo de la bodega %s a tiempo", id).
			WithDetail("warehouse_id", id)
	case <-ctx.Done():
		return domain.Contention("operación cancelada esperando el bloqueo de la bodega %s: %v", id, ctx.Err()).
			WithDetail("warehouse_id", id)
	}
}

func (s *Store) releaseLock(id string) {
	<-s.semaphore(id)
}

// tx cambios pendientes. Un valor nil en los mapas marca una fila eliminada.
type tx struct {
	store      *Store
	warehouses map[string]*entity.Warehouse
	items      map[string]*entity.Item
	held       map[string]bool
}

func newTx(s *Store) *tx {
	return &tx{
		store:      s,
		warehouses: make(map[string]*entity.Warehouse),
		items:      make(map[string]*entity.Item),
		held:       make(map[string]bool),
	}
}

func (t *tx) lock(ctx context.Context, id string) error {
	if t.held[id] {
		return nil
	}
	if err := t.store.acquire(ctx, id); err != nil {
		return err
	}
	t.held[id] = true
	return nil
}

func (t *tx) release() {
	for id := range t.held {
		t.store.releaseLock(id)
	}
	t.held = nil
}

func (t *tx) commit() {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, w := range t.warehouses {
		if w == nil {
			delete(s.warehouses, id)
			continue
		}
		s.warehouses[id] = w
	}
	for id, it := range t.items {
		if it == nil {
			delete(s.items, id)
			continue
		}
		s.items[id] = it
	}
}

// warehouse lectura con la tx encima del estado confirmado. Devuelve copia.
func (s *Store) warehouse(t *tx, id string) *entity.Warehouse {
	if t != nil {
		if w, ok := t.warehouses[id]; ok {
			return w.Clone()
		}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.warehouses[id].Clone()
}

func (s *Store) item(t *tx, id string) *entity.Item {
	if t != nil {
		if it, ok := t.items[id]; ok {
			return it.Clone()
		}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items[id].Clone()
}

// itemsView ítems visibles para la tx (confirmados + pendientes), copiados.
func (s *Store) itemsView(t *tx) []*entity.Item {
	s.mu.RLock()
	merged := make(map[string]*entity.Item, len(s.items))
	for id, it := range s.items {
		merged[id] = it
	}
	s.mu.RUnlock()
	if t != nil {
		for id, it := range t.items {
			if it == nil {
				delete(merged, id)
				continue
			}
			merged[id] = it
		}
	}
	out := make([]*entity.Item, 0, len(merged))
	for _, it := range merged {
		out = append(out, it.Clone())
	}
	return out
}

func (s *Store) warehousesView(t *tx) []*entity.Warehouse {
	s.mu.RLock()
	merged := make(map[string]*entity.Warehouse, len(s.warehouses))
	for id, w := range s.warehouses {
		merged[id] = w
	}
	s.mu.RUnlock()
	if t != nil {
		for id, w := range t.warehouses {
			if w == nil {
				delete(merged, id)
				continue
			}
			merged[id] = w
		}
	}
	out := make([]*entity.Warehouse, 0, len(merged))
	for _, w := range merged {
		out = append(out, w.Clone())
	}
	return out
}

// writeWarehouse acumula la escritura en la tx; nil marca la fila como eliminada.
func (s *Store) writeWarehouse(t *tx, id string, w *entity.Warehouse) {
	t.warehouses[id] = w.Clone()
}

func (s *Store) writeItem(t *tx, id string, it *entity.Item) {
	t.items[id] = it.Clone()
}

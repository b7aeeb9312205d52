package memory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/bodegas-api/internal/domain"
	"github.com/jhoicas/bodegas-api/internal/domain/entity"
	"github.com/jhoicas/bodegas-api/internal/domain/inventory"
	"github.com/jhoicas/bodegas-api/internal/domain/repository"
)

var _ repository.WarehouseRepository = (*WarehouseRepo)(nil)

// WarehouseRepo implementación en memoria de WarehouseRepository (con o sin tx).
type WarehouseRepo struct {
	store *Store
	tx    *tx
}

// autocommit ejecuta fn en la tx actual o, fuera de una, en una tx propia que confirma al terminar.
func autocommit(s *Store, t *tx, fn func(t *tx) error) error {
	if t != nil {
		return fn(t)
	}
	own := newTx(s)
	defer own.release()
	if err := fn(own); err != nil {
		return err
	}
	own.commit()
	return nil
}

// Create persiste una nueva bodega.
func (r *WarehouseRepo) Create(ctx context.Context, warehouse *entity.Warehouse) error {
	return autocommit(r.store, r.tx, func(t *tx) error {
		if r.store.warehouse(t, warehouse.ID) != nil {
			return domain.Conflict("la bodega %s ya existe", warehouse.ID)
		}
		r.store.writeWarehouse(t, warehouse.ID, warehouse)
		return nil
	})
}

// GetByID obtiene una bodega por ID; nil si no existe.
func (r *WarehouseRepo) GetByID(_ context.Context, id string) (*entity.Warehouse, error) {
	return r.store.warehouse(r.tx, id), nil
}

// Update persiste nombre, ubicación y capacidad máxima. No toca la ocupación.
func (r *WarehouseRepo) Update(ctx context.Context, warehouse *entity.Warehouse) error {
	return autocommit(r.store, r.tx, func(t *tx) error {
		if err := t.lock(ctx, warehouse.ID); err != nil {
			return err
		}
		current := r.store.warehouse(t, warehouse.ID)
		if current == nil {
			return domain.NotFound("bodega", warehouse.ID)
		}
		if warehouse.MaxCapacity < current.CurrentCapacity {
			return domain.Validation("maxCapacity %d es menor que la ocupación actual %d", warehouse.MaxCapacity, current.CurrentCapacity)
		}
		current.Name = warehouse.Name
		current.Location = warehouse.Location
		current.MaxCapacity = warehouse.MaxCapacity
		current.UpdatedAt = warehouse.UpdatedAt
		r.store.writeWarehouse(t, warehouse.ID, current)
		return nil
	})
}

// List devuelve todas las bodegas ordenadas por fecha de creación.
func (r *WarehouseRepo) List(_ context.Context) ([]*entity.Warehouse, error) {
	list := r.store.warehousesView(r.tx)
	sortWarehouses(list)
	return list, nil
}

// Delete elimina una bodega. Falla con Conflict si todavía tiene ítems (FK RESTRICT).
func (r *WarehouseRepo) Delete(ctx context.Context, id string) error {
	return autocommit(r.store, r.tx, func(t *tx) error {
		if err := t.lock(ctx, id); err != nil {
			return err
		}
		if r.store.warehouse(t, id) == nil {
			return domain.NotFound("bodega", id)
		}
		for _, it := range r.store.itemsView(t) {
			if it.WarehouseID == id {
				return domain.Conflict("la bodega %s todavía tiene ítems", id)
			}
		}
		r.store.writeWarehouse(t, id, nil)
		return nil
	})
}

// GetForUpdate toma la sección exclusiva de la bodega hasta el fin de la tx y la devuelve.
func (r *WarehouseRepo) GetForUpdate(ctx context.Context, id string) (*entity.Warehouse, error) {
	if r.tx == nil {
		return nil, domain.Validation("GetForUpdate requiere una transacción")
	}
	if err := r.tx.lock(ctx, id); err != nil {
		return nil, err
	}
	return r.store.warehouse(r.tx, id), nil
}

// AdjustOccupancy suma delta a la ocupación validando 0 <= ocupación <= máximo.
func (r *WarehouseRepo) AdjustOccupancy(ctx context.Context, id string, delta int) (*entity.Warehouse, error) {
	var out *entity.Warehouse
	err := autocommit(r.store, r.tx, func(t *tx) error {
		if err := t.lock(ctx, id); err != nil {
			return err
		}
		w := r.store.warehouse(t, id)
		if w == nil {
			return domain.NotFound("bodega", id)
		}
		next, err := inventory.ApplyOccupancy(w, delta)
		if err != nil {
			return err
		}
		w.CurrentCapacity = next
		r.store.writeWarehouse(t, id, w)
		out = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out.Clone(), nil
}

// ListAboveUtilization bodegas con ocupación >= threshold (%).
func (r *WarehouseRepo) ListAboveUtilization(_ context.Context, threshold decimal.Decimal) ([]*entity.Warehouse, error) {
	var out []*entity.Warehouse
	for _, w := range r.store.warehousesView(r.tx) {
		if inventory.HighUsage(w, threshold) {
			out = append(out, w)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return inventory.Utilization(out[i]).GreaterThan(inventory.Utilization(out[j]))
	})
	return out, nil
}

func sortWarehouses(list []*entity.Warehouse) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
}

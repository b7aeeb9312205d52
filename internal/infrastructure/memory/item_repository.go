package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/jhoicas/bodegas-api/internal/domain"
	"github.com/jhoicas/bodegas-api/internal/domain/entity"
	"github.com/jhoicas/bodegas-api/internal/domain/inventory"
	"github.com/jhoicas/bodegas-api/internal/domain/repository"
)

var _ repository.ItemRepository = (*ItemRepo)(nil)

// ItemRepo implementación en memoria de ItemRepository. Toda escritura toma la sección
// exclusiva de la bodega dueña del ítem.
type ItemRepo struct {
	store *Store
	tx    *tx
}

// Create inserta el ítem. (warehouse_id, sku) es único y la bodega debe existir.
func (r *ItemRepo) Create(ctx context.Context, item *entity.Item) error {
	if item.Quantity < 0 {
		return domain.Validation("quantity no puede ser negativa")
	}
	return autocommit(r.store, r.tx, func(t *tx) error {
		if err := t.lock(ctx, item.WarehouseID); err != nil {
			return err
		}
		if r.store.warehouse(t, item.WarehouseID) == nil {
			return domain.NotFound("bodega", item.WarehouseID)
		}
		if r.store.item(t, item.ID) != nil {
			return domain.Conflict("el ítem %s ya existe", item.ID)
		}
		if r.findBySKU(t, item.WarehouseID, item.SKU) != nil {
			return domain.Conflict("el SKU %s ya existe en la bodega %s", item.SKU, item.WarehouseID).
				WithDetail("sku", item.SKU)
		}
		r.store.writeItem(t, item.ID, item)
		return nil
	})
}

// GetByID obtiene un ítem por ID; nil si no existe.
func (r *ItemRepo) GetByID(_ context.Context, id string) (*entity.Item, error) {
	return r.store.item(r.tx, id), nil
}

// Update persiste campos descriptivos y SKU. La cantidad almacenada no cambia.
func (r *ItemRepo) Update(ctx context.Context, item *entity.Item) error {
	return autocommit(r.store, r.tx, func(t *tx) error {
		if err := t.lock(ctx, item.WarehouseID); err != nil {
			return err
		}
		current := r.store.item(t, item.ID)
		if current == nil || current.WarehouseID != item.WarehouseID {
			return domain.NotFound("ítem", item.ID)
		}
		if item.SKU != current.SKU {
			if other := r.findBySKU(t, item.WarehouseID, item.SKU); other != nil && other.ID != item.ID {
				return domain.Conflict("el SKU %s ya existe en la bodega %s", item.SKU, item.WarehouseID).
					WithDetail("sku", item.SKU)
			}
		}
		next := item.Clone()
		next.Quantity = current.Quantity
		next.CreatedAt = current.CreatedAt
		r.store.writeItem(t, item.ID, next)
		return nil
	})
}

// UpdateQuantity suma delta a la cantidad y devuelve la nueva. Una cantidad 0 conserva la fila.
func (r *ItemRepo) UpdateQuantity(ctx context.Context, id string, delta int) (int, error) {
	current := r.store.item(r.tx, id)
	if current == nil {
		return 0, domain.NotFound("ítem", id)
	}
	var qty int
	err := autocommit(r.store, r.tx, func(t *tx) error {
		if err := t.lock(ctx, current.WarehouseID); err != nil {
			return err
		}
		it := r.store.item(t, id)
		if it == nil {
			return domain.NotFound("ítem", id)
		}
		next, err := inventory.ApplyQuantity(it, delta)
		if err != nil {
			return err
		}
		it.Quantity = next
		r.store.writeItem(t, id, it)
		qty = next
		return nil
	})
	return qty, err
}

// Delete elimina la fila del ítem.
func (r *ItemRepo) Delete(ctx context.Context, id string) error {
	current := r.store.item(r.tx, id)
	if current == nil {
		return domain.NotFound("ítem", id)
	}
	return autocommit(r.store, r.tx, func(t *tx) error {
		if err := t.lock(ctx, current.WarehouseID); err != nil {
			return err
		}
		if r.store.item(t, id) == nil {
			return domain.NotFound("ítem", id)
		}
		r.store.writeItem(t, id, nil)
		return nil
	})
}

// FindBySKUInWarehouse busca el ítem del SKU en la bodega; nil si no existe.
func (r *ItemRepo) FindBySKUInWarehouse(_ context.Context, warehouseID, sku string) (*entity.Item, error) {
	return r.findBySKU(r.tx, warehouseID, sku), nil
}

func (r *ItemRepo) findBySKU(t *tx, warehouseID, sku string) *entity.Item {
	for _, it := range r.store.itemsView(t) {
		if it.WarehouseID == warehouseID && it.SKU == sku {
			return it
		}
	}
	return nil
}

// ListByWarehouse lista los ítems de la bodega ordenados por nombre y SKU.
func (r *ItemRepo) ListByWarehouse(_ context.Context, warehouseID string, filter repository.ItemFilter) ([]*entity.Item, error) {
	out := make([]*entity.Item, 0)
	for _, it := range r.store.itemsView(r.tx) {
		if it.WarehouseID != warehouseID {
			continue
		}
		if filter.Category != "" && it.Category != filter.Category {
			continue
		}
		if filter.SKUPrefix != "" && !strings.HasPrefix(it.SKU, filter.SKUPrefix) {
			continue
		}
		out = append(out, it)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].SKU < out[j].SKU
		}
		return out[i].Name < out[j].Name
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []*entity.Item{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

// CountByWarehouse cantidad de filas de ítem (incluidas las de cantidad 0) de la bodega.
func (r *ItemRepo) CountByWarehouse(_ context.Context, warehouseID string) (int, error) {
	n := 0
	for _, it := range r.store.itemsView(r.tx) {
		if it.WarehouseID == warehouseID {
			n++
		}
	}
	return n, nil
}

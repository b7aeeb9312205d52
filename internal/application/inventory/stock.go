package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/bodegas-api/internal/domain"
	"github.com/jhoicas/bodegas-api/internal/domain/entity"
	"github.com/jhoicas/bodegas-api/internal/domain/inventory"
	"github.com/jhoicas/bodegas-api/internal/domain/repository"
)

// ItemChanges cambios sobre un ítem existente. Los campos nil no se tocan.
type ItemChanges struct {
	Name            *string
	SKU             *string
	Description     *string
	Category        *string
	StorageLocation *string
	Quantity        *int
	ExpirationDate  *time.Time
}

// WarehouseChanges cambios sobre una bodega existente. Los campos nil no se tocan.
type WarehouseChanges struct {
	Name        *string
	Location    *string
	MaxCapacity *int
}

// ReceiveItem crea el ítem de un SKU nuevo en la bodega con su cantidad inicial, ocupando capacidad.
func (e *Engine) ReceiveItem(ctx context.Context, warehouseID string, item *entity.Item) (*entity.Item, *entity.Warehouse, error) {
	if item.Quantity < 0 {
		return nil, nil, domain.Validation("quantity no puede ser negativa")
	}
	ctx, cancel := e.detach(ctx)
	defer cancel()

	now := e.now()
	created := item.Clone()
	created.ID = e.newID()
	created.WarehouseID = warehouseID
	created.CreatedAt = now
	created.UpdatedAt = now

	var warehouse *entity.Warehouse
	err := e.txRunner.Run(ctx, func(ctx context.Context, warehouseRepo repository.WarehouseRepository, itemRepo repository.ItemRepository) error {
		locked, err := lockInOrder(ctx, warehouseRepo, warehouseID)
		if err != nil {
			return err
		}
		w := locked[warehouseID]
		existing, err := itemRepo.FindBySKUInWarehouse(ctx, warehouseID, created.SKU)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.Conflict("el SKU %s ya existe en la bodega %s", created.SKU, warehouseID).
				WithDetail("item_id", existing.ID)
		}
		if _, err := inventory.ApplyOccupancy(w, created.Quantity); err != nil {
			return err
		}
		if err := itemRepo.Create(ctx, created); err != nil {
			return err
		}
		warehouse = w
		if created.Quantity > 0 {
			if warehouse, err = warehouseRepo.AdjustOccupancy(ctx, warehouseID, created.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	e.record(ctx, &entity.Activity{
		Kind:        entity.ActivityItemCreated,
		Message:     fmt.Sprintf("Created item %q (SKU %s)", created.Name, created.SKU),
		WarehouseID: warehouseID,
		ItemID:      created.ID,
		SKU:         created.SKU,
		Quantity:    created.Quantity,
	})
	return created, warehouse, nil
}

// UpdateItem aplica cambios descriptivos y, si cambia la cantidad, ajusta stock y ocupación en la misma tx.
func (e *Engine) UpdateItem(ctx context.Context, warehouseID, itemID string, changes ItemChanges) (*entity.Item, *entity.Warehouse, error) {
	if changes.Quantity != nil && *changes.Quantity < 0 {
		return nil, nil, domain.Validation("quantity no puede ser negativa")
	}
	ctx, cancel := e.detach(ctx)
	defer cancel()

	var (
		updated   *entity.Item
		warehouse *entity.Warehouse
	)
	err := e.txRunner.Run(ctx, func(ctx context.Context, warehouseRepo repository.WarehouseRepository, itemRepo repository.ItemRepository) error {
		locked, err := lockInOrder(ctx, warehouseRepo, warehouseID)
		if err != nil {
			return err
		}
		warehouse = locked[warehouseID]
		item, err := itemRepo.GetByID(ctx, itemID)
		if err != nil {
			return err
		}
		if item == nil || item.WarehouseID != warehouseID {
			return domain.NotFound("ítem", itemID)
		}

		if changes.SKU != nil && *changes.SKU != item.SKU {
			other, err := itemRepo.FindBySKUInWarehouse(ctx, warehouseID, *changes.SKU)
			if err != nil {
				return err
			}
			if other != nil {
				return domain.Conflict("el SKU %s ya existe en la bodega %s", *changes.SKU, warehouseID)
			}
		}
		applyItemChanges(item, changes)
		item.UpdatedAt = e.now()
		if err := itemRepo.Update(ctx, item); err != nil {
			return err
		}

		if changes.Quantity != nil {
			delta := *changes.Quantity - item.Quantity
			if delta != 0 {
				if _, err := inventory.ApplyOccupancy(warehouse, delta); err != nil {
					return err
				}
				qty, err := itemRepo.UpdateQuantity(ctx, itemID, delta)
				if err != nil {
					return err
				}
				item.Quantity = qty
				if warehouse, err = warehouseRepo.AdjustOccupancy(ctx, warehouseID, delta); err != nil {
					return err
				}
			}
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	e.record(ctx, &entity.Activity{
		Kind:        entity.ActivityItemUpdated,
		Message:     fmt.Sprintf("Updated item %q (SKU %s)", updated.Name, updated.SKU),
		WarehouseID: warehouseID,
		ItemID:      updated.ID,
		SKU:         updated.SKU,
		Quantity:    updated.Quantity,
	})
	return updated, warehouse, nil
}

func applyItemChanges(item *entity.Item, c ItemChanges) {
	if c.Name != nil {
		item.Name = *c.Name
	}
	if c.SKU != nil {
		item.SKU = *c.SKU
	}
	if c.Description != nil {
		item.Description = *c.Description
	}
	if c.Category != nil {
		item.Category = *c.Category
	}
	if c.StorageLocation != nil {
		item.StorageLocation = *c.StorageLocation
	}
	if c.ExpirationDate != nil {
		d := *c.ExpirationDate
		item.ExpirationDate = &d
	}
}

// RemoveItem elimina la fila del ítem y libera su ocupación.
func (e *Engine) RemoveItem(ctx context.Context, warehouseID, itemID string) (*entity.Warehouse, error) {
	ctx, cancel := e.detach(ctx)
	defer cancel()

	var (
		removed   *entity.Item
		warehouse *entity.Warehouse
	)
	err := e.txRunner.Run(ctx, func(ctx context.Context, warehouseRepo repository.WarehouseRepository, itemRepo repository.ItemRepository) error {
		locked, err := lockInOrder(ctx, warehouseRepo, warehouseID)
		if err != nil {
			return err
		}
		warehouse = locked[warehouseID]
		item, err := itemRepo.GetByID(ctx, itemID)
		if err != nil {
			return err
		}
		if item == nil || item.WarehouseID != warehouseID {
			return domain.NotFound("ítem", itemID)
		}
		if err := itemRepo.Delete(ctx, itemID); err != nil {
			return err
		}
		if item.Quantity > 0 {
			if warehouse, err = warehouseRepo.AdjustOccupancy(ctx, warehouseID, -item.Quantity); err != nil {
				return err
			}
		}
		removed = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.record(ctx, &entity.Activity{
		Kind:        entity.ActivityItemDeleted,
		Message:     fmt.Sprintf("Deleted item %q (SKU %s)", removed.Name, removed.SKU),
		WarehouseID: warehouseID,
		ItemID:      removed.ID,
		SKU:         removed.SKU,
		Quantity:    removed.Quantity,
	})
	return warehouse, nil
}

// ResizeWarehouse actualiza nombre, ubicación y capacidad máxima revalidando contra la ocupación bajo bloqueo.
func (e *Engine) ResizeWarehouse(ctx context.Context, warehouseID string, changes WarehouseChanges) (*entity.Warehouse, error) {
	ctx, cancel := e.detach(ctx)
	defer cancel()

	var updated *entity.Warehouse
	err := e.txRunner.Run(ctx, func(ctx context.Context, warehouseRepo repository.WarehouseRepository, _ repository.ItemRepository) error {
		locked, err := lockInOrder(ctx, warehouseRepo, warehouseID)
		if err != nil {
			return err
		}
		w := locked[warehouseID]
		if changes.MaxCapacity != nil {
			if err := inventory.CheckMaxCapacity(w, *changes.MaxCapacity); err != nil {
				return err
			}
			w.MaxCapacity = *changes.MaxCapacity
		}
		if changes.Name != nil {
			w.Name = *changes.Name
		}
		if changes.Location != nil {
			w.Location = *changes.Location
		}
		w.UpdatedAt = e.now()
		if err := warehouseRepo.Update(ctx, w); err != nil {
			return err
		}
		updated = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.record(ctx, &entity.Activity{
		Kind:        entity.ActivityWarehouseUpdated,
		Message:     fmt.Sprintf("Updated warehouse %q", updated.Name),
		WarehouseID: updated.ID,
	})
	return updated, nil
}

// DeleteWarehouse elimina la bodega si no tiene ninguna fila de ítem, incluso con cantidad 0.
func (e *Engine) DeleteWarehouse(ctx context.Context, warehouseID string) error {
	ctx, cancel := e.detach(ctx)
	defer cancel()

	var deleted *entity.Warehouse
	err := e.txRunner.Run(ctx, func(ctx context.Context, warehouseRepo repository.WarehouseRepository, itemRepo repository.ItemRepository) error {
		locked, err := lockInOrder(ctx, warehouseRepo, warehouseID)
		if err != nil {
			return err
		}
		n, err := itemRepo.CountByWarehouse(ctx, warehouseID)
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.Conflict("no se puede eliminar la bodega %s: todavía tiene %d ítems", warehouseID, n).
				WithDetail("items", n)
		}
		if err := warehouseRepo.Delete(ctx, warehouseID); err != nil {
			return err
		}
		deleted = locked[warehouseID]
		return nil
	})
	if err != nil {
		return err
	}
	e.record(ctx, &entity.Activity{
		Kind:        entity.ActivityWarehouseDeleted,
		Message:     fmt.Sprintf("Deleted warehouse %q", deleted.Name),
		WarehouseID: warehouseID,
	})
	return nil
}

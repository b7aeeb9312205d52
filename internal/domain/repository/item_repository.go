package repository

import (
	"context"

	"github.com/jhoicas/bodegas-api/internal/domain/entity"
)

// ItemFilter filtros opcionales para listar ítems de una bodega.
type ItemFilter struct {
	Category  string
	SKUPrefix string
	Limit     int
	Offset    int
}

// ItemRepository define el puerto de persistencia para Item.
type ItemRepository interface {
	Create(ctx context.Context, item *entity.Item) error
	GetByID(ctx context.Context, id string) (*entity.Item, error)
	// Update persiste campos descriptivos y SKU; nunca la cantidad.
	Update(ctx context.Context, item *entity.Item) error
	// UpdateQuantity aplica delta y devuelve la nueva cantidad; falla si quedaría negativa.
	UpdateQuantity(ctx context.Context, id string, delta int) (int, error)
	Delete(ctx context.Context, id string) error
	FindBySKUInWarehouse(ctx context.Context, warehouseID, sku string) (*entity.Item, error)
	ListByWarehouse(ctx context.Context, warehouseID string, filter ItemFilter) ([]*entity.Item, error)
	CountByWarehouse(ctx context.Context, warehouseID string) (int, error)
}

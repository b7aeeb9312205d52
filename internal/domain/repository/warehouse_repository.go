package repository

import (
	"context"

	"github.com/jhoicas/bodegas-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// WarehouseRepository define el puerto de persistencia para Warehouse (DIP).
// AdjustOccupancy es el único camino que modifica CurrentCapacity.
type WarehouseRepository interface {
	Create(ctx context.Context, warehouse *entity.Warehouse) error
	GetByID(ctx context.Context, id string) (*entity.Warehouse, error)
	Update(ctx context.Context, warehouse *entity.Warehouse) error
	List(ctx context.Context) ([]*entity.Warehouse, error)
	Delete(ctx context.Context, id string) error

	// GetForUpdate obtiene la bodega y abre su sección exclusiva (SELECT FOR UPDATE) hasta el fin de la tx.
	GetForUpdate(ctx context.Context, id string) (*entity.Warehouse, error)

	// AdjustOccupancy suma delta (positivo o negativo) a la ocupación y devuelve la bodega actualizada.
	AdjustOccupancy(ctx context.Context, id string, delta int) (*entity.Warehouse, error)

	// ListAboveUtilization bodegas cuya ocupación (en %) es >= threshold.
	ListAboveUtilization(ctx context.Context, threshold decimal.Decimal) ([]*entity.Warehouse, error)
}

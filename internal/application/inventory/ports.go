package inventory

import (
	"context"

	"github.com/jhoicas/bodegas-api/internal/domain/entity"
	"github.com/jhoicas/bodegas-api/internal/domain/repository"
)

// TxFunc cuerpo de una transacción: recibe repositorios atados a la tx.
type TxFunc func(
	ctx context.Context,
	warehouseRepo repository.WarehouseRepository,
	itemRepo repository.ItemRepository,
) error

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Garantiza atomicidad para el motor: Commit si fn no falla, Rollback en cualquier otro caso.
// Las secciones exclusivas abiertas con GetForUpdate se liberan al terminar la tx; si no se obtienen
// dentro del timeout configurado la tx falla con domain.ErrContention.
type TxRunner interface {
	Run(ctx context.Context, fn TxFunc) error
}

// ActivityRecorder registra actividad fuera de la transacción (best-effort, nunca falla).
type ActivityRecorder interface {
	Record(ctx context.Context, activity *entity.Activity)
}

package postgres

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/jhoicas/bodegas-api/internal/domain/entity"
	"github.com/jhoicas/bodegas-api/internal/domain/repository"
)

var _ repository.ActivityRepository = (*ActivityRepo)(nil)

// ActivityRepo log de actividad en la tabla activities.
type ActivityRepo struct {
	q Querier
}

// NewActivityRepository construye el adaptador.
func NewActivityRepository(q Querier) *ActivityRepo {
	return &ActivityRepo{q: q}
}

// Append inserta la entrada. Un ID repetido se ignora.
func (r *ActivityRepo) Append(ctx context.Context, a *entity.Activity) error {
	query := `
		INSERT INTO activities (id, kind, message, warehouse_id, item_id, sku, quantity, operator, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`
	_, err := r.q.Exec(ctx, query, a.ID, a.Kind, a.Message, a.WarehouseID, a.ItemID, a.SKU, a.Quantity, a.Operator, a.OccurredAt)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// Recent devuelve hasta limit entradas, la más reciente primero.
func (r *ActivityRepo) Recent(ctx context.Context, limit int) ([]*entity.Activity, error) {
	query := `
		SELECT id, kind, message, warehouse_id, item_id, sku, quantity, operator, occurred_at
		FROM activities ORDER BY occurred_at DESC, id LIMIT $1`
	list := make([]*entity.Activity, 0, limit)
	if err := pgxscan.Select(ctx, r.q, &list, query, limit); err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return list, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/bodegas-api/internal/domain"
	"github.com/jhoicas/bodegas-api/internal/domain/entity"
	"github.com/jhoicas/bodegas-api/internal/domain/inventory"
	"github.com/jhoicas/bodegas-api/internal/domain/repository"
)

var _ repository.WarehouseRepository = (*WarehouseRepo)(nil)

const warehouseColumns = `id, name, location, max_capacity, current_capacity, created_at, updated_at`

// WarehouseRepo implementación del puerto WarehouseRepository sobre PostgreSQL (usable con pool o tx).
type WarehouseRepo struct {
	q Querier
}

// NewWarehouseRepository construye el adaptador de persistencia para bodegas. Pasar pool o tx (Querier).
func NewWarehouseRepository(q Querier) *WarehouseRepo {
	return &WarehouseRepo{q: q}
}

func scanWarehouse(row pgx.Row) (*entity.Warehouse, error) {
	var w entity.Warehouse
	err := row.Scan(&w.ID, &w.Name, &w.Location, &w.MaxCapacity, &w.CurrentCapacity, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Create persiste una nueva bodega.
func (r *WarehouseRepo) Create(ctx context.Context, warehouse *entity.Warehouse) error {
	query := `
		INSERT INTO warehouses (id, name, location, max_capacity, current_capacity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query,
		warehouse.ID, warehouse.Name, warehouse.Location, warehouse.MaxCapacity,
		warehouse.CurrentCapacity, warehouse.CreatedAt, warehouse.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Conflict("la bodega %s ya existe", warehouse.ID)
		}
		if isCheckViolation(err) {
			return domain.Validation("maxCapacity inválida").WithDetail("max_capacity", warehouse.MaxCapacity)
		}
		return fmt.Errorf("insert warehouse: %w", classify(err))
	}
	return nil
}

// GetByID obtiene una bodega por ID; nil si no existe.
func (r *WarehouseRepo) GetByID(ctx context.Context, id string) (*entity.Warehouse, error) {
	w, err := scanWarehouse(r.q.QueryRow(ctx, `SELECT `+warehouseColumns+` FROM warehouses WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get warehouse: %w", classify(err))
	}
	return w, nil
}

// GetForUpdate obtiene la bodega y bloquea la fila hasta el fin de la tx (SELECT FOR UPDATE).
// Si el bloqueo no llega antes de lock_timeout devuelve ErrContention.
func (r *WarehouseRepo) GetForUpdate(ctx context.Context, id string) (*entity.Warehouse, error) {
	w, err := scanWarehouse(r.q.QueryRow(ctx, `SELECT `+warehouseColumns+` FROM warehouses WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		if isContention(err) {
			return nil, domain.Contention("no se obtuvo el bloqueo de la bodega %s a tiempo", id).
				WithDetail("warehouse_id", id).
				WithDetail("sqlstate", pgCode(err))
		}
		return nil, fmt.Errorf("get warehouse for update: %w", err)
	}
	return w, nil
}

// Update actualiza nombre, ubicación y capacidad máxima. El CHECK de la tabla rechaza un máximo menor a la ocupación.
func (r *WarehouseRepo) Update(ctx context.Context, warehouse *entity.Warehouse) error {
	query := `
		UPDATE warehouses SET name = $2, location = $3, max_capacity = $4, updated_at = $5
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		warehouse.ID, warehouse.Name, warehouse.Location, warehouse.MaxCapacity, warehouse.UpdatedAt,
	)
	if err != nil {
		if isCheckViolation(err) {
			return domain.Validation("maxCapacity %d es menor que la ocupación actual", warehouse.MaxCapacity).
				WithDetail("max_capacity", warehouse.MaxCapacity)
		}
		return fmt.Errorf("update warehouse: %w", classify(err))
	}
	if cmd.RowsAffected() == 0 {
		return domain.NotFound("bodega", warehouse.ID)
	}
	return nil
}

// List lista todas las bodegas por fecha de creación.
func (r *WarehouseRepo) List(ctx context.Context) ([]*entity.Warehouse, error) {
	var list []*entity.Warehouse
	query := `SELECT ` + warehouseColumns + ` FROM warehouses ORDER BY created_at, id`
	if err := pgxscan.Select(ctx, r.q, &list, query); err != nil {
		return nil, fmt.Errorf("list warehouses: %w", classify(err))
	}
	return list, nil
}

// Delete elimina una bodega por ID. La FK RESTRICT de items la protege si todavía tiene ítems.
func (r *WarehouseRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM warehouses WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.Conflict("la bodega %s todavía tiene ítems", id)
		}
		return fmt.Errorf("delete warehouse: %w", classify(err))
	}
	if cmd.RowsAffected() == 0 {
		return domain.NotFound("bodega", id)
	}
	return nil
}

// AdjustOccupancy suma delta a current_capacity en un UPDATE condicional. Si la condición no se cumple
// relee la bodega para devolver el error preciso.
func (r *WarehouseRepo) AdjustOccupancy(ctx context.Context, id string, delta int) (*entity.Warehouse, error) {
	query := `
		UPDATE warehouses
		SET current_capacity = current_capacity + $2, updated_at = now()
		WHERE id = $1 AND current_capacity + $2 BETWEEN 0 AND max_capacity
		RETURNING ` + warehouseColumns
	w, err := scanWarehouse(r.q.QueryRow(ctx, query, id, delta))
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("adjust occupancy: %w", classify(err))
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, domain.NotFound("bodega", id)
	}
	if _, err := inventory.ApplyOccupancy(current, delta); err != nil {
		return nil, err
	}
	return nil, domain.Conflict("la ocupación de la bodega %s cambió durante el ajuste", id)
}

type utilizationRow struct {
	entity.Warehouse
	Utilization decimal.Decimal `db:"utilization"`
}

// ListAboveUtilization bodegas cuya ocupación (en %) es >= threshold, la más llena primero.
func (r *WarehouseRepo) ListAboveUtilization(ctx context.Context, threshold decimal.Decimal) ([]*entity.Warehouse, error) {
	query := `
		SELECT ` + warehouseColumns + `, utilization
		FROM (
			SELECT ` + warehouseColumns + `,
				CASE WHEN max_capacity = 0 THEN 0::numeric
				     ELSE ROUND(current_capacity::numeric * 100 / max_capacity, 2)
				END AS utilization
			FROM warehouses
		) w
		WHERE utilization >= $1
		ORDER BY utilization DESC, id`
	var rows []utilizationRow
	if err := pgxscan.Select(ctx, r.q, &rows, query, threshold); err != nil {
		return nil, fmt.Errorf("list warehouses above utilization: %w", classify(err))
	}
	list := make([]*entity.Warehouse, 0, len(rows))
	for i := range rows {
		w := rows[i].Warehouse
		list = append(list, &w)
	}
	return list, nil
}

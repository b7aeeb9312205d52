package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/bodegas-api/internal/domain"
	"github.com/jhoicas/bodegas-api/internal/domain/entity"
	"github.com/jhoicas/bodegas-api/internal/domain/repository"
)

var _ repository.ItemRepository = (*ItemRepo)(nil)

var itemColumns = []string{
	"id", "warehouse_id", "sku", "name", "description", "category",
	"storage_location", "quantity", "expiration_date", "created_at", "updated_at",
}

// ItemRepo implementación de ItemRepository sobre PostgreSQL (usable con pool o tx).
type ItemRepo struct {
	q       Querier
	builder squirrel.StatementBuilderType
}

// NewItemRepository construye el adaptador de ítems. Pasar pool o tx (Querier).
func NewItemRepository(q Querier) *ItemRepo {
	return &ItemRepo{
		q:       q,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *ItemRepo) selectItems() squirrel.SelectBuilder {
	return r.builder.Select(itemColumns...).From("items")
}

// get ejecuta un SELECT de un solo ítem; nil si no hay filas.
func (r *ItemRepo) get(ctx context.Context, q squirrel.SelectBuilder) (*entity.Item, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var it entity.Item
	if err := pgxscan.Get(ctx, r.q, &it, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify(err)
	}
	return &it, nil
}

// Create inserta el ítem. (warehouse_id, sku) repetido → Conflict.
func (r *ItemRepo) Create(ctx context.Context, item *entity.Item) error {
	if item.Quantity < 0 {
		return domain.Validation("quantity no puede ser negativa")
	}
	sql, args, err := r.builder.Insert("items").
		Columns(itemColumns...).
		Values(item.ID, item.WarehouseID, item.SKU, item.Name, item.Description, item.Category,
			item.StorageLocation, item.Quantity, item.ExpirationDate, item.CreatedAt, item.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert item: %w", err)
	}
	if _, err := r.q.Exec(ctx, sql, args...); err != nil {
		switch {
		case isUniqueViolation(err) && isConstraint(err, "items_warehouse_sku_key"):
			return domain.Conflict("el SKU %s ya existe en la bodega %s", item.SKU, item.WarehouseID).
				WithDetail("sku", item.SKU)
		case isUniqueViolation(err):
			return domain.Conflict("el ítem %s ya existe", item.ID)
		case isForeignKeyViolation(err):
			return domain.NotFound("bodega", item.WarehouseID)
		}
		return fmt.Errorf("insert item: %w", classify(err))
	}
	return nil
}

// GetByID obtiene un ítem por ID; nil si no existe.
func (r *ItemRepo) GetByID(ctx context.Context, id string) (*entity.Item, error) {
	it, err := r.get(ctx, r.selectItems().Where(squirrel.Eq{"id": id}))
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

// Update persiste campos descriptivos y SKU. La cantidad solo cambia vía UpdateQuantity.
func (r *ItemRepo) Update(ctx context.Context, item *entity.Item) error {
	sql, args, err := r.builder.Update("items").
		Set("sku", item.SKU).
		Set("name", item.Name).
		Set("description", item.Description).
		Set("category", item.Category).
		Set("storage_location", item.StorageLocation).
		Set("expiration_date", item.ExpirationDate).
		Set("updated_at", item.UpdatedAt).
		Where(squirrel.Eq{"id": item.ID, "warehouse_id": item.WarehouseID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update item: %w", err)
	}
	cmd, err := r.q.Exec(ctx, sql, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Conflict("el SKU %s ya existe en la bodega %s", item.SKU, item.WarehouseID).
				WithDetail("sku", item.SKU)
		}
		return fmt.Errorf("update item: %w", classify(err))
	}
	if cmd.RowsAffected() == 0 {
		return domain.NotFound("ítem", item.ID)
	}
	return nil
}

// UpdateQuantity suma delta en un UPDATE condicional; una cantidad 0 conserva la fila.
func (r *ItemRepo) UpdateQuantity(ctx context.Context, id string, delta int) (int, error) {
	var qty int
	err := r.q.QueryRow(ctx, `
		UPDATE items SET quantity = quantity + $2, updated_at = now()
		WHERE id = $1 AND quantity + $2 >= 0
		RETURNING quantity`, id, delta).Scan(&qty)
	if err == nil {
		return qty, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("update item quantity: %w", classify(err))
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if current == nil {
		return 0, domain.NotFound("ítem", id)
	}
	return 0, domain.InsufficientQuantity(current.WarehouseID, current.SKU, -delta, current.Quantity)
}

// Delete elimina la fila del ítem.
func (r *ItemRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", classify(err))
	}
	if cmd.RowsAffected() == 0 {
		return domain.NotFound("ítem", id)
	}
	return nil
}

// FindBySKUInWarehouse busca el ítem del SKU en la bodega; nil si no existe.
func (r *ItemRepo) FindBySKUInWarehouse(ctx context.Context, warehouseID, sku string) (*entity.Item, error) {
	it, err := r.get(ctx, r.selectItems().Where(squirrel.Eq{"warehouse_id": warehouseID, "sku": sku}))
	if err != nil {
		return nil, fmt.Errorf("find item by sku: %w", err)
	}
	return it, nil
}

// listQuery arma el SELECT del listado. El prefijo de SKU se compara con starts_with para que
// % y _ no actúen como comodines.
func (r *ItemRepo) listQuery(warehouseID string, filter repository.ItemFilter) squirrel.SelectBuilder {
	q := r.selectItems().Where(squirrel.Eq{"warehouse_id": warehouseID})
	if filter.Category != "" {
		q = q.Where(squirrel.Eq{"category": filter.Category})
	}
	if filter.SKUPrefix != "" {
		q = q.Where(squirrel.Expr("starts_with(sku, ?)", filter.SKUPrefix))
	}
	q = q.OrderBy("name", "sku")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}
	return q
}

// ListByWarehouse lista los ítems de la bodega con filtros opcionales, ordenados por nombre y SKU.
func (r *ItemRepo) ListByWarehouse(ctx context.Context, warehouseID string, filter repository.ItemFilter) ([]*entity.Item, error) {
	sql, args, err := r.listQuery(warehouseID, filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list items: %w", err)
	}
	items := make([]*entity.Item, 0)
	if err := pgxscan.Select(ctx, r.q, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list items: %w", classify(err))
	}
	return items, nil
}

// CountByWarehouse cantidad de filas de ítem de la bodega, incluidas las de cantidad 0.
func (r *ItemRepo) CountByWarehouse(ctx context.Context, warehouseID string) (int, error) {
	sql, args, err := r.builder.Select("COUNT(*)").From("items").Where(squirrel.Eq{"warehouse_id": warehouseID}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count items: %w", err)
	}
	var n int
	if err := r.q.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count items: %w", classify(err))
	}
	return n, nil
}

package entity

import "time"

// Tipos de actividad registrada.
const (
	ActivityWarehouseCreated = "WAREHOUSE_CREATED"
	ActivityWarehouseUpdated = "WAREHOUSE_UPDATED"
	ActivityWarehouseDeleted = "WAREHOUSE_DELETED"
	ActivityItemCreated      = "ITEM_CREATED"
	ActivityItemUpdated      = "ITEM_UPDATED"
	ActivityItemDeleted      = "ITEM_DELETED"
	ActivityTransfer         = "TRANSFER"
)

// Activity entrada del log de actividad (best-effort, fuera de la transacción).
type Activity struct {
	ID          string    `db:"id" json:"id"`
	Kind        string    `db:"kind" json:"kind"`
	Message     string    `db:"message" json:"message"`
	WarehouseID string    `db:"warehouse_id" json:"warehouseId,omitempty"`
	ItemID      string    `db:"item_id" json:"itemId,omitempty"`
	SKU         string    `db:"sku" json:"sku,omitempty"`
	Quantity    int       `db:"quantity" json:"quantity,omitempty"`
	Operator    string    `db:"operator" json:"operator,omitempty"`
	OccurredAt  time.Time `db:"occurred_at" json:"occurredAt"`
}

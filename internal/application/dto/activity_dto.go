package dto

import "time"

// ActivityResponse entrada del log de actividad.
type ActivityResponse struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Message     string    `json:"message"`
	WarehouseID string    `json:"warehouseId,omitempty"`
	ItemID      string    `json:"itemId,omitempty"`
	SKU         string    `json:"sku,omitempty"`
	Quantity    int       `json:"quantity,omitempty"`
	Operator    string    `json:"operator,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
}

package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateWarehouseRequest entrada para crear una bodega.
type CreateWarehouseRequest struct {
	Name        string `json:"name"`
	Location    string `json:"location"`
	MaxCapacity int    `json:"maxCapacity"`
}

// UpdateWarehouseRequest entrada para actualizar una bodega. Los campos ausentes no cambian.
type UpdateWarehouseRequest struct {
	Name        *string `json:"name"`
	Location    *string `json:"location"`
	MaxCapacity *int    `json:"maxCapacity"`
}

// WarehouseResponse salida de una bodega con su ocupación.
type WarehouseResponse struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Location          string          `json:"location"`
	MaxCapacity       int             `json:"maxCapacity"`
	CurrentCapacity   int             `json:"currentCapacity"`
	AvailableCapacity int             `json:"availableCapacity"`
	Utilization       decimal.Decimal `json:"utilization"`
	HighUsage         bool            `json:"highUsage"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// LedgerMismatch bodega cuya ocupación almacenada no coincide con la suma de sus ítems.
type LedgerMismatch struct {
	WarehouseID string `json:"warehouseId"`
	Name        string `json:"name"`
	Stored      int    `json:"stored"`
	Derived     int    `json:"derived"`
	MaxCapacity int    `json:"maxCapacity"`
	Error       string `json:"error"`
}

// LedgerReport resultado de verificar todas las bodegas.
type LedgerReport struct {
	Warehouses int              `json:"warehouses"`
	Items      int              `json:"items"`
	Mismatches []LedgerMismatch `json:"mismatches"`
}

// OK indica que no hubo diferencias.
func (r *LedgerReport) OK() bool { return len(r.Mismatches) == 0 }

package dto

import "time"

// DateLayout formato de fecha de vencimiento en la API.
const DateLayout = "2006-01-02"

// CreateItemRequest entrada para crear un ítem en una bodega.
type CreateItemRequest struct {
	Name            string  `json:"name"`
	SKU             string  `json:"sku"`
	Description     string  `json:"description"`
	Category        string  `json:"category"`
	StorageLocation string  `json:"storageLocation"`
	Quantity        int     `json:"quantity"`
	ExpirationDate  *string `json:"expirationDate,omitempty"` // YYYY-MM-DD
}

// UpdateItemRequest entrada para actualizar un ítem. Los campos ausentes no cambian.
type UpdateItemRequest struct {
	Name            *string `json:"name"`
	SKU             *string `json:"sku"`
	Description     *string `json:"description"`
	Category        *string `json:"category"`
	StorageLocation *string `json:"storageLocation"`
	Quantity        *int    `json:"quantity"`
	ExpirationDate  *string `json:"expirationDate,omitempty"`
}

// ListItemsRequest filtros del listado de ítems.
type ListItemsRequest struct {
	PageRequest
	Category  string `query:"category"`
	SKUPrefix string `query:"sku"`
}

// ItemResponse salida de un ítem.
type ItemResponse struct {
	ID              string    `json:"id"`
	WarehouseID     string    `json:"warehouseId"`
	SKU             string    `json:"sku"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Category        string    `json:"category"`
	StorageLocation string    `json:"storageLocation"`
	Quantity        int       `json:"quantity"`
	ExpirationDate  *string   `json:"expirationDate,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
	// Warehouse bodega releída después de una mutación; vacío en listados.
	Warehouse *WarehouseResponse `json:"warehouse,omitempty"`
}

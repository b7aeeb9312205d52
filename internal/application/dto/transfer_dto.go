package dto

import "time"

// TransferRequest entrada para trasladar stock de un SKU entre bodegas.
type TransferRequest struct {
	SourceWarehouseID      string `json:"sourceWarehouseId"`
	DestinationWarehouseID string `json:"destinationWarehouseId"`
	SKU                    string `json:"sku"`
	Quantity               int    `json:"quantity"`
}

// TransferResponse snapshots posteriores al traslado.
type TransferResponse struct {
	TransferID           string            `json:"transferId"`
	SKU                  string            `json:"sku"`
	Quantity             int               `json:"quantity"`
	SourceWarehouse      WarehouseResponse `json:"sourceWarehouse"`
	DestinationWarehouse WarehouseResponse `json:"destinationWarehouse"`
	SourceItem           ItemResponse      `json:"sourceItem"`
	DestinationItem      ItemResponse      `json:"destinationItem"`
	DestinationCreated   bool              `json:"destinationCreated"`
	CompletedAt          time.Time         `json:"completedAt"`
}

package entity

import "time"

// Transfer describe un traslado de un SKU entre dos bodegas. No se persiste; lo consume el motor una vez.
type Transfer struct {
	SourceWarehouseID      string
	DestinationWarehouseID string
	SKU                    string
	Quantity               int
}

// TransferResult snapshots posteriores al commit de un traslado.
type TransferResult struct {
	TransferID           string
	Transfer             Transfer
	SourceWarehouse      *Warehouse
	DestinationWarehouse *Warehouse
	SourceItem           *Item
	DestinationItem      *Item
	DestinationCreated   bool
	CompletedAt          time.Time
}

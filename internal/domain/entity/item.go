package entity

import "time"

// DefaultStorageLocation ubicación asignada a un ítem creado en destino por un traslado.
const DefaultStorageLocation = "TBD"

// Item representa el stock de un SKU dentro de una bodega. (WarehouseID, SKU) es único.
// Una cantidad en 0 conserva la fila.
type Item struct {
	ID              string     `db:"id"`
	WarehouseID     string     `db:"warehouse_id"`
	SKU             string     `db:"sku"`
	Name            string     `db:"name"`
	Description     string     `db:"description"`
	Category        string     `db:"category"`
	StorageLocation string     `db:"storage_location"`
	Quantity        int        `db:"quantity"`
	ExpirationDate  *time.Time `db:"expiration_date"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

// Clone devuelve una copia independiente.
func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	cp := *i
	if i.ExpirationDate != nil {
		d := *i.ExpirationDate
		cp.ExpirationDate = &d
	}
	return &cp
}

// CopyForWarehouse crea el ítem destino de un traslado: copia los campos descriptivos,
// la ubicación física queda por definir y la cantidad inicia en 0.
func (i *Item) CopyForWarehouse(id, warehouseID string, now time.Time) *Item {
	cp := i.Clone()
	cp.ID = id
	cp.WarehouseID = warehouseID
	cp.StorageLocation = DefaultStorageLocation
	cp.Quantity = 0
	cp.CreatedAt = now
	cp.UpdatedAt = now
	return cp
}

package entity

import "time"

// Warehouse representa una bodega con capacidad acotada.
// CurrentCapacity es la ocupación derivada (suma de cantidades de sus ítems); solo cambia vía AdjustOccupancy.
type Warehouse struct {
	ID              string    `db:"id"`
	Name            string    `db:"name"`
	Location        string    `db:"location"`
	MaxCapacity     int       `db:"max_capacity"`
	CurrentCapacity int       `db:"current_capacity"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// Available devuelve las unidades libres de la bodega.
func (w *Warehouse) Available() int {
	return w.MaxCapacity - w.CurrentCapacity
}

// Clone devuelve una copia independiente (snapshots de resultado y store en memoria).
func (w *Warehouse) Clone() *Warehouse {
	if w == nil {
		return nil
	}
	cp := *w
	return &cp
}

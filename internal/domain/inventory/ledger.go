package inventory

import (
	"fmt"

	"github.com/jhoicas/bodegas-api/internal/domain"
	"github.com/jhoicas/bodegas-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// DefaultHighUsageThreshold porcentaje de ocupación a partir del cual una bodega genera alerta.
var DefaultHighUsageThreshold = decimal.NewFromInt(75)

// ApplyOccupancy implementa el ledger de capacidad (servicio de dominio).
// NuevaOcupación = OcupaciónActual + delta, con 0 <= NuevaOcupación <= MaxCapacity.
func ApplyOccupancy(w *entity.Warehouse, delta int) (int, error) {
	next := w.CurrentCapacity + delta
	if next > w.MaxCapacity {
		return 0, domain.CapacityExceeded(w.ID, delta, w.Available())
	}
	if next < 0 {
		return 0, &domain.Error{
			Kind:    domain.ErrCapacityExceeded,
			Message: fmt.Sprintf("la ocupación de la bodega %s no puede ser negativa: actual %d, delta %d", w.ID, w.CurrentCapacity, delta),
			Details: map[string]any{"warehouse_id": w.ID, "current": w.CurrentCapacity, "delta": delta},
		}
	}
	return next, nil
}

// ApplyQuantity valida un cambio de cantidad sobre un ítem. La fila se conserva aunque quede en 0.
func ApplyQuantity(item *entity.Item, delta int) (int, error) {
	next := item.Quantity + delta
	if next < 0 {
		return 0, domain.InsufficientQuantity(item.WarehouseID, item.SKU, -delta, item.Quantity)
	}
	return next, nil
}

// CheckMaxCapacity valida un nuevo máximo contra la ocupación actual.
func CheckMaxCapacity(w *entity.Warehouse, newMax int) error {
	if newMax < 0 {
		return domain.Validation("maxCapacity no puede ser negativo")
	}
	if newMax < w.CurrentCapacity {
		return domain.Validation("maxCapacity %d es menor que la ocupación actual %d de la bodega %s", newMax, w.CurrentCapacity, w.ID).
			WithDetail("current_capacity", w.CurrentCapacity).
			WithDetail("requested_max_capacity", newMax)
	}
	return nil
}

// Derive calcula la ocupación a partir de las cantidades de los ítems.
func Derive(items []*entity.Item) int {
	total := 0
	for _, it := range items {
		total += it.Quantity
	}
	return total
}

// Verify compara la ocupación almacenada con la derivada y revisa el invariante de capacidad.
func Verify(w *entity.Warehouse, items []*entity.Item) error {
	derived := Derive(items)
	if derived != w.CurrentCapacity {
		return domain.Conflict("ocupación descuadrada en la bodega %s: almacenada %d, derivada %d", w.ID, w.CurrentCapacity, derived).
			WithDetail("stored", w.CurrentCapacity).
			WithDetail("derived", derived)
	}
	if w.CurrentCapacity < 0 || w.CurrentCapacity > w.MaxCapacity {
		return domain.Conflict("ocupación fuera de rango en la bodega %s: %d de %d", w.ID, w.CurrentCapacity, w.MaxCapacity)
	}
	for _, it := range items {
		if it.Quantity < 0 {
			return domain.Conflict("cantidad negativa en el ítem %s", it.ID)
		}
	}
	return nil
}

// Utilization porcentaje de ocupación con dos decimales. Una bodega de capacidad 0 reporta 0.
func Utilization(w *entity.Warehouse) decimal.Decimal {
	if w.MaxCapacity <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(w.CurrentCapacity)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(w.MaxCapacity))).
		Round(2)
}

// HighUsage indica si la bodega alcanza el umbral de alerta.
func HighUsage(w *entity.Warehouse, threshold decimal.Decimal) bool {
	if w.MaxCapacity <= 0 {
		return false
	}
	return Utilization(w).GreaterThanOrEqual(threshold)
}

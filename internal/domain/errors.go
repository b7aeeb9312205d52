package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas). Son los "tipos" de la taxonomía:
// repositorios y motor devuelven *Error con uno de estos Kind; la capa HTTP los traduce a status.
var (
	ErrValidation           = errors.New("entrada inválida")
	ErrNotFound             = errors.New("recurso no encontrado")
	ErrConflict             = errors.New("conflicto con el estado actual")
	ErrCapacityExceeded     = errors.New("capacidad de bodega excedida")
	ErrInsufficientQuantity = errors.New("cantidad insuficiente")
	ErrContention           = errors.New("recurso ocupado, reintente")
)

// Error es el error estructurado del dominio: Kind identifica el tipo (sentinela de arriba),
// Message es legible para el cliente y Details lleva los valores relevantes (actual vs solicitado).
type Error struct {
	Kind    error
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

// Is permite errors.Is(err, domain.ErrCapacityExceeded).
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

// Unwrap expone el Kind para errors.Is/As encadenados.
func (e *Error) Unwrap() error {
	return e.Kind
}

// WithDetail agrega un par clave-valor a los detalles.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// Validation construye un error de validación (culpa del llamador, nunca se reintenta).
func Validation(format string, args ...any) *Error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound construye un error de entidad inexistente.
func NotFound(entity, id string) *Error {
	return &Error{
		Kind:    ErrNotFound,
		Message: fmt.Sprintf("%s no encontrado: %s", entity, id),
		Details: map[string]any{"entity": entity, "id": id},
	}
}

// Conflict construye un error de unicidad o integridad referencial.
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

// CapacityExceeded indica que la bodega no puede recibir la cantidad solicitada.
func CapacityExceeded(warehouseID string, requested, available int) *Error {
	return &Error{
		Kind:    ErrCapacityExceeded,
		Message: fmt.Sprintf("capacidad insuficiente en la bodega %s: disponible %d, solicitado %d", warehouseID, available, requested),
		Details: map[string]any{"warehouse_id": warehouseID, "requested": requested, "available": available},
	}
}

// InsufficientQuantity indica que el ítem no tiene stock suficiente.
func InsufficientQuantity(warehouseID, sku string, requested, available int) *Error {
	return &Error{
		Kind:    ErrInsufficientQuantity,
		Message: fmt.Sprintf("cantidad insuficiente del SKU %s en la bodega %s: disponible %d, solicitado %d", sku, warehouseID, available, requested),
		Details: map[string]any{"warehouse_id": warehouseID, "sku": sku, "requested": requested, "available": available},
	}
}

// Contention indica que no se obtuvo el bloqueo a tiempo; es seguro reintentar.
func Contention(format string, args ...any) *Error {
	return &Error{Kind: ErrContention, Message: fmt.Sprintf(format, args...)}
}

// AsError extrae *Error de la cadena de errores.
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// IsRetryable indica si el llamador puede reintentar con backoff.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrContention)
}

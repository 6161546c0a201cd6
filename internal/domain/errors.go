package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
// Los mensajes se muestran tal cual al usuario, por eso van en español.
var (
	ErrNotFound            = errors.New("recurso no encontrado")
	ErrInsufficientStock   = errors.New("stock insuficiente")
	ErrInvalidOperation    = errors.New("operación inválida")
	ErrConcurrencyConflict = errors.New("conflicto de concurrencia, reintente la operación")
	ErrPersistence         = errors.New("error de persistencia")
	ErrUnauthorized        = errors.New("no autorizado")
	ErrForbidden           = errors.New("acceso denegado")
)

// InsufficientStockError detalla la cantidad disponible frente a la solicitada.
// errors.Is(err, ErrInsufficientStock) es verdadero para este tipo.
type InsufficientStockError struct {
	Available int64
	Requested int64
	ProductID string // solo en operaciones de varios productos
}

func (e *InsufficientStockError) Error() string {
	if e.ProductID != "" {
		return fmt.Sprintf("stock insuficiente para el producto %s: disponible %d, solicitado %d", e.ProductID, e.Available, e.Requested)
	}
	return fmt.Sprintf("stock insuficiente: disponible %d, solicitado %d", e.Available, e.Requested)
}

// Is permite comparar contra el sentinel ErrInsufficientStock.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// InsufficientStock construye el error tipado.
func InsufficientStock(available, requested int64) error {
	return &InsufficientStockError{Available: available, Requested: requested}
}

// InvalidOperation envuelve ErrInvalidOperation con el motivo concreto.
func InvalidOperation(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidOperation, reason)
}

// NotFound envuelve ErrNotFound indicando qué no se encontró.
func NotFound(what string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, what)
}

// Persistence envuelve un fallo de infraestructura. Si err ya es un error
// de dominio conocido se devuelve sin cambios.
func Persistence(err error) error {
	if err == nil {
		return nil
	}
	if IsDomainError(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}

// IsDomainError indica si err pertenece a la taxonomía del ledger.
func IsDomainError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrInvalidOperation) ||
		errors.Is(err, ErrConcurrencyConflict) ||
		errors.Is(err, ErrPersistence)
}

// Retryable indica si el llamador puede reintentar sin cambiar la entrada.
// Solo los fallos de persistencia y los conflictos de concurrencia lo son;
// los errores de negocio se repetirían de forma determinista.
func Retryable(err error) bool {
	return errors.Is(err, ErrPersistence) || errors.Is(err, ErrConcurrencyConflict)
}

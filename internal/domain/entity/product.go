package entity

import "github.com/shopspring/decimal"

// Product es la vista de solo lectura del catálogo de productos del salón.
// El catálogo pertenece a otro subsistema; el ledger solo guarda ProductID.
type Product struct {
	ID           string
	SalonID      string
	Name         string
	SKU          string
	Unit         string          // unidad de medida (ml, unidad, caja...)
	ReorderPoint decimal.Decimal // umbral de reorden; cero = sin umbral
}

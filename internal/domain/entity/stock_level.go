package entity

import "time"

// StockLevel representa la cantidad disponible de un producto en una ubicación.
// Es una proyección de los movimientos: siempre se puede reconstruir reproduciendo el ledger.
// Nunca se elimina; cantidad 0 es un estado válido.
type StockLevel struct {
	ProductID  string
	LocationID string
	Quantity   int64 // siempre >= 0
	UpdatedAt  time.Time
}

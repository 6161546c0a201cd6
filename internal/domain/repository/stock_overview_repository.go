package repository

import (
	"context"

	"github.com/shopspring/decimal"
)

// StockOverviewRow fila cruda de la vista de stock (nivel + catálogo).
// Quantity es el nivel en la ubicación, o la suma de todas si LocationID viene vacío.
type StockOverviewRow struct {
	ProductID    string
	ProductName  string
	SKU          string
	Unit         string
	LocationID   string
	LocationName string
	Quantity     int64
	ReorderPoint decimal.Decimal
	// Stocked indica que existe al menos una fila de nivel para el par (o el producto).
	Stocked bool
}

// StockOverviewRepository consultas de solo lectura para tableros de stock.
// Son proyecciones del Stock Level Store; nunca escriben.
type StockOverviewRepository interface {
	// StockAtLocation devuelve todos los productos del salón con su nivel en la ubicación
	// (cero si no hay fila).
	StockAtLocation(ctx context.Context, salonID, locationID string) ([]StockOverviewRow, error)
	// StockTotals devuelve el stock agregado de cada producto del salón en todas sus ubicaciones.
	StockTotals(ctx context.Context, salonID string) ([]StockOverviewRow, error)
}

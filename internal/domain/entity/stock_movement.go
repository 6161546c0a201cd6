package entity

import "time"

// Tipos de movimiento del ledger de inventario.
const (
	MovementTypeAdjustment = "adjustment" // corrección manual (add/subtract/set)
	MovementTypeTransfer   = "transfer"   // traslado entre ubicaciones
)

// StockMovement es un registro inmutable del ledger.
// Quantity siempre es positivo: la dirección se codifica con FromLocationID/ToLocationID
// (cadena vacía = NULL), nunca con el signo.
type StockMovement struct {
	ID             string
	Seq            int64 // secuencia asignada por el store, desempata OccurredAt
	ProductID      string
	FromLocationID string
	ToLocationID   string
	Quantity       int64
	Type           string
	Reason         string // obligatorio en ajustes, opcional (notas) en traslados
	PerformedBy    string
	OccurredAt     time.Time
}

// Delta devuelve el efecto con signo del movimiento sobre una ubicación.
func (m *StockMovement) Delta(locationID string) int64 {
	var d int64
	if m.ToLocationID == locationID {
		d += m.Quantity
	}
	if m.FromLocationID == locationID {
		d -= m.Quantity
	}
	return d
}

// Locations devuelve las ubicaciones afectadas (una en ajustes, dos en traslados).
func (m *StockMovement) Locations() []string {
	locs := make([]string, 0, 2)
	if m.FromLocationID != "" {
		locs = append(locs, m.FromLocationID)
	}
	if m.ToLocationID != "" {
		locs = append(locs, m.ToLocationID)
	}
	return locs
}

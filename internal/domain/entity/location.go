package entity

// Location es una ubicación física de stock (bodega, recepción, cabina...).
// La registra otro subsistema; el ledger solo guarda LocationID.
type Location struct {
	ID      string
	SalonID string
	Name    string
}

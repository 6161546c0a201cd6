package entity

// AdjustmentMode indica cómo interpretar la cantidad de un ajuste.
type AdjustmentMode string

const (
	AdjustmentAdd      AdjustmentMode = "add"
	AdjustmentSubtract AdjustmentMode = "subtract"
	AdjustmentSet      AdjustmentMode = "set"
)

// Valid indica si el modo es reconocido.
func (m AdjustmentMode) Valid() bool {
	switch m {
	case AdjustmentAdd, AdjustmentSubtract, AdjustmentSet:
		return true
	}
	return false
}

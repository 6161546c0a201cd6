package inventory

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jhoicas/stock-ledger/internal/domain"
)

// Límites de texto libre en movimientos.
const (
	MaxReasonLength = 500
	MaxNotesLength  = 500
)

func validateID(field, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.InvalidOperation(field + " debe ser un UUID válido")
	}
	return nil
}

func validateActor(actor string) error {
	if strings.TrimSpace(actor) == "" {
		return domain.InvalidOperation("se requiere el usuario que realiza la operación")
	}
	return nil
}

// normalizeReason recorta espacios y aplica obligatoriedad y longitud máxima.
func normalizeReason(reason string) (string, error) {
	r := strings.TrimSpace(reason)
	if r == "" {
		return "", domain.InvalidOperation("el motivo es obligatorio")
	}
	if utf8.RuneCountInString(r) > MaxReasonLength {
		return "", domain.InvalidOperation("el motivo no puede superar 500 caracteres")
	}
	return r, nil
}

func normalizeNotes(notes string) (string, error) {
	n := strings.TrimSpace(notes)
	if utf8.RuneCountInString(n) > MaxNotesLength {
		return "", domain.InvalidOperation("las notas no pueden superar 500 caracteres")
	}
	return n, nil
}

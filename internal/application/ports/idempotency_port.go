package ports

import (
	"context"
	"errors"
)

// ErrIdempotencyInFlight otra petición con la misma clave se está procesando.
var ErrIdempotencyInFlight = errors.New("ya hay una petición en curso con esta Idempotency-Key")

// StoredResponse respuesta HTTP guardada para reenviarla ante reintentos.
type StoredResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// IdempotencyStore define el puerto de salida para claves de idempotencia de mutaciones.
// Permite que el llamador reintente un fallo de persistencia sin duplicar movimientos.
type IdempotencyStore interface {
	// Reserve reserva la clave. Devuelve (nil, true, nil) si la petición debe ejecutarse,
	// (resp, false, nil) si ya existe respuesta guardada, o ErrIdempotencyInFlight.
	Reserve(ctx context.Context, key string) (*StoredResponse, bool, error)
	// Save guarda la respuesta final de la clave reservada.
	Save(ctx context.Context, key string, resp StoredResponse) error
	// Release libera una reserva sin respuesta (la petición falló y puede reintentarse).
	Release(ctx context.Context, key string) error
}

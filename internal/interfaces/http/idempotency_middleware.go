package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/ports"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// HeaderIdempotencyKey cabecera con la que el cliente identifica un intento de mutación.
const HeaderIdempotencyKey = "Idempotency-Key"

const maxIdempotencyKeyLength = 200

// Idempotency reenvía la respuesta guardada cuando se repite una Idempotency-Key.
// Debe usarse DESPUÉS de AuthMiddleware: la clave se aísla por usuario, método y ruta.
// Sin cabecera o sin store la petición pasa sin cambios.
//   - 409 IDEMPOTENCY_IN_FLIGHT → otra petición con la misma clave está en curso.
//   - 503 IDEMPOTENCY_UNAVAILABLE → no se pudo reservar la clave.
//
// Solo se guardan respuestas 2xx; un error libera la clave para que el cliente reintente.
func Idempotency(store ports.IdempotencyStore, log *logger.Logger) fiber.Handler {
	if log == nil {
		log = logger.Nop()
	}
	log = log.Named("idempotency")
	return func(c *fiber.Ctx) error {
		key := strings.TrimSpace(c.Get(HeaderIdempotencyKey))
		if store == nil || key == "" {
			return c.Next()
		}
		if len(key) > maxIdempotencyKeyLength {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "Idempotency-Key demasiado larga"})
		}
		scoped := GetUserID(c) + ":" + c.Method() + ":" + c.Path() + ":" + key

		stored, reserved, err := store.Reserve(c.Context(), scoped)
		if errors.Is(err, ports.ErrIdempotencyInFlight) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "IDEMPOTENCY_IN_FLIGHT", Message: err.Error()})
		}
		if err != nil {
			log.Error().Err(err).Str("path", c.Path()).Msg("reserva de idempotency key falló")
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "IDEMPOTENCY_UNAVAILABLE", Message: "no se pudo registrar la Idempotency-Key, reintente"})
		}
		if !reserved {
			c.Set("Idempotent-Replayed", "true")
			if stored.ContentType != "" {
				c.Set(fiber.HeaderContentType, stored.ContentType)
			}
			return c.Status(stored.Status).Send(stored.Body)
		}

		if err := c.Next(); err != nil {
			release(c, store, scoped, log)
			return err
		}
		status := c.Response().StatusCode()
		if status < 200 || status >= 300 {
			release(c, store, scoped, log)
			return nil
		}
		resp := ports.StoredResponse{
			Status:      status,
			ContentType: string(c.Response().Header.ContentType()),
			Body:        append([]byte(nil), c.Response().Body()...),
		}
		if err := store.Save(c.Context(), scoped, resp); err != nil {
			log.Warn().Err(err).Str("path", c.Path()).Msg("no se pudo guardar la respuesta idempotente")
		}
		return nil
	}
}

func release(c *fiber.Ctx, store ports.IdempotencyStore, key string, log *logger.Logger) {
	if err := store.Release(c.Context(), key); err != nil {
		log.Warn().Err(err).Str("path", c.Path()).Msg("no se pudo liberar la Idempotency-Key")
	}
}

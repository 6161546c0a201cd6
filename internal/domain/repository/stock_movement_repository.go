package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// StockMovementRepository es el ledger append-only de movimientos.
// No expone Update ni Delete: un movimiento escrito es la fuente de verdad de auditoría.
type StockMovementRepository interface {
	// Append persiste el movimiento y completa ID, Seq y OccurredAt si vienen vacíos.
	Append(ctx context.Context, movement *entity.StockMovement) error
	GetByID(ctx context.Context, id string) (*entity.StockMovement, error)
	// ListByProduct ordena por OccurredAt (y Seq) ascendente. since nil = desde el inicio.
	ListByProduct(ctx context.Context, productID string, since *time.Time) ([]*entity.StockMovement, error)
	ListByLocation(ctx context.Context, locationID string, since *time.Time) ([]*entity.StockMovement, error)
}

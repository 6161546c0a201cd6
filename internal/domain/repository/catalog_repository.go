package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// CatalogRepository lee el catálogo de productos y ubicaciones (propiedad de otros subsistemas).
type CatalogRepository interface {
	GetProduct(ctx context.Context, id string) (*entity.Product, error)
	GetLocation(ctx context.Context, id string) (*entity.Location, error)
	ListProductsBySalon(ctx context.Context, salonID string) ([]*entity.Product, error)
	ListLocationsBySalon(ctx context.Context, salonID string) ([]*entity.Location, error)
}

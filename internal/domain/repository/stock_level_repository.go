package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// StockLevelRepository define el puerto de persistencia de niveles de stock por (producto, ubicación).
// Sin lógica de negocio; la no negatividad se valida también a nivel de almacenamiento.
type StockLevelRepository interface {
	ProductLocker
	// Get devuelve nil, nil si el par no tiene fila.
	Get(ctx context.Context, productID, locationID string) (*entity.StockLevel, error)
	// GetForUpdate igual que Get pero bloquea la fila hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, productID, locationID string) (*entity.StockLevel, error)
	// Upsert crea la fila si no existe; el bloqueo de producto evita carreras en la creación.
	Upsert(ctx context.Context, level *entity.StockLevel) error
	ListByLocation(ctx context.Context, locationID string) ([]*entity.StockLevel, error)
	ListByProduct(ctx context.Context, productID string) ([]*entity.StockLevel, error)
}

// ProductLocker serializa las escrituras del ledger de un producto mientras dure la transacción.
type ProductLocker interface {
	LockProduct(ctx context.Context, productID string) error
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var (
	_ repository.StockLevelRepository = (*StockLevelRepo)(nil)
	_ repository.ProductLocker        = (*StockLevelRepo)(nil)
)

// StockLevelRepo implementación de StockLevelRepository sobre PostgreSQL (usable con pool o tx).
type StockLevelRepo struct {
	q Querier
}

// NewStockLevelRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockLevelRepository(q Querier) *StockLevelRepo {
	return &StockLevelRepo{q: q}
}

const selectStockLevel = `
	SELECT product_id::text, location_id::text, quantity, updated_at
	FROM inventory.stock_levels`

// Get obtiene el stock de un producto en una ubicación; nil si no hay fila.
func (r *StockLevelRepo) Get(ctx context.Context, productID, locationID string) (*entity.StockLevel, error) {
	return r.get(ctx, selectStockLevel+` WHERE product_id = $1 AND location_id = $2`, productID, locationID)
}

// GetForUpdate obtiene el stock y bloquea la fila para update (SELECT FOR UPDATE).
func (r *StockLevelRepo) GetForUpdate(ctx context.Context, productID, locationID string) (*entity.StockLevel, error) {
	return r.get(ctx, selectStockLevel+` WHERE product_id = $1 AND location_id = $2 FOR UPDATE`, productID, locationID)
}

func (r *StockLevelRepo) get(ctx context.Context, query, productID, locationID string) (*entity.StockLevel, error) {
	var s entity.StockLevel
	err := r.q.QueryRow(ctx, query, productID, locationID).Scan(
		&s.ProductID, &s.LocationID, &s.Quantity, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock level: %w", err)
	}
	return &s, nil
}

// Upsert inserta o actualiza la cantidad (por producto y ubicación).
// La restricción CHECK (quantity >= 0) de la tabla rechaza valores negativos.
func (r *StockLevelRepo) Upsert(ctx context.Context, level *entity.StockLevel) error {
	query := `
		INSERT INTO inventory.stock_levels (product_id, location_id, quantity, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (product_id, location_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = now()
		RETURNING updated_at`
	err := r.q.QueryRow(ctx, query, level.ProductID, level.LocationID, level.Quantity).Scan(&level.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert stock level: %w", err)
	}
	return nil
}

// ListByLocation lista los niveles de una ubicación.
func (r *StockLevelRepo) ListByLocation(ctx context.Context, locationID string) ([]*entity.StockLevel, error) {
	return r.list(ctx, selectStockLevel+` WHERE location_id = $1 ORDER BY product_id`, locationID)
}

// ListByProduct lista los niveles de un producto en todas sus ubicaciones.
func (r *StockLevelRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.StockLevel, error) {
	return r.list(ctx, selectStockLevel+` WHERE product_id = $1 ORDER BY location_id`, productID)
}

func (r *StockLevelRepo) list(ctx context.Context, query, id string) ([]*entity.StockLevel, error) {
	rows, err := r.q.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("list stock levels: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockLevel
	for rows.Next() {
		var s entity.StockLevel
		if err := rows.Scan(&s.ProductID, &s.LocationID, &s.Quantity, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stock level: %w", err)
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}

// LockProduct toma un advisory lock transaccional por producto. Serializa todas las
// escrituras del ledger de ese producto, de modo que el orden de los movimientos
// coincide con el orden de commit. Solo tiene efecto dentro de una transacción.
func (r *StockLevelRepo) LockProduct(ctx context.Context, productID string) error {
	if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, productID); err != nil {
		return fmt.Errorf("lock product: %w", err)
	}
	return nil
}

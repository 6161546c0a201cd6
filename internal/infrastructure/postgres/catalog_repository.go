package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.CatalogRepository = (*CatalogRepo)(nil)

// CatalogRepo lectura del catálogo de productos y ubicaciones.
// Las tablas las mantiene el módulo de catálogo; aquí solo se consultan.
type CatalogRepo struct {
	q Querier
}

// NewCatalogRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCatalogRepository(q Querier) *CatalogRepo {
	return &CatalogRepo{q: q}
}

const selectProduct = `
	SELECT id::text, salon_id::text, name, COALESCE(sku, ''), COALESCE(unit, ''), reorder_point
	FROM public.products`

const selectLocation = `
	SELECT id::text, salon_id::text, name
	FROM inventory.stock_locations`

// GetProduct obtiene un producto por ID; nil si no existe.
func (r *CatalogRepo) GetProduct(ctx context.Context, id string) (*entity.Product, error) {
	var p entity.Product
	err := r.q.QueryRow(ctx, selectProduct+` WHERE id = $1`, id).Scan(
		&p.ID, &p.SalonID, &p.Name, &p.SKU, &p.Unit, &p.ReorderPoint,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// GetLocation obtiene una ubicación por ID; nil si no existe.
func (r *CatalogRepo) GetLocation(ctx context.Context, id string) (*entity.Location, error) {
	var l entity.Location
	err := r.q.QueryRow(ctx, selectLocation+` WHERE id = $1`, id).Scan(&l.ID, &l.SalonID, &l.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get location: %w", err)
	}
	return &l, nil
}

// ListProductsBySalon lista los productos del salón ordenados por nombre.
func (r *CatalogRepo) ListProductsBySalon(ctx context.Context, salonID string) ([]*entity.Product, error) {
	rows, err := r.q.Query(ctx, selectProduct+` WHERE salon_id = $1 ORDER BY name`, salonID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		var p entity.Product
		if err := rows.Scan(&p.ID, &p.SalonID, &p.Name, &p.SKU, &p.Unit, &p.ReorderPoint); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}

// ListLocationsBySalon lista las ubicaciones del salón ordenadas por nombre.
func (r *CatalogRepo) ListLocationsBySalon(ctx context.Context, salonID string) ([]*entity.Location, error) {
	rows, err := r.q.Query(ctx, selectLocation+` WHERE salon_id = $1 ORDER BY name`, salonID)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()
	var list []*entity.Location
	for rows.Next() {
		var l entity.Location
		if err := rows.Scan(&l.ID, &l.SalonID, &l.Name); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.StockOverviewRepository = (*StockOverviewRepo)(nil)

// StockOverviewRepo proyecciones de lectura sobre stock_levels + catálogo.
type StockOverviewRepo struct {
	q Querier
}

// NewStockOverviewRepository construye el adaptador. Acepta pool o tx (Querier).
func NewStockOverviewRepository(q Querier) *StockOverviewRepo {
	return &StockOverviewRepo{q: q}
}

// StockAtLocation devuelve cada producto del salón con su nivel en la ubicación.
// Los productos sin fila aparecen con cantidad 0 y Stocked=false.
func (r *StockOverviewRepo) StockAtLocation(ctx context.Context, salonID, locationID string) ([]repository.StockOverviewRow, error) {
	query := `
		SELECT
			p.id::text,
			p.name,
			COALESCE(p.sku, ''),
			COALESCE(p.unit, ''),
			l.id::text,
			l.name,
			COALESCE(s.quantity, 0) AS quantity,
			p.reorder_point,
			s.product_id IS NOT NULL AS stocked
		FROM public.products p
		JOIN inventory.stock_locations l ON l.id = $2 AND l.salon_id = p.salon_id
		LEFT JOIN inventory.stock_levels s ON s.product_id = p.id AND s.location_id = l.id
		WHERE p.salon_id = $1
		ORDER BY p.name`
	rows, err := r.q.Query(ctx, query, salonID, locationID)
	if err != nil {
		return nil, fmt.Errorf("stock at location: %w", err)
	}
	return scanOverview(rows)
}

// StockTotals devuelve el stock de cada producto sumado en todas las ubicaciones del salón.
func (r *StockOverviewRepo) StockTotals(ctx context.Context, salonID string) ([]repository.StockOverviewRow, error) {
	query := `
		SELECT
			p.id::text,
			p.name,
			COALESCE(p.sku, ''),
			COALESCE(p.unit, ''),
			'' AS location_id,
			'' AS location_name,
			COALESCE(SUM(s.quantity), 0)::bigint AS quantity,
			p.reorder_point,
			COUNT(s.product_id) > 0 AS stocked
		FROM public.products p
		LEFT JOIN inventory.stock_levels s ON s.product_id = p.id
		WHERE p.salon_id = $1
		GROUP BY p.id, p.name, p.sku, p.unit, p.reorder_point
		ORDER BY p.name`
	rows, err := r.q.Query(ctx, query, salonID)
	if err != nil {
		return nil, fmt.Errorf("stock totals: %w", err)
	}
	return scanOverview(rows)
}

func scanOverview(rows pgx.Rows) ([]repository.StockOverviewRow, error) {
	defer rows.Close()
	var items []repository.StockOverviewRow
	for rows.Next() {
		var it repository.StockOverviewRow
		if err := rows.Scan(
			&it.ProductID, &it.ProductName, &it.SKU, &it.Unit,
			&it.LocationID, &it.LocationName,
			&it.Quantity, &it.ReorderPoint, &it.Stocked,
		); err != nil {
			return nil, fmt.Errorf("scan stock overview: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

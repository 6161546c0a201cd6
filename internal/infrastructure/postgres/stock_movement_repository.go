package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo ledger append-only sobre PostgreSQL (usable con pool o tx).
// La tabla tiene un trigger que rechaza UPDATE y DELETE.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

const selectStockMovement = `
	SELECT id::text, seq, product_id::text, from_location_id::text, to_location_id::text,
	       quantity, movement_type, reason, performed_by, occurred_at
	FROM inventory.stock_movements`

// Append persiste un movimiento. El ID es UUIDv7 (ordenable por tiempo); seq y occurred_at
// los asigna la base de datos con clock_timestamp() para respetar el orden de commit.
func (r *StockMovementRepo) Append(ctx context.Context, m *entity.StockMovement) error {
	if m.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate movement id: %w", err)
		}
		m.ID = id.String()
	}
	var occurredAt *time.Time
	if !m.OccurredAt.IsZero() {
		occurredAt = &m.OccurredAt
	}
	query := `
		INSERT INTO inventory.stock_movements
			(id, product_id, from_location_id, to_location_id, quantity, movement_type, reason, performed_by, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, clock_timestamp()))
		RETURNING seq, occurred_at`
	err := r.q.QueryRow(ctx, query,
		m.ID, m.ProductID, nullable(m.FromLocationID), nullable(m.ToLocationID),
		m.Quantity, m.Type, nullable(m.Reason), m.PerformedBy, occurredAt,
	).Scan(&m.Seq, &m.OccurredAt)
	if err != nil {
		return fmt.Errorf("append stock movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID; nil si no existe.
func (r *StockMovementRepo) GetByID(ctx context.Context, id string) (*entity.StockMovement, error) {
	rows, err := r.q.Query(ctx, selectStockMovement+` WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get stock movement: %w", err)
	}
	list, err := scanMovements(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// ListByProduct lista los movimientos de un producto en orden de ocurrencia.
func (r *StockMovementRepo) ListByProduct(ctx context.Context, productID string, since *time.Time) ([]*entity.StockMovement, error) {
	query := selectStockMovement + ` WHERE product_id = $1`
	args := []any{productID}
	if since != nil {
		query += ` AND occurred_at >= $2`
		args = append(args, *since)
	}
	query += ` ORDER BY occurred_at ASC, seq ASC`
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements by product: %w", err)
	}
	return scanMovements(rows)
}

// ListByLocation lista los movimientos donde la ubicación es origen o destino.
func (r *StockMovementRepo) ListByLocation(ctx context.Context, locationID string, since *time.Time) ([]*entity.StockMovement, error) {
	query := selectStockMovement + ` WHERE (from_location_id = $1 OR to_location_id = $1)`
	args := []any{locationID}
	if since != nil {
		query += ` AND occurred_at >= $2`
		args = append(args, *since)
	}
	query += ` ORDER BY occurred_at ASC, seq ASC`
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements by location: %w", err)
	}
	return scanMovements(rows)
}

func scanMovements(rows pgx.Rows) ([]*entity.StockMovement, error) {
	defer rows.Close()
	var list []*entity.StockMovement
	for rows.Next() {
		var m entity.StockMovement
		var from, to, reason *string
		if err := rows.Scan(&m.ID, &m.Seq, &m.ProductID, &from, &to,
			&m.Quantity, &m.Type, &reason, &m.PerformedBy, &m.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		m.FromLocationID = deref(from)
		m.ToLocationID = deref(to)
		m.Reason = deref(reason)
		list = append(list, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stock movements: %w", err)
	}
	return list, nil
}

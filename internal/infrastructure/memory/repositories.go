package memory

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// LevelRepo acceso fuera de transacción al Stock Level Store (autocommit).
type LevelRepo struct{ s *Store }

// MovementRepo acceso fuera de transacción al ledger (autocommit).
type MovementRepo struct{ s *Store }

var (
	_ repository.StockLevelRepository    = LevelRepo{}
	_ repository.StockMovementRepository = MovementRepo{}
)

// Levels devuelve el repositorio de niveles sobre el store.
func (s *Store) Levels() LevelRepo { return LevelRepo{s: s} }

// Movements devuelve el repositorio del ledger sobre el store.
func (s *Store) Movements() MovementRepo { return MovementRepo{s: s} }

func (r LevelRepo) LockProduct(ctx context.Context, _ string) error { return ctx.Err() }

func (r LevelRepo) Get(ctx context.Context, productID, locationID string) (*entity.StockLevel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if l, ok := r.s.levels[levelKey{productID, locationID}]; ok {
		return &l, nil
	}
	return nil, nil
}

func (r LevelRepo) GetForUpdate(ctx context.Context, productID, locationID string) (*entity.StockLevel, error) {
	return r.Get(ctx, productID, locationID)
}

func (r LevelRepo) Upsert(ctx context.Context, level *entity.StockLevel) error {
	return r.s.Run(ctx, func(repos inventory.TxRepos) error {
		return repos.Levels.Upsert(ctx, level)
	})
}

func (r LevelRepo) ListByLocation(ctx context.Context, locationID string) ([]*entity.StockLevel, error) {
	return r.list(ctx, func(k levelKey) bool { return k.locationID == locationID })
}

func (r LevelRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.StockLevel, error) {
	return r.list(ctx, func(k levelKey) bool { return k.productID == productID })
}

func (r LevelRepo) list(ctx context.Context, match func(levelKey) bool) ([]*entity.StockLevel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	found := make(map[levelKey]entity.StockLevel)
	for k, l := range r.s.levels {
		if match(k) {
			found[k] = l
		}
	}
	return sortedLevels(found), nil
}

func (r MovementRepo) Append(ctx context.Context, m *entity.StockMovement) error {
	return r.s.Run(ctx, func(repos inventory.TxRepos) error {
		return repos.Movements.Append(ctx, m)
	})
}

func (r MovementRepo) GetByID(ctx context.Context, id string) (*entity.StockMovement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.movementByID(id), nil
}

func (r MovementRepo) ListByProduct(ctx context.Context, productID string, since *time.Time) ([]*entity.StockMovement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.filterMovements(since, func(m *entity.StockMovement) bool { return m.ProductID == productID }), nil
}

func (r MovementRepo) ListByLocation(ctx context.Context, locationID string, since *time.Time) ([]*entity.StockMovement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.filterMovements(since, func(m *entity.StockMovement) bool {
		return m.FromLocationID == locationID || m.ToLocationID == locationID
	}), nil
}

package inventory

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// TxRepos repositorios atados a una misma transacción.
type TxRepos struct {
	Levels    repository.StockLevelRepository
	Movements repository.StockMovementRepository
}

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Commit solo si fn devuelve nil y el contexto sigue vivo; en cualquier otro caso Rollback.
// Los errores de infraestructura se devuelven ya clasificados en la taxonomía de domain.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos TxRepos) error) error
}

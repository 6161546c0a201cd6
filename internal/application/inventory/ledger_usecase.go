package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// LedgerUseCase expone las operaciones del ledger de stock: ajustes, traslados
// y las consultas de nivel y movimientos.
// Cada escritura corre en una sola transacción que serializa el producto afectado.
type LedgerUseCase struct {
	txRunner  TxRunner
	levels    repository.StockLevelRepository
	movements repository.StockMovementRepository
	log       *logger.Logger
	timeout   time.Duration
}

// NewLedgerUseCase construye el caso de uso. levels y movements se usan para lecturas fuera de tx.
// timeout <= 0 deja el límite en manos del contexto del llamador.
func NewLedgerUseCase(
	txRunner TxRunner,
	levels repository.StockLevelRepository,
	movements repository.StockMovementRepository,
	log *logger.Logger,
	timeout time.Duration,
) *LedgerUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &LedgerUseCase{
		txRunner:  txRunner,
		levels:    levels,
		movements: movements,
		log:       log.Named("ledger"),
		timeout:   timeout,
	}
}

func (uc *LedgerUseCase) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if uc.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, uc.timeout)
}

// GetStockLevel devuelve el nivel actual del par; nil si nunca tuvo stock.
func (uc *LedgerUseCase) GetStockLevel(ctx context.Context, productID, locationID string) (*entity.StockLevel, error) {
	if err := validateID("product_id", productID); err != nil {
		return nil, err
	}
	if err := validateID("location_id", locationID); err != nil {
		return nil, err
	}
	level, err := uc.levels.Get(ctx, productID, locationID)
	if err != nil {
		return nil, uc.persistence(err, "get stock level")
	}
	return level, nil
}

// ListMovements devuelve los movimientos del producto ordenados por ocurrencia.
// since nil = historial completo.
func (uc *LedgerUseCase) ListMovements(ctx context.Context, productID string, since *time.Time) ([]*entity.StockMovement, error) {
	if err := validateID("product_id", productID); err != nil {
		return nil, err
	}
	list, err := uc.movements.ListByProduct(ctx, productID, since)
	if err != nil {
		return nil, uc.persistence(err, "list movements by product")
	}
	return list, nil
}

// ListLocationMovements devuelve los movimientos donde la ubicación es origen o destino.
func (uc *LedgerUseCase) ListLocationMovements(ctx context.Context, locationID string, since *time.Time) ([]*entity.StockMovement, error) {
	if err := validateID("location_id", locationID); err != nil {
		return nil, err
	}
	list, err := uc.movements.ListByLocation(ctx, locationID, since)
	if err != nil {
		return nil, uc.persistence(err, "list movements by location")
	}
	return list, nil
}

// persistence registra y envuelve fallos de infraestructura; los errores de negocio pasan sin log.
func (uc *LedgerUseCase) persistence(err error, op string) error {
	err = domain.Persistence(err)
	if domain.Retryable(err) {
		uc.log.Error().Err(err).Str("op", op).Msg("fallo de infraestructura en el ledger")
	}
	return err
}

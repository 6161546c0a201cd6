package inventory

import (
	"context"
	"time"

	ledger "github.com/jhoicas/stock-ledger/internal/domain/inventory"
)

// ReconciliationReport compara los niveles almacenados de un producto con el replay de su ledger.
type ReconciliationReport struct {
	ProductID     string
	Consistent    bool
	MovementCount int
	Drifts        []ledger.Drift
	CheckedAt     time.Time
}

// VerifyProduct reconstruye los niveles del producto desde sus movimientos y los compara
// con el Stock Level Store. Corre en una transacción con el producto bloqueado para leer
// niveles y ledger del mismo instante. Solo detecta; no corrige.
func (uc *LedgerUseCase) VerifyProduct(ctx context.Context, productID string) (*ReconciliationReport, error) {
	if err := validateID("product_id", productID); err != nil {
		return nil, err
	}
	ctx, cancel := uc.withTimeout(ctx)
	defer cancel()

	report := &ReconciliationReport{ProductID: productID}
	err := uc.txRunner.Run(ctx, func(repos TxRepos) error {
		if err := repos.Levels.LockProduct(ctx, productID); err != nil {
			return err
		}
		levels, err := repos.Levels.ListByProduct(ctx, productID)
		if err != nil {
			return err
		}
		movements, err := repos.Movements.ListByProduct(ctx, productID, nil)
		if err != nil {
			return err
		}
		report.MovementCount = len(movements)
		report.Drifts = ledger.Compare(productID, levels, movements)
		return nil
	})
	if err != nil {
		return nil, uc.persistence(err, "verify product")
	}
	report.Consistent = len(report.Drifts) == 0
	report.CheckedAt = time.Now().UTC()
	if !report.Consistent {
		uc.log.Warn().
			Str("product_id", productID).
			Int("drifts", len(report.Drifts)).
			Msg("niveles de stock no coinciden con el ledger")
	}
	return report, nil
}

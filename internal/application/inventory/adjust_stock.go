package inventory

import (
	"context"
	"math"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// AdjustStockInput entrada de un ajuste manual.
type AdjustStockInput struct {
	ProductID  string
	LocationID string
	Quantity   int64
	Mode       entity.AdjustmentMode
	Reason     string
	Actor      string
}

// AdjustStockResult resultado de un ajuste. MovementID vacío indica que no hubo cambio.
type AdjustStockResult struct {
	NewQuantity int64
	MovementID  string
	Movement    *entity.StockMovement
}

func (in AdjustStockInput) validate() (AdjustStockInput, error) {
	if err := validateID("product_id", in.ProductID); err != nil {
		return in, err
	}
	if err := validateID("location_id", in.LocationID); err != nil {
		return in, err
	}
	if !in.Mode.Valid() {
		return in, domain.InvalidOperation("modo de ajuste inválido: " + string(in.Mode))
	}
	switch in.Mode {
	case entity.AdjustmentSet:
		if in.Quantity < 0 {
			return in, domain.InvalidOperation("la cantidad no puede ser negativa")
		}
	default:
		if in.Quantity <= 0 {
			return in, domain.InvalidOperation("la cantidad debe ser mayor que cero")
		}
	}
	reason, err := normalizeReason(in.Reason)
	if err != nil {
		return in, err
	}
	in.Reason = reason
	if err := validateActor(in.Actor); err != nil {
		return in, err
	}
	return in, nil
}

// AdjustStock aplica un ajuste (add/subtract/set) al par (producto, ubicación).
// Lee, calcula y escribe nivel + movimiento en la misma transacción con el producto bloqueado.
// Un ajuste que no cambia la cantidad no escribe nada y devuelve MovementID vacío.
func (uc *LedgerUseCase) AdjustStock(ctx context.Context, input AdjustStockInput) (*AdjustStockResult, error) {
	in, err := input.validate()
	if err != nil {
		return nil, err
	}

	ctx, cancel := uc.withTimeout(ctx)
	defer cancel()

	var result AdjustStockResult
	err = uc.txRunner.Run(ctx, func(repos TxRepos) error {
		result = AdjustStockResult{}
		if err := repos.Levels.LockProduct(ctx, in.ProductID); err != nil {
			return err
		}
		level, err := repos.Levels.GetForUpdate(ctx, in.ProductID, in.LocationID)
		if err != nil {
			return err
		}
		if level == nil {
			if in.Mode == entity.AdjustmentSubtract {
				return domain.NotFound("nivel de stock para el producto en la ubicación")
			}
			level = &entity.StockLevel{ProductID: in.ProductID, LocationID: in.LocationID}
		}

		current := level.Quantity
		var next int64
		switch in.Mode {
		case entity.AdjustmentAdd:
			if in.Quantity > math.MaxInt64-current {
				return domain.InvalidOperation("la cantidad resultante excede el máximo permitido")
			}
			next = current + in.Quantity
		case entity.AdjustmentSubtract:
			if in.Quantity > current {
				return domain.InsufficientStock(current, in.Quantity)
			}
			next = current - in.Quantity
		case entity.AdjustmentSet:
			next = in.Quantity
		}

		result.NewQuantity = next
		delta := next - current
		if delta == 0 {
			return nil
		}

		mov := &entity.StockMovement{
			ProductID:   in.ProductID,
			Type:        entity.MovementTypeAdjustment,
			Reason:      in.Reason,
			PerformedBy: in.Actor,
		}
		if delta > 0 {
			mov.ToLocationID = in.LocationID
			mov.Quantity = delta
		} else {
			mov.FromLocationID = in.LocationID
			mov.Quantity = -delta
		}
		if err := repos.Movements.Append(ctx, mov); err != nil {
			return err
		}
		level.Quantity = next
		if err := repos.Levels.Upsert(ctx, level); err != nil {
			return err
		}
		result.MovementID = mov.ID
		result.Movement = mov
		return nil
	})
	if err != nil {
		return nil, uc.persistence(err, "adjust stock")
	}

	if result.Movement != nil {
		uc.log.Debug().
			Str("movement_id", result.MovementID).
			Str("product_id", in.ProductID).
			Str("location_id", in.LocationID).
			Str("mode", string(in.Mode)).
			Int64("new_quantity", result.NewQuantity).
			Msg("ajuste registrado")
	}
	return &result, nil
}

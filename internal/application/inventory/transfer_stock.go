package inventory

import (
	"context"
	"math"
	"sort"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// TransferStockInput entrada de un traslado entre ubicaciones.
type TransferStockInput struct {
	ProductID      string
	FromLocationID string
	ToLocationID   string
	Quantity       int64
	Notes          string
	Actor          string
}

// TransferStockResult cantidades resultantes en origen y destino.
type TransferStockResult struct {
	FromQuantity int64
	ToQuantity   int64
	MovementID   string
	Movement     *entity.StockMovement
}

func (in TransferStockInput) validate() (TransferStockInput, error) {
	if err := validateID("product_id", in.ProductID); err != nil {
		return in, err
	}
	if err := validateID("from_location_id", in.FromLocationID); err != nil {
		return in, err
	}
	if err := validateID("to_location_id", in.ToLocationID); err != nil {
		return in, err
	}
	if in.FromLocationID == in.ToLocationID {
		return in, domain.InvalidOperation("el origen y el destino son la misma ubicación")
	}
	if in.Quantity <= 0 {
		return in, domain.InvalidOperation("la cantidad debe ser mayor que cero")
	}
	notes, err := normalizeNotes(in.Notes)
	if err != nil {
		return in, err
	}
	in.Notes = notes
	if err := validateActor(in.Actor); err != nil {
		return in, err
	}
	return in, nil
}

// TransferStock mueve unidades de una ubicación a otra en una sola transacción:
// decremento en origen, incremento (o creación) en destino y un único movimiento.
// Las filas se bloquean en orden de ubicación para evitar deadlocks entre traslados cruzados.
func (uc *LedgerUseCase) TransferStock(ctx context.Context, input TransferStockInput) (*TransferStockResult, error) {
	in, err := input.validate()
	if err != nil {
		return nil, err
	}

	ctx, cancel := uc.withTimeout(ctx)
	defer cancel()

	var result TransferStockResult
	err = uc.txRunner.Run(ctx, func(repos TxRepos) error {
		result = TransferStockResult{}
		if err := repos.Levels.LockProduct(ctx, in.ProductID); err != nil {
			return err
		}

		locs := []string{in.FromLocationID, in.ToLocationID}
		sort.Strings(locs)
		locked := make(map[string]*entity.StockLevel, 2)
		for _, loc := range locs {
			level, err := repos.Levels.GetForUpdate(ctx, in.ProductID, loc)
			if err != nil {
				return err
			}
			locked[loc] = level
		}

		source := locked[in.FromLocationID]
		if source == nil {
			return domain.InsufficientStock(0, in.Quantity)
		}
		if source.Quantity < in.Quantity {
			return domain.InsufficientStock(source.Quantity, in.Quantity)
		}
		dest := locked[in.ToLocationID]
		if dest == nil {
			dest = &entity.StockLevel{ProductID: in.ProductID, LocationID: in.ToLocationID}
		}
		if in.Quantity > math.MaxInt64-dest.Quantity {
			return domain.InvalidOperation("la cantidad resultante excede el máximo permitido")
		}

		mov := &entity.StockMovement{
			ProductID:      in.ProductID,
			FromLocationID: in.FromLocationID,
			ToLocationID:   in.ToLocationID,
			Quantity:       in.Quantity,
			Type:           entity.MovementTypeTransfer,
			Reason:         in.Notes,
			PerformedBy:    in.Actor,
		}
		if err := repos.Movements.Append(ctx, mov); err != nil {
			return err
		}

		source.Quantity -= in.Quantity
		dest.Quantity += in.Quantity
		for _, loc := range locs {
			level := source
			if loc == in.ToLocationID {
				level = dest
			}
			if err := repos.Levels.Upsert(ctx, level); err != nil {
				return err
			}
		}

		result.FromQuantity = source.Quantity
		result.ToQuantity = dest.Quantity
		result.MovementID = mov.ID
		result.Movement = mov
		return nil
	})
	if err != nil {
		return nil, uc.persistence(err, "transfer stock")
	}

	uc.log.Debug().
		Str("movement_id", result.MovementID).
		Str("product_id", in.ProductID).
		Str("from_location_id", in.FromLocationID).
		Str("to_location_id", in.ToLocationID).
		Int64("quantity", in.Quantity).
		Msg("traslado registrado")
	return &result, nil
}

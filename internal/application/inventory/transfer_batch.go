package inventory

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// MaxBatchItems tope de productos por traslado en lote.
const MaxBatchItems = 100

// TransferBatchItem un producto y la cantidad a trasladar.
type TransferBatchItem struct {
	ProductID string
	Quantity  int64
}

// TransferBatchInput traslado de varios productos entre las mismas dos ubicaciones.
type TransferBatchInput struct {
	FromLocationID string
	ToLocationID   string
	Items          []TransferBatchItem
	Notes          string
	Actor          string
}

// TransferBatchResult un resultado por ítem, en el orden de la entrada.
type TransferBatchResult struct {
	Items []TransferStockResult
}

func (in TransferBatchInput) validate() (TransferBatchInput, error) {
	if err := validateID("from_location_id", in.FromLocationID); err != nil {
		return in, err
	}
	if err := validateID("to_location_id", in.ToLocationID); err != nil {
		return in, err
	}
	if in.FromLocationID == in.ToLocationID {
		return in, domain.InvalidOperation("el origen y el destino son la misma ubicación")
	}
	if len(in.Items) == 0 {
		return in, domain.InvalidOperation("no hay productos para trasladar")
	}
	if len(in.Items) > MaxBatchItems {
		return in, domain.InvalidOperation(fmt.Sprintf("un lote admite como máximo %d productos", MaxBatchItems))
	}
	seen := make(map[string]struct{}, len(in.Items))
	for i, item := range in.Items {
		if err := validateID(fmt.Sprintf("items[%d].product_id", i), item.ProductID); err != nil {
			return in, err
		}
		if item.Quantity <= 0 {
			return in, domain.InvalidOperation(fmt.Sprintf("items[%d]: la cantidad debe ser mayor que cero", i))
		}
		if _, dup := seen[item.ProductID]; dup {
			return in, domain.InvalidOperation(fmt.Sprintf("items[%d]: producto repetido en el lote", i))
		}
		seen[item.ProductID] = struct{}{}
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

// ProductIDs productos del lote en el orden de la entrada.
func (in TransferBatchInput) ProductIDs() []string {
	ids := make([]string, len(in.Items))
	for i, item := range in.Items {
		ids[i] = item.ProductID
	}
	return ids
}

type batchLevels struct {
	source *entity.StockLevel
	dest   *entity.StockLevel
}

// TransferBatch traslada varios productos en una sola transacción: o se
// registran todos los movimientos o ninguno. Los productos se bloquean en
// orden de id y las ubicaciones en orden de id, igual que TransferStock,
// para que lotes y traslados sueltos no se bloqueen mutuamente.
func (uc *LedgerUseCase) TransferBatch(ctx context.Context, input TransferBatchInput) (*TransferBatchResult, error) {
	in, err := input.validate()
	if err != nil {
		return nil, err
	}

	ctx, cancel := uc.withTimeout(ctx)
	defer cancel()

	products := in.ProductIDs()
	sort.Strings(products)
	locs := []string{in.FromLocationID, in.ToLocationID}
	sort.Strings(locs)

	var result TransferBatchResult
	err = uc.txRunner.Run(ctx, func(repos TxRepos) error {
		result = TransferBatchResult{Items: make([]TransferStockResult, len(in.Items))}

		levels := make(map[string]*batchLevels, len(products))
		for _, productID := range products {
			if err := repos.Levels.LockProduct(ctx, productID); err != nil {
				return err
			}
			locked := make(map[string]*entity.StockLevel, 2)
			for _, loc := range locs {
				level, err := repos.Levels.GetForUpdate(ctx, productID, loc)
				if err != nil {
					return err
				}
				locked[loc] = level
			}
			levels[productID] = &batchLevels{source: locked[in.FromLocationID], dest: locked[in.ToLocationID]}
		}

		// Se valida todo el lote antes de escribir.
		for _, item := range in.Items {
			l := levels[item.ProductID]
			available := int64(0)
			if l.source != nil {
				available = l.source.Quantity
			}
			if available < item.Quantity {
				return &domain.InsufficientStockError{Available: available, Requested: item.Quantity, ProductID: item.ProductID}
			}
			if l.dest == nil {
				l.dest = &entity.StockLevel{ProductID: item.ProductID, LocationID: in.ToLocationID}
			}
			if item.Quantity > math.MaxInt64-l.dest.Quantity {
				return domain.InvalidOperation(fmt.Sprintf("producto %s: la cantidad resultante excede el máximo permitido", item.ProductID))
			}
		}

		for i, item := range in.Items {
			l := levels[item.ProductID]
			mov := &entity.StockMovement{
				ProductID:      item.ProductID,
				FromLocationID: in.FromLocationID,
				ToLocationID:   in.ToLocationID,
				Quantity:       item.Quantity,
				Type:           entity.MovementTypeTransfer,
				Reason:         in.Notes,
				PerformedBy:    in.Actor,
			}
			if err := repos.Movements.Append(ctx, mov); err != nil {
				return err
			}

			l.source.Quantity -= item.Quantity
			l.dest.Quantity += item.Quantity
			for _, loc := range locs {
				level := l.source
				if loc == in.ToLocationID {
					level = l.dest
				}
				if err := repos.Levels.Upsert(ctx, level); err != nil {
					return err
				}
			}

			result.Items[i] = TransferStockResult{
				FromQuantity: l.source.Quantity,
				ToQuantity:   l.dest.Quantity,
				MovementID:   mov.ID,
				Movement:     mov,
			}
		}
		return nil
	})
	if err != nil {
		return nil, uc.persistence(err, "transfer stock batch")
	}

	uc.log.Debug().
		Str("from_location_id", in.FromLocationID).
		Str("to_location_id", in.ToLocationID).
		Int("items", len(in.Items)).
		Msg("traslado en lote registrado")
	return &result, nil
}

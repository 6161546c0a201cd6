package inventory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// StockOverviewUseCase responde "qué hay dónde" y "qué está bajo" sin escribir nada.
// Une los niveles de stock con el catálogo de productos y ubicaciones.
type StockOverviewUseCase struct {
	overviewRepo repository.StockOverviewRepository
}

// NewStockOverviewUseCase construye el caso de uso de consulta.
func NewStockOverviewUseCase(overviewRepo repository.StockOverviewRepository) *StockOverviewUseCase {
	return &StockOverviewUseCase{overviewRepo: overviewRepo}
}

// StockByLocation devuelve todos los productos del salón con su cantidad en la ubicación.
func (uc *StockOverviewUseCase) StockByLocation(ctx context.Context, salonID, locationID string) ([]dto.StockRowDTO, error) {
	if err := validateID("location_id", locationID); err != nil {
		return nil, err
	}
	rows, err := uc.overviewRepo.StockAtLocation(ctx, salonID, locationID)
	if err != nil {
		return nil, domain.Persistence(err)
	}
	out := make([]dto.StockRowDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.StockRowDTO{
			ProductID:      r.ProductID,
			ProductName:    r.ProductName,
			SKU:            r.SKU,
			Unit:           r.Unit,
			LocationID:     r.LocationID,
			LocationName:   r.LocationName,
			Quantity:       r.Quantity,
			ReorderPoint:   r.ReorderPoint,
			BelowThreshold: belowThreshold(r),
		})
	}
	return out, nil
}

// LowStock devuelve los productos bajo su punto de reorden, en la ubicación indicada
// o con el stock sumado de todas si locationID es vacío.
// Ordena por cobertura ascendente (los agotados primero) y luego por déficit.
func (uc *StockOverviewUseCase) LowStock(ctx context.Context, salonID, locationID string) ([]dto.LowStockItemDTO, error) {
	var (
		rows []repository.StockOverviewRow
		err  error
	)
	if locationID != "" {
		if err := validateID("location_id", locationID); err != nil {
			return nil, err
		}
		rows, err = uc.overviewRepo.StockAtLocation(ctx, salonID, locationID)
	} else {
		rows, err = uc.overviewRepo.StockTotals(ctx, salonID)
	}
	if err != nil {
		return nil, domain.Persistence(err)
	}

	items := make([]dto.LowStockItemDTO, 0)
	for _, r := range rows {
		if !belowThreshold(r) {
			continue
		}
		qty := decimal.NewFromInt(r.Quantity)
		status := dto.StockStatusLow
		if r.Quantity == 0 {
			status = dto.StockStatusOutOfStock
		}
		items = append(items, dto.LowStockItemDTO{
			ProductID:     r.ProductID,
			ProductName:   r.ProductName,
			SKU:           r.SKU,
			LocationID:    r.LocationID,
			LocationName:  r.LocationName,
			Quantity:      r.Quantity,
			ReorderPoint:  r.ReorderPoint,
			Deficit:       r.ReorderPoint.Sub(qty),
			CoverageRatio: qty.Div(r.ReorderPoint).Round(2),
			Status:        status,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.CoverageRatio.Equal(b.CoverageRatio) {
			return a.CoverageRatio.LessThan(b.CoverageRatio)
		}
		if !a.Deficit.Equal(b.Deficit) {
			return a.Deficit.GreaterThan(b.Deficit)
		}
		return a.ProductName < b.ProductName
	})
	return items, nil
}

// belowThreshold: solo productos con punto de reorden positivo generan alerta.
func belowThreshold(r repository.StockOverviewRow) bool {
	if !r.ReorderPoint.IsPositive() {
		return false
	}
	return decimal.NewFromInt(r.Quantity).LessThan(r.ReorderPoint)
}

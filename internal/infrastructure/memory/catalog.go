package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var (
	_ repository.CatalogRepository       = (*Store)(nil)
	_ repository.StockOverviewRepository = (*Store)(nil)
)

// AddProduct registra (o reemplaza) un producto del catálogo.
func (s *Store) AddProduct(p entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

// AddLocation registra (o reemplaza) una ubicación del catálogo.
func (s *Store) AddLocation(l entity.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations[l.ID] = l
}

func (s *Store) GetProduct(ctx context.Context, id string) (*entity.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.products[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (s *Store) GetLocation(ctx context.Context, id string) (*entity.Location, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if l, ok := s.locations[id]; ok {
		return &l, nil
	}
	return nil, nil
}

func (s *Store) ListProductsBySalon(ctx context.Context, salonID string) ([]*entity.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.productsBySalon(salonID), nil
}

func (s *Store) ListLocationsBySalon(ctx context.Context, salonID string) ([]*entity.Location, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*entity.Location
	for _, l := range s.locations {
		if l.SalonID == salonID {
			l := l
			out = append(out, &l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) productsBySalon(salonID string) []*entity.Product {
	var out []*entity.Product
	for _, p := range s.products {
		if p.SalonID == salonID {
			p := p
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// StockAtLocation: cada producto del salón con su cantidad en la ubicación (0 si no hay fila).
// Vacío si la ubicación no existe o es de otro salón.
func (s *Store) StockAtLocation(ctx context.Context, salonID, locationID string) ([]repository.StockOverviewRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	loc, ok := s.locations[locationID]
	if !ok || loc.SalonID != salonID {
		return nil, nil
	}
	var rows []repository.StockOverviewRow
	for _, p := range s.productsBySalon(salonID) {
		level, stocked := s.levels[levelKey{p.ID, locationID}]
		rows = append(rows, repository.StockOverviewRow{
			ProductID:    p.ID,
			ProductName:  p.Name,
			SKU:          p.SKU,
			Unit:         p.Unit,
			LocationID:   loc.ID,
			LocationName: loc.Name,
			Quantity:     level.Quantity,
			ReorderPoint: p.ReorderPoint,
			Stocked:      stocked,
		})
	}
	return rows, nil
}

// StockTotals: stock de cada producto del salón sumado en todas las ubicaciones.
func (s *Store) StockTotals(ctx context.Context, salonID string) ([]repository.StockOverviewRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var rows []repository.StockOverviewRow
	for _, p := range s.productsBySalon(salonID) {
		row := repository.StockOverviewRow{
			ProductID:    p.ID,
			ProductName:  p.Name,
			SKU:          p.SKU,
			Unit:         p.Unit,
			ReorderPoint: p.ReorderPoint,
		}
		for k, l := range s.levels {
			if k.productID == p.ID {
				row.Quantity += l.Quantity
				row.Stocked = true
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

package inventory

import (
	"sort"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// Key identifica un par (producto, ubicación).
type Key struct {
	ProductID  string
	LocationID string
}

// Replay reconstruye las cantidades por (producto, ubicación) sumando los deltas
// con signo de cada movimiento, partiendo de un estado vacío.
func Replay(movements []*entity.StockMovement) map[Key]int64 {
	out := make(map[Key]int64)
	for _, m := range movements {
		if m.FromLocationID != "" {
			out[Key{m.ProductID, m.FromLocationID}] -= m.Quantity
		}
		if m.ToLocationID != "" {
			out[Key{m.ProductID, m.ToLocationID}] += m.Quantity
		}
	}
	return out
}

// Drift describe una diferencia entre el nivel almacenado y el reconstruido.
type Drift struct {
	LocationID string
	Stored     int64
	Replayed   int64
}

// Compare contrasta los niveles almacenados de un producto con el replay del ledger.
// Devuelve las diferencias ordenadas por ubicación; vacío significa consistente.
func Compare(productID string, levels []*entity.StockLevel, movements []*entity.StockMovement) []Drift {
	replayed := Replay(movements)
	stored := make(map[string]int64, len(levels))
	for _, l := range levels {
		if l.ProductID == productID {
			stored[l.LocationID] = l.Quantity
		}
	}

	seen := make(map[string]struct{})
	var drifts []Drift
	for loc, qty := range stored {
		seen[loc] = struct{}{}
		if r := replayed[Key{productID, loc}]; r != qty {
			drifts = append(drifts, Drift{LocationID: loc, Stored: qty, Replayed: r})
		}
	}
	for k, r := range replayed {
		if k.ProductID != productID {
			continue
		}
		if _, ok := seen[k.LocationID]; ok || r == 0 {
			continue
		}
		drifts = append(drifts, Drift{LocationID: k.LocationID, Stored: 0, Replayed: r})
	}
	sort.Slice(drifts, func(i, j int) bool { return drifts[i].LocationID < drifts[j].LocationID })
	return drifts
}

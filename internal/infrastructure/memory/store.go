// Package memory implementa los puertos del ledger en memoria con las mismas
// restricciones que el esquema PostgreSQL. Se usa en pruebas y con STORE_DRIVER=memory.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// Operaciones observables por un FaultFunc.
const (
	OpAppend = "append"
	OpUpsert = "upsert"
	OpCommit = "commit"
)

// FaultFunc permite simular fallos de infraestructura; un error no nil aborta la operación.
type FaultFunc func(op string) error

type levelKey struct {
	productID  string
	locationID string
}

// Store guarda niveles, ledger y catálogo. Las transacciones se serializan con un
// único lock de escritura, equivalente a bloquear cada producto.
type Store struct {
	mu        sync.RWMutex
	levels    map[levelKey]entity.StockLevel
	movements []entity.StockMovement
	seq       int64
	lastTime  time.Time

	products  map[string]entity.Product
	locations map[string]entity.Location

	fault FaultFunc
	now   func() time.Time
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{
		levels:    make(map[levelKey]entity.StockLevel),
		products:  make(map[string]entity.Product),
		locations: make(map[string]entity.Location),
		now:       time.Now,
	}
}

// SetFault instala (o quita con nil) el simulador de fallos.
func (s *Store) SetFault(f FaultFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = f
}

func (s *Store) injected(op string) error {
	if s.fault == nil {
		return nil
	}
	return s.fault(op)
}

// nextTimestamp devuelve un instante no decreciente para mantener el orden de commit.
func (s *Store) nextTimestamp() time.Time {
	t := s.now().UTC()
	if t.Before(s.lastTime) {
		t = s.lastTime
	}
	s.lastTime = t
	return t
}

// ── Transacciones ─────────────────────────────────────────────────────────────

var _ inventory.TxRunner = (*Store)(nil)

// Run ejecuta fn con repos transaccionales. Las escrituras se acumulan y solo se
// publican si fn devuelve nil y el contexto sigue vivo.
func (s *Store) Run(ctx context.Context, fn func(repos inventory.TxRepos) error) error {
	if err := ctx.Err(); err != nil {
		return cancelled(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &txView{store: s, ctx: ctx, staged: make(map[levelKey]entity.StockLevel)}
	if err := fn(inventory.TxRepos{Levels: txLevels{tx}, Movements: txMovements{tx}}); err != nil {
		return classify(err)
	}
	if err := ctx.Err(); err != nil {
		return cancelled(err)
	}
	if err := s.injected(OpCommit); err != nil {
		return classify(fmt.Errorf("commit transaction: %w", err))
	}

	for k, l := range tx.staged {
		s.levels[k] = l
	}
	for _, m := range tx.appended {
		s.seq++
		m.Seq = s.seq
		s.movements = append(s.movements, m)
		tx.published[m.ID].Seq = m.Seq
	}
	return nil
}

func cancelled(err error) error {
	return fmt.Errorf("%w: operación cancelada antes del commit: %w", domain.ErrPersistence, err)
}

// classify replica la clasificación del adaptador PostgreSQL.
func classify(err error) error {
	if err == nil || domain.IsDomainError(err) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return cancelled(err)
	}
	return domain.Persistence(err)
}

// txView estado de una transacción: lo escrito en ella se lee antes que lo confirmado.
type txView struct {
	store     *Store
	ctx       context.Context
	staged    map[levelKey]entity.StockLevel
	appended  []entity.StockMovement
	published map[string]*entity.StockMovement
}

// txLevels y txMovements exponen el mismo txView como cada uno de los puertos.
type (
	txLevels    struct{ *txView }
	txMovements struct{ *txView }
)

var (
	_ repository.StockLevelRepository    = txLevels{}
	_ repository.StockMovementRepository = txMovements{}
)

func (tx txLevels) LockProduct(ctx context.Context, _ string) error {
	return ctx.Err()
}

func (tx txLevels) Get(ctx context.Context, productID, locationID string) (*entity.StockLevel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	k := levelKey{productID, locationID}
	if l, ok := tx.staged[k]; ok {
		return &l, nil
	}
	if l, ok := tx.store.levels[k]; ok {
		return &l, nil
	}
	return nil, nil
}

func (tx txLevels) GetForUpdate(ctx context.Context, productID, locationID string) (*entity.StockLevel, error) {
	return tx.Get(ctx, productID, locationID)
}

func (tx txLevels) Upsert(ctx context.Context, level *entity.StockLevel) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := tx.store.injected(OpUpsert); err != nil {
		return fmt.Errorf("upsert stock level: %w", err)
	}
	if level.Quantity < 0 {
		return domain.InvalidOperation("la operación viola una restricción de stock (stock_levels_quantity_non_negative)")
	}
	level.UpdatedAt = tx.store.now().UTC()
	tx.staged[levelKey{level.ProductID, level.LocationID}] = *level
	return nil
}

func (tx txLevels) ListByLocation(ctx context.Context, locationID string) ([]*entity.StockLevel, error) {
	return tx.list(ctx, func(k levelKey) bool { return k.locationID == locationID })
}

func (tx txLevels) ListByProduct(ctx context.Context, productID string) ([]*entity.StockLevel, error) {
	return tx.list(ctx, func(k levelKey) bool { return k.productID == productID })
}

func (tx *txView) list(ctx context.Context, match func(levelKey) bool) ([]*entity.StockLevel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	merged := make(map[levelKey]entity.StockLevel)
	for k, l := range tx.store.levels {
		if match(k) {
			merged[k] = l
		}
	}
	for k, l := range tx.staged {
		if match(k) {
			merged[k] = l
		}
	}
	return sortedLevels(merged), nil
}

func (tx txMovements) Append(ctx context.Context, m *entity.StockMovement) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := tx.store.injected(OpAppend); err != nil {
		return fmt.Errorf("append stock movement: %w", err)
	}
	if err := checkMovement(m); err != nil {
		return err
	}
	if m.ID != "" && tx.hasMovement(m.ID) {
		return fmt.Errorf("%w: id de movimiento duplicado %s", domain.ErrConcurrencyConflict, m.ID)
	}
	if m.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate movement id: %w", err)
		}
		m.ID = id.String()
	}
	if m.OccurredAt.IsZero() {
		m.OccurredAt = tx.store.nextTimestamp()
	}
	if tx.published == nil {
		tx.published = make(map[string]*entity.StockMovement)
	}
	tx.appended = append(tx.appended, *m)
	tx.published[m.ID] = m
	return nil
}

// hasMovement replica la PRIMARY KEY de inventory.stock_movements.
func (tx *txView) hasMovement(id string) bool {
	for i := range tx.appended {
		if tx.appended[i].ID == id {
			return true
		}
	}
	return tx.store.movementByID(id) != nil
}

func (tx txMovements) GetByID(ctx context.Context, id string) (*entity.StockMovement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, m := range tx.appended {
		if m.ID == id {
			return &m, nil
		}
	}
	return tx.store.movementByID(id), nil
}

func (tx txMovements) ListByProduct(ctx context.Context, productID string, since *time.Time) ([]*entity.StockMovement, error) {
	return tx.movements(ctx, since, func(m *entity.StockMovement) bool { return m.ProductID == productID })
}

func (tx txMovements) ListByLocation(ctx context.Context, locationID string, since *time.Time) ([]*entity.StockMovement, error) {
	return tx.movements(ctx, since, func(m *entity.StockMovement) bool {
		return m.FromLocationID == locationID || m.ToLocationID == locationID
	})
}

func (tx *txView) movements(ctx context.Context, since *time.Time, match func(*entity.StockMovement) bool) ([]*entity.StockMovement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := tx.store.filterMovements(since, match)
	for i := range tx.appended {
		m := tx.appended[i]
		if match(&m) && (since == nil || !m.OccurredAt.Before(*since)) {
			out = append(out, &m)
		}
	}
	return out, nil
}

// checkMovement aplica las mismas CHECK constraints que inventory.stock_movements.
func checkMovement(m *entity.StockMovement) error {
	if m.Quantity <= 0 {
		return domain.InvalidOperation("la cantidad del movimiento debe ser positiva")
	}
	switch m.Type {
	case entity.MovementTypeAdjustment:
		if (m.FromLocationID == "") == (m.ToLocationID == "") {
			return domain.InvalidOperation("un ajuste afecta exactamente una ubicación")
		}
	case entity.MovementTypeTransfer:
		if m.FromLocationID == "" || m.ToLocationID == "" || m.FromLocationID == m.ToLocationID {
			return domain.InvalidOperation("un traslado requiere origen y destino distintos")
		}
	default:
		return domain.InvalidOperation("tipo de movimiento inválido: " + m.Type)
	}
	if m.PerformedBy == "" {
		return domain.InvalidOperation("se requiere el usuario que realiza la operación")
	}
	return nil
}

func sortedLevels(in map[levelKey]entity.StockLevel) []*entity.StockLevel {
	out := make([]*entity.StockLevel, 0, len(in))
	for _, l := range in {
		l := l
		out = append(out, &l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].LocationID < out[j].LocationID
	})
	return out
}

func (s *Store) movementByID(id string) *entity.StockMovement {
	for i := range s.movements {
		if s.movements[i].ID == id {
			m := s.movements[i]
			return &m
		}
	}
	return nil
}

// filterMovements recorre el ledger confirmado, que ya está en orden de commit.
func (s *Store) filterMovements(since *time.Time, match func(*entity.StockMovement) bool) []*entity.StockMovement {
	var out []*entity.StockMovement
	for i := range s.movements {
		m := s.movements[i]
		if since != nil && m.OccurredAt.Before(*since) {
			continue
		}
		if match(&m) {
			out = append(out, &m)
		}
	}
	return out
}

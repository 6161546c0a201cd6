package inventory_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cucumber/godog"
	"github.com/google/uuid"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

type ledgerTestContext struct {
	store     *memory.Store
	uc        *inventory.LedgerUseCase
	productID string
	locations map[string]string
	err       error
}

func (c *ledgerTestContext) reset() {
	c.store = memory.NewStore()
	c.uc = inventory.NewLedgerUseCase(c.store, c.store.Levels(), c.store.Movements(), logger.Nop(), time.Second)
	c.productID = ""
	c.locations = map[string]string{}
	c.err = nil
}

// loc traduce un nombre corto del escenario a un UUID estable dentro del escenario.
func (c *ledgerTestContext) loc(name string) string {
	if name == "" {
		return ""
	}
	id, ok := c.locations[name]
	if !ok {
		id = uuid.NewString()
		c.locations[name] = id
	}
	return id
}

func (c *ledgerTestContext) elProducto(_ string) error {
	c.productID = uuid.NewString()
	return nil
}

func (c *ledgerTestContext) laUbicacionTieneUnidades(name string, qty int64) error {
	_, err := c.uc.AdjustStock(context.Background(), inventory.AdjustStockInput{
		ProductID: c.productID, LocationID: c.loc(name), Quantity: qty,
		Mode: entity.AdjustmentSet, Reason: "saldo inicial", Actor: "seed",
	})
	return err
}

func (c *ledgerTestContext) ajusto(name, mode string, qty int64, reason string) error {
	_, c.err = c.uc.AdjustStock(context.Background(), inventory.AdjustStockInput{
		ProductID: c.productID, LocationID: c.loc(name), Quantity: qty,
		Mode: entity.AdjustmentMode(mode), Reason: reason, Actor: "user-1",
	})
	return nil
}

func (c *ledgerTestContext) ajustoEnParalelo(name string, times int, mode string, qty int64) error {
	locationID := c.loc(name)
	var wg sync.WaitGroup
	errs := make(chan error, times)
	for i := 0; i < times; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.uc.AdjustStock(context.Background(), inventory.AdjustStockInput{
				ProductID: c.productID, LocationID: locationID, Quantity: qty,
				Mode: entity.AdjustmentMode(mode), Reason: "paralelo", Actor: "user-1",
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *ledgerTestContext) traslado(qty int64, from, to, notes string) error {
	_, c.err = c.uc.TransferStock(context.Background(), inventory.TransferStockInput{
		ProductID: c.productID, FromLocationID: c.loc(from), ToLocationID: c.loc(to),
		Quantity: qty, Notes: notes, Actor: "user-1",
	})
	return nil
}

func (c *ledgerTestContext) quantity(name string) (int64, error) {
	level, err := c.uc.GetStockLevel(context.Background(), c.productID, c.loc(name))
	if err != nil || level == nil {
		return 0, err
	}
	return level.Quantity, nil
}

func (c *ledgerTestContext) laUbicacionQuedaCon(name string, want int64) error {
	if c.err != nil && !isBusinessError(c.err) {
		return c.err
	}
	got, err := c.quantity(name)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("ubicación %s: esperado %d, obtenido %d", name, want, got)
	}
	return nil
}

func (c *ledgerTestContext) movements() ([]*entity.StockMovement, error) {
	return c.uc.ListMovements(context.Background(), c.productID, nil)
}

func (c *ledgerTestContext) ultimoMovimiento(kind, from, to string, qty int64) error {
	if c.err != nil {
		return c.err
	}
	movs, err := c.movements()
	if err != nil {
		return err
	}
	if len(movs) == 0 {
		return errors.New("el ledger está vacío")
	}
	m := movs[len(movs)-1]
	if m.Type != kind || m.FromLocationID != c.loc(from) || m.ToLocationID != c.loc(to) || m.Quantity != qty {
		return fmt.Errorf("movimiento inesperado: %+v", *m)
	}
	return nil
}

func (c *ledgerTestContext) elLedgerTieneMovimientos(n int) error {
	movs, err := c.movements()
	if err != nil {
		return err
	}
	if len(movs) != n {
		return fmt.Errorf("esperados %d movimientos, hay %d", n, len(movs))
	}
	return nil
}

func (c *ledgerTestContext) fallaConStockInsuficiente(available, requested int64) error {
	var ise *domain.InsufficientStockError
	if !errors.As(c.err, &ise) {
		return fmt.Errorf("se esperaba stock insuficiente, obtenido: %v", c.err)
	}
	if ise.Available != available || ise.Requested != requested {
		return fmt.Errorf("detalle inesperado: %+v", *ise)
	}
	return nil
}

func (c *ledgerTestContext) fallaCon(code string) error {
	want := map[string]error{
		"VALIDATION":         domain.ErrInvalidOperation,
		"NOT_FOUND":          domain.ErrNotFound,
		"INSUFFICIENT_STOCK": domain.ErrInsufficientStock,
	}[code]
	if want == nil {
		return fmt.Errorf("código desconocido %q", code)
	}
	if !errors.Is(c.err, want) {
		return fmt.Errorf("se esperaba %s, obtenido: %v", code, c.err)
	}
	return nil
}

func (c *ledgerTestContext) replayCoincide() error {
	if c.err != nil {
		return c.err
	}
	report, err := c.uc.VerifyProduct(context.Background(), c.productID)
	if err != nil {
		return err
	}
	if !report.Consistent {
		return fmt.Errorf("desvíos: %+v", report.Drifts)
	}
	return nil
}

func isBusinessError(err error) bool {
	return errors.Is(err, domain.ErrInsufficientStock) ||
		errors.Is(err, domain.ErrInvalidOperation) ||
		errors.Is(err, domain.ErrNotFound)
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &ledgerTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Dado
	ctx.Step(`^el producto "([^"]*)"$`, tc.elProducto)
	ctx.Step(`^que la ubicación "([^"]*)" tiene (\d+) unidades$`, tc.laUbicacionTieneUnidades)

	// Cuando
	ctx.Step(`^ajusto "([^"]*)" con modo "([^"]*)" cantidad (\d+) y motivo "([^"]*)"$`, tc.ajusto)
	ctx.Step(`^ajusto "([^"]*)" (\d+) veces en paralelo con modo "([^"]*)" cantidad (\d+)$`, tc.ajustoEnParalelo)
	ctx.Step(`^traslado (\d+) de "([^"]*)" a "([^"]*)" con notas "([^"]*)"$`, tc.traslado)

	// Entonces
	ctx.Step(`^la ubicación "([^"]*)" tiene (\d+) unidades$`, tc.laUbicacionQuedaCon)
	ctx.Step(`^el último movimiento es "([^"]*)" de "([^"]*)" a "([^"]*)" por (\d+)$`, tc.ultimoMovimiento)
	ctx.Step(`^el ledger tiene (\d+) movimientos$`, tc.elLedgerTieneMovimientos)
	ctx.Step(`^la operación falla con stock insuficiente disponible (\d+) solicitado (\d+)$`, tc.fallaConStockInsuficiente)
	ctx.Step(`^la operación falla con "([^"]*)"$`, tc.fallaCon)
	ctx.Step(`^el replay del ledger coincide con los niveles$`, tc.replayCoincide)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

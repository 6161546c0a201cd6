package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/application/ports"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/stock-ledger/internal/interfaces/http"
	"github.com/jhoicas/stock-ledger/pkg/logger"
	pkgjwt "github.com/jhoicas/stock-ledger/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

// fakeIdempotency implementación en memoria de ports.IdempotencyStore.
type fakeIdempotency struct {
	mu      sync.Mutex
	entries map[string]*ports.StoredResponse // nil = reservada sin respuesta
}

func newFakeIdempotency() *fakeIdempotency {
	return &fakeIdempotency{entries: make(map[string]*ports.StoredResponse)}
}

func (f *fakeIdempotency) Reserve(_ context.Context, key string) (*ports.StoredResponse, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	resp, ok := f.entries[key]
	if !ok {
		f.entries[key] = nil
		return nil, true, nil
	}
	if resp == nil {
		return nil, false, ports.ErrIdempotencyInFlight
	}
	return resp, false, nil
}

func (f *fakeIdempotency) Save(_ context.Context, key string, resp ports.StoredResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = &resp
	return nil
}

func (f *fakeIdempotency) Release(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, key)
	return nil
}

type apiFixture struct {
	app     *fiber.App
	store   *memory.Store
	idem    *fakeIdempotency
	product string
	bodega  string
	cabina  string
	foreign string // producto de otro salón
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	s := memory.NewStore()
	f := &apiFixture{
		store:   s,
		idem:    newFakeIdempotency(),
		product: uuid.NewString(),
		bodega:  uuid.NewString(),
		cabina:  uuid.NewString(),
		foreign: uuid.NewString(),
	}
	s.AddProduct(entity.Product{ID: f.product, SalonID: testSalonID, Name: "Shampoo", SKU: "SH-1", ReorderPoint: decimal.NewFromInt(10)})
	s.AddProduct(entity.Product{ID: f.foreign, SalonID: uuid.NewString(), Name: "Ajeno"})
	s.AddLocation(entity.Location{ID: f.bodega, SalonID: testSalonID, Name: "Bodega"})
	s.AddLocation(entity.Location{ID: f.cabina, SalonID: testSalonID, Name: "Cabina"})

	f.app = fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler})
	apphttp.Router(f.app, apphttp.RouterDeps{
		Ledger:      inventory.NewLedgerUseCase(s, s.Levels(), s.Movements(), logger.Nop(), time.Second),
		Overview:    inventory.NewStockOverviewUseCase(s),
		Access:      inventory.NewAccessChecker(s),
		Idempotency: f.idem,
		JWTSecret:   testJWTSecret,
		Log:         logger.Nop(),
	})
	return f
}

func (f *apiFixture) do(t *testing.T, method, path, role string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", tokenForRole(t, role))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func (f *apiFixture) adjust(t *testing.T, loc string, qty int64, mode string) (*http.Response, []byte) {
	t.Helper()
	return f.do(t, http.MethodPost, "/api/inventory/adjustments", apphttp.RoleSalonManager, dto.AdjustStockRequest{
		ProductID: f.product, LocationID: loc, Quantity: qty, Mode: mode, Reason: "conteo físico",
	}, nil)
}

// ──────────────────────────────────────────────────────────────────────────────
// Ajustes y traslados
// ──────────────────────────────────────────────────────────────────────────────

func TestAdjustStock_CreaMovimientoYNivel(t *testing.T) {
	f := newAPIFixture(t)

	resp, body := f.adjust(t, f.bodega, 12, "add")
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var out dto.AdjustStockResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, int64(12), out.NewQuantity)
	assert.NotEmpty(t, out.MovementID)

	resp, body = f.do(t, http.MethodGet, "/api/inventory/stock-levels/"+f.product+"/"+f.bodega, "staff", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var level dto.StockLevelResponse
	require.NoError(t, json.Unmarshal(body, &level))
	assert.Equal(t, int64(12), level.Quantity)
}

func TestAdjustStock_SetAlMismoValorResponde200SinMovimiento(t *testing.T) {
	f := newAPIFixture(t)
	f.adjust(t, f.bodega, 5, "set")

	resp, body := f.adjust(t, f.bodega, 5, "set")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out dto.AdjustStockResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, int64(5), out.NewQuantity)
	assert.Empty(t, out.MovementID)
}

func TestAdjustStock_StockInsuficienteResponde409ConDetalle(t *testing.T) {
	f := newAPIFixture(t)
	f.adjust(t, f.bodega, 5, "add")

	resp, body := f.adjust(t, f.bodega, 20, "subtract")
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	var out dto.InsufficientStockResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "INSUFFICIENT_STOCK", out.Code)
	assert.Equal(t, int64(5), out.Available)
	assert.Equal(t, int64(20), out.Requested)
}

func TestAdjustStock_ModoInvalidoResponde400(t *testing.T) {
	f := newAPIFixture(t)

	resp, body := f.adjust(t, f.bodega, 5, "multiply")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "VALIDATION")
}

func TestAdjustStock_StaffNoPuedeMutar(t *testing.T) {
	f := newAPIFixture(t)

	resp, _ := f.do(t, http.MethodPost, "/api/inventory/adjustments", "staff", dto.AdjustStockRequest{
		ProductID: f.product, LocationID: f.bodega, Quantity: 1, Mode: "add", Reason: "x",
	}, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAdjustStock_RecursosDeOtroSalonYDesconocidos(t *testing.T) {
	f := newAPIFixture(t)

	resp, body := f.do(t, http.MethodPost, "/api/inventory/adjustments", apphttp.RoleSalonOwner, dto.AdjustStockRequest{
		ProductID: f.foreign, LocationID: f.bodega, Quantity: 1, Mode: "add", Reason: "x",
	}, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, string(body), "FORBIDDEN")

	resp, body = f.do(t, http.MethodPost, "/api/inventory/adjustments", apphttp.RoleSalonOwner, dto.AdjustStockRequest{
		ProductID: uuid.NewString(), LocationID: f.bodega, Quantity: 1, Mode: "add", Reason: "x",
	}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), "NOT_FOUND")
}

func TestTransferStock_MueveEntreUbicaciones(t *testing.T) {
	f := newAPIFixture(t)
	f.adjust(t, f.bodega, 10, "add")

	resp, body := f.do(t, http.MethodPost, "/api/inventory/transfers", apphttp.RoleSalonManager, dto.TransferStockRequest{
		ProductID: f.product, FromLocationID: f.bodega, ToLocationID: f.cabina, Quantity: 4, Notes: "reposición cabina",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var out dto.TransferStockResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, int64(6), out.FromQuantity)
	assert.Equal(t, int64(4), out.ToQuantity)

	resp, body = f.do(t, http.MethodGet, "/api/inventory/locations/"+f.cabina+"/movements", "staff", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list dto.ListResponse[dto.MovementResponse]
	require.NoError(t, json.Unmarshal(body, &list))
	require.Equal(t, 1, list.Total)
	assert.Equal(t, entity.MovementTypeTransfer, list.Items[0].MovementType)
	require.NotNil(t, list.Items[0].FromLocationID)
	assert.Equal(t, f.bodega, *list.Items[0].FromLocationID)
}

func TestTransferStock_MismaUbicacionResponde400(t *testing.T) {
	f := newAPIFixture(t)

	resp, body := f.do(t, http.MethodPost, "/api/inventory/transfers", apphttp.RoleSalonManager, dto.TransferStockRequest{
		ProductID: f.product, FromLocationID: f.bodega, ToLocationID: f.bodega, Quantity: 1,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "VALIDATION")
}

func TestTransferStockBatch_MueveTodosLosProductos(t *testing.T) {
	f := newAPIFixture(t)
	tinte := uuid.NewString()
	f.store.AddProduct(entity.Product{ID: tinte, SalonID: testSalonID, Name: "Tinte", SKU: "TI-1"})
	f.adjust(t, f.bodega, 10, "add")
	resp, _ := f.do(t, http.MethodPost, "/api/inventory/adjustments", apphttp.RoleSalonManager, dto.AdjustStockRequest{
		ProductID: tinte, LocationID: f.bodega, Quantity: 3, Mode: "add", Reason: "compra",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := f.do(t, http.MethodPost, "/api/inventory/transfers/batch", apphttp.RoleSalonManager, dto.TransferBatchRequest{
		FromLocationID: f.bodega,
		ToLocationID:   f.cabina,
		Items:          []dto.TransferBatchItemRequest{{ProductID: f.product, Quantity: 4}, {ProductID: tinte, Quantity: 3}},
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var out dto.TransferBatchResponse
	require.NoError(t, json.Unmarshal(body, &out))
	require.Len(t, out.Items, 2)
	assert.Equal(t, f.product, out.Items[0].ProductID)
	assert.Equal(t, int64(6), out.Items[0].FromQuantity)
	assert.Equal(t, tinte, out.Items[1].ProductID)
	assert.Equal(t, int64(3), out.Items[1].ToQuantity)

	resp, body = f.do(t, http.MethodGet, "/api/inventory/locations/"+f.cabina+"/movements", "staff", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list dto.ListResponse[dto.MovementResponse]
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Equal(t, 2, list.Total)
}

func TestTransferStockBatch_ItemSinStockResponde409SinEscribir(t *testing.T) {
	f := newAPIFixture(t)
	tinte := uuid.NewString()
	f.store.AddProduct(entity.Product{ID: tinte, SalonID: testSalonID, Name: "Tinte", SKU: "TI-1"})
	f.adjust(t, f.bodega, 10, "add")

	resp, body := f.do(t, http.MethodPost, "/api/inventory/transfers/batch", apphttp.RoleSalonManager, dto.TransferBatchRequest{
		FromLocationID: f.bodega,
		ToLocationID:   f.cabina,
		Items:          []dto.TransferBatchItemRequest{{ProductID: f.product, Quantity: 4}, {ProductID: tinte, Quantity: 1}},
	}, nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode, string(body))
	var out dto.InsufficientStockResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "INSUFFICIENT_STOCK", out.Code)
	assert.Equal(t, tinte, out.ProductID)
	assert.Equal(t, int64(0), out.Available)

	resp, _ = f.do(t, http.MethodGet, "/api/inventory/stock-levels/"+f.product+"/"+f.cabina, "staff", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, body = f.do(t, http.MethodGet, "/api/inventory/stock-levels/"+f.product+"/"+f.bodega, "staff", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var level dto.StockLevelResponse
	require.NoError(t, json.Unmarshal(body, &level))
	assert.Equal(t, int64(10), level.Quantity)
}

func TestTransferStockBatch_ProductoDeOtroSalonResponde403(t *testing.T) {
	f := newAPIFixture(t)
	f.adjust(t, f.bodega, 10, "add")

	resp, body := f.do(t, http.MethodPost, "/api/inventory/transfers/batch", apphttp.RoleSalonOwner, dto.TransferBatchRequest{
		FromLocationID: f.bodega,
		ToLocationID:   f.cabina,
		Items:          []dto.TransferBatchItemRequest{{ProductID: f.product, Quantity: 1}, {ProductID: f.foreign, Quantity: 1}},
	}, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, string(body), "FORBIDDEN")

	resp, _ = f.do(t, http.MethodPost, "/api/inventory/transfers/batch", "staff", dto.TransferBatchRequest{
		FromLocationID: f.bodega,
		ToLocationID:   f.cabina,
		Items:          []dto.TransferBatchItemRequest{{ProductID: f.product, Quantity: 1}},
	}, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Idempotencia y fallos de persistencia
// ──────────────────────────────────────────────────────────────────────────────

func TestAdjustStock_ReintentoConIdempotencyKeyNoDuplica(t *testing.T) {
	f := newAPIFixture(t)
	req := dto.AdjustStockRequest{ProductID: f.product, LocationID: f.bodega, Quantity: 3, Mode: "add", Reason: "compra"}
	headers := map[string]string{apphttp.HeaderIdempotencyKey: "compra-001"}

	f.store.SetFault(func(op string) error {
		if op == memory.OpCommit {
			return errors.New("conexión perdida")
		}
		return nil
	})
	resp, body := f.do(t, http.MethodPost, "/api/inventory/adjustments", apphttp.RoleSalonManager, req, headers)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, string(body), "PERSISTENCE_FAILURE")

	f.store.SetFault(nil)
	resp, first := f.do(t, http.MethodPost, "/api/inventory/adjustments", apphttp.RoleSalonManager, req, headers)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, replay := f.do(t, http.MethodPost, "/api/inventory/adjustments", apphttp.RoleSalonManager, req, headers)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "true", resp.Header.Get("Idempotent-Replayed"))
	assert.JSONEq(t, string(first), string(replay))

	resp, body = f.do(t, http.MethodGet, "/api/inventory/products/"+f.product+"/movements", "staff", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list dto.ListResponse[dto.MovementResponse]
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Equal(t, 1, list.Total, "el reintento no debe duplicar el movimiento")
}

func TestIdempotency_ClaveEnCursoResponde409(t *testing.T) {
	f := newAPIFixture(t)
	headers := map[string]string{apphttp.HeaderIdempotencyKey: "k-1"}
	// reserva de otra petición idéntica todavía en curso
	scoped := testUserID + ":POST:/api/inventory/adjustments:k-1"
	_, _, err := f.idem.Reserve(context.Background(), scoped)
	require.NoError(t, err)

	resp, body := f.do(t, http.MethodPost, "/api/inventory/adjustments", apphttp.RoleSalonManager, dto.AdjustStockRequest{
		ProductID: f.product, LocationID: f.bodega, Quantity: 1, Mode: "add", Reason: "x",
	}, headers)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, string(body), "IDEMPOTENCY_IN_FLIGHT")
}

// ──────────────────────────────────────────────────────────────────────────────
// Consultas
// ──────────────────────────────────────────────────────────────────────────────

func TestGetStockLevel_SinFilaResponde404(t *testing.T) {
	f := newAPIFixture(t)

	resp, _ := f.do(t, http.MethodGet, "/api/inventory/stock-levels/"+f.product+"/"+f.cabina, "staff", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListMovements_SinceInvalidoResponde400(t *testing.T) {
	f := newAPIFixture(t)

	resp, _ := f.do(t, http.MethodGet, "/api/inventory/products/"+f.product+"/movements?since=ayer", "staff", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLowStockYStockPorUbicacion(t *testing.T) {
	f := newAPIFixture(t)
	f.adjust(t, f.bodega, 3, "add")

	resp, body := f.do(t, http.MethodGet, "/api/inventory/low-stock?location_id="+f.bodega, "staff", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var low dto.ListResponse[dto.LowStockItemDTO]
	require.NoError(t, json.Unmarshal(body, &low))
	require.Equal(t, 1, low.Total)
	assert.Equal(t, dto.StockStatusLow, low.Items[0].Status)
	assert.True(t, decimal.NewFromInt(7).Equal(low.Items[0].Deficit))

	resp, body = f.do(t, http.MethodGet, "/api/inventory/locations/"+f.cabina+"/stock", "staff", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rows dto.ListResponse[dto.StockRowDTO]
	require.NoError(t, json.Unmarshal(body, &rows))
	require.Equal(t, 1, rows.Total)
	assert.Equal(t, int64(0), rows.Items[0].Quantity)
}

func TestReconcile_ConsistenteTrasOperaciones(t *testing.T) {
	f := newAPIFixture(t)
	f.adjust(t, f.bodega, 8, "add")
	f.do(t, http.MethodPost, "/api/inventory/transfers", apphttp.RoleSalonManager, dto.TransferStockRequest{
		ProductID: f.product, FromLocationID: f.bodega, ToLocationID: f.cabina, Quantity: 3,
	}, nil)

	resp, body := f.do(t, http.MethodGet, "/api/inventory/products/"+f.product+"/reconciliation", apphttp.RoleTenantOwner, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out dto.ReconciliationResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.True(t, out.Consistent)
	assert.Equal(t, 2, out.MovementCount)
	assert.Empty(t, out.Drifts)
}

func TestRouter_RutaInexistenteResponde404(t *testing.T) {
	f := newAPIFixture(t)

	resp, body := f.do(t, http.MethodGet, "/api/nada", "staff", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), "NOT_FOUND")
}

func TestPkgJWT_TokenParaRolDeNegocio(t *testing.T) {
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, testSalonID, apphttp.RoleSalonManager, testIssuer, testExpMin)
	require.NoError(t, err)
	_, salonID, role, err := pkgjwt.Parse(testJWTSecret, tok)
	require.NoError(t, err)
	assert.Equal(t, testSalonID, salonID)
	assert.Equal(t, apphttp.RoleSalonManager, role)
}

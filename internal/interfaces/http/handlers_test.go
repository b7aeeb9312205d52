package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/bodegas-api/internal/application/activity"
	"github.com/jhoicas/bodegas-api/internal/application/dto"
	"github.com/jhoicas/bodegas-api/internal/application/inventory"
	"github.com/jhoicas/bodegas-api/internal/application/usecase"
	"github.com/jhoicas/bodegas-api/internal/domain/repository"
	"github.com/jhoicas/bodegas-api/internal/infrastructure/events"
	"github.com/jhoicas/bodegas-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/bodegas-api/internal/interfaces/http"
)

type testAPI struct {
	app   *fiber.App
	store *memory.Store
}

// newTestAPI arma la API completa sobre el store en memoria, sin autenticación.
func newTestAPI(t *testing.T, lockTimeout time.Duration) *testAPI {
	t.Helper()
	return buildTestAPI(t, lockTimeout, apphttp.AuthConfig{})
}

func buildTestAPI(t *testing.T, lockTimeout time.Duration, auth apphttp.AuthConfig) *testAPI {
	t.Helper()
	log := zerolog.Nop()
	store := memory.NewStore(lockTimeout)
	recorder := activity.NewRecorder(memory.NewActivityRing(memory.DefaultActivitySize), events.NoopPublisher{}, log)
	engine := inventory.NewEngine(store, store.Warehouses(), store.Items(), recorder, inventory.WithLogger(log))
	svc := usecase.NewInventoryService(engine, store.Warehouses(), store.Items(), recorder, recorder, decimal.Zero, log)

	app := apphttp.NewApp("bodegas-api-test", log)
	apphttp.Router(app, apphttp.RouterDeps{
		Service:     svc,
		Idempotency: memory.NewIdempotencyStore(),
		Auth:        auth,
		Logger:      log,
	})
	return &testAPI{app: app, store: store}
}

func (a *testAPI) do(t *testing.T, method, path string, body any, headers ...string) (int, []byte, *fiberResponse) {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out, &fiberResponse{header: resp.Header.Get}
}

type fiberResponse struct {
	header func(string) string
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func (a *testAPI) createWarehouse(t *testing.T, name string, max int) dto.WarehouseResponse {
	t.Helper()
	status, body, _ := a.do(t, fiber.MethodPost, "/api/warehouses", dto.CreateWarehouseRequest{
		Name: name, Location: "Bogotá", MaxCapacity: max,
	})
	require.Equal(t, fiber.StatusCreated, status, string(body))
	return decode[dto.WarehouseResponse](t, body)
}

func (a *testAPI) createItem(t *testing.T, warehouseID, sku string, qty int) dto.ItemResponse {
	t.Helper()
	status, body, _ := a.do(t, fiber.MethodPost, "/api/warehouses/"+warehouseID+"/items", dto.CreateItemRequest{
		Name: "Item " + sku, SKU: sku, Category: "general", StorageLocation: "A-1", Quantity: qty,
	})
	require.Equal(t, fiber.StatusCreated, status, string(body))
	return decode[dto.ItemResponse](t, body)
}

func (a *testAPI) getWarehouse(t *testing.T, id string) dto.WarehouseResponse {
	t.Helper()
	status, body, _ := a.do(t, fiber.MethodGet, "/api/warehouses/"+id, nil)
	require.Equal(t, fiber.StatusOK, status, string(body))
	return decode[dto.WarehouseResponse](t, body)
}

func TestBodega_CrearYConsultar(t *testing.T) {
	api := newTestAPI(t, 0)
	w := api.createWarehouse(t, "Central", 100)
	assert.NotEmpty(t, w.ID)
	assert.Equal(t, 100, w.MaxCapacity)
	assert.Equal(t, 0, w.CurrentCapacity)
	assert.Equal(t, 100, w.AvailableCapacity)

	got := api.getWarehouse(t, w.ID)
	assert.Equal(t, "Central", got.Name)
}

func TestBodega_ValidacionYNoEncontrada(t *testing.T) {
	api := newTestAPI(t, 0)

	status, body, _ := api.do(t, fiber.MethodPost, "/api/warehouses", dto.CreateWarehouseRequest{Name: "", Location: "x"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	errResp := decode[dto.ErrorResponse](t, body)
	assert.Equal(t, "VALIDATION", errResp.Code)
	assert.NotEmpty(t, errResp.Error)

	status, body, _ = api.do(t, fiber.MethodGet, "/api/warehouses/no-existe", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", decode[dto.ErrorResponse](t, body).Code)

	// cuerpo que no es JSON
	req := httptest.NewRequest(fiber.MethodPost, "/api/warehouses", bytes.NewBufferString("{no json"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := api.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestBodega_ActualizarBajoLaOcupacion(t *testing.T) {
	api := newTestAPI(t, 0)
	w := api.createWarehouse(t, "Central", 100)
	api.createItem(t, w.ID, "SKU-1", 60)

	max := 50
	status, body, _ := api.do(t, fiber.MethodPut, "/api/warehouses/"+w.ID, dto.UpdateWarehouseRequest{MaxCapacity: &max})
	assert.Equal(t, fiber.StatusBadRequest, status, string(body))

	max = 60
	status, body, _ = api.do(t, fiber.MethodPut, "/api/warehouses/"+w.ID, dto.UpdateWarehouseRequest{MaxCapacity: &max})
	require.Equal(t, fiber.StatusOK, status, string(body))
	updated := decode[dto.WarehouseResponse](t, body)
	assert.Equal(t, 60, updated.MaxCapacity)
	assert.Equal(t, 60, updated.CurrentCapacity)
	assert.True(t, updated.HighUsage)
}

func TestBodega_EliminarExigeVacia(t *testing.T) {
	api := newTestAPI(t, 0)
	w := api.createWarehouse(t, "Central", 100)
	it := api.createItem(t, w.ID, "SKU-1", 10)

	status, body, _ := api.do(t, fiber.MethodDelete, "/api/warehouses/"+w.ID, nil)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "CONFLICT", decode[dto.ErrorResponse](t, body).Code)

	status, _, _ = api.do(t, fiber.MethodDelete, "/api/warehouses/"+w.ID+"/items/"+it.ID, nil)
	assert.Equal(t, fiber.StatusNoContent, status)
	assert.Equal(t, 0, api.getWarehouse(t, w.ID).CurrentCapacity)

	status, _, _ = api.do(t, fiber.MethodDelete, "/api/warehouses/"+w.ID, nil)
	assert.Equal(t, fiber.StatusNoContent, status)

	status, _, _ = api.do(t, fiber.MethodGet, "/api/warehouses/"+w.ID, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestItem_CrearConflictosYCapacidad(t *testing.T) {
	api := newTestAPI(t, 0)
	w := api.createWarehouse(t, "Central", 100)
	it := api.createItem(t, w.ID, "SKU-1", 40)
	require.NotNil(t, it.Warehouse)
	assert.Equal(t, 40, it.Warehouse.CurrentCapacity)

	status, body, _ := api.do(t, fiber.MethodPost, "/api/warehouses/"+w.ID+"/items", dto.CreateItemRequest{
		Name: "Otro", SKU: "SKU-1", Quantity: 1,
	})
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "CONFLICT", decode[dto.ErrorResponse](t, body).Code)

	status, body, _ = api.do(t, fiber.MethodPost, "/api/warehouses/"+w.ID+"/items", dto.CreateItemRequest{
		Name: "Grande", SKU: "SKU-2", Quantity: 61,
	})
	assert.Equal(t, fiber.StatusConflict, status)
	errResp := decode[dto.ErrorResponse](t, body)
	assert.Equal(t, "CAPACITY_EXCEEDED", errResp.Code)
	assert.NotEmpty(t, errResp.Details)

	status, _, _ = api.do(t, fiber.MethodPost, "/api/warehouses/no-existe/items", dto.CreateItemRequest{
		Name: "X", SKU: "SKU-3", Quantity: 1,
	})
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestItem_ListarYActualizarCantidad(t *testing.T) {
	api := newTestAPI(t, 0)
	w := api.createWarehouse(t, "Central", 100)
	it := api.createItem(t, w.ID, "ABC-1", 10)
	api.createItem(t, w.ID, "XYZ-1", 5)

	status, body, _ := api.do(t, fiber.MethodGet, "/api/warehouses/"+w.ID+"/items?sku=ABC", nil)
	require.Equal(t, fiber.StatusOK, status)
	items := decode[[]dto.ItemResponse](t, body)
	require.Len(t, items, 1)
	assert.Equal(t, "ABC-1", items[0].SKU)

	qty := 30
	status, body, _ = api.do(t, fiber.MethodPut, "/api/warehouses/"+w.ID+"/items/"+it.ID, dto.UpdateItemRequest{Quantity: &qty})
	require.Equal(t, fiber.StatusOK, status, string(body))
	updated := decode[dto.ItemResponse](t, body)
	assert.Equal(t, 30, updated.Quantity)
	assert.Equal(t, 35, api.getWarehouse(t, w.ID).CurrentCapacity)
}

func TestTraslado_ExitoYErrores(t *testing.T) {
	api := newTestAPI(t, 0)
	src := api.createWarehouse(t, "Origen", 100)
	dst := api.createWarehouse(t, "Destino", 50)
	api.createItem(t, src.ID, "SKU-1", 40)

	status, body, _ := api.do(t, fiber.MethodPost, "/api/transfers", dto.TransferRequest{
		SourceWarehouseID: src.ID, DestinationWarehouseID: dst.ID, SKU: "SKU-1", Quantity: 15,
	})
	require.Equal(t, fiber.StatusOK, status, string(body))
	res := decode[dto.TransferResponse](t, body)
	assert.NotEmpty(t, res.TransferID)
	assert.True(t, res.DestinationCreated)
	assert.Equal(t, 25, res.SourceItem.Quantity)
	assert.Equal(t, 15, res.DestinationItem.Quantity)
	assert.Equal(t, "TBD", res.DestinationItem.StorageLocation)
	assert.Equal(t, 25, res.SourceWarehouse.CurrentCapacity)
	assert.Equal(t, 15, res.DestinationWarehouse.CurrentCapacity)

	cases := []struct {
		name   string
		req    dto.TransferRequest
		status int
		code   string
	}{
		{"misma bodega", dto.TransferRequest{SourceWarehouseID: src.ID, DestinationWarehouseID: src.ID, SKU: "SKU-1", Quantity: 1}, fiber.StatusBadRequest, "VALIDATION"},
		{"cantidad cero", dto.TransferRequest{SourceWarehouseID: src.ID, DestinationWarehouseID: dst.ID, SKU: "SKU-1", Quantity: 0}, fiber.StatusBadRequest, "VALIDATION"},
		{"bodega inexistente", dto.TransferRequest{SourceWarehouseID: "no-existe", DestinationWarehouseID: dst.ID, SKU: "SKU-1", Quantity: 1}, fiber.StatusNotFound, "NOT_FOUND"},
		{"sku inexistente", dto.TransferRequest{SourceWarehouseID: src.ID, DestinationWarehouseID: dst.ID, SKU: "NADA", Quantity: 1}, fiber.StatusConflict, "INSUFFICIENT_QUANTITY"},
		{"cantidad insuficiente", dto.TransferRequest{SourceWarehouseID: src.ID, DestinationWarehouseID: dst.ID, SKU: "SKU-1", Quantity: 26}, fiber.StatusConflict, "INSUFFICIENT_QUANTITY"},
		{"sin capacidad", dto.TransferRequest{SourceWarehouseID: src.ID, DestinationWarehouseID: dst.ID, SKU: "SKU-1", Quantity: 25}, fiber.StatusOK, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body, _ := api.do(t, fiber.MethodPost, "/api/transfers", tc.req)
			assert.Equal(t, tc.status, status, string(body))
			if tc.code != "" {
				assert.Equal(t, tc.code, decode[dto.ErrorResponse](t, body).Code)
			}
		})
	}

	// destino con 40/50: 10 libres
	api.createItem(t, src.ID, "SKU-2", 20)
	status, body, _ = api.do(t, fiber.MethodPost, "/api/transfers", dto.TransferRequest{
		SourceWarehouseID: src.ID, DestinationWarehouseID: dst.ID, SKU: "SKU-2", Quantity: 11,
	})
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "CAPACITY_EXCEEDED", decode[dto.ErrorResponse](t, body).Code)
	assert.Equal(t, 20, api.getWarehouse(t, src.ID).CurrentCapacity)
	assert.Equal(t, 40, api.getWarehouse(t, dst.ID).CurrentCapacity)
}

func TestTraslado_IdempotencyKeyRepite(t *testing.T) {
	api := newTestAPI(t, 0)
	src := api.createWarehouse(t, "Origen", 100)
	dst := api.createWarehouse(t, "Destino", 100)
	api.createItem(t, src.ID, "SKU-1", 10)

	req := dto.TransferRequest{SourceWarehouseID: src.ID, DestinationWarehouseID: dst.ID, SKU: "SKU-1", Quantity: 4}
	status1, body1, resp1 := api.do(t, fiber.MethodPost, "/api/transfers", req, apphttp.HeaderIdempotencyKey, "k-1")
	require.Equal(t, fiber.StatusOK, status1, string(body1))
	assert.Empty(t, resp1.header(apphttp.HeaderIdempotentReplay))

	status2, body2, resp2 := api.do(t, fiber.MethodPost, "/api/transfers", req, apphttp.HeaderIdempotencyKey, "k-1")
	require.Equal(t, fiber.StatusOK, status2)
	assert.Equal(t, "true", resp2.header(apphttp.HeaderIdempotentReplay))
	assert.JSONEq(t, string(body1), string(body2))

	assert.Equal(t, 6, api.getWarehouse(t, src.ID).CurrentCapacity)
	assert.Equal(t, 4, api.getWarehouse(t, dst.ID).CurrentCapacity)

	// un error no se guarda: la misma clave puede reintentarse
	bad := dto.TransferRequest{SourceWarehouseID: src.ID, DestinationWarehouseID: dst.ID, SKU: "SKU-1", Quantity: 50}
	status, _, _ := api.do(t, fiber.MethodPost, "/api/transfers", bad, apphttp.HeaderIdempotencyKey, "k-2")
	assert.Equal(t, fiber.StatusConflict, status)
	status, body, _ := api.do(t, fiber.MethodPost, "/api/transfers", req, apphttp.HeaderIdempotencyKey, "k-2")
	assert.Equal(t, fiber.StatusOK, status, string(body))
}

func TestTraslado_ContencionDevuelve503(t *testing.T) {
	api := newTestAPI(t, 50*time.Millisecond)
	src := api.createWarehouse(t, "Origen", 100)
	dst := api.createWarehouse(t, "Destino", 100)
	api.createItem(t, src.ID, "SKU-1", 10)

	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- api.store.Run(context.Background(), func(ctx context.Context, wr repository.WarehouseRepository, _ repository.ItemRepository) error {
			if _, err := wr.GetForUpdate(ctx, src.ID); err != nil {
				return err
			}
			close(locked)
			<-release
			return nil
		})
	}()
	<-locked

	status, body, resp := api.do(t, fiber.MethodPost, "/api/transfers", dto.TransferRequest{
		SourceWarehouseID: src.ID, DestinationWarehouseID: dst.ID, SKU: "SKU-1", Quantity: 1,
	})
	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, fiber.StatusServiceUnavailable, status, string(body))
	assert.Equal(t, "CONTENTION", decode[dto.ErrorResponse](t, body).Code)
	assert.Equal(t, "1", resp.header(fiber.HeaderRetryAfter))
	assert.Equal(t, 10, api.getWarehouse(t, src.ID).CurrentCapacity)
	assert.Equal(t, 0, api.getWarehouse(t, dst.ID).CurrentCapacity)
}

func TestAlertasActividadYLedger(t *testing.T) {
	api := newTestAPI(t, 0)
	full := api.createWarehouse(t, "Llena", 100)
	empty := api.createWarehouse(t, "Vacía", 100)
	api.createItem(t, full.ID, "SKU-1", 80)

	status, body, _ := api.do(t, fiber.MethodGet, "/api/warehouses/alerts", nil)
	require.Equal(t, fiber.StatusOK, status)
	alerts := decode[[]dto.WarehouseResponse](t, body)
	require.Len(t, alerts, 1)
	assert.Equal(t, full.ID, alerts[0].ID)
	assert.NotEqual(t, empty.ID, alerts[0].ID)

	status, body, _ = api.do(t, fiber.MethodGet, "/api/activity?limit=2", nil)
	require.Equal(t, fiber.StatusOK, status)
	entries := decode[[]dto.ActivityResponse](t, body)
	assert.Len(t, entries, 2)

	status, _, _ = api.do(t, fiber.MethodGet, "/api/activity?limit=-1", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body, _ = api.do(t, fiber.MethodGet, "/api/ledger/verify", nil)
	require.Equal(t, fiber.StatusOK, status)
	report := decode[dto.LedgerReport](t, body)
	assert.Equal(t, 2, report.Warehouses)
	assert.Empty(t, report.Mismatches)
}

func TestRutaDesconocidaYHealth(t *testing.T) {
	api := newTestAPI(t, 0)

	status, body, _ := api.do(t, fiber.MethodGet, "/api/nada", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", decode[dto.ErrorResponse](t, body).Code)

	status, body, _ = api.do(t, fiber.MethodGet, "/health", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", decode[map[string]string](t, body)["status"])
}

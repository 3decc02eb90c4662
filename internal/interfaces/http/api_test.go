package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/taller-inventario/internal/application/dto"
	"github.com/jhoicas/taller-inventario/internal/application/inventory"
	"github.com/jhoicas/taller-inventario/internal/application/location"
	"github.com/jhoicas/taller-inventario/internal/application/usecase"
	"github.com/jhoicas/taller-inventario/internal/infrastructure/memory"
	"github.com/jhoicas/taller-inventario/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/taller-inventario/internal/interfaces/http"
)

// buildAPI arma la API completa sobre el store en memoria.
func buildAPI(t *testing.T, rateLimit int) *fiber.App {
	t.Helper()
	store := memory.NewStore()
	repos := store.Repositories()

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		ProductUC:       usecase.NewProductUseCase(repos.Products),
		LocationUC:      location.NewLocationUseCase(store, repos, zerolog.Nop()),
		Engine:          inventory.NewMovementEngine(store, inventory.NopNotifier{}, zerolog.Nop()),
		StockQuery:      inventory.NewStockQueryService(store.StockQuery(), repos),
		SlipRenderer:    pdf.NewTransferSlipRenderer("Taller de prueba"),
		JWTSecret:       testJWTSecret,
		RateLimitMax:    rateLimit,
		RateLimitWindow: time.Minute,
	})
	return app
}

// call ejecuta la petición y devuelve status y cuerpo.
func call(t *testing.T, app *fiber.App, method, path, role string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", tokenForRole(t, role))
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

// create hace POST como admin, exige 201 y decodifica la respuesta en out.
func create(t *testing.T, app *fiber.App, path string, body, out any) {
	t.Helper()
	status, raw := call(t, app, http.MethodPost, path, "admin", body)
	require.Equal(t, http.StatusCreated, status, "POST %s: %s", path, raw)
	require.NoError(t, json.Unmarshal(raw, out))
}

func errorCode(t *testing.T, raw []byte) string {
	t.Helper()
	var e dto.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &e), string(raw))
	return e.Code
}

type fixture struct {
	productID string
	mainWH    string
	branchWH  string
	lotA      string
	lotB      string
}

// seed crea un producto y dos lotes en bodegas distintas.
func seed(t *testing.T, app *fiber.App) fixture {
	t.Helper()
	var product dto.ProductResponse
	create(t, app, "/api/products", map[string]any{
		"sku": "FIL-ACE-01", "name": "Filtro de aceite", "price": "18000", "min_stock": "5", "max_stock": "40",
	}, &product)

	var principal, branch dto.WarehouseResponse
	create(t, app, "/api/warehouses", map[string]any{"code": "PRIN", "name": "Principal", "kind": "principal"}, &principal)
	create(t, app, "/api/warehouses", map[string]any{"code": "NORTE", "name": "Sucursal Norte"}, &branch)

	var secA, secB dto.SectionResponse
	create(t, app, "/api/sections", map[string]any{"warehouse_id": principal.ID, "code": "FIL", "name": "Filtros"}, &secA)
	create(t, app, "/api/sections", map[string]any{"warehouse_id": branch.ID, "code": "MOS", "name": "Mostrador"}, &secB)

	var lotA, lotB dto.LotResponse
	create(t, app, "/api/lots", map[string]any{"section_id": secA.ID, "code": "A1"}, &lotA)
	create(t, app, "/api/lots", map[string]any{"section_id": secB.ID, "code": "B1"}, &lotB)

	assert.Equal(t, "branch", branch.Kind, "el tipo por defecto es sucursal")
	return fixture{productID: product.ID, mainWH: principal.ID, branchWH: branch.ID, lotA: lotA.ID, lotB: lotB.ID}
}

func TestAPI_ReceiveTransferAndQuery(t *testing.T) {
	app := buildAPI(t, 0)
	f := seed(t, app)

	var receipt dto.MovementResponse
	create(t, app, "/api/inventory/receipts", map[string]any{
		"product_id": f.productID, "lot_id": f.lotA, "quantity": "10", "unit_cost": "12000", "reference": "OC-1",
	}, &receipt)
	assert.Equal(t, "receipt", receipt.Type)
	assert.Equal(t, testUserID, receipt.CreatedBy, "el usuario sale del token")

	var transfer dto.TransferResponse
	create(t, app, "/api/inventory/transfers", map[string]any{
		"product_id": f.productID, "origin_lot_id": f.lotA, "destination_lot_id": f.lotB, "quantity": "4",
	}, &transfer)
	require.NotEmpty(t, transfer.Reference, "se genera una referencia")
	assert.True(t, transfer.Out.Quantity.Equal(decimal.NewFromInt(-4)))
	assert.True(t, transfer.In.Quantity.Equal(decimal.NewFromInt(4)))
	assert.Equal(t, transfer.Out.TransferID, transfer.In.TransferID)

	status, raw := call(t, app, http.MethodGet, "/api/inventory/products/"+f.productID+"/stock", "vendedor", nil)
	require.Equal(t, http.StatusOK, status)
	var onHand dto.StockOnHandResponse
	require.NoError(t, json.Unmarshal(raw, &onHand))
	assert.True(t, onHand.Quantity.Equal(decimal.NewFromInt(10)), "un traslado conserva el total")

	status, raw = call(t, app, http.MethodGet, "/api/inventory/products/"+f.productID+"/locations", "vendedor", nil)
	require.Equal(t, http.StatusOK, status)
	var locs []dto.StockLocationResponse
	require.NoError(t, json.Unmarshal(raw, &locs))
	require.Len(t, locs, 2)
	assert.Equal(t, "Principal", locs[0].WarehouseName)
	assert.True(t, locs[0].Quantity.Equal(decimal.NewFromInt(6)))
	assert.Equal(t, "Sucursal Norte", locs[1].WarehouseName)

	status, raw = call(t, app, http.MethodGet, "/api/inventory/warehouses/"+f.branchWH+"/products", "vendedor", nil)
	require.Equal(t, http.StatusOK, status)
	var branchStock []dto.ProductStockResponse
	require.NoError(t, json.Unmarshal(raw, &branchStock))
	require.Len(t, branchStock, 1)
	assert.Equal(t, "FIL-ACE-01", branchStock[0].SKU)

	status, raw = call(t, app, http.MethodGet, "/api/inventory/movements?reference="+transfer.Reference, "bodeguero", nil)
	require.Equal(t, http.StatusOK, status)
	var history []dto.MovementResponse
	require.NoError(t, json.Unmarshal(raw, &history))
	assert.Len(t, history, 2)

	status, raw = call(t, app, http.MethodGet, "/api/inventory/transfers/"+transfer.Reference, "bodeguero", nil)
	require.Equal(t, http.StatusOK, status, string(raw))

	status, raw = call(t, app, http.MethodGet, "/api/inventory/products/"+f.productID+"/reconcile", "admin", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, "[]", string(raw), "el ledger cuadra")
}

func TestAPI_TransferSlipPDF(t *testing.T) {
	app := buildAPI(t, 0)
	f := seed(t, app)

	var receipt dto.MovementResponse
	create(t, app, "/api/inventory/receipts", map[string]any{
		"product_id": f.productID, "lot_id": f.lotA, "quantity": "3", "unit_cost": "9000",
	}, &receipt)
	var transfer dto.TransferResponse
	create(t, app, "/api/inventory/transfers", map[string]any{
		"product_id": f.productID, "origin_lot_id": f.lotA, "destination_lot_id": f.lotB, "quantity": "1", "reference": "TRF-MANUAL",
	}, &transfer)

	req := httptest.NewRequest(http.MethodGet, "/api/inventory/transfers/TRF-MANUAL/slip", nil)
	req.Header.Set("Authorization", tokenForRole(t, "bodeguero"))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	body, _ := io.ReadAll(resp.Body)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))
}

func TestAPI_DomainErrorsMapToStatus(t *testing.T) {
	app := buildAPI(t, 0)
	f := seed(t, app)

	status, raw := call(t, app, http.MethodPost, "/api/inventory/consumptions", "vendedor", map[string]any{
		"product_id": f.productID, "lot_id": f.lotA, "quantity": "1",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INSUFFICIENT_STOCK", errorCode(t, raw))

	status, raw = call(t, app, http.MethodPost, "/api/inventory/transfers", "bodeguero", map[string]any{
		"product_id": f.productID, "origin_lot_id": f.lotA, "destination_lot_id": f.lotA, "quantity": "1",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", errorCode(t, raw))

	status, raw = call(t, app, http.MethodPost, "/api/inventory/receipts", "bodeguero", map[string]any{
		"product_id": f.productID, "lot_id": f.lotA, "quantity": "0", "unit_cost": "1",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_QUANTITY", errorCode(t, raw))

	status, raw = call(t, app, http.MethodPost, "/api/inventory/receipts", "bodeguero", map[string]any{
		"product_id": "no-existe", "lot_id": f.lotA, "quantity": "1", "unit_cost": "1",
	})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(t, raw))

	status, raw = call(t, app, http.MethodPost, "/api/products", "admin", map[string]any{"sku": "FIL-ACE-01", "name": "Duplicado"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "DUPLICATE", errorCode(t, raw))

	status, _ = call(t, app, http.MethodPost, "/api/inventory/receipts", "bodeguero", map[string]any{
		"product_id": f.productID, "lot_id": f.lotA, "quantity": "2", "unit_cost": "1",
	})
	require.Equal(t, http.StatusCreated, status)

	status, raw = call(t, app, http.MethodDelete, "/api/warehouses/"+f.mainWH, "admin", nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "HAS_DEPENDENT_STOCK", errorCode(t, raw))

	status, raw = call(t, app, http.MethodPost, "/api/lots/"+f.lotA+"/deactivate", "admin", nil)
	assert.Equal(t, http.StatusConflict, status, "un lote con stock no se desactiva")
	assert.Equal(t, "HAS_DEPENDENT_STOCK", errorCode(t, raw))

	status, raw = call(t, app, http.MethodGet, "/api/inventory/movements?from=ayer", "admin", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", errorCode(t, raw))
}

func TestAPI_RolesAreEnforced(t *testing.T) {
	app := buildAPI(t, 0)
	f := seed(t, app)

	status, _ := call(t, app, http.MethodPost, "/api/products", "vendedor", map[string]any{"sku": "X", "name": "X"})
	assert.Equal(t, http.StatusForbidden, status, "vendedor no administra el catálogo")

	status, _ = call(t, app, http.MethodPost, "/api/inventory/receipts", "vendedor", map[string]any{
		"product_id": f.productID, "lot_id": f.lotA, "quantity": "1", "unit_cost": "1",
	})
	assert.Equal(t, http.StatusForbidden, status, "vendedor no recibe mercancía")

	status, _ = call(t, app, http.MethodPost, "/api/inventory/adjustments", "bodeguero", map[string]any{
		"product_id": f.productID, "lot_id": f.lotA, "delta": "1",
	})
	assert.Equal(t, http.StatusForbidden, status, "los ajustes son solo de admin")

	status, _ = call(t, app, http.MethodGet, "/api/inventory/low-stock", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAPI_IdempotentReceiptOverHTTP(t *testing.T) {
	app := buildAPI(t, 0)
	f := seed(t, app)
	body := map[string]any{
		"product_id": f.productID, "lot_id": f.lotA, "quantity": "5", "unit_cost": "100", "idempotency_key": "po:OC-9:1",
	}

	var first, second dto.MovementResponse
	create(t, app, "/api/inventory/receipts", body, &first)
	create(t, app, "/api/inventory/receipts", body, &second)
	assert.Equal(t, first.ID, second.ID, "el reintento devuelve el movimiento original")

	status, raw := call(t, app, http.MethodGet, "/api/inventory/products/"+f.productID+"/stock", "admin", nil)
	require.Equal(t, http.StatusOK, status)
	var onHand dto.StockOnHandResponse
	require.NoError(t, json.Unmarshal(raw, &onHand))
	assert.True(t, onHand.Quantity.Equal(decimal.NewFromInt(5)), "la recepción se aplica una sola vez")
}

func TestAPI_LowStockAndReplenishment(t *testing.T) {
	app := buildAPI(t, 0)
	f := seed(t, app)

	status, raw := call(t, app, http.MethodGet, "/api/inventory/low-stock", "vendedor", nil)
	require.Equal(t, http.StatusOK, status)
	var low []dto.ProductStockResponse
	require.NoError(t, json.Unmarshal(raw, &low))
	require.Len(t, low, 1)
	assert.Equal(t, f.productID, low[0].ProductID)

	status, raw = call(t, app, http.MethodGet, "/api/inventory/replenishment", "bodeguero", nil)
	require.Equal(t, http.StatusOK, status)
	var suggestions []dto.ReplenishmentSuggestionDTO
	require.NoError(t, json.Unmarshal(raw, &suggestions))
	require.Len(t, suggestions, 1)
	assert.True(t, suggestions[0].SuggestedOrderQty.Equal(decimal.NewFromInt(40)), "se pide hasta el máximo")

	status, raw = call(t, app, http.MethodGet, "/api/inventory/over-stock", "vendedor", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, "[]", string(raw))
}

func TestAPI_RateLimitOnMutations(t *testing.T) {
	app := buildAPI(t, 1)
	f := seed(t, app)
	body := map[string]any{"product_id": f.productID, "lot_id": f.lotA, "quantity": "1", "unit_cost": "1"}

	status, _ := call(t, app, http.MethodPost, "/api/inventory/receipts", "admin", body)
	assert.Equal(t, http.StatusCreated, status)

	status, raw := call(t, app, http.MethodPost, "/api/inventory/receipts", "admin", body)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "RATE_LIMITED", errorCode(t, raw))

	status, _ = call(t, app, http.MethodGet, "/api/inventory/low-stock", "admin", nil)
	assert.Equal(t, http.StatusOK, status, "las consultas no tienen límite")
}

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
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	appinv "github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/application/usecase"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/lock"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/inventory-ledger/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/inventory-ledger/pkg/jwt"
)

// ledgerApp API completa sobre el almacenamiento en memoria con reloj fijo (2025-01-12 12:00 UTC).
func ledgerApp(t *testing.T) *fiber.App {
	t.Helper()
	store := memory.New()
	now := time.Date(2025, 1, 12, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	ledger := appinv.NewLedgerUseCase(store, lock.NewMemoryLocker(), nil, nil)
	ledger.SetClock(clock)
	balance := appinv.NewBalanceUseCase(store, time.UTC, nil)
	balance.SetClock(clock)

	app := fiber.New(apphttp.FiberConfig("inventory-ledger-test"))
	apphttp.Router(app, apphttp.RouterDeps{
		Ledger:   ledger,
		Balance:  balance,
		Catalog:  usecase.NewMaterialUseCase(store, nil),
		Verifier: testVerifier(t),
	})
	return app
}

func tokenFor(t *testing.T, companyID, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, companyID, role, testIssuer, testExpMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

func call(t *testing.T, app *fiber.App, method, path, auth string, body any) *http.Response {
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
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func createMaterial(t *testing.T, app *fiber.App, auth, code string, composite bool) dto.MaterialResponse {
	t.Helper()
	resp := call(t, app, http.MethodPost, "/api/materials", auth, dto.CreateMaterialRequest{
		Code: code, Name: "Material " + code, Unit: "kg", IsComposite: composite,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[dto.MaterialResponse](t, resp)
}

func TestInventoryAPI_RecepcionConsumoYConsultas(t *testing.T) {
	app := ledgerApp(t)
	admin := tokenFor(t, testCompanyID, pkgjwt.RoleAdmin)
	m := createMaterial(t, app, admin, "HAR-01", false)

	resp := call(t, app, http.MethodPost, "/api/inventory/receipts", admin, dto.ReceiveRequest{
		MaterialID: m.ID, Quantity: decimal.NewFromInt(100), UnitCost: decimal.NewFromInt(5),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	received := decode[dto.ReceiveResponse](t, resp)
	require.Len(t, received.Batches, 1)
	assert.False(t, received.Decomposed)

	resp = call(t, app, http.MethodPost, "/api/inventory/consumptions", admin, dto.ConsumeRequest{
		MaterialID: m.ID, Quantity: decimal.NewFromInt(130),
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	errBody := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "INSUFFICIENT_STOCK", errBody.Code)
	assert.Equal(t, m.ID, errBody.Details["material_id"])
	assert.Equal(t, "130", errBody.Details["requested"])
	assert.Equal(t, "100", errBody.Details["available"])

	resp = call(t, app, http.MethodPost, "/api/inventory/consumptions", admin, dto.ConsumeRequest{
		MaterialID: m.ID, Quantity: decimal.NewFromInt(30),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	consumed := decode[dto.ConsumeResponse](t, resp)
	assert.Equal(t, "sale", consumed.MovementType)
	assert.True(t, consumed.TotalCost.Equal(decimal.NewFromInt(150)))

	resp = call(t, app, http.MethodGet, "/api/inventory/materials/"+m.ID+"/stock", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stock := decode[dto.StockResponse](t, resp)
	assert.True(t, stock.OnHand.Equal(decimal.NewFromInt(70)))
	assert.True(t, stock.Value.Equal(decimal.NewFromInt(350)))

	resp = call(t, app, http.MethodGet, "/api/inventory/materials/"+m.ID+"/movements?order=asc", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	movs := decode[dto.MovementListResponse](t, resp)
	require.Len(t, movs.Items, 2)
	assert.Equal(t, "receipt", movs.Items[0].MovementType)
	assert.Equal(t, "sale", movs.Items[1].MovementType)
	assert.True(t, movs.Items[1].Quantity.Equal(decimal.NewFromInt(-30)))

	resp = call(t, app, http.MethodGet, "/api/inventory/materials/"+m.ID+"/movements?type=receipt", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[dto.MovementListResponse](t, resp).Items, 1)

	resp = call(t, app, http.MethodGet, "/api/inventory/materials/"+m.ID+"/balance-history?from=2025-01-10&to=2025-01-20", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	hist := decode[dto.BalanceHistoryResponse](t, resp)
	assert.Equal(t, "2025-01-12", hist.To, "to se recorta a hoy")
	require.Len(t, hist.Points, 3)
	assert.True(t, hist.Points[0].Stock.IsZero())
	assert.True(t, hist.Points[2].Stock.Equal(decimal.NewFromInt(70)))

	resp = call(t, app, http.MethodGet, "/api/inventory/materials/"+m.ID+"/movement-summary?from=2025-01-12&to=2025-01-12", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]dto.MovementSummaryRow](t, resp), 2)

	resp = call(t, app, http.MethodGet, "/api/inventory/materials/"+m.ID+"/batches?available=true", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	batches := decode[dto.BatchListResponse](t, resp)
	require.Len(t, batches.Items, 1)
	assert.True(t, batches.Items[0].RemainingQuantity.Equal(decimal.NewFromInt(70)))

	resp = call(t, app, http.MethodGet, "/api/inventory/materials/"+m.ID+"/reconcile", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rec := decode[dto.ReconcileResponse](t, resp)
	assert.True(t, rec.Consistent)
	assert.Equal(t, 2, rec.Movements)

	resp = call(t, app, http.MethodGet, "/api/inventory/stock-overview", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	overview := decode[[]dto.StockOverviewRow](t, resp)
	require.Len(t, overview, 1)
	assert.Equal(t, "HAR-01", overview[0].Code)
}

func TestInventoryAPI_DevolucionYAjuste(t *testing.T) {
	app := ledgerApp(t)
	admin := tokenFor(t, testCompanyID, pkgjwt.RoleAdmin)
	m := createMaterial(t, app, admin, "AZU-01", false)

	resp := call(t, app, http.MethodPost, "/api/inventory/receipts", admin, dto.ReceiveRequest{
		MaterialID: m.ID, Quantity: decimal.NewFromInt(10), UnitCost: decimal.NewFromInt(2),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	batchID := decode[dto.ReceiveResponse](t, resp).Batches[0].Batch.ID

	resp = call(t, app, http.MethodPost, "/api/inventory/batches/"+batchID+"/adjustments", admin, dto.BatchMovementRequest{
		Quantity: decimal.NewFromInt(-10),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	adjusted := decode[dto.BatchMovementResponse](t, resp)
	assert.True(t, adjusted.Batch.IsDepleted)

	resp = call(t, app, http.MethodPost, "/api/inventory/batches/"+batchID+"/returns", admin, dto.BatchMovementRequest{
		Quantity: decimal.NewFromInt(4),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	returned := decode[dto.BatchMovementResponse](t, resp)
	assert.False(t, returned.Batch.IsDepleted)
	assert.True(t, returned.Batch.RemainingQuantity.Equal(decimal.NewFromInt(4)))

	resp = call(t, app, http.MethodPost, "/api/inventory/batches/"+batchID+"/returns", admin, dto.BatchMovementRequest{
		Quantity: decimal.NewFromInt(-1),
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, "devolución negativa contradice el tipo")

	resp = call(t, app, http.MethodPost, "/api/inventory/batches/no-existe/returns", admin, dto.BatchMovementRequest{
		Quantity: decimal.NewFromInt(1),
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestInventoryAPI_Compuesto(t *testing.T) {
	app := ledgerApp(t)
	admin := tokenFor(t, testCompanyID, pkgjwt.RoleAdmin)
	mix := createMaterial(t, app, admin, "MIX-01", true)
	oil := createMaterial(t, app, admin, "OIL-01", false)

	// Sin componentes la descomposición no tiene receta.
	resp := call(t, app, http.MethodPost, "/api/inventory/receipts", admin, dto.ReceiveRequest{
		MaterialID: mix.ID, Quantity: decimal.NewFromInt(10), UnitCost: decimal.NewFromInt(6),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	plain := decode[dto.ReceiveResponse](t, resp)
	assert.NotEmpty(t, plain.Warning)
	resp = call(t, app, http.MethodPost, "/api/inventory/batches/"+plain.Batches[0].Batch.ID+"/decompose", admin, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "CONFIGURATION", decode[dto.ErrorResponse](t, resp).Code)

	resp = call(t, app, http.MethodPost, "/api/materials/"+mix.ID+"/compositions", admin, dto.CreateCompositionRequest{
		ComponentMaterialID: oil.ID, ComponentType: "oil", Ratio: decimal.RequireFromString("0.5"),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = call(t, app, http.MethodPost, "/api/inventory/batches/"+plain.Batches[0].Batch.ID+"/decompose", admin, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	dec := decode[dto.DecomposeResponse](t, resp)
	require.Len(t, dec.Components, 1)
	assert.True(t, dec.Components[0].Batch.QuantityReceived.Equal(decimal.NewFromInt(5)))
	assert.True(t, dec.SourceBatch.IsDepleted)
}

func TestInventoryAPI_ComposicionSobreviveAOtrasPeticiones(t *testing.T) {
	app := ledgerApp(t)
	admin := tokenFor(t, testCompanyID, pkgjwt.RoleAdmin)
	mix := createMaterial(t, app, admin, "MIX-02", true)
	oil := createMaterial(t, app, admin, "OIL-02", false)

	resp := call(t, app, http.MethodPost, "/api/materials/"+mix.ID+"/compositions", admin, dto.CreateCompositionRequest{
		ComponentMaterialID: oil.ID, ComponentType: "oil", Ratio: decimal.RequireFromString("0.4"),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Peticiones ajenas con rutas de otra longitud reutilizan los buffers de la anterior.
	resp = call(t, app, http.MethodGet, "/api/inventory/materials/"+oil.ID+"/stock", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = call(t, app, http.MethodGet, "/api/materials?limit=5", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = call(t, app, http.MethodGet, "/api/materials/"+mix.ID+"/compositions", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[dto.CompositionListResponse](t, resp)
	require.Len(t, list.Items, 1)
	assert.Equal(t, mix.ID, list.Items[0].CompositeMaterialID)

	resp = call(t, app, http.MethodPost, "/api/inventory/receipts", admin, dto.ReceiveRequest{
		MaterialID: mix.ID, Quantity: decimal.NewFromInt(10), UnitCost: decimal.NewFromInt(2),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	received := decode[dto.ReceiveResponse](t, resp)
	assert.True(t, received.Decomposed)
	require.Len(t, received.Batches, 1)
	assert.Equal(t, oil.ID, received.Batches[0].Batch.MaterialID)
	assert.True(t, received.Batches[0].Batch.QuantityReceived.Equal(decimal.NewFromInt(4)))
}

func TestInventoryAPI_Permisos(t *testing.T) {
	app := ledgerApp(t)
	admin := tokenFor(t, testCompanyID, pkgjwt.RoleAdmin)
	vendedor := tokenFor(t, testCompanyID, pkgjwt.RoleVendedor)
	otra := tokenFor(t, "otra-empresa", pkgjwt.RoleAdmin)
	m := createMaterial(t, app, admin, "SAL-01", false)

	resp := call(t, app, http.MethodPost, "/api/inventory/receipts", vendedor, dto.ReceiveRequest{
		MaterialID: m.ID, Quantity: decimal.NewFromInt(1), UnitCost: decimal.NewFromInt(1),
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "vendedor no recibe mercancía")

	resp = call(t, app, http.MethodPost, "/api/inventory/consumptions", vendedor, dto.ConsumeRequest{
		MaterialID: m.ID, Quantity: decimal.NewFromInt(1),
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "vendedor puede consumir; falla solo por stock")

	resp = call(t, app, http.MethodGet, "/api/inventory/materials/"+m.ID+"/stock", vendedor, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = call(t, app, http.MethodGet, "/api/inventory/materials/"+m.ID+"/stock", otra, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = call(t, app, http.MethodGet, "/api/inventory/materials/"+m.ID+"/stock", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestInventoryAPI_Validaciones(t *testing.T) {
	app := ledgerApp(t)
	admin := tokenFor(t, testCompanyID, pkgjwt.RoleAdmin)
	m := createMaterial(t, app, admin, "LEV-01", false)

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"cantidad cero", http.MethodPost, "/api/inventory/receipts", dto.ReceiveRequest{MaterialID: m.ID, UnitCost: decimal.NewFromInt(1)}, http.StatusBadRequest, "VALIDATION"},
		{"más de seis decimales", http.MethodPost, "/api/inventory/receipts", dto.ReceiveRequest{MaterialID: m.ID, Quantity: decimal.RequireFromString("1.0000001"), UnitCost: decimal.NewFromInt(1)}, http.StatusBadRequest, "VALIDATION"},
		{"tipo de consumo de entrada", http.MethodPost, "/api/inventory/consumptions", dto.ConsumeRequest{MaterialID: m.ID, Quantity: decimal.NewFromInt(1), MovementType: "receipt"}, http.StatusUnprocessableEntity, "INVALID_STATE"},
		{"tipo desconocido", http.MethodPost, "/api/inventory/consumptions", dto.ConsumeRequest{MaterialID: m.ID, Quantity: decimal.NewFromInt(1), MovementType: "robo"}, http.StatusBadRequest, "VALIDATION"},
		{"fecha mal formada", http.MethodGet, "/api/inventory/materials/" + m.ID + "/balance-history?from=10-01-2025", nil, http.StatusBadRequest, "VALIDATION"},
		{"rango invertido", http.MethodGet, "/api/inventory/materials/" + m.ID + "/balance-history?from=2025-01-12&to=2025-01-01", nil, http.StatusBadRequest, "VALIDATION"},
		{"filtro de tipo desconocido", http.MethodGet, "/api/inventory/materials/" + m.ID + "/movements?type=robo", nil, http.StatusBadRequest, "VALIDATION"},
		{"material inexistente", http.MethodGet, "/api/inventory/materials/no-existe/stock", nil, http.StatusNotFound, "NOT_FOUND"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := call(t, app, tc.method, tc.path, admin, tc.body)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, tc.code, decode[dto.ErrorResponse](t, resp).Code)
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/inventory/receipts", bytes.NewBufferString("{no-json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", admin)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_BODY", decode[dto.ErrorResponse](t, resp).Code)
}

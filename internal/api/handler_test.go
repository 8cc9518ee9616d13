package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"veira-pos/internal/assistant"
	"veira-pos/internal/models"
	"veira-pos/internal/service"
	"veira-pos/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func setupRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)

	m := store.NewMemoryStore()
	blob, err := models.EncodeState(&models.AppState{
		Products: []models.Product{
			{ID: "SUG-1", Name: "Sugar 1kg", Price: decimal.NewFromInt(210), Cost: decimal.NewFromInt(185), Stock: 45, Category: models.CategoryFood},
			{ID: "GAS-6", Name: "Gas Refill 6kg", Price: decimal.NewFromInt(1250), Cost: decimal.NewFromInt(1100), Stock: 4, Category: models.CategoryHousehold},
		},
		Transactions: []models.Transaction{{
			ID:            "VRA-OLD",
			Timestamp:     testNow.Add(-2 * time.Hour).UnixMilli(),
			Items:         []models.CartItem{{
				Product:  models.Product{ID: "MLK-1", Name: "Milk 500ml", Price: decimal.NewFromInt(100), Cost: decimal.NewFromInt(80), Category: models.CategoryFood},
				Quantity: 1,
			}},
			Subtotal:      decimal.NewFromInt(100),
			TaxRate:       decimal.NewFromInt(16),
			Total:         decimal.NewFromInt(116),
			VAT:           decimal.NewFromInt(16),
			CostOfGoods:   decimal.NewFromInt(80),
			PaymentMethod: models.PaymentMpesa,
		}},
		Settings: models.DefaultSettings(),
	})
	require.NoError(t, err)
	m.Put(blob)

	pos := service.NewPOSService(m, nil, service.Options{Now: func() time.Time { return testNow }})
	require.NoError(t, pos.Load(context.Background()))
	insights := service.NewInsightsService(pos, assistant.NewClient("", "", time.Second, 10), time.Minute)

	router := gin.New()
	NewHandler(pos, insights).SetupRoutes(router)
	return router
}

func do(r *gin.Engine, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealthCheck(t *testing.T) {
	r := setupRouter(t)

	w := do(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode(t, w)["status"])

	w = do(r, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoginReturnsLandingView(t *testing.T) {
	r := setupRouter(t)

	w := do(r, http.MethodPost, "/api/v1/session/login", `{"role":"Cashier"}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["authenticated"])
	assert.Equal(t, "pos", body["landingView"])

	w = do(r, http.MethodPost, "/api/v1/session/login", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/v1/session/login", `{"role":"Janitor"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProductCostHiddenFromCashier(t *testing.T) {
	r := setupRouter(t)

	w := do(r, http.MethodGet, "/api/v1/products/SUG-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "185", decode(t, w)["cost"])

	do(r, http.MethodPost, "/api/v1/session/login", `{"role":"Cashier"}`)
	w = do(r, http.MethodGet, "/api/v1/products/SUG-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	_, hasCost := decode(t, w)["cost"]
	assert.False(t, hasCost)
}

func TestListProductsFilters(t *testing.T) {
	r := setupRouter(t)

	w := do(r, http.MethodGet, "/api/v1/products?category=Household", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["products"], 1)

	w = do(r, http.MethodGet, "/api/v1/products?category=Toys", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/api/v1/products/low-stock", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["products"], 1)

	w = do(r, http.MethodGet, "/api/v1/products/regulated", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["products"], 1)

	w = do(r, http.MethodGet, "/api/v1/products/NOPE", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProductLifecycle(t *testing.T) {
	r := setupRouter(t)

	w := do(r, http.MethodPost, "/api/v1/products", `{"name":"Bread","price":"60","cost":"48","stock":20}`)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode(t, w)
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "Other", created["category"])

	w = do(r, http.MethodPut, "/api/v1/products/"+id, `{"name":"Bread 400g","price":"65","cost":"48","stock":20,"category":"Food & Drinks"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Bread 400g", decode(t, w)["name"])

	w = do(r, http.MethodDelete, "/api/v1/products/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["removed"])

	w = do(r, http.MethodDelete, "/api/v1/products/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["removed"])
}

func TestCatalogEditForbiddenForCashier(t *testing.T) {
	r := setupRouter(t)
	do(r, http.MethodPost, "/api/v1/session/login", `{"role":"Cashier"}`)

	w := do(r, http.MethodPost, "/api/v1/products", `{"name":"Bread","price":"60","cost":"48","stock":20}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCartAndCheckout(t *testing.T) {
	r := setupRouter(t)

	w := do(r, http.MethodPost, "/api/v1/cart/items", `{"product_id":"SUG-1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	w = do(r, http.MethodPatch, "/api/v1/cart/items/SUG-1", `{"delta":1}`)
	require.Equal(t, http.StatusOK, w.Code)
	totals := decode(t, w)["totals"].(map[string]interface{})
	assert.Equal(t, "420", totals["subtotal"])
	assert.Equal(t, "487.2", totals["total"])

	w = do(r, http.MethodPost, "/api/v1/checkout", `{"payment_method":"M-PESA"}`, "Idempotency-Key", "till-1-0001")
	require.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["replayed"])
	tx := body["transaction"].(map[string]interface{})
	assert.Equal(t, "487.2", tx["total"])
	assert.Equal(t, "M-PESA", tx["paymentMethod"])

	w = do(r, http.MethodGet, "/api/v1/cart", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["items"])

	w = do(r, http.MethodPost, "/api/v1/checkout", `{"payment_method":"M-PESA"}`, "Idempotency-Key", "till-1-0001")
	require.Equal(t, http.StatusOK, w.Code)
	replay := decode(t, w)
	assert.Equal(t, true, replay["replayed"])
	assert.Equal(t, tx["id"], replay["transaction"].(map[string]interface{})["id"])

	w = do(r, http.MethodGet, "/api/v1/products/SUG-1", "")
	assert.Equal(t, float64(43), decode(t, w)["stock"])
}

func TestCheckoutErrors(t *testing.T) {
	r := setupRouter(t)

	w := do(r, http.MethodPost, "/api/v1/checkout", `{"payment_method":"CASH"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(r, http.MethodPost, "/api/v1/checkout", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/v1/checkout", `{"payment_method":"BARTER"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPatch, "/api/v1/cart/items/SUG-1", `{"delta":-1}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTransactionsAndReports(t *testing.T) {
	r := setupRouter(t)

	w := do(r, http.MethodGet, "/api/v1/transactions", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["transactions"], 1)

	w = do(r, http.MethodGet, "/api/v1/transactions?flagged=true", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["transactions"])

	w = do(r, http.MethodGet, "/api/v1/transactions?flagged=maybe", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/api/v1/transactions/VRA-OLD", "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(r, http.MethodGet, "/api/v1/transactions/VRA-NONE", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodGet, "/api/v1/transactions/audit", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode(t, w)["flagged"])

	w = do(r, http.MethodGet, "/api/v1/reports/totals", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/api/v1/reports/payment-methods", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["methods"], 3)

	w = do(r, http.MethodGet, "/api/v1/reports/daily?days=3", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["days"], 3)

	w = do(r, http.MethodGet, "/api/v1/reports/daily?days=0", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/api/v1/reports/inventory-valuation", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "12725", decode(t, w)["valuation"])
}

func TestExports(t *testing.T) {
	r := setupRouter(t)

	w := do(r, http.MethodGet, "/api/v1/exports/sales.csv", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, w.Body.String(), "VRA-OLD")

	w = do(r, http.MethodGet, "/api/v1/exports/tax-report.txt", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "KRA PIN: P051XXXXXXX")

	w = do(r, http.MethodGet, "/api/v1/exports/audit-pack.csv", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "--- MONEY SUMMARY ---")

	do(r, http.MethodPost, "/api/v1/session/login", `{"role":"Stock Manager"}`)
	w = do(r, http.MethodGet, "/api/v1/exports/sales.csv", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSettingsUpdate(t *testing.T) {
	r := setupRouter(t)

	w := do(r, http.MethodPut, "/api/v1/settings", `{"businessName":"Duka La Juma","vatRate":"8"}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Duka La Juma", body["businessName"])
	assert.Equal(t, "8", body["vatRate"])

	w = do(r, http.MethodPut, "/api/v1/settings", `{"vatRate":"-1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAssistantFallbacks(t *testing.T) {
	r := setupRouter(t)

	w := do(r, http.MethodGet, "/api/v1/insights", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, assistant.InsightFallback, decode(t, w)["insight"])

	w = do(r, http.MethodPost, "/api/v1/assistant/chat", `{"message":"How are sales today?"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, assistant.ChatFallback, decode(t, w)["reply"])

	w = do(r, http.MethodPost, "/api/v1/assistant/chat", `{"message":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStockManagerUpdateKeepsCost(t *testing.T) {
	r := setupRouter(t)
	do(r, http.MethodPost, "/api/v1/session/login", `{"role":"Stock Manager"}`)

	w := do(r, http.MethodPut, "/api/v1/products/SUG-1", `{"name":"Sugar 1kg","price":"210","stock":60,"category":"Food & Drinks"}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	_, hasCost := body["cost"]
	assert.False(t, hasCost)
	assert.Equal(t, float64(60), body["stock"])

	w = do(r, http.MethodPut, "/api/v1/products/SUG-1", `{"name":"Sugar 1kg","price":"210","cost":"1","stock":60,"category":"Food & Drinks"}`)
	require.Equal(t, http.StatusOK, w.Code)

	do(r, http.MethodPost, "/api/v1/session/login", `{"role":"Business Owner"}`)
	w = do(r, http.MethodGet, "/api/v1/products/SUG-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "185", decode(t, w)["cost"])

	// 60 x 185 + 4 x 1100
	w = do(r, http.MethodGet, "/api/v1/reports/inventory-valuation", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "15500", decode(t, w)["valuation"])
}

func TestOwnerUpdateWithoutCostKeepsCost(t *testing.T) {
	r := setupRouter(t)

	w := do(r, http.MethodPut, "/api/v1/products/SUG-1", `{"name":"Sugar 1kg","price":"215","stock":45,"category":"Food & Drinks"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "185", decode(t, w)["cost"])

	w = do(r, http.MethodPut, "/api/v1/products/SUG-1", `{"name":"Sugar 1kg","price":"215","cost":"190","stock":45,"category":"Food & Drinks"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "190", decode(t, w)["cost"])
}

func TestCatalogResponsesHideCost(t *testing.T) {
	r := setupRouter(t)
	do(r, http.MethodPost, "/api/v1/session/login", `{"role":"Store Manager"}`)

	w := do(r, http.MethodPost, "/api/v1/products", `{"name":"Bread","price":"60","cost":"48","stock":20}`)
	require.Equal(t, http.StatusCreated, w.Code)
	_, hasCost := decode(t, w)["cost"]
	assert.False(t, hasCost)

	w = do(r, http.MethodPut, "/api/v1/products/GAS-6", `{"name":"Gas Refill 6kg","price":"1300","stock":4,"category":"Household"}`)
	require.Equal(t, http.StatusOK, w.Code)
	_, hasCost = decode(t, w)["cost"]
	assert.False(t, hasCost)
}

func TestReportsHideCostFromCashier(t *testing.T) {
	r := setupRouter(t)

	w := do(r, http.MethodGet, "/api/v1/reports/totals", "")
	require.Equal(t, http.StatusOK, w.Code)
	owner := decode(t, w)
	assert.Equal(t, "80", owner["costOfGoods"])
	assert.Equal(t, "36", owner["grossProfit"])

	do(r, http.MethodPost, "/api/v1/session/login", `{"role":"Cashier"}`)
	w = do(r, http.MethodGet, "/api/v1/reports/totals", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "116", body["revenue"])
	for _, field := range []string{"costOfGoods", "grossProfit", "marginPct"} {
		_, ok := body[field]
		assert.False(t, ok, field)
	}

	w = do(r, http.MethodGet, "/api/v1/reports/daily?days=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	day := decode(t, w)["days"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "116", day["revenue"])
	_, hasProfit := day["profit"]
	assert.False(t, hasProfit)
}

func TestListCategories(t *testing.T) {
	r := setupRouter(t)

	w := do(r, http.MethodGet, "/api/v1/categories", "")
	require.Equal(t, http.StatusOK, w.Code)
	cats := decode(t, w)["categories"].([]interface{})
	require.Len(t, cats, 6)
	assert.Equal(t, "Food & Drinks", cats[0])
}

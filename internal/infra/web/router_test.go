package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DioGolang/GoStock/internal/application/usecase/order"
	"github.com/DioGolang/GoStock/internal/application/usecase/product"
	"github.com/DioGolang/GoStock/internal/application/usecase/transaction"
	"github.com/DioGolang/GoStock/internal/infra/database"
	"github.com/DioGolang/GoStock/internal/infra/web"
	"github.com/DioGolang/GoStock/internal/infra/web/handler"
	"github.com/DioGolang/GoStock/internal/infra/web/middleware"
	"github.com/DioGolang/GoStock/pkg/logger"
	"github.com/DioGolang/GoStock/pkg/metrics"
)

func newTestServer(t *testing.T, limiter *middleware.IPDispatcher) *httptest.Server {
	t.Helper()
	log := logger.NewNop()
	reg := prometheus.NewRegistry()
	m := metrics.NewPrometheusMetrics(reg, "test")
	factory := database.NewUnitOfWorkFactory(database.NewMemoryStore(), log, m)
	retry := transaction.RetryPolicy{Attempts: 20, BaseWait: time.Millisecond, MaxWait: 5 * time.Millisecond}

	health, err := handler.NewHealthHandler("gostock-test", "test",
		handler.WithCheck("store", func(context.Context) error { return nil }))
	require.NoError(t, err)

	router := web.NewRouter(web.RouterConfig{
		ServiceName:    "gostock-test",
		RequestTimeout: 5 * time.Second,
		Orders: handler.NewOrderHandler(
			order.NewCreateOrderUseCase(factory, log, m, retry),
			order.NewCancelOrderUseCase(factory, log, m, retry),
			order.NewGetOrderUseCase(factory, log),
			log,
		),
		Products: handler.NewProductHandler(
			product.NewCreateProductUseCase(factory, log),
			product.NewGetProductUseCase(factory, log),
			product.NewListProductsUseCase(factory, log),
			product.NewRestockProductUseCase(factory, log, m, retry),
			log,
		),
		Health:      health,
		Gatherer:    reg,
		RateLimiter: limiter,
		Logger:      log,
		Metrics:     m,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	if resp.ContentLength != 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		_ = json.NewDecoder(resp.Body).Decode(&decoded)
	}
	return resp, decoded
}

func createProduct(t *testing.T, srv *httptest.Server, name string, stock int) int64 {
	t.Helper()
	resp, body := do(t, srv, http.MethodPost, "/api/v1/products", map[string]any{
		"name": name, "price_cents": 1500, "stock": stock, "category": "books",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return int64(body["id"].(float64))
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	srv := newTestServer(t, nil)
	productID := createProduct(t, srv, "Go in Action", 10)

	resp, created := do(t, srv, http.MethodPost, "/api/v1/orders", map[string]any{
		"customer_name": "ana",
		"items":         []map[string]any{{"product_id": productID, "quantity": 2}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "CONFIRMED", created["status"])
	assert.EqualValues(t, 3000, created["total_cents"])
	orderID := int64(created["id"].(float64))
	assert.Equal(t, "/api/v1/orders/"+jsonNumber(orderID), resp.Header.Get("Location"))

	resp, fetched := do(t, srv, http.MethodGet, "/api/v1/orders/"+jsonNumber(orderID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ana", fetched["customer_name"])

	_, p := do(t, srv, http.MethodGet, "/api/v1/products/"+jsonNumber(productID), nil)
	assert.EqualValues(t, 8, p["stock"])

	resp, _ = do(t, srv, http.MethodPost, "/api/v1/orders/"+jsonNumber(orderID)+"/cancel", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodPost, "/api/v1/orders/"+jsonNumber(orderID)+"/cancel", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	_, p = do(t, srv, http.MethodGet, "/api/v1/products/"+jsonNumber(productID), nil)
	assert.EqualValues(t, 10, p["stock"])
}

func TestCreateOrderErrorsOverHTTP(t *testing.T) {
	srv := newTestServer(t, nil)
	productID := createProduct(t, srv, "Keyboard", 3)

	t.Run("insufficient stock carries details", func(t *testing.T) {
		resp, body := do(t, srv, http.MethodPost, "/api/v1/orders", map[string]any{
			"customer_name": "bob",
			"items":         []map[string]any{{"product_id": productID, "quantity": 10}},
		})
		require.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "Keyboard", body["product"])
		assert.EqualValues(t, 3, body["available"])
		assert.EqualValues(t, 10, body["requested"])
	})

	t.Run("unknown product", func(t *testing.T) {
		resp, _ := do(t, srv, http.MethodPost, "/api/v1/orders", map[string]any{
			"customer_name": "bob",
			"items":         []map[string]any{{"product_id": 999, "quantity": 1}},
		})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("validation", func(t *testing.T) {
		resp, _ := do(t, srv, http.MethodPost, "/api/v1/orders", map[string]any{
			"customer_name": "",
			"items":         []map[string]any{{"product_id": productID, "quantity": 1}},
		})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("malformed body", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/orders", strings.NewReader("{"))
		require.NoError(t, err)
		resp, err := srv.Client().Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown order", func(t *testing.T) {
		resp, _ := do(t, srv, http.MethodGet, "/api/v1/orders/42", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp, _ = do(t, srv, http.MethodPost, "/api/v1/orders/42/cancel", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("bad id", func(t *testing.T) {
		resp, _ := do(t, srv, http.MethodGet, "/api/v1/orders/abc", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	_, p := do(t, srv, http.MethodGet, "/api/v1/products/"+jsonNumber(productID), nil)
	assert.EqualValues(t, 3, p["stock"], "failed orders never touch stock")
}

func TestProductEndpoints(t *testing.T) {
	srv := newTestServer(t, nil)
	id := createProduct(t, srv, "Mouse", 1)

	resp, _ := do(t, srv, http.MethodPost, "/api/v1/products", map[string]any{
		"name": "", "price_cents": 10, "stock": 1, "category": "x",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, body := do(t, srv, http.MethodPost, "/api/v1/products/"+jsonNumber(id)+"/restock", map[string]any{"quantity": 4})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 5, body["stock"])

	resp, _ = do(t, srv, http.MethodPost, "/api/v1/products/"+jsonNumber(id)+"/restock", map[string]any{"quantity": 0})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodGet, "/api/v1/products/777", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	createProduct(t, srv, "Tea", 5)
	listResp, err := srv.Client().Get(srv.URL + "/api/v1/products?category=books")
	require.NoError(t, err)
	defer listResp.Body.Close()
	var list []map[string]any
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&list))
	assert.Len(t, list, 2)
}

func TestOperationalEndpoints(t *testing.T) {
	srv := newTestServer(t, nil)
	createProduct(t, srv, "Lamp", 1)

	resp, err := srv.Client().Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `path="/api/v1/products"`)
}

func TestRateLimitedAPI(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	limiter := middleware.NewRateLimiter(ctx, middleware.RateLimiterConfig{
		RequestsPerSecond: 0.001,
		Burst:             1,
		CleanupInterval:   time.Minute,
		ClientTimeout:     time.Minute,
	})
	srv := newTestServer(t, limiter)

	resp, _ := do(t, srv, http.MethodGet, "/api/v1/products", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = do(t, srv, http.MethodGet, "/api/v1/products", nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))

	resp, err := srv.Client().Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "operational endpoints are not limited")
}

func jsonNumber(id int64) string {
	raw, _ := json.Marshal(id)
	return string(raw)
}

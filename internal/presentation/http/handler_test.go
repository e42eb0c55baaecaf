package httppresentation

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	appcart "github.com/Zhima-Mochi/minishop-commerce/internal/application/cart"
	appinv "github.com/Zhima-Mochi/minishop-commerce/internal/application/inventory"
	apporder "github.com/Zhima-Mochi/minishop-commerce/internal/application/order"
	appstats "github.com/Zhima-Mochi/minishop-commerce/internal/application/statistics"
	"github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type client struct {
	t   *testing.T
	srv *httptest.Server
}

func newClient(t *testing.T) *client {
	t.Helper()
	tel := observability.Nop()
	catalog := memory.NewCatalog()
	ledger := memory.NewInventoryLedger()
	carts := memory.NewCartRepository()
	orders := memory.NewOrderRepository()

	h := NewHandler(Services{
		Cart: appcart.NewService(carts, catalog, ledger, nil, tel),
		Orders: apporder.NewService(apporder.Deps{
			Carts: carts, Catalog: catalog, Ledger: ledger, Orders: orders,
			IDGenerator: id.UUIDGenerator{}, Telemetry: tel,
		}),
		Statistics: appstats.NewEngine(orders, nil, tel),
		Inventory:  appinv.NewService(catalog, ledger, nil, nil, tel),
	}, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	}), tel)

	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return &client{t: t, srv: srv}
}

// do sends body as JSON on behalf of user and role, decoding the response into out when given.
func (c *client) do(method, path, user, role string, body, out any) *http.Response {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, c.srv.URL+path, &buf)
	require.NoError(c.t, err)
	if user != "" {
		req.Header.Set(headerUserID, user)
	}
	if role != "" {
		req.Header.Set(headerUserRole, role)
	}
	resp, err := c.srv.Client().Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func (c *client) seedProduct(id string, price string, stock int) {
	c.t.Helper()
	resp := c.do(http.MethodPut, "/admin/products/"+id, "root", "admin", map[string]any{
		"name": "Product " + id, "category": "misc", "price": price, "initial_stock": stock,
	}, nil)
	require.Equal(c.t, http.StatusOK, resp.StatusCode)
}

func TestIdentityIsRequired(t *testing.T) {
	c := newClient(t)
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/cart", "", "", nil, nil).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/cart", "alice", "wizard", nil, nil).StatusCode)
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/health", "", "", nil, nil).StatusCode)
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/metrics", "", "", nil, nil).StatusCode)
}

func TestRequestIDIsEchoed(t *testing.T) {
	c := newClient(t)
	req, err := http.NewRequest(http.MethodGet, c.srv.URL+"/cart", nil)
	require.NoError(t, err)
	req.Header.Set(headerUserID, "alice")
	req.Header.Set(headerRequestID, "req-42")
	resp, err := c.srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "req-42", resp.Header.Get(headerRequestID))

	resp = c.do(http.MethodGet, "/cart", "alice", "", nil, nil)
	assert.NotEmpty(t, resp.Header.Get(headerRequestID))
}

func TestCartToPaidOrder(t *testing.T) {
	c := newClient(t)
	c.seedProduct("1", "10.00", 5)

	var cart cartResponse
	resp := c.do(http.MethodPost, "/cart/items", "alice", "", map[string]any{"product_id": 1, "quantity": 2}, &cart)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, cart.Total.Equal(decimal.NewFromInt(20)))

	var placed orderResponse
	resp = c.do(http.MethodPost, "/orders", "alice", "", nil, &placed)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "PENDING_PAYMENT", string(placed.Status))
	require.Len(t, placed.Lines, 1)
	assert.Equal(t, "Product 1", placed.Lines[0].ProductName)

	var stock appinv.StockView
	c.do(http.MethodGet, "/products/1/stock", "alice", "", nil, &stock)
	assert.Equal(t, 3, stock.Available)

	c.do(http.MethodGet, "/cart", "alice", "", nil, &cart)
	assert.Empty(t, cart.Lines)

	var paid orderResponse
	resp = c.do(http.MethodPost, "/orders/"+placed.ID+"/payment", "alice", "", map[string]string{"method": "card"}, &paid)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "PAID", string(paid.Status))
	assert.Equal(t, "CARD", paid.PaymentMethod)

	assert.Equal(t, http.StatusConflict, c.do(http.MethodPost, "/orders/"+placed.ID+"/cancel", "alice", "", nil, nil).StatusCode)

	var st orderStatusResponse
	c.do(http.MethodGet, "/orders/"+placed.ID+"/status", "alice", "", nil, &st)
	assert.Equal(t, "PAID", string(st.Status))

	var delivered orderResponse
	resp = c.do(http.MethodPut, "/orders/"+placed.ID+"/delivery", "mia", "manager",
		map[string]string{"method": "standard", "address": "1 Quay St", "contact_phone": "+353871234567"}, &delivered)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "DELIVERED", string(delivered.Status))

	var page orderPageResponse
	c.do(http.MethodGet, "/users/alice/orders?page=0&size=5", "alice", "", nil, &page)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 5, page.Size)

	var far orderPageResponse
	resp = c.do(http.MethodGet, "/users/alice/orders?page=100000000000000000", "alice", "", nil, &far)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, far.Orders)
	assert.Equal(t, 1, far.Total)
}

func TestCancelRestoresStock(t *testing.T) {
	c := newClient(t)
	c.seedProduct("1", "3.50", 2)
	c.do(http.MethodPost, "/cart/items", "alice", "", map[string]any{"product_id": 1, "quantity": 2}, nil)

	var placed orderResponse
	c.do(http.MethodPost, "/orders", "alice", "", nil, &placed)

	var cancelled orderResponse
	resp := c.do(http.MethodPost, "/orders/"+placed.ID+"/cancel", "alice", "", nil, &cancelled)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "CANCELLED", string(cancelled.Status))

	var stock appinv.StockView
	c.do(http.MethodGet, "/products/1/stock", "alice", "", nil, &stock)
	assert.Equal(t, 2, stock.Available)
}

func TestErrorStatusCodes(t *testing.T) {
	c := newClient(t)
	c.seedProduct("1", "10", 1)
	c.do(http.MethodPost, "/cart/items", "alice", "", map[string]any{"product_id": 1, "quantity": 1}, nil)
	var placed orderResponse
	c.do(http.MethodPost, "/orders", "alice", "", nil, &placed)

	tests := []struct {
		name         string
		method, path string
		user, role   string
		body         any
		want         int
	}{
		{"empty cart", http.MethodPost, "/orders", "alice", "", nil, http.StatusBadRequest},
		{"unknown product", http.MethodPost, "/cart/items", "bob", "", map[string]any{"product_id": 9, "quantity": 1}, http.StatusNotFound},
		{"zero quantity", http.MethodPost, "/cart/items", "bob", "", map[string]any{"product_id": 1, "quantity": 0}, http.StatusBadRequest},
		{"more than available", http.MethodPost, "/cart/items", "bob", "", map[string]any{"product_id": 1, "quantity": 5}, http.StatusConflict},
		{"unknown field", http.MethodPost, "/cart/items", "bob", "", map[string]any{"sku": 1}, http.StatusBadRequest},
		{"bad product id", http.MethodDelete, "/cart/items/abc", "bob", "", nil, http.StatusBadRequest},
		{"line not in cart", http.MethodDelete, "/cart/items/1", "bob", "", nil, http.StatusNotFound},
		{"missing order", http.MethodGet, "/orders/nope", "alice", "", nil, http.StatusNotFound},
		{"foreign order", http.MethodGet, "/orders/" + placed.ID, "bob", "", nil, http.StatusForbidden},
		{"staff may read", http.MethodGet, "/orders/" + placed.ID, "mia", "manager", nil, http.StatusOK},
		{"bad payment method", http.MethodPost, "/orders/" + placed.ID + "/payment", "alice", "", map[string]string{"method": "IOU"}, http.StatusBadRequest},
		{"delivery before payment", http.MethodPut, "/orders/" + placed.ID + "/delivery", "alice", "", map[string]string{"method": "pickup", "address": "x", "contact_phone": "+3531234567"}, http.StatusConflict},
		{"user reads statistics", http.MethodGet, "/statistics/top-purchased", "alice", "", nil, http.StatusForbidden},
		{"bad profit query", http.MethodGet, "/statistics/profit?period_count=0&period_unit=DAYS&group_by=DAY", "mia", "manager", nil, http.StatusBadRequest},
		{"negative days", http.MethodGet, "/statistics/pending-payment?days=-1", "mia", "manager", nil, http.StatusBadRequest},
		{"non numeric limit", http.MethodGet, "/statistics/top-cancelled?limit=ten", "mia", "manager", nil, http.StatusBadRequest},
		{"user upserts product", http.MethodPut, "/admin/products/2", "alice", "", map[string]any{"name": "x", "price": "1"}, http.StatusForbidden},
		{"restock unknown product", http.MethodPost, "/admin/products/7/restock", "root", "admin", map[string]int{"quantity": 1}, http.StatusNotFound},
		{"unknown stock", http.MethodGet, "/products/7/stock", "alice", "", nil, http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := c.do(tc.method, tc.path, tc.user, tc.role, tc.body, nil)
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}

func TestStatisticsEndpoints(t *testing.T) {
	c := newClient(t)
	c.seedProduct("1", "10", 10)
	c.seedProduct("2", "4", 10)
	c.do(http.MethodPost, "/cart/items", "alice", "", map[string]any{"product_id": 1, "quantity": 3}, nil)
	c.do(http.MethodPost, "/cart/items", "alice", "", map[string]any{"product_id": 2, "quantity": 1}, nil)
	var placed orderResponse
	c.do(http.MethodPost, "/orders", "alice", "", nil, &placed)
	c.do(http.MethodPost, "/orders/"+placed.ID+"/payment", "alice", "", map[string]string{"method": "cash"}, nil)

	var top []appstats.ProductStat
	resp := c.do(http.MethodGet, "/statistics/top-purchased?limit=1", "mia", "manager", nil, &top)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, top, 1)
	assert.Equal(t, int64(1), top[0].ProductID)
	assert.Equal(t, 3, top[0].Quantity)

	var report appstats.ProfitReport
	resp = c.do(http.MethodGet, "/statistics/profit?period_count=2&period_unit=days&group_by=day", "root", "admin", nil, &report)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, report.Total.Equal(decimal.NewFromInt(34)))

	var ov appstats.Overview
	resp = c.do(http.MethodGet, "/statistics/overview", "mia", "manager", nil, &ov)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, ov.TopPurchased, 2)
	assert.Empty(t, ov.TopCancelled)
	assert.Len(t, ov.Profit.Buckets, 7)
}

func TestRestockEndpoint(t *testing.T) {
	c := newClient(t)
	c.seedProduct("1", "10", 0)

	var v appinv.StockView
	resp := c.do(http.MethodPost, "/admin/products/1/restock", "root", "admin", map[string]int{"quantity": 4}, &v)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 4, v.Available)

	resp = c.do(http.MethodPost, "/admin/products/1/restock", "root", "admin", map[string]int{"quantity": 0}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mmeshcher/keystore/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvelope(t *testing.T, w http.ResponseWriter, status int, body map[string]any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		t.Errorf("encode: %v", err)
	}
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestNewClient_AddsScheme(t *testing.T) {
	assert.Equal(t, "http://localhost:8080", NewClient("localhost:8080/").baseURL)
	assert.Equal(t, "https://shop.example", NewClient("https://shop.example").baseURL)
}

func TestClient_NotConfigured(t *testing.T) {
	_, err := NewClient("").Orders(context.Background())
	require.Error(t, err)
}

func TestProducts_DecodesPage(t *testing.T) {
	id := uuid.New()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/products", r.URL.Path)
		assert.Equal(t, "Action", r.URL.Query().Get("category"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))

		writeEnvelope(t, w, http.StatusOK, map[string]any{
			"success": true,
			"count":   1,
			"total":   13,
			"pagination": map[string]any{
				"page": 2, "limit": 12, "pages": 2, "hasNext": false, "hasPrev": true,
			},
			"data": []map[string]any{{"id": id, "name": "Witcher", "price": 100000}},
		})
	}))
	defer ts.Close()

	c := NewClient(ts.URL)
	page, err := c.Products(testContext(t), ProductQuery{Category: model.CategoryAction, Page: 2})
	require.NoError(t, err)

	require.Len(t, page.Items, 1)
	assert.Equal(t, id, page.Items[0].ID)
	assert.Equal(t, "100000", page.Items[0].Price.String())
	assert.Equal(t, int64(13), page.Total)
	assert.Equal(t, 2, page.Pagination.Pages)
	assert.True(t, page.Pagination.HasPrev)
}

func TestLogin_StoresToken(t *testing.T) {
	var gotAuth atomic.Value
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			var req model.LoginRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "buyer@example.com", req.Email)
			writeEnvelope(t, w, http.StatusOK, map[string]any{
				"success": true,
				"message": "Login successful",
				"data":    map[string]any{"token": "tok-1", "user": map[string]any{"email": req.Email}},
			})
		case "/api/orders":
			gotAuth.Store(r.Header.Get("Authorization"))
			writeEnvelope(t, w, http.StatusOK, map[string]any{"success": true, "data": []any{}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	c := NewClient(ts.URL)
	ctx := testContext(t)

	res, err := c.Login(ctx, "buyer@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", res.Token)

	orders, err := c.Orders(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Equal(t, "Bearer tok-1", gotAuth.Load())
}

func TestAPIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(t, w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "Validation failed",
			"errors":  []map[string]string{{"field": "items", "message": "Order must have at least one item"}},
		})
	}))
	defer ts.Close()

	_, err := NewClient(ts.URL).CreateOrder(testContext(t), model.CreateOrderRequest{})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Validation failed", apiErr.Message)
	require.Len(t, apiErr.Errors, 1)
	assert.Equal(t, "items", apiErr.Errors[0].Field)
	assert.Contains(t, apiErr.Error(), "items: Order must have at least one item")
}

func TestRetry_GetRetriedOnUnavailable(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			writeEnvelope(t, w, http.StatusServiceUnavailable, map[string]any{"success": false, "message": "down"})
			return
		}
		writeEnvelope(t, w, http.StatusOK, map[string]any{"success": true, "data": []any{}})
	}))
	defer ts.Close()

	items, err := NewClient(ts.URL).Slice(testContext(t), model.SliceFeatured)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRetry_PostNotRetriedAfterResponse(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = io.Copy(io.Discard, r.Body)
		writeEnvelope(t, w, http.StatusServiceUnavailable, map[string]any{"success": false, "message": "down"})
	}))
	defer ts.Close()

	_, err := NewClient(ts.URL).CreateOrder(testContext(t), model.CreateOrderRequest{})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRetry_PostNotRetriedAfterTimeout(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = io.Copy(io.Discard, r.Body)
		time.Sleep(300 * time.Millisecond)
		writeEnvelope(t, w, http.StatusCreated, map[string]any{"success": true, "data": map[string]any{}})
	}))
	defer ts.Close()

	c := NewClient(ts.URL)
	c.httpClient.HTTPClient.Timeout = 100 * time.Millisecond

	_, err := c.CreateOrder(testContext(t), model.CreateOrderRequest{})
	require.Error(t, err)

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCheckRetry(t *testing.T) {
	ctx := context.Background()
	dialErr := &url.Error{Op: "Post", URL: "http://shop", Err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}}
	readErr := &url.Error{Op: "Post", URL: "http://shop", Err: &net.OpError{Op: "read", Net: "tcp", Err: errors.New("connection reset by peer")}}
	unavailable := &http.Response{StatusCode: http.StatusServiceUnavailable}

	tests := []struct {
		name   string
		method string
		resp   *http.Response
		err    error
		want   bool
	}{
		{name: "post dial error", method: http.MethodPost, err: dialErr, want: true},
		{name: "post reset after send", method: http.MethodPost, err: readErr, want: false},
		{name: "put timeout", method: http.MethodPut, err: &url.Error{Op: "Put", URL: "http://shop", Err: context.DeadlineExceeded}, want: false},
		{name: "post 503", method: http.MethodPost, resp: unavailable, want: false},
		{name: "get reset", method: http.MethodGet, err: readErr, want: true},
		{name: "get 503", method: http.MethodGet, resp: unavailable, want: true},
		{name: "delete 503", method: http.MethodDelete, resp: unavailable, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			retry, err := checkRetry(withReplay(ctx, tt.method), tt.resp, tt.err)
			require.NoError(t, err)
			assert.Equal(t, tt.want, retry)
		})
	}
}

func TestCancelOrder(t *testing.T) {
	id := uuid.New()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/orders/"+id.String()+"/cancel", r.URL.Path)

		var req model.CancelOrderRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "changed mind", req.Reason)

		writeEnvelope(t, w, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"id": id, "status": "cancelled"},
		})
	}))
	defer ts.Close()

	o, err := NewClient(ts.URL).CancelOrder(testContext(t), id, "changed mind")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, o.Status)
}

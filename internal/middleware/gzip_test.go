package middleware

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cartPayload struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// echoCart возвращает полученную позицию корзины в конверте API.
func echoCart(w http.ResponseWriter, r *http.Request) {
	var in cartPayload
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": in})
}

func gzipped(t *testing.T, s string) io.Reader {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	return &buf
}

func readBody(t *testing.T, res *http.Response) string {
	t.Helper()
	var r io.Reader = res.Body
	if res.Header.Get("Content-Encoding") == "gzip" {
		gr, err := gzip.NewReader(res.Body)
		require.NoError(t, err)
		defer gr.Close()
		r = gr
	}
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(b)
}

func TestGzipMiddleware(t *testing.T) {
	const payload = `{"productId":"5f1d7c2e-0000-4000-8000-000000000001","quantity":2}`

	tests := []struct {
		name           string
		compressBody   bool
		acceptEncoding string
		wantStatus     int
		wantEncoding   string
		wantBody       string
	}{
		{
			name:           "plain request, gzip response",
			acceptEncoding: "gzip",
			wantStatus:     http.StatusOK,
			wantEncoding:   "gzip",
			wantBody:       `"quantity":2`,
		},
		{
			name:         "plain request, identity response",
			wantStatus:   http.StatusOK,
			wantEncoding: "",
			wantBody:     `"quantity":2`,
		},
		{
			name:           "compressed request",
			compressBody:   true,
			acceptEncoding: "gzip",
			wantStatus:     http.StatusOK,
			wantEncoding:   "gzip",
			wantBody:       `"productId":"5f1d7c2e-0000-4000-8000-000000000001"`,
		},
		{
			name:         "compressed request, identity response",
			compressBody: true,
			wantStatus:   http.StatusOK,
			wantEncoding: "",
			wantBody:     `"success":true`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader = bytes.NewBufferString(payload)
			req := httptest.NewRequest(http.MethodPost, "/api/users/cart", nil)
			if tt.compressBody {
				body = gzipped(t, payload)
				req.Header.Set("Content-Encoding", "gzip")
			}
			req.Body = io.NopCloser(body)
			req.Header.Set("Content-Type", "application/json")
			if tt.acceptEncoding != "" {
				req.Header.Set("Accept-Encoding", tt.acceptEncoding)
			}

			w := httptest.NewRecorder()
			GzipMiddleware(http.HandlerFunc(echoCart)).ServeHTTP(w, req)

			res := w.Result()
			defer res.Body.Close()

			assert.Equal(t, tt.wantStatus, res.StatusCode)
			assert.Equal(t, tt.wantEncoding, res.Header.Get("Content-Encoding"))
			assert.Contains(t, readBody(t, res), tt.wantBody)
		})
	}
}

func TestGzipMiddleware_InvalidBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewBufferString("not gzip"))
	req.Header.Set("Content-Encoding", "gzip")
	w := httptest.NewRecorder()

	called := false
	GzipMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })).ServeHTTP(w, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid gzip body")
}

func TestGzipMiddleware_SkipsOtherContentTypes(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/download", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()

	GzipMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png"))
	})).ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, "png", w.Body.String())
}

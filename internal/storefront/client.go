// Package storefront содержит клиент API магазина ключей и состояние витрины
// покупателя: корзину, список желаемого, уведомления о цене и купоны.
package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/mmeshcher/keystore/internal/model"
	"github.com/mmeshcher/keystore/internal/validation"
)

// APIError описывает ответ API с success: false.
type APIError struct {
	Status  int
	Message string
	Errors  validation.Errors
}

func (e *APIError) Error() string {
	if len(e.Errors) > 0 {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Message, e.Errors.Error())
	}
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

type envelope struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message"`
	Data       json.RawMessage   `json:"data"`
	Errors     validation.Errors `json:"errors"`
	Total      int64             `json:"total"`
	Pagination *model.Pagination `json:"pagination"`
}

// Client инкапсулирует HTTP-взаимодействие с API магазина.
type Client struct {
	baseURL    string
	token      string
	httpClient *retryablehttp.Client
}

// NewClient создаёт клиент API по указанному адресу.
// GET, HEAD и DELETE повторяются при сетевых ошибках и ответах 5xx и 429;
// POST и PUT повторяются только если соединение не было установлено.
func NewClient(baseURL string) *Client {
	base := strings.TrimRight(baseURL, "/")
	if base != "" && !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	rc := retryablehttp.NewClient()
	rc.Logger = nil
	rc.RetryMax = 3
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.HTTPClient.Timeout = 10 * time.Second
	rc.CheckRetry = checkRetry
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{baseURL: base, httpClient: rc}
}

type replayKey struct{}

// withReplay помечает запрос как безопасный для повтора после отправки.
func withReplay(ctx context.Context, method string) context.Context {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodDelete:
		return context.WithValue(ctx, replayKey{}, true)
	}
	return ctx
}

// checkRetry повторяет идемпотентные запросы по стандартной политике.
// Остальные запросы повторяются только при ошибке соединения, когда
// сервер заведомо не получил тело запроса.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if replay, _ := ctx.Value(replayKey{}).(bool); replay {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	var opErr *net.OpError
	if err != nil && errors.As(err, &opErr) && opErr.Op == "dial" {
		return true, nil
	}
	return false, nil
}

// SetToken задаёт токен доступа для последующих запросов.
func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) (*envelope, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("storefront client not configured")
	}

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
	}

	req, err := retryablehttp.NewRequestWithContext(withReplay(ctx, method), method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if !env.Success || resp.StatusCode >= http.StatusBadRequest {
		return nil, &APIError{Status: resp.StatusCode, Message: env.Message, Errors: env.Errors}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("decode data: %w", err)
		}
	}
	return &env, nil
}

// Register регистрирует покупателя и запоминает выданный токен.
func (c *Client) Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResponse, error) {
	var res model.AuthResponse
	if _, err := c.do(ctx, http.MethodPost, "/api/auth/register", req, &res); err != nil {
		return nil, err
	}
	c.token = res.Token
	return &res, nil
}

// Login выполняет вход и запоминает выданный токен.
func (c *Client) Login(ctx context.Context, email, password string) (*model.AuthResponse, error) {
	var res model.AuthResponse
	if _, err := c.do(ctx, http.MethodPost, "/api/auth/login", model.LoginRequest{Email: email, Password: password}, &res); err != nil {
		return nil, err
	}
	c.token = res.Token
	return &res, nil
}

// ProductQuery задаёт параметры выборки каталога.
type ProductQuery struct {
	Category model.Category
	Platform model.Platform
	Search   string
	Sort     string
	Page     int
	Limit    int
}

func (q ProductQuery) values() url.Values {
	v := url.Values{}
	if q.Category != "" {
		v.Set("category", string(q.Category))
	}
	if q.Platform != "" {
		v.Set("platform", string(q.Platform))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

// Products возвращает страницу каталога.
func (c *Client) Products(ctx context.Context, q ProductQuery) (model.Page[model.Product], error) {
	path := "/api/products"
	if v := q.values(); len(v) > 0 {
		path += "?" + v.Encode()
	}

	var items []model.Product
	env, err := c.do(ctx, http.MethodGet, path, nil, &items)
	if err != nil {
		return model.Page[model.Product]{}, err
	}

	p := model.NewPage(items, env.Total, q.Page, q.Limit)
	if env.Pagination != nil {
		p.Pagination = *env.Pagination
	}
	return p, nil
}

// Product возвращает товар по идентификатору.
func (c *Client) Product(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	if _, err := c.do(ctx, http.MethodGet, "/api/products/"+id.String(), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Slice возвращает подборку каталога.
func (c *Client) Slice(ctx context.Context, slice model.Slice) ([]model.Product, error) {
	var items []model.Product
	if _, err := c.do(ctx, http.MethodGet, "/api/products/"+string(slice), nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// CreateOrder оформляет заказ.
func (c *Client) CreateOrder(ctx context.Context, req model.CreateOrderRequest) (*model.Order, error) {
	var o model.Order
	if _, err := c.do(ctx, http.MethodPost, "/api/orders", req, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// Orders возвращает заказы текущего пользователя.
func (c *Client) Orders(ctx context.Context) ([]model.Order, error) {
	var items []model.Order
	if _, err := c.do(ctx, http.MethodGet, "/api/orders", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// CancelOrder отменяет ожидающий заказ.
func (c *Client) CancelOrder(ctx context.Context, id uuid.UUID, reason string) (*model.Order, error) {
	var o model.Order
	path := "/api/orders/" + id.String() + "/cancel"
	if _, err := c.do(ctx, http.MethodPut, path, model.CancelOrderRequest{Reason: reason}, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

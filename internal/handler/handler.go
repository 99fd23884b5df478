// Package handler содержит HTTP-обработчики API магазина ключей.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mmeshcher/keystore/internal/middleware"
	"github.com/mmeshcher/keystore/internal/model"
	"go.uber.org/zap"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResponse, error)
	Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error)
	Me(ctx context.Context, userID uuid.UUID) (*model.User, error)

	ListProducts(ctx context.Context, f model.ProductFilter) (model.Page[model.Product], error)
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
	Slice(ctx context.Context, slice model.Slice) ([]model.Product, error)
	CreateProduct(ctx context.Context, in model.ProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, in model.ProductInput) (*model.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	CreateOrder(ctx context.Context, userID uuid.UUID, req model.CreateOrderRequest) (*model.Order, error)
	ListOrders(ctx context.Context, userID uuid.UUID, f model.OrderFilter) (model.Page[model.Order], error)
	ListAllOrders(ctx context.Context, f model.OrderFilter) (model.Page[model.Order], error)
	GetOrder(ctx context.Context, user *model.User, orderID uuid.UUID) (*model.Order, error)
	CancelOrder(ctx context.Context, userID, orderID uuid.UUID, req model.CancelOrderRequest) (*model.Order, error)
	UpdateStatus(ctx context.Context, adminID, orderID uuid.UUID, req model.UpdateOrderStatusRequest) (*model.Order, error)
	AddGameKey(ctx context.Context, orderID uuid.UUID, req model.AddGameKeyRequest) (*model.Order, error)

	ListUsers(ctx context.Context, f model.UserFilter) (model.Page[model.User], error)
	GetUser(ctx context.Context, id uuid.UUID) (*model.UserDetail, error)
	UpdateUser(ctx context.Context, id uuid.UUID, req model.UpdateUserRequest) (*model.User, error)
	DeleteUser(ctx context.Context, actorID, id uuid.UUID) error

	Wishlist(ctx context.Context, userID uuid.UUID) ([]model.ProductSummary, error)
	AddToWishlist(ctx context.Context, userID, productID uuid.UUID) ([]model.ProductSummary, error)
	RemoveFromWishlist(ctx context.Context, userID, productID uuid.UUID) ([]model.ProductSummary, error)
	Cart(ctx context.Context, userID uuid.UUID) ([]model.CartLine, error)
	AddToCart(ctx context.Context, userID uuid.UUID, req model.AddToCartRequest) ([]model.CartLine, error)
	UpdateCartItem(ctx context.Context, userID, productID uuid.UUID, req model.UpdateCartRequest) ([]model.CartLine, error)
	RemoveFromCart(ctx context.Context, userID, productID uuid.UUID) ([]model.CartLine, error)
	ClearCart(ctx context.Context, userID uuid.UUID) error

	Ping(ctx context.Context) error
}

// Handler реализует HTTP-обработчики API магазина ключей.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
	development    bool
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
// В режиме development ответы 5xx содержат текст исходной ошибки.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware, development bool) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
		development:    development,
	}
}

type healthResponse struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Database  string    `json:"database"`
	Timestamp time.Time `json:"timestamp"`
}

// Health сообщает, что сервис запущен, и проверяет доступность хранилища.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:    "OK",
		Message:   "KIENSTORE API is running",
		Database:  "up",
		Timestamp: time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.service.Ping(ctx); err != nil {
		h.logger.Warn("health check: storage unavailable", zap.Error(err))
		resp.Database = "down"
	}

	writeJSON(w, http.StatusOK, resp)
}

// Package repository содержит хранилища пользователей, товаров и заказов:
// PostgreSQL для рабочего режима и in-memory для разработки и тестов.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mmeshcher/keystore/internal/model"
)

var (
	// ErrNotFound возвращается, если запись не найдена.
	ErrNotFound = errors.New("not found")
	// ErrConflict возвращается при нарушении уникальности.
	ErrConflict = errors.New("already exists")
)

// Store описывает операции хранилища. Реализации безопасны для
// конкурентного использования; внутри WithinTx операции выполняются
// в одной транзакции.
type Store interface {
	CreateProduct(ctx context.Context, p *model.Product) error
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
	// LockProducts возвращает товары с блокировкой строк до конца транзакции.
	// Отсутствующие идентификаторы в результат не попадают.
	LockProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Product, error)
	GetProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)
	UpdateProduct(ctx context.Context, p *model.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	ListProducts(ctx context.Context, f model.ProductFilter) ([]model.Product, int64, error)
	ListSlice(ctx context.Context, slice model.Slice, now time.Time, limit int) ([]model.Product, error)
	IncrementViews(ctx context.Context, id uuid.UUID) error
	// AdjustStock изменяет остаток и число продаж товара; продажи не опускаются ниже нуля.
	AdjustStock(ctx context.Context, id uuid.UUID, stockDelta, salesDelta int) error

	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUser(ctx context.Context, u *model.User) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
	ListUsers(ctx context.Context, f model.UserFilter) ([]model.User, int64, error)
	SaveWishlist(ctx context.Context, userID uuid.UUID, wishlist []uuid.UUID) error
	SaveCart(ctx context.Context, userID uuid.UUID, cart []model.CartItem) error

	CreateOrder(ctx context.Context, o *model.Order) error
	GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error)
	// LockOrder возвращает заказ с блокировкой строки до конца транзакции.
	LockOrder(ctx context.Context, id uuid.UUID) (*model.Order, error)
	UpdateOrder(ctx context.Context, o *model.Order) error
	ListOrders(ctx context.Context, f model.OrderFilter) ([]model.Order, int64, error)
}

// sortColumns сопоставляет поля сортировки из запроса столбцам таблиц.
var sortColumns = map[string]string{
	"createdAt": "created_at",
	"price":     "price",
	"name":      "name",
	"total":     "total",
	"fullname":  "fullname",
	"email":     "email",
}

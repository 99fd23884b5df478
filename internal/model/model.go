// Package model содержит доменные сущности и общие схемы запросов магазина ключей.
package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User представляет зарегистрированного покупателя или администратора.
type User struct {
	ID           uuid.UUID   `json:"id"`
	Fullname     string      `json:"fullname"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	Phone        string      `json:"phone,omitempty"`
	Address      string      `json:"address,omitempty"`
	Role         Role        `json:"role"`
	IsActive     bool        `json:"isActive"`
	Wishlist     []uuid.UUID `json:"wishlist"`
	Cart         []CartItem  `json:"cart"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// CartItem описывает позицию корзины, встроенной в документ пользователя.
type CartItem struct {
	ProductID uuid.UUID `json:"product"`
	Quantity  int       `json:"quantity"`
}

// InWishlist сообщает, есть ли товар в списке желаемого.
func (u *User) InWishlist(productID uuid.UUID) bool {
	for _, id := range u.Wishlist {
		if id == productID {
			return true
		}
	}
	return false
}

// Requirements описывает системные требования игры.
type Requirements struct {
	OS        string `json:"os,omitempty"`
	Processor string `json:"processor,omitempty"`
	Memory    string `json:"memory,omitempty"`
	Graphics  string `json:"graphics,omitempty"`
	Storage   string `json:"storage,omitempty"`
}

// SystemRequirements объединяет минимальные и рекомендуемые требования.
type SystemRequirements struct {
	Minimum     Requirements `json:"minimum"`
	Recommended Requirements `json:"recommended"`
}

// Product описывает позицию каталога.
type Product struct {
	ID                 uuid.UUID          `json:"id"`
	Name               string             `json:"name" validate:"min=2,max=100"`
	Description        string             `json:"description" validate:"min=10,max=2000"`
	Price              decimal.Decimal    `json:"price" validate:"gte=0"`
	OriginalPrice      *decimal.Decimal   `json:"originalPrice,omitempty" validate:"omitempty,gte=0"`
	Category           Category           `json:"category" validate:"category"`
	Platform           Platform           `json:"platform" validate:"platform"`
	MainImage          string             `json:"mainImage" validate:"url"`
	Images             []string           `json:"images" validate:"min=1,dive,url"`
	Screenshots        []string           `json:"screenshots" validate:"dive,url"`
	Developer          string             `json:"developer,omitempty" validate:"max=100"`
	Publisher          string             `json:"publisher,omitempty" validate:"max=100"`
	ReleaseDate        *time.Time         `json:"releaseDate,omitempty"`
	Size               string             `json:"size,omitempty"`
	SystemRequirements SystemRequirements `json:"systemRequirements"`
	Features           []string           `json:"features"`
	Tags               []string           `json:"tags"`
	Rating             float64            `json:"rating" validate:"gte=0,lte=5"`
	ReviewCount        int                `json:"reviewCount" validate:"gte=0"`
	IsSale             bool               `json:"isSale"`
	SalePercentage     float64            `json:"salePercentage" validate:"gte=0,lte=100"`
	SaleEndDate        *time.Time         `json:"saleEndDate,omitempty"`
	IsFeatured         bool               `json:"isFeatured"`
	IsNewRelease       bool               `json:"isNewRelease"`
	IsComingSoon       bool               `json:"isComingSoon"`
	IsBestSeller       bool               `json:"isBestSeller"`
	Stock              int                `json:"stock" validate:"gte=0"`
	IsActive           bool               `json:"isActive"`
	Views              int64              `json:"views"`
	Sales              int64              `json:"sales"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}

var hundred = decimal.NewFromInt(100)

// SalePrice возвращает цену со скидкой без учёта срока окончания распродажи.
func (p *Product) SalePrice() decimal.Decimal {
	if !p.IsSale || p.SalePercentage <= 0 {
		return p.Price
	}
	pct := decimal.NewFromFloat(p.SalePercentage)
	if pct.GreaterThan(hundred) {
		pct = hundred
	}
	factor := decimal.NewFromInt(1).Sub(pct.Div(hundred))
	return p.Price.Mul(factor).Round(2)
}

// OnSale сообщает, действует ли распродажа на момент now.
func (p *Product) OnSale(now time.Time) bool {
	if !p.IsSale {
		return false
	}
	if p.SaleEndDate != nil && now.After(*p.SaleEndDate) {
		return false
	}
	return true
}

// EffectivePrice возвращает цену, которую заплатит покупатель в момент now.
func (p *Product) EffectivePrice(now time.Time) decimal.Decimal {
	if p.OnSale(now) {
		return p.SalePrice()
	}
	return p.Price
}

// Summary возвращает краткое представление товара для корзины и списка желаемого.
func (p *Product) Summary() ProductSummary {
	return ProductSummary{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price,
		SalePrice: p.SalePrice(),
		MainImage: p.MainImage,
		Category:  p.Category,
		Platform:  p.Platform,
	}
}

// MarshalJSON добавляет в ответ вычисляемое поле salePrice.
func (p Product) MarshalJSON() ([]byte, error) {
	type plain Product
	return json.Marshal(struct {
		plain
		SalePrice decimal.Decimal `json:"salePrice"`
	}{plain(p), p.SalePrice()})
}

// ProductSummary описывает товар внутри заполненных корзины и списка желаемого.
type ProductSummary struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	SalePrice decimal.Decimal `json:"salePrice"`
	MainImage string          `json:"mainImage"`
	Category  Category        `json:"category"`
	Platform  Platform        `json:"platform"`
}

// CartLine описывает позицию корзины вместе с данными товара.
// Product равен nil, если товар был удалён из каталога.
type CartLine struct {
	Product   *ProductSummary `json:"product"`
	ProductID uuid.UUID       `json:"productId"`
	Quantity  int             `json:"quantity"`
}

// UserDetail описывает пользователя с заполненными корзиной и списком желаемого.
type UserDetail struct {
	User
	Wishlist []ProductSummary `json:"wishlist"`
	Cart     []CartLine       `json:"cart"`
}

// OrderItem описывает строку заказа со снимком цены на момент покупки.
type OrderItem struct {
	ProductID uuid.UUID       `json:"product"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Total     decimal.Decimal `json:"total"`
}

// ShippingAddress содержит контактные данные получателя, скопированные в заказ.
type ShippingAddress struct {
	FullName string `json:"fullName" validate:"min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"phone"`
	Address  string `json:"address" validate:"min=5,max=200"`
}

// GameKey описывает ключ активации, выданный по заказу.
type GameKey struct {
	ProductID uuid.UUID `json:"product"`
	Key       string    `json:"key"`
	SentAt    time.Time `json:"sentAt"`
	IsUsed    bool      `json:"isUsed"`
}

// Order описывает оформленный заказ.
type Order struct {
	ID                 uuid.UUID       `json:"id"`
	UserID             uuid.UUID       `json:"user"`
	Items              []OrderItem     `json:"items"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	Discount           decimal.Decimal `json:"discount"`
	Total              decimal.Decimal `json:"total"`
	Status             OrderStatus     `json:"status"`
	PaymentMethod      PaymentMethod   `json:"paymentMethod"`
	PaymentStatus      PaymentStatus   `json:"paymentStatus"`
	ShippingAddress    ShippingAddress `json:"shippingAddress"`
	Notes              string          `json:"notes,omitempty"`
	GameKeys           []GameKey       `json:"gameKeys"`
	CancelledAt        *time.Time      `json:"cancelledAt,omitempty"`
	CancellationReason string          `json:"cancellationReason,omitempty"`
	CancelledBy        *uuid.UUID      `json:"cancelledBy,omitempty"`
	DeliveredAt        *time.Time      `json:"deliveredAt,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// HasProduct сообщает, содержит ли заказ строку с указанным товаром.
func (o *Order) HasProduct(productID uuid.UUID) bool {
	for _, it := range o.Items {
		if it.ProductID == productID {
			return true
		}
	}
	return false
}

package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RegisterRequest описывает запрос на регистрацию покупателя.
type RegisterRequest struct {
	Fullname string `json:"fullname" validate:"min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"min=6"`
}

// LoginRequest описывает запрос на вход.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse содержит выданный токен и данные пользователя.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      User      `json:"user"`
}

// MaxQuantity ограничивает количество одного товара в заказе и корзине.
// Значение совпадает с тегами max у полей quantity.
const MaxQuantity = 10000

// OrderLine описывает одну позицию в запросе на оформление заказа.
type OrderLine struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"min=1,max=10000"`
}

// CreateOrderRequest описывает запрос на оформление заказа из корзины.
type CreateOrderRequest struct {
	Items           []OrderLine     `json:"items" validate:"min=1,dive"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod" validate:"paymentmethod"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	Notes           string          `json:"notes,omitempty" validate:"max=500"`
}

// CancelOrderRequest описывает запрос покупателя на отмену заказа.
type CancelOrderRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=200"`
}

// UpdateOrderStatusRequest описывает административное изменение статуса заказа.
type UpdateOrderStatusRequest struct {
	Status        OrderStatus    `json:"status" validate:"orderstatus"`
	PaymentStatus *PaymentStatus `json:"paymentStatus,omitempty" validate:"omitempty,paymentstatus"`
	Reason        string         `json:"reason,omitempty" validate:"max=200"`
}

// AddGameKeyRequest описывает выдачу ключа активации по заказу.
type AddGameKeyRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Key       string    `json:"key" validate:"required"`
}

// ProductInput описывает создаваемый или изменяемый товар.
// Незаданные поля при обновлении остаются без изменений.
type ProductInput struct {
	Name               *string             `json:"name,omitempty"`
	Description        *string             `json:"description,omitempty"`
	Price              *decimal.Decimal    `json:"price,omitempty"`
	OriginalPrice      *decimal.Decimal    `json:"originalPrice,omitempty"`
	Category           *Category           `json:"category,omitempty"`
	Platform           *Platform           `json:"platform,omitempty"`
	MainImage          *string             `json:"mainImage,omitempty"`
	Images             []string            `json:"images,omitempty"`
	Screenshots        []string            `json:"screenshots,omitempty"`
	Developer          *string             `json:"developer,omitempty"`
	Publisher          *string             `json:"publisher,omitempty"`
	ReleaseDate        *time.Time          `json:"releaseDate,omitempty"`
	Size               *string             `json:"size,omitempty"`
	SystemRequirements *SystemRequirements `json:"systemRequirements,omitempty"`
	Features           []string            `json:"features,omitempty"`
	Tags               []string            `json:"tags,omitempty"`
	Rating             *float64            `json:"rating,omitempty"`
	ReviewCount        *int                `json:"reviewCount,omitempty"`
	IsSale             *bool               `json:"isSale,omitempty"`
	SalePercentage     *float64            `json:"salePercentage,omitempty"`
	SaleEndDate        *time.Time          `json:"saleEndDate,omitempty"`
	IsFeatured         *bool               `json:"isFeatured,omitempty"`
	IsNewRelease       *bool               `json:"isNewRelease,omitempty"`
	IsComingSoon       *bool               `json:"isComingSoon,omitempty"`
	IsBestSeller       *bool               `json:"isBestSeller,omitempty"`
	Stock              *int                `json:"stock,omitempty"`
	IsActive           *bool               `json:"isActive,omitempty"`
}

// Apply переносит заданные поля в товар p.
func (in *ProductInput) Apply(p *Product) {
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.OriginalPrice != nil {
		v := *in.OriginalPrice
		p.OriginalPrice = &v
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.Platform != nil {
		p.Platform = *in.Platform
	}
	if in.MainImage != nil {
		p.MainImage = *in.MainImage
	}
	if in.Images != nil {
		p.Images = append([]string(nil), in.Images...)
	}
	if in.Screenshots != nil {
		p.Screenshots = append([]string(nil), in.Screenshots...)
	}
	if in.Developer != nil {
		p.Developer = *in.Developer
	}
	if in.Publisher != nil {
		p.Publisher = *in.Publisher
	}
	if in.ReleaseDate != nil {
		v := *in.ReleaseDate
		p.ReleaseDate = &v
	}
	if in.Size != nil {
		p.Size = *in.Size
	}
	if in.SystemRequirements != nil {
		p.SystemRequirements = *in.SystemRequirements
	}
	if in.Features != nil {
		p.Features = append([]string(nil), in.Features...)
	}
	if in.Tags != nil {
		p.Tags = append([]string(nil), in.Tags...)
	}
	if in.Rating != nil {
		p.Rating = *in.Rating
	}
	if in.ReviewCount != nil {
		p.ReviewCount = *in.ReviewCount
	}
	if in.IsSale != nil {
		p.IsSale = *in.IsSale
	}
	if in.SalePercentage != nil {
		p.SalePercentage = *in.SalePercentage
	}
	if in.SaleEndDate != nil {
		v := *in.SaleEndDate
		p.SaleEndDate = &v
	}
	if in.IsFeatured != nil {
		p.IsFeatured = *in.IsFeatured
	}
	if in.IsNewRelease != nil {
		p.IsNewRelease = *in.IsNewRelease
	}
	if in.IsComingSoon != nil {
		p.IsComingSoon = *in.IsComingSoon
	}
	if in.IsBestSeller != nil {
		p.IsBestSeller = *in.IsBestSeller
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
}

// UpdateUserRequest описывает административное изменение пользователя.
type UpdateUserRequest struct {
	Fullname *string `json:"fullname,omitempty" validate:"omitempty,min=2,max=50"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,phone"`
	Address  *string `json:"address,omitempty" validate:"omitempty,max=200"`
	Role     *Role   `json:"role,omitempty" validate:"omitempty,role"`
	IsActive *bool   `json:"isActive,omitempty"`
}

// AddToCartRequest описывает добавление товара в корзину.
type AddToCartRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity,omitempty" validate:"omitempty,min=1,max=10000"`
}

// UpdateCartRequest описывает изменение количества товара в корзине.
type UpdateCartRequest struct {
	Quantity int `json:"quantity" validate:"min=1,max=10000"`
}

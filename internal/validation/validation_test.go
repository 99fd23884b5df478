package validation

import (
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/mmeshcher/keystore/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validOrderRequest() model.CreateOrderRequest {
	return model.CreateOrderRequest{
		Items:         []model.OrderLine{{ProductID: uuid.New(), Quantity: 1}},
		PaymentMethod: model.PaymentMethodMomo,
		ShippingAddress: model.ShippingAddress{
			FullName: "Nguyen Van A",
			Email:    "buyer@example.com",
			Phone:    "0901234567",
			Address:  "12 Le Loi, District 1",
		},
	}
}

func fields(t *testing.T, err error) map[string]string {
	t.Helper()
	verrs, ok := AsErrors(err)
	require.True(t, ok, "expected validation errors, got %v", err)
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field] = fe.Message
	}
	return out
}

func TestStruct_CreateOrderRequest(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *model.CreateOrderRequest)
		field  string
		msg    string
	}{
		{
			name:   "no items",
			mutate: func(r *model.CreateOrderRequest) { r.Items = nil },
			field:  "items",
			msg:    "At least one item is required",
		},
		{
			name:   "zero quantity",
			mutate: func(r *model.CreateOrderRequest) { r.Items[0].Quantity = 0 },
			field:  "items[0].quantity",
			msg:    "Quantity must be a positive integer",
		},
		{
			name:   "missing product id",
			mutate: func(r *model.CreateOrderRequest) { r.Items[0].ProductID = uuid.Nil },
			field:  "items[0].productId",
			msg:    "Product ID is required",
		},
		{
			name:   "unknown payment method",
			mutate: func(r *model.CreateOrderRequest) { r.PaymentMethod = "cash" },
			field:  "paymentMethod",
			msg:    "Invalid payment method",
		},
		{
			name:   "short full name",
			mutate: func(r *model.CreateOrderRequest) { r.ShippingAddress.FullName = "A" },
			field:  "shippingAddress.fullName",
			msg:    "Full name must be between 2 and 50 characters",
		},
		{
			name:   "bad email",
			mutate: func(r *model.CreateOrderRequest) { r.ShippingAddress.Email = "buyer@" },
			field:  "shippingAddress.email",
			msg:    "Please provide a valid email",
		},
		{
			name:   "bad phone",
			mutate: func(r *model.CreateOrderRequest) { r.ShippingAddress.Phone = "call me" },
			field:  "shippingAddress.phone",
			msg:    "Please provide a valid phone number",
		},
		{
			name:   "short address",
			mutate: func(r *model.CreateOrderRequest) { r.ShippingAddress.Address = "x" },
			field:  "shippingAddress.address",
			msg:    "Address must be between 5 and 200 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validOrderRequest()
			tt.mutate(&req)

			got := fields(t, Struct(&req))
			assert.Equal(t, tt.msg, got[tt.field])
		})
	}
}

func TestStruct_ValidOrderRequest(t *testing.T) {
	req := validOrderRequest()
	assert.NoError(t, Struct(&req))
}

func TestStruct_UpdateOrderStatusRequest(t *testing.T) {
	paid := model.PaymentStatusPaid
	assert.NoError(t, Struct(&model.UpdateOrderStatusRequest{Status: model.OrderStatusCompleted, PaymentStatus: &paid}))

	bogus := model.PaymentStatus("maybe")
	got := fields(t, Struct(&model.UpdateOrderStatusRequest{Status: "shipped", PaymentStatus: &bogus}))
	assert.Equal(t, "Invalid status", got["status"])
	assert.Equal(t, "Invalid payment status", got["paymentStatus"])
}

func validProduct() model.Product {
	return model.Product{
		Name:        "Elden Ring",
		Description: "Open world action RPG by FromSoftware.",
		Price:       decimal.NewFromInt(100000),
		Category:    model.CategoryRPG,
		Platform:    model.PlatformSteam,
		MainImage:   "https://cdn.example.com/elden.jpg",
		Images:      []string{"https://cdn.example.com/elden-1.jpg"},
		Stock:       5,
	}
}

func TestProduct(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *model.Product)
		field  string
	}{
		{name: "negative price", mutate: func(p *model.Product) { p.Price = decimal.NewFromInt(-1) }, field: "price"},
		{name: "unknown category", mutate: func(p *model.Product) { p.Category = "Cooking" }, field: "category"},
		{name: "unknown platform", mutate: func(p *model.Product) { p.Platform = "Itch" }, field: "platform"},
		{name: "image not url", mutate: func(p *model.Product) { p.Images = []string{"not a url"} }, field: "images[0]"},
		{name: "no images", mutate: func(p *model.Product) { p.Images = nil }, field: "images"},
		{name: "sale over 100", mutate: func(p *model.Product) { p.SalePercentage = 120 }, field: "salePercentage"},
		{name: "rating over 5", mutate: func(p *model.Product) { p.Rating = 6 }, field: "rating"},
		{name: "negative stock", mutate: func(p *model.Product) { p.Stock = -1 }, field: "stock"},
		{
			name: "negative original price",
			mutate: func(p *model.Product) {
				v := decimal.NewFromInt(-5)
				p.OriginalPrice = &v
			},
			field: "originalPrice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProduct()
			tt.mutate(&p)

			got := fields(t, Product(&p))
			assert.Contains(t, got, tt.field)
		})
	}

	p := validProduct()
	assert.NoError(t, Product(&p))
}

func TestProductCreate_RequiresFields(t *testing.T) {
	got := fields(t, ProductCreate(&model.ProductInput{}))
	for _, f := range []string{"name", "description", "price", "category", "platform", "mainImage", "images"} {
		assert.Contains(t, got, f)
	}
}

func TestStruct_RegisterRequest(t *testing.T) {
	got := fields(t, Struct(&model.RegisterRequest{Fullname: "Al", Email: "al@example.com", Password: "123"}))
	assert.Equal(t, "Password must be at least 6 characters", got["password"])
	assert.NotContains(t, got, "email")
}

func TestQuery(t *testing.T) {
	q := NewQuery(url.Values{
		"page":     {"2"},
		"limit":    {"500"},
		"sort":     {"-price"},
		"minPrice": {"-3"},
		"maxPrice": {"99.5"},
		"status":   {"shipped"},
	})

	assert.Equal(t, 2, q.Page())
	assert.Equal(t, 12, q.Limit(12, 100))
	assert.Equal(t, "-price", q.OneOf("sort", SortValues("price", "name"), "Invalid sort parameter"))
	assert.Nil(t, q.Decimal("minPrice", "Min price must be a positive number"))
	maxPrice := q.Decimal("maxPrice", "Max price must be a positive number")
	require.NotNil(t, maxPrice)
	assert.Equal(t, "99.5", maxPrice.String())
	assert.Empty(t, q.OneOf("status", Strings(model.OrderStatuses), "Invalid status"))

	got := fields(t, q.Err())
	assert.Equal(t, "Limit must be between 1 and 100", got["limit"])
	assert.Equal(t, "Min price must be a positive number", got["minPrice"])
	assert.Equal(t, "Invalid status", got["status"])
	assert.NotContains(t, got, "page")
}

func TestQuery_Defaults(t *testing.T) {
	q := NewQuery(url.Values{})
	assert.Equal(t, 1, q.Page())
	assert.Equal(t, 10, q.Limit(10, 50))
	assert.NoError(t, q.Err())
}

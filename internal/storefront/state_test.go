package storefront

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mmeshcher/keystore/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func product(name string, price int64) *model.Product {
	return &model.Product{
		ID:        uuid.New(),
		Name:      name,
		Price:     decimal.NewFromInt(price),
		MainImage: "https://img.example/" + name + ".png",
		IsActive:  true,
		Stock:     10,
	}
}

func onSale(p *model.Product, pct float64, end time.Time) *model.Product {
	p.IsSale = true
	p.SalePercentage = pct
	p.SaleEndDate = &end
	return p
}

func TestAddToCart(t *testing.T) {
	s := NewState()
	p := onSale(product("witcher", 100000), 20, testNow.Add(24*time.Hour))

	require.NoError(t, s.AddToCart(p, 1, testNow))
	require.NoError(t, s.AddToCart(p, 2, testNow))

	require.Len(t, s.Cart, 1)
	line := s.Cart[0]
	assert.Equal(t, 3, line.Quantity)
	assert.Equal(t, "80000", line.Price.String())
	assert.Equal(t, "100000", line.OriginalPrice.String())
	assert.Equal(t, float64(20), line.Sale)
	assert.Equal(t, p.MainImage, line.Image)

	assert.Error(t, s.AddToCart(p, 0, testNow))
	assert.Error(t, s.AddToCart(&model.Product{ID: uuid.New()}, 1, testNow))
}

func TestAddToCart_ExpiredSale(t *testing.T) {
	s := NewState()
	p := onSale(product("doom", 50000), 50, testNow.Add(-time.Hour))

	require.NoError(t, s.AddToCart(p, 1, testNow))
	assert.Equal(t, "50000", s.Cart[0].Price.String())
	assert.Zero(t, s.Cart[0].Sale)
}

func TestUpdateQuantityAndRemove(t *testing.T) {
	s := NewState()
	a, b := product("a", 1000), product("b", 2000)
	require.NoError(t, s.AddToCart(a, 1, testNow))
	require.NoError(t, s.AddToCart(b, 1, testNow))

	assert.True(t, s.UpdateQuantity(a.ID, 4))
	assert.Equal(t, 4, s.Cart[0].Quantity)

	assert.True(t, s.UpdateQuantity(a.ID, 0))
	require.Len(t, s.Cart, 1)
	assert.Equal(t, b.ID, s.Cart[0].ProductID)

	assert.False(t, s.UpdateQuantity(a.ID, 1))
	assert.False(t, s.RemoveFromCart(a.ID))
	assert.True(t, s.RemoveFromCart(b.ID))
	assert.Empty(t, s.Cart)
}

func TestToggleWishlist(t *testing.T) {
	s := NewState()
	id := uuid.New()

	assert.True(t, s.ToggleWishlist(id))
	assert.Equal(t, []uuid.UUID{id}, s.Wishlist)
	assert.False(t, s.ToggleWishlist(id))
	assert.Empty(t, s.Wishlist)
}

func TestCoupons(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		subtotal int64
		discount string
		wantErr  error
	}{
		{name: "welcome", code: "welcome10", subtotal: 150000, discount: "15000"},
		{name: "save20", code: "SAVE20", subtotal: 200000, discount: "40000"},
		{name: "freeship fixed", code: "FREESHIP", subtotal: 600000, discount: "50000"},
		{name: "gamer50", code: " gamer50 ", subtotal: 1000000, discount: "500000"},
		{name: "below minimum", code: "SAVE20", subtotal: 199999, wantErr: ErrCouponMinimum},
		{name: "unknown", code: "FREE100", subtotal: 1000000, wantErr: ErrInvalidCoupon},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState()
			require.NoError(t, s.AddToCart(product("game", tt.subtotal), 1, testNow))

			d, err := s.ApplyCoupon(tt.code)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "err = %v", err)
				assert.Empty(t, s.Coupon)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.discount, d.String())
			assert.Equal(t, tt.discount, s.Totals().Discount.String())
		})
	}
}

func TestTotals_CouponDropsBelowMinimum(t *testing.T) {
	s := NewState()
	p := product("game", 60000)
	require.NoError(t, s.AddToCart(p, 2, testNow))

	_, err := s.ApplyCoupon("WELCOME10")
	require.NoError(t, err)

	totals := s.Totals()
	assert.Equal(t, 2, totals.Items)
	assert.Equal(t, "120000", totals.Subtotal.String())
	assert.Equal(t, "12000", totals.Discount.String())
	assert.Equal(t, "108000", totals.Total.String())

	s.UpdateQuantity(p.ID, 1)
	totals = s.Totals()
	assert.True(t, totals.Discount.IsZero())
	assert.Equal(t, "60000", totals.Total.String())

	s.ClearCart()
	assert.Empty(t, s.Coupon)
	assert.True(t, s.Totals().Total.IsZero())
}

func TestPriceAlerts(t *testing.T) {
	s := NewState()
	p := product("elden", 200000)

	s.SetPriceAlert(p, "Buyer@Example.com", decimal.NewFromInt(150000), testNow)
	s.SetPriceAlert(p, "buyer@example.com ", decimal.NewFromInt(160000), testNow)
	require.Len(t, s.Alerts, 1)
	assert.Equal(t, "160000", s.Alerts[0].AlertPrice.String())

	assert.Empty(t, s.CheckAlerts([]model.Product{*p}, testNow))

	onSale(p, 25, testNow.Add(time.Hour))
	fired := s.CheckAlerts([]model.Product{*p}, testNow)
	require.Len(t, fired, 1)
	assert.Equal(t, "buyer@example.com", fired[0].Email)
	assert.False(t, s.Alerts[0].IsActive)

	assert.Empty(t, s.CheckAlerts([]model.Product{*p}, testNow))
}

func TestCheckoutRequest(t *testing.T) {
	s := NewState()
	addr := model.ShippingAddress{FullName: "Nguyen Van A", Email: "a@example.com", Phone: "0901234567", Address: "12 Le Loi"}

	_, err := s.CheckoutRequest(model.PaymentMethodMomo, addr, "")
	require.ErrorIs(t, err, ErrEmptyCart)

	a, b := product("a", 150000), product("b", 50000)
	require.NoError(t, s.AddToCart(a, 2, testNow))
	require.NoError(t, s.AddToCart(b, 1, testNow))
	_, err = s.ApplyCoupon("WELCOME10")
	require.NoError(t, err)

	req, err := s.CheckoutRequest(model.PaymentMethodMomo, addr, "gift")
	require.NoError(t, err)
	assert.Equal(t, []model.OrderLine{
		{ProductID: a.ID, Quantity: 2},
		{ProductID: b.ID, Quantity: 1},
	}, req.Items)
	assert.Equal(t, model.PaymentMethodMomo, req.PaymentMethod)
	assert.Equal(t, addr, req.ShippingAddress)
	assert.Equal(t, "gift Coupon: WELCOME10", req.Notes)
}

func TestSaveLoad(t *testing.T) {
	s := NewState()
	s.Token = "tok"
	p := onSale(product("hades", 100000), 10, testNow.Add(time.Hour))
	require.NoError(t, s.AddToCart(p, 2, testNow))
	s.ToggleWishlist(p.ID)
	s.SetPriceAlert(p, "x@example.com", decimal.NewFromInt(50000), testNow)

	var buf bytes.Buffer
	require.NoError(t, s.Save(&buf))

	got, err := Load(&buf)
	require.NoError(t, err)
	assert.Equal(t, "tok", got.Token)
	require.Len(t, got.Cart, 1)
	assert.True(t, got.Cart[0].Price.Equal(decimal.NewFromInt(90000)))
	assert.Equal(t, []uuid.UUID{p.ID}, got.Wishlist)
	require.Len(t, got.Alerts, 1)
	assert.True(t, got.Alerts[0].CreatedAt.Equal(testNow))

	_, err = Load(bytes.NewBufferString("{"))
	assert.Error(t, err)
}

func TestSaveFileLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")

	empty, err := LoadFile(path)
	require.NoError(t, err)
	assert.Empty(t, empty.Cart)
	assert.NotNil(t, empty.Wishlist)

	require.NoError(t, empty.AddToCart(product("celeste", 20000), 1, testNow))
	require.NoError(t, empty.SaveFile(path))

	got, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, got.Cart, 1)
	assert.Equal(t, "celeste", got.Cart[0].Name)
}

package storefront

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmeshcher/keystore/internal/model"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidCoupon возвращается для неизвестного кода купона.
	ErrInvalidCoupon = errors.New("invalid coupon code")
	// ErrCouponMinimum возвращается, если сумма корзины меньше минимальной для купона.
	ErrCouponMinimum = errors.New("order amount below coupon minimum")
	// ErrEmptyCart возвращается при оформлении пустой корзины.
	ErrEmptyCart = errors.New("cart is empty")
)

// CouponKind определяет способ расчёта скидки.
type CouponKind string

const (
	CouponPercentage CouponKind = "percentage"
	CouponFixed      CouponKind = "fixed"
)

// Coupon описывает купон на скидку.
type Coupon struct {
	Code      string          `json:"code"`
	Kind      CouponKind      `json:"type"`
	Value     decimal.Decimal `json:"discount"`
	MinAmount decimal.Decimal `json:"minAmount"`
}

// Discount возвращает скидку для суммы subtotal. Скидка не превышает сумму.
func (c Coupon) Discount(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.LessThan(c.MinAmount) {
		return decimal.Zero
	}

	d := c.Value
	if c.Kind == CouponPercentage {
		d = subtotal.Mul(c.Value).Div(decimal.NewFromInt(100)).Round(2)
	}
	return decimal.Min(d, subtotal)
}

// Coupons содержит доступные купоны по коду.
var Coupons = map[string]Coupon{
	"WELCOME10": {Code: "WELCOME10", Kind: CouponPercentage, Value: decimal.NewFromInt(10), MinAmount: decimal.NewFromInt(100000)},
	"SAVE20":    {Code: "SAVE20", Kind: CouponPercentage, Value: decimal.NewFromInt(20), MinAmount: decimal.NewFromInt(200000)},
	"FREESHIP":  {Code: "FREESHIP", Kind: CouponFixed, Value: decimal.NewFromInt(50000), MinAmount: decimal.NewFromInt(500000)},
	"GAMER50":   {Code: "GAMER50", Kind: CouponPercentage, Value: decimal.NewFromInt(50), MinAmount: decimal.NewFromInt(1000000)},
}

// CartLine описывает позицию локальной корзины со снимком цены.
type CartLine struct {
	ProductID     uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"originalPrice"`
	Sale          float64         `json:"sale"`
	Quantity      int             `json:"quantity"`
	Image         string          `json:"image,omitempty"`
}

// PriceAlert описывает подписку на снижение цены товара.
type PriceAlert struct {
	ProductID   uuid.UUID       `json:"gameId"`
	ProductName string          `json:"gameName"`
	Email       string          `json:"email"`
	AlertPrice  decimal.Decimal `json:"alertPrice"`
	CreatedAt   time.Time       `json:"createdAt"`
	IsActive    bool            `json:"isActive"`
}

// Totals содержит итоги корзины.
type Totals struct {
	Items    int             `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// State хранит состояние витрины покупателя. Состояние не потокобезопасно
// и принадлежит одному вызывающему.
type State struct {
	Token    string       `json:"token,omitempty"`
	User     *model.User  `json:"user,omitempty"`
	Cart     []CartLine   `json:"cart"`
	Wishlist []uuid.UUID  `json:"wishlist"`
	Alerts   []PriceAlert `json:"priceAlerts"`
	Coupon   string       `json:"appliedCoupon,omitempty"`
}

// NewState создаёт пустое состояние.
func NewState() *State {
	return &State{Cart: []CartLine{}, Wishlist: []uuid.UUID{}, Alerts: []PriceAlert{}}
}

func (s *State) lineIndex(id uuid.UUID) int {
	return slices.IndexFunc(s.Cart, func(l CartLine) bool { return l.ProductID == id })
}

// AddToCart добавляет товар в корзину по действующей на момент now цене.
// Повторное добавление увеличивает количество, цена не пересчитывается.
func (s *State) AddToCart(p *model.Product, quantity int, now time.Time) error {
	if quantity < 1 {
		return fmt.Errorf("quantity must be positive, got %d", quantity)
	}
	if strings.TrimSpace(p.Name) == "" || p.Price.IsNegative() {
		return fmt.Errorf("invalid product %s", p.ID)
	}

	if i := s.lineIndex(p.ID); i >= 0 {
		s.Cart[i].Quantity += quantity
		return nil
	}

	line := CartLine{
		ProductID:     p.ID,
		Name:          p.Name,
		Price:         p.EffectivePrice(now),
		OriginalPrice: p.Price,
		Quantity:      quantity,
		Image:         p.MainImage,
	}
	if p.OnSale(now) {
		line.Sale = p.SalePercentage
	}
	s.Cart = append(s.Cart, line)
	return nil
}

// UpdateQuantity задаёт количество товара. Количество меньше 1 удаляет позицию.
func (s *State) UpdateQuantity(id uuid.UUID, quantity int) bool {
	i := s.lineIndex(id)
	if i < 0 {
		return false
	}
	if quantity < 1 {
		s.Cart = slices.Delete(s.Cart, i, i+1)
		return true
	}
	s.Cart[i].Quantity = quantity
	return true
}

// RemoveFromCart удаляет товар из корзины.
func (s *State) RemoveFromCart(id uuid.UUID) bool {
	i := s.lineIndex(id)
	if i < 0 {
		return false
	}
	s.Cart = slices.Delete(s.Cart, i, i+1)
	return true
}

// ClearCart очищает корзину и снимает купон.
func (s *State) ClearCart() {
	s.Cart = []CartLine{}
	s.Coupon = ""
}

// ToggleWishlist добавляет товар в список желаемого или убирает его оттуда.
// Возвращает true, если товар теперь в списке.
func (s *State) ToggleWishlist(id uuid.UUID) bool {
	if i := slices.Index(s.Wishlist, id); i >= 0 {
		s.Wishlist = slices.Delete(s.Wishlist, i, i+1)
		return false
	}
	s.Wishlist = append(s.Wishlist, id)
	return true
}

// SetPriceAlert создаёт подписку на цену или обновляет существующую
// для той же пары товара и адреса.
func (s *State) SetPriceAlert(p *model.Product, email string, price decimal.Decimal, now time.Time) {
	email = strings.ToLower(strings.TrimSpace(email))
	for i := range s.Alerts {
		a := &s.Alerts[i]
		if a.ProductID == p.ID && a.Email == email {
			a.AlertPrice = price
			a.CreatedAt = now
			a.IsActive = true
			return
		}
	}
	s.Alerts = append(s.Alerts, PriceAlert{
		ProductID:   p.ID,
		ProductName: p.Name,
		Email:       email,
		AlertPrice:  price,
		CreatedAt:   now,
		IsActive:    true,
	})
}

// CheckAlerts сравнивает активные подписки с текущими ценами товаров
// и возвращает сработавшие. Сработавшие подписки отключаются.
func (s *State) CheckAlerts(products []model.Product, now time.Time) []PriceAlert {
	byID := make(map[uuid.UUID]*model.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	var fired []PriceAlert
	for i := range s.Alerts {
		a := &s.Alerts[i]
		if !a.IsActive {
			continue
		}
		p, ok := byID[a.ProductID]
		if !ok {
			continue
		}
		if p.EffectivePrice(now).LessThanOrEqual(a.AlertPrice) {
			a.IsActive = false
			fired = append(fired, *a)
		}
	}
	return fired
}

// Subtotal возвращает сумму корзины по снимкам цен.
func (s *State) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range s.Cart {
		sum = sum.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum
}

// ApplyCoupon применяет купон к корзине.
func (s *State) ApplyCoupon(code string) (decimal.Decimal, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	c, ok := Coupons[code]
	if !ok {
		return decimal.Zero, ErrInvalidCoupon
	}

	subtotal := s.Subtotal()
	if subtotal.LessThan(c.MinAmount) {
		return decimal.Zero, fmt.Errorf("%w: minimum %s", ErrCouponMinimum, c.MinAmount)
	}

	s.Coupon = code
	return c.Discount(subtotal), nil
}

// RemoveCoupon снимает купон.
func (s *State) RemoveCoupon() {
	s.Coupon = ""
}

// Totals рассчитывает итоги корзины. Скидка купона пересчитывается
// от текущей суммы и обнуляется, если сумма стала ниже минимальной.
func (s *State) Totals() Totals {
	t := Totals{Subtotal: s.Subtotal(), Discount: decimal.Zero}
	for _, l := range s.Cart {
		t.Items += l.Quantity
	}
	if c, ok := Coupons[s.Coupon]; ok {
		t.Discount = c.Discount(t.Subtotal)
	}
	t.Total = t.Subtotal.Sub(t.Discount)
	return t
}

// CheckoutRequest собирает запрос на оформление заказа из корзины.
// Сервер заново проверяет товары, остатки и цены.
func (s *State) CheckoutRequest(method model.PaymentMethod, address model.ShippingAddress, notes string) (model.CreateOrderRequest, error) {
	if len(s.Cart) == 0 {
		return model.CreateOrderRequest{}, ErrEmptyCart
	}

	items := make([]model.OrderLine, len(s.Cart))
	for i, l := range s.Cart {
		items[i] = model.OrderLine{ProductID: l.ProductID, Quantity: l.Quantity}
	}
	if s.Coupon != "" {
		notes = strings.TrimSpace(notes + " Coupon: " + s.Coupon)
	}

	return model.CreateOrderRequest{
		Items:           items,
		PaymentMethod:   method,
		ShippingAddress: address,
		Notes:           notes,
	}, nil
}

// Save записывает состояние в w в формате JSON.
func (s *State) Save(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	return nil
}

// Load читает состояние из r.
func Load(r io.Reader) (*State, error) {
	s := NewState()
	if err := json.NewDecoder(r).Decode(s); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	if s.Cart == nil {
		s.Cart = []CartLine{}
	}
	if s.Wishlist == nil {
		s.Wishlist = []uuid.UUID{}
	}
	if s.Alerts == nil {
		s.Alerts = []PriceAlert{}
	}
	return s, nil
}

// LoadFile читает состояние из файла. Отсутствующий файл даёт пустое состояние.
func LoadFile(path string) (*State, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewState(), nil
		}
		return nil, fmt.Errorf("open state: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// SaveFile атомарно записывает состояние в файл.
func (s *State) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".state-*")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := s.Save(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp state: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}

package repository

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/mmeshcher/keystore/internal/model"
)

// MemoryRepository хранит данные в памяти процесса. Используется, когда
// DATABASE_URI не задан, и в тестах.
type MemoryRepository struct {
	mu    *sync.Mutex
	state *memState
	inTx  bool
}

type memState struct {
	users    map[uuid.UUID]model.User
	products map[uuid.UUID]model.Product
	orders   map[uuid.UUID]model.Order
}

func (s *memState) snapshot() memState {
	return memState{
		users:    maps.Clone(s.users),
		products: maps.Clone(s.products),
		orders:   maps.Clone(s.orders),
	}
}

// NewMemoryRepository создаёт пустое хранилище в памяти.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		mu: &sync.Mutex{},
		state: &memState{
			users:    make(map[uuid.UUID]model.User),
			products: make(map[uuid.UUID]model.Product),
			orders:   make(map[uuid.UUID]model.Order),
		},
	}
}

func (m *MemoryRepository) lock() func() {
	if m.inTx {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

// WithinTx выполняет fn под общей блокировкой хранилища. При ошибке
// состояние возвращается к снимку, сделанному до вызова fn.
func (m *MemoryRepository) WithinTx(ctx context.Context, fn func(Store) error) error {
	if m.inTx {
		return fn(m)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	saved := m.state.snapshot()
	if err := fn(&MemoryRepository{mu: m.mu, state: m.state, inTx: true}); err != nil {
		*m.state = saved
		return err
	}
	return nil
}

// Ping всегда успешен.
func (m *MemoryRepository) Ping(context.Context) error { return nil }

// Close ничего не делает.
func (m *MemoryRepository) Close() error { return nil }

func cloneProduct(p model.Product) model.Product {
	p.Images = slices.Clone(p.Images)
	p.Screenshots = slices.Clone(p.Screenshots)
	p.Features = slices.Clone(p.Features)
	p.Tags = slices.Clone(p.Tags)
	if p.OriginalPrice != nil {
		v := *p.OriginalPrice
		p.OriginalPrice = &v
	}
	if p.ReleaseDate != nil {
		v := *p.ReleaseDate
		p.ReleaseDate = &v
	}
	if p.SaleEndDate != nil {
		v := *p.SaleEndDate
		p.SaleEndDate = &v
	}
	return p
}

func cloneUser(u model.User) model.User {
	u.Wishlist = slices.Clone(wishlistOrEmpty(u.Wishlist))
	u.Cart = slices.Clone(cartOrEmpty(u.Cart))
	return u
}

func cloneOrder(o model.Order) model.Order {
	o.Items = slices.Clone(o.Items)
	o.GameKeys = slices.Clone(gameKeysOrEmpty(o.GameKeys))
	return o
}

// paginate возвращает срез элементов страницы.
func paginate[T any](items []T, page, limit int) []T {
	off := model.Offset(page, limit)
	if off >= len(items) {
		return nil
	}
	end := min(off+limit, len(items))
	return items[off:end]
}

// sortOrDefault заменяет неизвестное поле сортировки на -createdAt.
func sortOrDefault(s model.SortSpec, fields ...string) model.SortSpec {
	if !slices.Contains(fields, s.Field) {
		return model.SortSpec{Field: "createdAt", Desc: true}
	}
	return s
}

func direction(desc bool, c int) int {
	if desc {
		return -c
	}
	return c
}

// tokens разбивает текст на слова в нижнем регистре.
func tokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func matchesSearch(p *model.Product, search string) bool {
	words := tokens(strings.Join([]string{
		p.Name, p.Description, string(p.Category), p.Developer, p.Publisher,
	}, " "))
	for _, q := range tokens(search) {
		if !slices.Contains(words, q) {
			return false
		}
	}
	return true
}

// CreateProduct сохраняет новый товар.
func (m *MemoryRepository) CreateProduct(_ context.Context, p *model.Product) error {
	defer m.lock()()

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	m.state.products[p.ID] = cloneProduct(*p)
	return nil
}

// GetProduct возвращает товар по идентификатору.
func (m *MemoryRepository) GetProduct(_ context.Context, id uuid.UUID) (*model.Product, error) {
	defer m.lock()()

	p, ok := m.state.products[id]
	if !ok {
		return nil, fmt.Errorf("product: %w", ErrNotFound)
	}
	p = cloneProduct(p)
	return &p, nil
}

// LockProducts возвращает найденные товары. Блокировкой служит WithinTx.
func (m *MemoryRepository) LockProducts(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Product, error) {
	defer m.lock()()

	res := make(map[uuid.UUID]*model.Product, len(ids))
	for _, id := range ids {
		if p, ok := m.state.products[id]; ok {
			p = cloneProduct(p)
			res[id] = &p
		}
	}
	return res, nil
}

// GetProductsByIDs возвращает найденные товары из списка идентификаторов.
func (m *MemoryRepository) GetProductsByIDs(_ context.Context, ids []uuid.UUID) ([]model.Product, error) {
	defer m.lock()()

	var res []model.Product
	for _, id := range ids {
		if p, ok := m.state.products[id]; ok {
			res = append(res, cloneProduct(p))
		}
	}
	return res, nil
}

// UpdateProduct сохраняет товар целиком, кроме счётчиков.
func (m *MemoryRepository) UpdateProduct(_ context.Context, p *model.Product) error {
	defer m.lock()()

	old, ok := m.state.products[p.ID]
	if !ok {
		return fmt.Errorf("product: %w", ErrNotFound)
	}
	p.Views, p.Sales, p.CreatedAt = old.Views, old.Sales, old.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	m.state.products[p.ID] = cloneProduct(*p)
	return nil
}

// DeleteProduct удаляет товар.
func (m *MemoryRepository) DeleteProduct(_ context.Context, id uuid.UUID) error {
	defer m.lock()()

	if _, ok := m.state.products[id]; !ok {
		return fmt.Errorf("product: %w", ErrNotFound)
	}
	delete(m.state.products, id)
	return nil
}

func compareProducts(a, b *model.Product, s model.SortSpec) int {
	s = sortOrDefault(s, "price", "name", "createdAt")
	var c int
	switch s.Field {
	case "price":
		c = a.Price.Cmp(b.Price)
	case "name":
		c = strings.Compare(a.Name, b.Name)
	default:
		c = a.CreatedAt.Compare(b.CreatedAt)
	}
	if c == 0 {
		c = strings.Compare(a.ID.String(), b.ID.String())
	}
	return direction(s.Desc, c)
}

// ListProducts возвращает страницу активных товаров и их общее число.
func (m *MemoryRepository) ListProducts(_ context.Context, f model.ProductFilter) ([]model.Product, int64, error) {
	defer m.lock()()

	var matched []model.Product
	for _, p := range m.state.products {
		switch {
		case !p.IsActive:
		case f.Category != "" && p.Category != f.Category:
		case f.Platform != "" && p.Platform != f.Platform:
		case f.Search != "" && !matchesSearch(&p, f.Search):
		case f.MinPrice != nil && p.Price.LessThan(*f.MinPrice):
		case f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice):
		default:
			matched = append(matched, cloneProduct(p))
		}
	}

	slices.SortFunc(matched, func(a, b model.Product) int { return compareProducts(&a, &b, f.Sort) })
	return slices.Clone(paginate(matched, f.Page, f.Limit)), int64(len(matched)), nil
}

func releaseCompare(a, b *model.Product) int {
	switch {
	case a.ReleaseDate == nil && b.ReleaseDate == nil:
		return 0
	case a.ReleaseDate == nil:
		return 1
	case b.ReleaseDate == nil:
		return -1
	}
	return a.ReleaseDate.Compare(*b.ReleaseDate)
}

// ListSlice возвращает подборку каталога.
func (m *MemoryRepository) ListSlice(_ context.Context, slice model.Slice, now time.Time, limit int) ([]model.Product, error) {
	defer m.lock()()

	var (
		keep    func(p *model.Product) bool
		compare func(a, b *model.Product) int
	)
	switch slice {
	case model.SliceFeatured:
		keep = func(p *model.Product) bool { return p.IsFeatured }
		compare = func(a, b *model.Product) int { return b.CreatedAt.Compare(a.CreatedAt) }
	case model.SliceSale:
		keep = func(p *model.Product) bool { return p.IsSale && p.SaleEndDate != nil && p.SaleEndDate.After(now) }
		compare = func(a, b *model.Product) int { return cmp.Compare(b.SalePercentage, a.SalePercentage) }
	case model.SliceNew:
		keep = func(p *model.Product) bool { return p.IsNewRelease }
		compare = func(a, b *model.Product) int {
			if a.ReleaseDate == nil || b.ReleaseDate == nil {
				return releaseCompare(a, b)
			}
			return b.ReleaseDate.Compare(*a.ReleaseDate)
		}
	case model.SliceComingSoon:
		keep = func(p *model.Product) bool { return p.IsComingSoon }
		compare = releaseCompare
	case model.SliceBestSellers:
		keep = func(p *model.Product) bool { return p.IsBestSeller }
		compare = func(a, b *model.Product) int { return cmp.Compare(b.Sales, a.Sales) }
	default:
		return nil, fmt.Errorf("slice %q: %w", slice, ErrNotFound)
	}

	var res []model.Product
	for _, p := range m.state.products {
		if p.IsActive && keep(&p) {
			res = append(res, cloneProduct(p))
		}
	}
	slices.SortStableFunc(res, func(a, b model.Product) int {
		if c := compare(&a, &b); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

// IncrementViews увеличивает счётчик просмотров товара.
func (m *MemoryRepository) IncrementViews(_ context.Context, id uuid.UUID) error {
	defer m.lock()()

	p, ok := m.state.products[id]
	if !ok {
		return fmt.Errorf("product: %w", ErrNotFound)
	}
	p.Views++
	m.state.products[id] = p
	return nil
}

// AdjustStock изменяет остаток и число продаж товара.
func (m *MemoryRepository) AdjustStock(_ context.Context, id uuid.UUID, stockDelta, salesDelta int) error {
	defer m.lock()()

	p, ok := m.state.products[id]
	if !ok {
		return fmt.Errorf("product: %w", ErrNotFound)
	}
	if p.Stock+stockDelta < 0 {
		return fmt.Errorf("adjust stock: product %s stock would become negative", id)
	}
	p.Stock += stockDelta
	p.Sales = max(p.Sales+int64(salesDelta), 0)
	p.UpdatedAt = time.Now().UTC()
	m.state.products[id] = p
	return nil
}

func (m *MemoryRepository) emailTaken(email string, except uuid.UUID) bool {
	for _, u := range m.state.users {
		if u.Email == email && u.ID != except {
			return true
		}
	}
	return false
}

// CreateUser создаёт нового пользователя.
func (m *MemoryRepository) CreateUser(_ context.Context, u *model.User) error {
	defer m.lock()()

	u.Email = strings.ToLower(u.Email)
	if m.emailTaken(u.Email, uuid.Nil) {
		return fmt.Errorf("email %s: %w", u.Email, ErrConflict)
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	m.state.users[u.ID] = cloneUser(*u)
	return nil
}

// GetUser возвращает пользователя по идентификатору.
func (m *MemoryRepository) GetUser(_ context.Context, id uuid.UUID) (*model.User, error) {
	defer m.lock()()

	u, ok := m.state.users[id]
	if !ok {
		return nil, fmt.Errorf("user: %w", ErrNotFound)
	}
	u = cloneUser(u)
	return &u, nil
}

// GetUserByEmail возвращает пользователя по email без учёта регистра.
func (m *MemoryRepository) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	defer m.lock()()

	email = strings.ToLower(email)
	for _, u := range m.state.users {
		if u.Email == email {
			u = cloneUser(u)
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user: %w", ErrNotFound)
}

// UpdateUser сохраняет профиль, роль и статус пользователя.
func (m *MemoryRepository) UpdateUser(_ context.Context, u *model.User) error {
	defer m.lock()()

	old, ok := m.state.users[u.ID]
	if !ok {
		return fmt.Errorf("user: %w", ErrNotFound)
	}
	u.Email = strings.ToLower(u.Email)
	if m.emailTaken(u.Email, u.ID) {
		return fmt.Errorf("email %s: %w", u.Email, ErrConflict)
	}

	old.Fullname, old.Email, old.Phone, old.Address = u.Fullname, u.Email, u.Phone, u.Address
	old.Role, old.IsActive = u.Role, u.IsActive
	old.UpdatedAt = time.Now().UTC()
	u.UpdatedAt = old.UpdatedAt
	m.state.users[u.ID] = old
	return nil
}

// DeleteUser удаляет пользователя.
func (m *MemoryRepository) DeleteUser(_ context.Context, id uuid.UUID) error {
	defer m.lock()()

	if _, ok := m.state.users[id]; !ok {
		return fmt.Errorf("user: %w", ErrNotFound)
	}
	delete(m.state.users, id)
	return nil
}

func compareUsers(a, b *model.User, s model.SortSpec) int {
	s = sortOrDefault(s, "fullname", "email", "createdAt")
	var c int
	switch s.Field {
	case "fullname":
		c = strings.Compare(a.Fullname, b.Fullname)
	case "email":
		c = strings.Compare(a.Email, b.Email)
	default:
		c = a.CreatedAt.Compare(b.CreatedAt)
	}
	if c == 0 {
		c = strings.Compare(a.ID.String(), b.ID.String())
	}
	return direction(s.Desc, c)
}

// ListUsers возвращает страницу пользователей и их общее число.
func (m *MemoryRepository) ListUsers(_ context.Context, f model.UserFilter) ([]model.User, int64, error) {
	defer m.lock()()

	search := strings.ToLower(f.Search)
	var matched []model.User
	for _, u := range m.state.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(u.Fullname), search) &&
			!strings.Contains(u.Email, search) {
			continue
		}
		matched = append(matched, cloneUser(u))
	}

	slices.SortFunc(matched, func(a, b model.User) int { return compareUsers(&a, &b, f.Sort) })
	return slices.Clone(paginate(matched, f.Page, f.Limit)), int64(len(matched)), nil
}

// SaveWishlist перезаписывает список желаемого пользователя.
func (m *MemoryRepository) SaveWishlist(_ context.Context, userID uuid.UUID, wishlist []uuid.UUID) error {
	defer m.lock()()

	u, ok := m.state.users[userID]
	if !ok {
		return fmt.Errorf("user: %w", ErrNotFound)
	}
	u.Wishlist = slices.Clone(wishlistOrEmpty(wishlist))
	u.UpdatedAt = time.Now().UTC()
	m.state.users[userID] = u
	return nil
}

// SaveCart перезаписывает корзину пользователя.
func (m *MemoryRepository) SaveCart(_ context.Context, userID uuid.UUID, cart []model.CartItem) error {
	defer m.lock()()

	u, ok := m.state.users[userID]
	if !ok {
		return fmt.Errorf("user: %w", ErrNotFound)
	}
	u.Cart = slices.Clone(cartOrEmpty(cart))
	u.UpdatedAt = time.Now().UTC()
	m.state.users[userID] = u
	return nil
}

// CreateOrder сохраняет новый заказ.
func (m *MemoryRepository) CreateOrder(_ context.Context, o *model.Order) error {
	defer m.lock()()

	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	now := time.Now().UTC()
	o.CreatedAt, o.UpdatedAt = now, now
	o.GameKeys = gameKeysOrEmpty(o.GameKeys)
	m.state.orders[o.ID] = cloneOrder(*o)
	return nil
}

// GetOrder возвращает заказ по идентификатору.
func (m *MemoryRepository) GetOrder(_ context.Context, id uuid.UUID) (*model.Order, error) {
	defer m.lock()()

	o, ok := m.state.orders[id]
	if !ok {
		return nil, fmt.Errorf("order: %w", ErrNotFound)
	}
	o = cloneOrder(o)
	return &o, nil
}

// LockOrder возвращает заказ. Блокировкой служит WithinTx.
func (m *MemoryRepository) LockOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return m.GetOrder(ctx, id)
}

// UpdateOrder сохраняет изменяемые после создания поля заказа.
func (m *MemoryRepository) UpdateOrder(_ context.Context, o *model.Order) error {
	defer m.lock()()

	old, ok := m.state.orders[o.ID]
	if !ok {
		return fmt.Errorf("order: %w", ErrNotFound)
	}
	old.Status, old.PaymentStatus = o.Status, o.PaymentStatus
	old.GameKeys = slices.Clone(gameKeysOrEmpty(o.GameKeys))
	old.CancelledAt, old.CancellationReason, old.CancelledBy = o.CancelledAt, o.CancellationReason, o.CancelledBy
	old.DeliveredAt = o.DeliveredAt
	old.UpdatedAt = time.Now().UTC()
	o.UpdatedAt = old.UpdatedAt
	m.state.orders[o.ID] = old
	return nil
}

func compareOrders(a, b *model.Order, s model.SortSpec) int {
	s = sortOrDefault(s, "total", "createdAt")
	var c int
	switch s.Field {
	case "total":
		c = a.Total.Cmp(b.Total)
	default:
		c = a.CreatedAt.Compare(b.CreatedAt)
	}
	if c == 0 {
		c = strings.Compare(a.ID.String(), b.ID.String())
	}
	return direction(s.Desc, c)
}

// ListOrders возвращает страницу заказов и их общее число.
func (m *MemoryRepository) ListOrders(_ context.Context, f model.OrderFilter) ([]model.Order, int64, error) {
	defer m.lock()()

	var matched []model.Order
	for _, o := range m.state.orders {
		switch {
		case f.UserID != nil && o.UserID != *f.UserID:
		case f.Status != "" && o.Status != f.Status:
		case f.PaymentStatus != "" && o.PaymentStatus != f.PaymentStatus:
		default:
			matched = append(matched, cloneOrder(o))
		}
	}

	slices.SortFunc(matched, func(a, b model.Order) int { return compareOrders(&a, &b, f.Sort) })
	return slices.Clone(paginate(matched, f.Page, f.Limit)), int64(len(matched)), nil
}

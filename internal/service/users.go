package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/mmeshcher/keystore/internal/model"
	"github.com/mmeshcher/keystore/internal/repository"
	"github.com/mmeshcher/keystore/internal/validation"
)

const (
	DefaultUserLimit = 10
	MaxUserLimit     = 100
)

// ListUsers возвращает страницу пользователей для администратора.
func (s *Service) ListUsers(ctx context.Context, f model.UserFilter) (model.Page[model.User], error) {
	f.Page, f.Limit = normalizePage(f.Page, f.Limit, DefaultUserLimit, MaxUserLimit)
	f.Search = strings.TrimSpace(f.Search)

	items, total, err := s.repo.ListUsers(ctx, f)
	if err != nil {
		return model.Page[model.User]{}, fmt.Errorf("list users: %w", err)
	}
	return model.NewPage(items, total, f.Page, f.Limit), nil
}

// GetUser возвращает пользователя с заполненными корзиной и списком желаемого.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*model.UserDetail, error) {
	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "User not found", "get user")
	}

	summaries, err := s.summaries(ctx, u)
	if err != nil {
		return nil, err
	}
	return &model.UserDetail{
		User:     *u,
		Wishlist: populateWishlist(u.Wishlist, summaries),
		Cart:     populateCart(u.Cart, summaries),
	}, nil
}

// UpdateUser изменяет данные пользователя.
func (s *Service) UpdateUser(ctx context.Context, id uuid.UUID, req model.UpdateUserRequest) (*model.User, error) {
	if err := validation.Struct(&req); err != nil {
		return nil, err
	}

	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "User not found", "get user")
	}

	if req.Fullname != nil {
		u.Fullname = strings.TrimSpace(*req.Fullname)
	}
	if req.Email != nil {
		u.Email = *req.Email
	}
	if req.Phone != nil {
		u.Phone = *req.Phone
	}
	if req.Address != nil {
		u.Address = *req.Address
	}
	if req.Role != nil {
		u.Role = *req.Role
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}

	if err := s.repo.UpdateUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fail(repository.ErrConflict, "Email already exists")
		}
		return nil, notFoundAs(err, "User not found", "update user")
	}
	return u, nil
}

// DeleteUser удаляет пользователя. Администратор не может удалить себя.
func (s *Service) DeleteUser(ctx context.Context, actorID, id uuid.UUID) error {
	if _, err := s.repo.GetUser(ctx, id); err != nil {
		return notFoundAs(err, "User not found", "get user")
	}
	if actorID == id {
		return fail(ErrSelfDelete, "Cannot delete your own account")
	}

	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return notFoundAs(err, "User not found", "delete user")
	}
	return nil
}

// Wishlist возвращает заполненный список желаемого пользователя.
func (s *Service) Wishlist(ctx context.Context, userID uuid.UUID) ([]model.ProductSummary, error) {
	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, notFoundAs(err, "User not found", "get user")
	}
	summaries, err := s.summaries(ctx, u)
	if err != nil {
		return nil, err
	}
	return populateWishlist(u.Wishlist, summaries), nil
}

// AddToWishlist добавляет товар в список желаемого.
func (s *Service) AddToWishlist(ctx context.Context, userID, productID uuid.UUID) ([]model.ProductSummary, error) {
	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, notFoundAs(err, "User not found", "get user")
	}
	if u.InWishlist(productID) {
		return nil, fail(repository.ErrConflict, "Product already in wishlist")
	}
	if err := s.requireProduct(ctx, productID); err != nil {
		return nil, err
	}

	u.Wishlist = append(u.Wishlist, productID)
	if err := s.repo.SaveWishlist(ctx, userID, u.Wishlist); err != nil {
		return nil, fmt.Errorf("save wishlist: %w", err)
	}
	return s.Wishlist(ctx, userID)
}

// RemoveFromWishlist удаляет товар из списка желаемого. Отсутствие товара не считается ошибкой.
func (s *Service) RemoveFromWishlist(ctx context.Context, userID, productID uuid.UUID) ([]model.ProductSummary, error) {
	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, notFoundAs(err, "User not found", "get user")
	}

	wishlist := slices.DeleteFunc(u.Wishlist, func(id uuid.UUID) bool { return id == productID })
	if err := s.repo.SaveWishlist(ctx, userID, wishlist); err != nil {
		return nil, fmt.Errorf("save wishlist: %w", err)
	}
	return s.Wishlist(ctx, userID)
}

// Cart возвращает заполненную корзину пользователя.
func (s *Service) Cart(ctx context.Context, userID uuid.UUID) ([]model.CartLine, error) {
	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, notFoundAs(err, "User not found", "get user")
	}
	summaries, err := s.summaries(ctx, u)
	if err != nil {
		return nil, err
	}
	return populateCart(u.Cart, summaries), nil
}

// AddToCart добавляет товар в корзину, объединяя количество с имеющейся позицией.
func (s *Service) AddToCart(ctx context.Context, userID uuid.UUID, req model.AddToCartRequest) ([]model.CartLine, error) {
	if err := validation.Struct(&req); err != nil {
		return nil, err
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, notFoundAs(err, "User not found", "get user")
	}
	if err := s.requireProduct(ctx, req.ProductID); err != nil {
		return nil, err
	}

	i := slices.IndexFunc(u.Cart, func(it model.CartItem) bool { return it.ProductID == req.ProductID })
	if i >= 0 {
		if u.Cart[i].Quantity > model.MaxQuantity-req.Quantity {
			return nil, quantityLimit("quantity")
		}
		u.Cart[i].Quantity += req.Quantity
	} else {
		u.Cart = append(u.Cart, model.CartItem{ProductID: req.ProductID, Quantity: req.Quantity})
	}

	if err := s.repo.SaveCart(ctx, userID, u.Cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return s.Cart(ctx, userID)
}

// UpdateCartItem задаёт количество товара в корзине.
func (s *Service) UpdateCartItem(ctx context.Context, userID, productID uuid.UUID, req model.UpdateCartRequest) ([]model.CartLine, error) {
	if err := validation.Struct(&req); err != nil {
		return nil, err
	}

	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, notFoundAs(err, "User not found", "get user")
	}

	i := slices.IndexFunc(u.Cart, func(it model.CartItem) bool { return it.ProductID == productID })
	if i < 0 {
		return nil, fail(repository.ErrNotFound, "Product not found in cart")
	}
	u.Cart[i].Quantity = req.Quantity

	if err := s.repo.SaveCart(ctx, userID, u.Cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return s.Cart(ctx, userID)
}

// RemoveFromCart удаляет товар из корзины.
func (s *Service) RemoveFromCart(ctx context.Context, userID, productID uuid.UUID) ([]model.CartLine, error) {
	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, notFoundAs(err, "User not found", "get user")
	}

	cart := slices.DeleteFunc(u.Cart, func(it model.CartItem) bool { return it.ProductID == productID })
	if err := s.repo.SaveCart(ctx, userID, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return s.Cart(ctx, userID)
}

// ClearCart очищает корзину.
func (s *Service) ClearCart(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return notFoundAs(err, "User not found", "get user")
	}
	if err := s.repo.SaveCart(ctx, userID, []model.CartItem{}); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (s *Service) requireProduct(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetProduct(ctx, id); err != nil {
		return notFoundAs(err, "Product not found", "get product")
	}
	return nil
}

// summaries загружает краткие данные товаров из корзины и списка желаемого.
func (s *Service) summaries(ctx context.Context, u *model.User) (map[uuid.UUID]model.ProductSummary, error) {
	ids := make([]uuid.UUID, 0, len(u.Wishlist)+len(u.Cart))
	ids = append(ids, u.Wishlist...)
	for _, it := range u.Cart {
		ids = append(ids, it.ProductID)
	}
	if len(ids) == 0 {
		return map[uuid.UUID]model.ProductSummary{}, nil
	}

	products, err := s.repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}

	res := make(map[uuid.UUID]model.ProductSummary, len(products))
	for i := range products {
		res[products[i].ID] = products[i].Summary()
	}
	return res, nil
}

// populateWishlist пропускает товары, удалённые из каталога.
func populateWishlist(ids []uuid.UUID, summaries map[uuid.UUID]model.ProductSummary) []model.ProductSummary {
	res := make([]model.ProductSummary, 0, len(ids))
	for _, id := range ids {
		if p, ok := summaries[id]; ok {
			res = append(res, p)
		}
	}
	return res
}

func populateCart(cart []model.CartItem, summaries map[uuid.UUID]model.ProductSummary) []model.CartLine {
	res := make([]model.CartLine, 0, len(cart))
	for _, it := range cart {
		line := model.CartLine{ProductID: it.ProductID, Quantity: it.Quantity}
		if p, ok := summaries[it.ProductID]; ok {
			line.Product = &p
		}
		res = append(res, line)
	}
	return res
}

package handler

import (
	"net/http"

	"github.com/mmeshcher/keystore/internal/model"
	"github.com/mmeshcher/keystore/internal/service"
	"github.com/mmeshcher/keystore/internal/validation"
)

var userSorts = validation.SortValues("createdAt", "fullname", "email")

// ListUsers возвращает страницу пользователей.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := validation.NewQuery(r.URL.Query())
	f := model.UserFilter{
		Role:   model.Role(q.OneOf("role", validation.Strings(model.Roles), "Invalid role")),
		Search: q.String("search"),
		Sort:   model.ParseSort(q.OneOf("sort", userSorts, "Invalid sort field")),
		Page:   q.Page(),
		Limit:  q.Limit(service.DefaultUserLimit, service.MaxUserLimit),
	}
	if err := q.Err(); err != nil {
		h.handleError(w, r, err)
		return
	}

	p, err := h.service.ListUsers(r.Context(), f)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	page(w, p)
}

// GetUser возвращает пользователя с корзиной и списком желаемого.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, valid := pathID(w, r, "id")
	if !valid {
		return
	}

	u, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	ok(w, http.StatusOK, "", u)
}

// UpdateUser изменяет данные пользователя.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, valid := pathID(w, r, "id")
	if !valid {
		return
	}

	var req model.UpdateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.service.UpdateUser(r.Context(), id, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	ok(w, http.StatusOK, "User updated successfully", u)
}

// DeleteUser удаляет пользователя.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	user, found := currentUser(w, r)
	if !found {
		return
	}
	id, valid := pathID(w, r, "id")
	if !valid {
		return
	}

	if err := h.service.DeleteUser(r.Context(), user.ID, id); err != nil {
		h.handleError(w, r, err)
		return
	}
	ok(w, http.StatusOK, "User deleted successfully", nil)
}

// Wishlist возвращает список желаемого текущего пользователя.
func (h *Handler) Wishlist(w http.ResponseWriter, r *http.Request) {
	user, found := currentUser(w, r)
	if !found {
		return
	}

	items, err := h.service.Wishlist(r.Context(), user.ID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	list(w, items)
}

// AddToWishlist добавляет товар в список желаемого.
func (h *Handler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	user, found := currentUser(w, r)
	if !found {
		return
	}
	productID, valid := pathID(w, r, "productId")
	if !valid {
		return
	}

	items, err := h.service.AddToWishlist(r.Context(), user.ID, productID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Product added to wishlist", items)
}

// RemoveFromWishlist удаляет товар из списка желаемого.
func (h *Handler) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	user, found := currentUser(w, r)
	if !found {
		return
	}
	productID, valid := pathID(w, r, "productId")
	if !valid {
		return
	}

	items, err := h.service.RemoveFromWishlist(r.Context(), user.ID, productID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Product removed from wishlist", items)
}

// Cart возвращает корзину текущего пользователя.
func (h *Handler) Cart(w http.ResponseWriter, r *http.Request) {
	user, found := currentUser(w, r)
	if !found {
		return
	}

	lines, err := h.service.Cart(r.Context(), user.ID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	list(w, lines)
}

// AddToCart добавляет товар в корзину.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	user, found := currentUser(w, r)
	if !found {
		return
	}

	var req model.AddToCartRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	lines, err := h.service.AddToCart(r.Context(), user.ID, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Product added to cart", lines)
}

// UpdateCartItem задаёт количество товара в корзине.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	user, found := currentUser(w, r)
	if !found {
		return
	}
	productID, valid := pathID(w, r, "productId")
	if !valid {
		return
	}

	var req model.UpdateCartRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	lines, err := h.service.UpdateCartItem(r.Context(), user.ID, productID, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Cart updated", lines)
}

// RemoveFromCart удаляет товар из корзины.
func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	user, found := currentUser(w, r)
	if !found {
		return
	}
	productID, valid := pathID(w, r, "productId")
	if !valid {
		return
	}

	lines, err := h.service.RemoveFromCart(r.Context(), user.ID, productID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Product removed from cart", lines)
}

// ClearCart очищает корзину.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	user, found := currentUser(w, r)
	if !found {
		return
	}

	if err := h.service.ClearCart(r.Context(), user.ID); err != nil {
		h.handleError(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Cart cleared", []model.CartLine{})
}

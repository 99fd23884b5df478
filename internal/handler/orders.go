package handler

import (
	"net/http"

	"github.com/mmeshcher/keystore/internal/model"
	"github.com/mmeshcher/keystore/internal/service"
	"github.com/mmeshcher/keystore/internal/validation"
)

var adminOrderSorts = validation.SortValues("createdAt", "total")

// CreateOrder оформляет заказ текущего пользователя.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	user, found := currentUser(w, r)
	if !found {
		return
	}

	var req model.CreateOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	o, err := h.service.CreateOrder(r.Context(), user.ID, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	ok(w, http.StatusCreated, "Order created successfully", o)
}

// ListOrders возвращает заказы текущего пользователя.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	user, found := currentUser(w, r)
	if !found {
		return
	}

	q := validation.NewQuery(r.URL.Query())
	f := model.OrderFilter{
		Status: model.OrderStatus(q.OneOf("status", validation.Strings(model.OrderStatuses), "Invalid status")),
		Page:   q.Page(),
		Limit:  q.Limit(service.DefaultOrderLimit, service.MaxOrderLimit),
	}
	if err := q.Err(); err != nil {
		h.handleError(w, r, err)
		return
	}

	p, err := h.service.ListOrders(r.Context(), user.ID, f)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	page(w, p)
}

// ListAllOrders возвращает заказы всех пользователей.
func (h *Handler) ListAllOrders(w http.ResponseWriter, r *http.Request) {
	q := validation.NewQuery(r.URL.Query())
	f := model.OrderFilter{
		Status:        model.OrderStatus(q.OneOf("status", validation.Strings(model.OrderStatuses), "Invalid status")),
		PaymentStatus: model.PaymentStatus(q.OneOf("paymentStatus", validation.Strings(model.PaymentStatuses), "Invalid payment status")),
		Sort:          model.ParseSort(q.OneOf("sort", adminOrderSorts, "Invalid sort field")),
		Page:          q.Page(),
		Limit:         q.Limit(service.DefaultAdminOrderLimit, service.MaxAdminOrderLimit),
	}
	if err := q.Err(); err != nil {
		h.handleError(w, r, err)
		return
	}

	p, err := h.service.ListAllOrders(r.Context(), f)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	page(w, p)
}

// GetOrder возвращает заказ владельцу или администратору.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	user, found := currentUser(w, r)
	if !found {
		return
	}
	id, valid := pathID(w, r, "id")
	if !valid {
		return
	}

	o, err := h.service.GetOrder(r.Context(), user, id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	ok(w, http.StatusOK, "", o)
}

// CancelOrder отменяет заказ по запросу владельца.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	user, found := currentUser(w, r)
	if !found {
		return
	}
	id, valid := pathID(w, r, "id")
	if !valid {
		return
	}

	var req model.CancelOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	o, err := h.service.CancelOrder(r.Context(), user.ID, id, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Order cancelled successfully", o)
}

// UpdateOrderStatus меняет статус заказа.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	user, found := currentUser(w, r)
	if !found {
		return
	}
	id, valid := pathID(w, r, "id")
	if !valid {
		return
	}

	var req model.UpdateOrderStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	o, err := h.service.UpdateStatus(r.Context(), user.ID, id, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Order status updated successfully", o)
}

// AddGameKey выдаёт ключ активации по заказу.
func (h *Handler) AddGameKey(w http.ResponseWriter, r *http.Request) {
	id, valid := pathID(w, r, "id")
	if !valid {
		return
	}

	var req model.AddGameKeyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	o, err := h.service.AddGameKey(r.Context(), id, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Game key added successfully", o)
}

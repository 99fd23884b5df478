package handler

import (
	"net/http"

	"github.com/mmeshcher/keystore/internal/model"
	"github.com/mmeshcher/keystore/internal/service"
	"github.com/mmeshcher/keystore/internal/validation"
)

var productSorts = validation.SortValues("price", "name", "createdAt")

// ListProducts возвращает страницу каталога с фильтрами.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := validation.NewQuery(r.URL.Query())
	f := model.ProductFilter{
		Category: model.Category(q.OneOf("category", validation.Strings(model.Categories), "Invalid category")),
		Platform: model.Platform(q.OneOf("platform", validation.Strings(model.Platforms), "Invalid platform")),
		Search:   q.String("search"),
		MinPrice: q.Decimal("minPrice", "Min price must be a positive number"),
		MaxPrice: q.Decimal("maxPrice", "Max price must be a positive number"),
		Sort:     model.ParseSort(q.OneOf("sort", productSorts, "Invalid sort field")),
		Page:     q.Page(),
		Limit:    q.Limit(service.DefaultProductLimit, service.MaxProductLimit),
	}
	if err := q.Err(); err != nil {
		h.handleError(w, r, err)
		return
	}

	p, err := h.service.ListProducts(r.Context(), f)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	page(w, p)
}

// Slice возвращает обработчик подборки каталога.
func (h *Handler) Slice(slice model.Slice) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := h.service.Slice(r.Context(), slice)
		if err != nil {
			h.handleError(w, r, err)
			return
		}
		list(w, items)
	}
}

// GetProduct возвращает товар по идентификатору.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, valid := pathID(w, r, "id")
	if !valid {
		return
	}

	p, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	ok(w, http.StatusOK, "", p)
}

// CreateProduct добавляет товар в каталог.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var in model.ProductInput
	if !decodeJSON(w, r, &in) {
		return
	}

	p, err := h.service.CreateProduct(r.Context(), in)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	ok(w, http.StatusCreated, "Product created successfully", p)
}

// UpdateProduct частично обновляет товар.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, valid := pathID(w, r, "id")
	if !valid {
		return
	}

	var in model.ProductInput
	if !decodeJSON(w, r, &in) {
		return
	}

	p, err := h.service.UpdateProduct(r.Context(), id, in)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Product updated successfully", p)
}

// DeleteProduct удаляет товар.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, valid := pathID(w, r, "id")
	if !valid {
		return
	}

	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		h.handleError(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Product deleted successfully", nil)
}

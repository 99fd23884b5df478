package handler

import (
	"net/http"

	"github.com/mmeshcher/keystore/internal/model"
)

// Register обрабатывает регистрацию нового пользователя.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.service.Register(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	ok(w, http.StatusCreated, "User registered successfully", res)
}

// Login обрабатывает вход пользователя.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.service.Login(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Login successful", res)
}

// Me возвращает профиль текущего пользователя.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, found := currentUser(w, r)
	if !found {
		return
	}

	u, err := h.service.Me(r.Context(), user.ID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	ok(w, http.StatusOK, "", u)
}

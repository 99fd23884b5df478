package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mmeshcher/keystore/internal/middleware"
	"github.com/mmeshcher/keystore/internal/model"
	"github.com/mmeshcher/keystore/internal/repository"
	"github.com/mmeshcher/keystore/internal/service"
	"github.com/mmeshcher/keystore/internal/validation"
	"go.uber.org/zap"
)

const maxBodySize = 10 << 20

// envelope описывает единый формат ответа API.
type envelope struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message,omitempty"`
	Data       any               `json:"data,omitempty"`
	Errors     validation.Errors `json:"errors,omitempty"`
	Count      *int              `json:"count,omitempty"`
	Total      *int64            `json:"total,omitempty"`
	Pagination *model.Pagination `json:"pagination,omitempty"`
	Error      string            `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func ok(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

func list[T any](w http.ResponseWriter, items []T) {
	n := len(items)
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: items, Count: &n})
}

func page[T any](w http.ResponseWriter, p model.Page[T]) {
	n := len(p.Items)
	writeJSON(w, http.StatusOK, envelope{
		Success:    true,
		Data:       p.Items,
		Count:      &n,
		Total:      &p.Total,
		Pagination: &p.Pagination,
	})
}

func failure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Message: message})
}

func validationFailed(w http.ResponseWriter, errs validation.Errors) {
	writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: "Validation failed", Errors: errs})
}

// statusOf сопоставляет категорию ошибки сервиса коду ответа.
func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrConflict),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrUnavailable),
		errors.Is(err, service.ErrInvalidReference),
		errors.Is(err, service.ErrSelfDelete):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// handleError пишет ответ для ошибки сервиса.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	if errs, isValidation := validation.AsErrors(err); isValidation {
		validationFailed(w, errs)
		return
	}

	status := statusOf(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		resp := envelope{Success: false, Message: "Internal server error"}
		if h.development {
			resp.Error = err.Error()
		}
		writeJSON(w, status, resp)
		return
	}

	var se *service.Error
	switch {
	case errors.As(err, &se):
		failure(w, status, se.Message)
	case status == http.StatusNotFound:
		failure(w, status, "Resource not found")
	case errors.Is(err, repository.ErrConflict):
		failure(w, status, "Resource already exists")
	default:
		failure(w, status, err.Error())
	}
}

// decodeJSON читает тело запроса в dst. Пустое тело допустимо.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		validationFailed(w, validation.Errors{{Field: "body", Message: "Invalid JSON body"}})
		return false
	}
	return true
}

// pathID разбирает идентификатор из параметра маршрута name.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		validationFailed(w, validation.Errors{{Field: name, Message: "Invalid ID format"}})
		return uuid.Nil, false
	}
	return id, true
}

// currentUser возвращает пользователя, добавленного в контекст middleware.Protect.
func currentUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	u, found := middleware.UserFromContext(r.Context())
	if !found {
		failure(w, http.StatusUnauthorized, "Access denied. User not authenticated.")
		return nil, false
	}
	return u, true
}

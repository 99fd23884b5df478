// Package middleware содержит HTTP middleware магазина ключей.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/mmeshcher/keystore/internal/model"
	"github.com/mmeshcher/keystore/internal/service"
	"go.uber.org/zap"
)

type contextKey string

const userKey contextKey = "user"

// Authenticator проверяет токен доступа и возвращает его владельца.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

// AuthMiddleware проверяет bearer-токен и добавляет пользователя в контекст запроса.
type AuthMiddleware struct {
	auth   Authenticator
	logger *zap.Logger
}

// NewAuthMiddleware создаёт новый экземпляр AuthMiddleware.
func NewAuthMiddleware(auth Authenticator, logger *zap.Logger) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{auth: auth, logger: logger}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(h, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// Protect пропускает запрос дальше только с действительным токеном активного пользователя.
func (a *AuthMiddleware) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Access denied. No token provided.")
			return
		}

		user, err := a.auth.Authenticate(r.Context(), token)
		if err != nil {
			var se *service.Error
			if errors.As(err, &se) && errors.Is(err, service.ErrUnauthorized) {
				writeError(w, http.StatusUnauthorized, se.Message)
				return
			}
			a.logger.Error("authenticate request", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// Optional добавляет пользователя в контекст, если токен действителен, и никогда не отклоняет запрос.
func (a *AuthMiddleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := bearerToken(r); token != "" {
			if user, err := a.auth.Authenticate(r.Context(), token); err == nil {
				r = r.WithContext(WithUser(r.Context(), user))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Authorize пропускает только пользователей с одной из ролей roles.
// Должен подключаться после Protect.
func Authorize(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "Access denied. User not authenticated.")
				return
			}
			if !slices.Contains(roles, user.Role) {
				writeError(w, http.StatusForbidden,
					fmt.Sprintf("User role '%s' is not authorized to access this route.", user.Role))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithUser возвращает контекст с пользователем.
func WithUser(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext извлекает пользователя из контекста запроса.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok && u != nil
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": message,
	})
}

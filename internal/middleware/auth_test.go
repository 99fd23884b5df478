package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/mmeshcher/keystore/internal/model"
	"github.com/mmeshcher/keystore/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuth struct {
	users map[string]*model.User
	err   error
}

func (s *stubAuth) Authenticate(_ context.Context, token string) (*model.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[token]
	if !ok {
		return nil, &service.Error{Kind: service.ErrUnauthorized, Message: "Token is not valid."}
	}
	return u, nil
}

func newStubAuth() (*stubAuth, *model.User, *model.User) {
	user := &model.User{ID: uuid.New(), Role: model.RoleUser, IsActive: true}
	admin := &model.User{ID: uuid.New(), Role: model.RoleAdmin, IsActive: true}
	return &stubAuth{users: map[string]*model.User{"user-token": user, "admin-token": admin}}, user, admin
}

func decodeMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.False(t, body.Success)
	return body.Message
}

func TestProtect(t *testing.T) {
	stub, user, _ := newStubAuth()
	m := NewAuthMiddleware(stub, nil)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantMsg    string
	}{
		{name: "no header", wantStatus: http.StatusUnauthorized, wantMsg: "Access denied. No token provided."},
		{name: "not bearer", header: "Basic abc", wantStatus: http.StatusUnauthorized, wantMsg: "Access denied. No token provided."},
		{name: "unknown token", header: "Bearer nope", wantStatus: http.StatusUnauthorized, wantMsg: "Token is not valid."},
		{name: "valid token", header: "Bearer user-token", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, ok := UserFromContext(r.Context())
				require.True(t, ok)
				assert.Equal(t, user.ID, got.ID)
			})

			r := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			m.Protect(next).ServeHTTP(w, r)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, decodeMessage(t, w))
			}
		})
	}
}

func TestProtect_InternalError(t *testing.T) {
	m := NewAuthMiddleware(&stubAuth{err: errors.New("db down")}, nil)

	r := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.Header.Set("Authorization", "Bearer user-token")
	w := httptest.NewRecorder()
	m.Protect(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatalf("next handler should not be called")
	})).ServeHTTP(w, r)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestOptional(t *testing.T) {
	stub, _, _ := newStubAuth()
	m := NewAuthMiddleware(stub, nil)

	for _, header := range []string{"", "Bearer nope", "Bearer user-token"} {
		called := false
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		m.Optional(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			_, ok := UserFromContext(r.Context())
			assert.Equal(t, header == "Bearer user-token", ok)
		})).ServeHTTP(httptest.NewRecorder(), r)
		assert.True(t, called, header)
	}
}

func TestAuthorize(t *testing.T) {
	stub, _, _ := newStubAuth()
	m := NewAuthMiddleware(stub, nil)
	h := m.Protect(Authorize(model.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	r := httptest.NewRequest(http.MethodGet, "/admin", nil)
	r.Header.Set("Authorization", "Bearer user-token")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "User role 'user' is not authorized to access this route.", decodeMessage(t, w))

	r = httptest.NewRequest(http.MethodGet, "/admin", nil)
	r.Header.Set("Authorization", "Bearer admin-token")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAuthorize_WithoutUser(t *testing.T) {
	w := httptest.NewRecorder()
	Authorize(model.RoleUser)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatalf("next handler should not be called")
	})).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Access denied. User not authenticated.", decodeMessage(t, w))
}

package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mmeshcher/keystore/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokens_IssueVerify(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)
	id := uuid.New()

	token, expiresAt, err := tokens.Issue(id, model.RoleAdmin)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, model.RoleAdmin, claims.Role)
	assert.Equal(t, id.String(), claims.Subject)
}

func TestTokens_Expired(t *testing.T) {
	tokens := NewTokens("test-secret", time.Minute)
	token, _, err := tokens.Issue(uuid.New(), model.RoleUser)
	require.NoError(t, err)

	tokens.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	_, err = tokens.Verify(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestTokens_Invalid(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)
	other := NewTokens("another-secret", time.Hour)

	foreign, _, err := other.Issue(uuid.New(), model.RoleUser)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: uuid.New()}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"wrong secret", foreign},
		{"alg none", none},
		{"no user id", noUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := tokens.Verify(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, claims)
		})
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("admin123456")
	require.NoError(t, err)
	assert.NotEqual(t, "admin123456", hash)

	assert.True(t, CheckPassword(hash, "admin123456"))
	assert.False(t, CheckPassword(hash, "wrong"))
}

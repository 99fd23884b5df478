// Package auth выпускает и проверяет токены доступа и хеширует пароли.
package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mmeshcher/keystore/internal/model"
)

var (
	// ErrInvalidToken возвращается для токена с неверной подписью или структурой.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken возвращается для просроченного токена.
	ErrExpiredToken = errors.New("token has expired")
)

// Claims содержит утверждения токена доступа.
type Claims struct {
	UserID uuid.UUID  `json:"uid"`
	Role   model.Role `json:"role"`
	jwt.RegisteredClaims
}

// Tokens выпускает и проверяет токены доступа, подписанные HS256.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens создаёт Tokens. Пустой секрет заменяется случайным ключом,
// так что выданные токены перестают действовать после перезапуска.
func NewTokens(secret string, ttl time.Duration) *Tokens {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		_, _ = rand.Read(key)
	}
	return &Tokens{secret: key, ttl: ttl, now: time.Now}
}

// Issue выпускает токен доступа для пользователя.
func (t *Tokens) Issue(userID uuid.UUID, role model.Role) (string, time.Time, error) {
	now := t.now()
	expiresAt := now.Add(t.ttl)

	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify проверяет подпись и срок действия токена.
func (t *Tokens) Verify(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID == uuid.Nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// TTL возвращает срок действия выпускаемых токенов.
func (t *Tokens) TTL() time.Duration {
	return t.ttl
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mmeshcher/keystore/internal/auth"
	"github.com/mmeshcher/keystore/internal/model"
	"github.com/mmeshcher/keystore/internal/repository"
	"github.com/mmeshcher/keystore/internal/validation"
	"go.uber.org/zap"
)

// Register регистрирует покупателя и выдаёт токен доступа.
func (s *Service) Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResponse, error) {
	if err := validation.Struct(&req); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{
		Fullname:     strings.TrimSpace(req.Fullname),
		Email:        req.Email,
		PasswordHash: hash,
		Role:         model.RoleUser,
		IsActive:     true,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fail(repository.ErrConflict, "Email already exists")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.issue(u)
}

// Login проверяет учётные данные и выдаёт токен доступа.
func (s *Service) Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error) {
	if err := validation.Struct(&req); err != nil {
		return nil, err
	}

	u, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fail(ErrUnauthorized, "Invalid email or password")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		return nil, fail(ErrUnauthorized, "Invalid email or password")
	}
	if !u.IsActive {
		return nil, fail(ErrUnauthorized, "Account has been deactivated.")
	}

	return s.issue(u)
}

func (s *Service) issue(u *model.User) (*model.AuthResponse, error) {
	token, expiresAt, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return nil, err
	}
	return &model.AuthResponse{Token: token, ExpiresAt: expiresAt, User: *u}, nil
}

// Me возвращает профиль пользователя.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, notFoundAs(err, "User not found", "get user")
	}
	return u, nil
}

// Authenticate проверяет токен и возвращает активного владельца токена.
func (s *Service) Authenticate(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, fail(ErrUnauthorized, "Token is not valid.")
	}

	u, err := s.repo.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fail(ErrUnauthorized, "Token is not valid.")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !u.IsActive {
		return nil, fail(ErrUnauthorized, "Account has been deactivated.")
	}
	return u, nil
}

// EnsureAdmin создаёт администратора, если в системе нет ни одного.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	_, total, err := s.repo.ListUsers(ctx, model.UserFilter{Role: model.RoleAdmin, Page: 1, Limit: 1})
	if err != nil {
		return fmt.Errorf("list admins: %w", err)
	}
	if total > 0 {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	admin := &model.User{
		Fullname:     "KIENSTORE Admin",
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		IsActive:     true,
	}
	if err := s.repo.CreateUser(ctx, admin); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	s.logger.Info("admin account created", zap.String("email", admin.Email))
	return nil
}

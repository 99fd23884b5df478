// Package service реализует бизнес-логику магазина ключей: каталог, корзину,
// список желаемого, оформление и обработку заказов.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mmeshcher/keystore/internal/auth"
	"github.com/mmeshcher/keystore/internal/cache"
	"github.com/mmeshcher/keystore/internal/events"
	"github.com/mmeshcher/keystore/internal/model"
	"github.com/mmeshcher/keystore/internal/repository"
	"go.uber.org/zap"
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	repository.Store
	WithinTx(ctx context.Context, fn func(repository.Store) error) error
	Ping(ctx context.Context) error
	Close() error
}

// Cache описывает кэш подборок каталога.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	DeletePattern(ctx context.Context, pattern string) error
}

// Publisher описывает издателя уведомлений о заказах.
type Publisher interface {
	Publish(ctx context.Context, e events.Event) error
}

// Service содержит бизнес-логику магазина.
type Service struct {
	repo      Repository
	tokens    *auth.Tokens
	cache     Cache
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewService создаёт сервис. Пустые cache и publisher заменяются заглушками.
func NewService(repo Repository, tokens *auth.Tokens, c Cache, p Publisher, logger *zap.Logger) *Service {
	if c == nil {
		c = cache.Nop{}
	}
	if p == nil {
		p = events.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:      repo,
		tokens:    tokens,
		cache:     c,
		publisher: p,
		logger:    logger,
		now:       time.Now,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// Ping проверяет доступность хранилища.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// publish отправляет уведомление о заказе. Ошибка публикации только логируется.
func (s *Service) publish(ctx context.Context, t events.Type, o *model.Order, productID *uuid.UUID) {
	e := events.NewOrderEvent(t, o)
	e.ProductID = productID
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn("publish order event",
			zap.String("type", string(t)),
			zap.String("order_id", o.ID.String()),
			zap.Error(err),
		)
	}
}

// invalidateSlices сбрасывает кэш подборок после изменения товаров.
func (s *Service) invalidateSlices(ctx context.Context) {
	if err := s.cache.DeletePattern(ctx, sliceKeyPrefix+"*"); err != nil {
		s.logger.Warn("invalidate slice cache", zap.Error(err))
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mmeshcher/keystore/internal/model"
	"github.com/mmeshcher/keystore/internal/repository"
	"github.com/mmeshcher/keystore/internal/validation"
	"go.uber.org/zap"
)

const (
	DefaultProductLimit = 12
	MaxProductLimit     = 100

	sliceKeyPrefix = "slice:"
)

func normalizePage(page, limit, def, max int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	return page, limit
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}

// ListProducts возвращает страницу активных товаров каталога.
func (s *Service) ListProducts(ctx context.Context, f model.ProductFilter) (model.Page[model.Product], error) {
	f.Page, f.Limit = normalizePage(f.Page, f.Limit, DefaultProductLimit, MaxProductLimit)

	items, total, err := s.repo.ListProducts(ctx, f)
	if err != nil {
		return model.Page[model.Product]{}, fmt.Errorf("list products: %w", err)
	}
	return model.NewPage(items, total, f.Page, f.Limit), nil
}

// GetProduct возвращает активный товар и увеличивает счётчик просмотров.
func (s *Service) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "Product not found", "get product")
	}
	if !p.IsActive {
		return nil, fail(repository.ErrNotFound, "Product not found")
	}

	if err := s.repo.IncrementViews(ctx, id); err != nil {
		s.logger.Warn("increment views", zap.String("product_id", id.String()), zap.Error(err))
	} else {
		p.Views++
	}
	return p, nil
}

// Slice возвращает подборку каталога, используя кэш.
func (s *Service) Slice(ctx context.Context, slice model.Slice) ([]model.Product, error) {
	key := sliceKeyPrefix + string(slice)

	var cached []model.Product
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.Warn("read slice cache", zap.String("slice", string(slice)), zap.Error(err))
	}
	if hit {
		if slice == model.SliceSale {
			cached = activeSales(cached, s.now())
		}
		return cached, nil
	}

	items, err := s.repo.ListSlice(ctx, slice, s.now(), model.SliceSize)
	if err != nil {
		return nil, notFoundAs(err, "Route not found", "list slice")
	}
	if items == nil {
		items = []model.Product{}
	}

	if err := s.cache.Set(ctx, key, items); err != nil {
		s.logger.Warn("write slice cache", zap.String("slice", string(slice)), zap.Error(err))
	}
	return items, nil
}

// activeSales отбрасывает товары, распродажа которых закончилась после записи в кэш.
func activeSales(items []model.Product, now time.Time) []model.Product {
	res := make([]model.Product, 0, len(items))
	for _, p := range items {
		if p.IsSale && p.SaleEndDate != nil && p.SaleEndDate.After(now) {
			res = append(res, p)
		}
	}
	return res
}

// CreateProduct добавляет товар в каталог.
func (s *Service) CreateProduct(ctx context.Context, in model.ProductInput) (*model.Product, error) {
	if err := validation.ProductCreate(&in); err != nil {
		return nil, err
	}

	p := &model.Product{IsActive: true}
	in.Apply(p)
	if err := validation.Product(p); err != nil {
		return nil, err
	}

	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.invalidateSlices(ctx)
	return p, nil
}

// UpdateProduct частично обновляет товар и проверяет результат целиком.
// Строка товара блокируется до записи, чтобы не затереть остаток,
// списанный параллельным оформлением заказа.
func (s *Service) UpdateProduct(ctx context.Context, id uuid.UUID, in model.ProductInput) (*model.Product, error) {
	var p *model.Product
	err := s.repo.WithinTx(ctx, func(tx repository.Store) error {
		locked, err := tx.LockProducts(ctx, []uuid.UUID{id})
		if err != nil {
			return fmt.Errorf("lock product: %w", err)
		}
		cur, ok := locked[id]
		if !ok {
			return fail(repository.ErrNotFound, "Product not found")
		}

		in.Apply(cur)
		if err := validation.Product(cur); err != nil {
			return err
		}
		if err := tx.UpdateProduct(ctx, cur); err != nil {
			return notFoundAs(err, "Product not found", "update product")
		}
		p = cur
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateSlices(ctx)
	return p, nil
}

// DeleteProduct удаляет товар из каталога.
func (s *Service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return notFoundAs(err, "Product not found", "delete product")
	}

	s.invalidateSlices(ctx)
	return nil
}

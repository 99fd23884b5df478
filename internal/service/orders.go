package service

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/mmeshcher/keystore/internal/events"
	"github.com/mmeshcher/keystore/internal/model"
	"github.com/mmeshcher/keystore/internal/repository"
	"github.com/mmeshcher/keystore/internal/validation"
	"github.com/shopspring/decimal"
)

const (
	DefaultOrderLimit      = 10
	MaxOrderLimit          = 50
	DefaultAdminOrderLimit = 20
	MaxAdminOrderLimit     = 100
)

// quantityLimit возвращает ошибку валидации поля при превышении MaxQuantity.
func quantityLimit(field string) error {
	var errs validation.Errors
	errs.Add(field, fmt.Sprintf("Quantity cannot exceed %d", model.MaxQuantity))
	return errs
}

// mergeLines объединяет повторяющиеся позиции, сохраняя порядок первого появления.
// Суммарное количество товара не может превышать MaxQuantity.
func mergeLines(lines []model.OrderLine) ([]model.OrderLine, error) {
	idx := make(map[uuid.UUID]int, len(lines))
	out := make([]model.OrderLine, 0, len(lines))
	for _, l := range lines {
		if l.Quantity < 1 || l.Quantity > model.MaxQuantity {
			return nil, quantityLimit("items")
		}
		if i, ok := idx[l.ProductID]; ok {
			if out[i].Quantity > model.MaxQuantity-l.Quantity {
				return nil, quantityLimit("items")
			}
			out[i].Quantity += l.Quantity
			continue
		}
		idx[l.ProductID] = len(out)
		out = append(out, l)
	}
	return out, nil
}

// CreateOrder оформляет заказ. Проверка товаров, списание остатков,
// создание заказа и очистка корзины выполняются в одной транзакции.
func (s *Service) CreateOrder(ctx context.Context, userID uuid.UUID, req model.CreateOrderRequest) (*model.Order, error) {
	if err := validation.Struct(&req); err != nil {
		return nil, err
	}

	lines, err := mergeLines(req.Items)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(lines))
	for i, l := range lines {
		ids[i] = l.ProductID
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })

	var order *model.Order
	err = s.repo.WithinTx(ctx, func(tx repository.Store) error {
		products, err := tx.LockProducts(ctx, ids)
		if err != nil {
			return fmt.Errorf("lock products: %w", err)
		}

		now := s.now()
		items := make([]model.OrderItem, 0, len(lines))
		subtotal := decimal.Zero
		for _, l := range lines {
			p, ok := products[l.ProductID]
			if !ok {
				return fail(repository.ErrNotFound, "Product with ID %s not found", l.ProductID)
			}
			if !p.IsActive {
				return fail(ErrUnavailable, "Product %s is not available", p.Name)
			}
			if p.Stock < l.Quantity {
				return fail(ErrInsufficientStock, "Insufficient stock for %s", p.Name)
			}

			price := p.EffectivePrice(now)
			total := price.Mul(decimal.NewFromInt(int64(l.Quantity)))
			items = append(items, model.OrderItem{
				ProductID: p.ID,
				Name:      p.Name,
				Quantity:  l.Quantity,
				Price:     price,
				Total:     total,
			})
			subtotal = subtotal.Add(total)
		}

		for _, it := range items {
			if err := tx.AdjustStock(ctx, it.ProductID, -it.Quantity, it.Quantity); err != nil {
				return fmt.Errorf("adjust stock: %w", err)
			}
		}

		order = &model.Order{
			UserID:          userID,
			Items:           items,
			Subtotal:        subtotal,
			Discount:        decimal.Zero,
			Total:           subtotal,
			Status:          model.OrderStatusPending,
			PaymentMethod:   req.PaymentMethod,
			PaymentStatus:   model.PaymentStatusPending,
			ShippingAddress: req.ShippingAddress,
			Notes:           strings.TrimSpace(req.Notes),
			GameKeys:        []model.GameKey{},
		}
		if err := tx.CreateOrder(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		if err := tx.SaveCart(ctx, userID, []model.CartItem{}); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateSlices(ctx)
	s.publish(ctx, events.OrderCreated, order, nil)
	return order, nil
}

// ListOrders возвращает заказы пользователя, новые первыми.
func (s *Service) ListOrders(ctx context.Context, userID uuid.UUID, f model.OrderFilter) (model.Page[model.Order], error) {
	f.UserID = &userID
	f.Sort = model.SortSpec{Field: "createdAt", Desc: true}
	f.Page, f.Limit = normalizePage(f.Page, f.Limit, DefaultOrderLimit, MaxOrderLimit)

	items, total, err := s.repo.ListOrders(ctx, f)
	if err != nil {
		return model.Page[model.Order]{}, fmt.Errorf("list orders: %w", err)
	}
	return model.NewPage(items, total, f.Page, f.Limit), nil
}

// ListAllOrders возвращает заказы всех пользователей для администратора.
func (s *Service) ListAllOrders(ctx context.Context, f model.OrderFilter) (model.Page[model.Order], error) {
	f.UserID = nil
	f.Page, f.Limit = normalizePage(f.Page, f.Limit, DefaultAdminOrderLimit, MaxAdminOrderLimit)

	items, total, err := s.repo.ListOrders(ctx, f)
	if err != nil {
		return model.Page[model.Order]{}, fmt.Errorf("list orders: %w", err)
	}
	return model.NewPage(items, total, f.Page, f.Limit), nil
}

// GetOrder возвращает заказ владельцу или администратору.
func (s *Service) GetOrder(ctx context.Context, user *model.User, orderID uuid.UUID) (*model.Order, error) {
	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, notFoundAs(err, "Order not found", "get order")
	}
	if o.UserID != user.ID && user.Role != model.RoleAdmin {
		return nil, fail(ErrForbidden, "Not authorized to access this order")
	}
	return o, nil
}

// restoreStock возвращает на склад товары отменённого заказа.
// Удалённые из каталога товары пропускаются.
func restoreStock(ctx context.Context, tx repository.Store, o *model.Order) error {
	for _, it := range o.Items {
		err := tx.AdjustStock(ctx, it.ProductID, it.Quantity, -it.Quantity)
		if err != nil && !isNotFound(err) {
			return fmt.Errorf("restore stock: %w", err)
		}
	}
	return nil
}

func (s *Service) markCancelled(o *model.Order, by uuid.UUID, reason string) {
	now := s.now()
	o.Status = model.OrderStatusCancelled
	o.CancelledAt = &now
	o.CancellationReason = strings.TrimSpace(reason)
	o.CancelledBy = &by
}

// CancelOrder отменяет ожидающий заказ по запросу владельца и возвращает остатки.
func (s *Service) CancelOrder(ctx context.Context, userID, orderID uuid.UUID, req model.CancelOrderRequest) (*model.Order, error) {
	if err := validation.Struct(&req); err != nil {
		return nil, err
	}

	var order *model.Order
	err := s.repo.WithinTx(ctx, func(tx repository.Store) error {
		o, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return notFoundAs(err, "Order not found", "lock order")
		}
		if o.UserID != userID {
			return fail(ErrForbidden, "Not authorized to cancel this order")
		}
		if o.Status != model.OrderStatusPending {
			return fail(ErrInvalidTransition, "Order cannot be cancelled at this stage")
		}

		if err := restoreStock(ctx, tx, o); err != nil {
			return err
		}
		s.markCancelled(o, userID, req.Reason)
		if err := tx.UpdateOrder(ctx, o); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateSlices(ctx)
	s.publish(ctx, events.OrderCancelled, order, nil)
	return order, nil
}

// UpdateStatus меняет статус заказа по таблице допустимых переходов.
func (s *Service) UpdateStatus(ctx context.Context, adminID, orderID uuid.UUID, req model.UpdateOrderStatusRequest) (*model.Order, error) {
	if err := validation.Struct(&req); err != nil {
		return nil, err
	}

	var (
		order    *model.Order
		restored bool
	)
	err := s.repo.WithinTx(ctx, func(tx repository.Store) error {
		o, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return notFoundAs(err, "Order not found", "lock order")
		}
		if !o.Status.CanTransitionTo(req.Status) {
			return fail(ErrInvalidTransition, "Cannot change order status from %s to %s", o.Status, req.Status)
		}

		prev := o.Status
		o.Status = req.Status
		if req.PaymentStatus != nil {
			o.PaymentStatus = *req.PaymentStatus
		}

		switch {
		case req.Status == model.OrderStatusCompleted && prev != model.OrderStatusCompleted:
			if req.PaymentStatus == nil {
				o.PaymentStatus = model.PaymentStatusPaid
			}
			now := s.now()
			o.DeliveredAt = &now
		case req.Status == model.OrderStatusCancelled && prev != model.OrderStatusCancelled:
			if err := restoreStock(ctx, tx, o); err != nil {
				return err
			}
			s.markCancelled(o, adminID, req.Reason)
			restored = true
		}

		if err := tx.UpdateOrder(ctx, o); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	if restored {
		s.invalidateSlices(ctx)
		s.publish(ctx, events.OrderCancelled, order, nil)
		return order, nil
	}
	s.publish(ctx, events.OrderStatusChanged, order, nil)
	return order, nil
}

// AddGameKey выдаёт ключ активации по товару из заказа.
func (s *Service) AddGameKey(ctx context.Context, orderID uuid.UUID, req model.AddGameKeyRequest) (*model.Order, error) {
	if err := validation.Struct(&req); err != nil {
		return nil, err
	}

	var order *model.Order
	err := s.repo.WithinTx(ctx, func(tx repository.Store) error {
		o, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return notFoundAs(err, "Order not found", "lock order")
		}
		if !o.HasProduct(req.ProductID) {
			return fail(ErrInvalidReference, "Product not found in order")
		}

		o.GameKeys = append(o.GameKeys, model.GameKey{
			ProductID: req.ProductID,
			Key:       strings.TrimSpace(req.Key),
			SentAt:    s.now(),
		})
		if err := tx.UpdateOrder(ctx, o); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	productID := req.ProductID
	s.publish(ctx, events.OrderGameKeyAdded, order, &productID)
	return order, nil
}

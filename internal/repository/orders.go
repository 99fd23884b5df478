package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mmeshcher/keystore/internal/model"
)

const orderColumns = `id, user_id, items, subtotal, discount, total, status, payment_method,
	payment_status, shipping_address, notes, game_keys, cancelled_at, cancellation_reason,
	cancelled_by, delivered_at, created_at, updated_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID, &o.UserID, &o.Items, &o.Subtotal, &o.Discount, &o.Total, &o.Status, &o.PaymentMethod,
		&o.PaymentStatus, &o.ShippingAddress, &o.Notes, &o.GameKeys, &o.CancelledAt, &o.CancellationReason,
		&o.CancelledBy, &o.DeliveredAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func gameKeysOrEmpty(keys []model.GameKey) []model.GameKey {
	if keys == nil {
		return []model.GameKey{}
	}
	return keys
}

// CreateOrder сохраняет новый заказ.
func (r *PostgresRepository) CreateOrder(ctx context.Context, o *model.Order) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	now := time.Now().UTC()
	o.CreatedAt, o.UpdatedAt = now, now

	_, err := r.db.Exec(ctx,
		`INSERT INTO orders (`+orderColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		o.ID, o.UserID, o.Items, o.Subtotal, o.Discount, o.Total, o.Status, o.PaymentMethod,
		o.PaymentStatus, o.ShippingAddress, o.Notes, gameKeysOrEmpty(o.GameKeys), o.CancelledAt, o.CancellationReason,
		o.CancelledBy, o.DeliveredAt, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// GetOrder возвращает заказ по идентификатору.
func (r *PostgresRepository) GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "order")
	}
	return o, nil
}

// LockOrder возвращает заказ с блокировкой строки.
func (r *PostgresRepository) LockOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFound(err, "order")
	}
	return o, nil
}

// UpdateOrder сохраняет изменяемые после создания поля заказа.
// Позиции и суммы заказа не перезаписываются.
func (r *PostgresRepository) UpdateOrder(ctx context.Context, o *model.Order) error {
	o.UpdatedAt = time.Now().UTC()

	tag, err := r.db.Exec(ctx,
		`UPDATE orders SET status = $2, payment_status = $3, game_keys = $4, cancelled_at = $5,
			cancellation_reason = $6, cancelled_by = $7, delivered_at = $8, updated_at = $9
		 WHERE id = $1`,
		o.ID, o.Status, o.PaymentStatus, gameKeysOrEmpty(o.GameKeys), o.CancelledAt,
		o.CancellationReason, o.CancelledBy, o.DeliveredAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	return requireRow(tag, "order")
}

// ListOrders возвращает страницу заказов и их общее число.
func (r *PostgresRepository) ListOrders(ctx context.Context, f model.OrderFilter) ([]model.Order, int64, error) {
	w := orderWhere(f)

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM orders`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+orderColumns+` FROM orders`+w.String()+
			orderBy(f.Sort, "created_at DESC, id DESC")+w.page(f.Page, f.Limit),
		w.args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var res []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		res = append(res, *o)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}
	return res, total, nil
}

package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mmeshcher/keystore/internal/model"
)

const userColumns = `id, fullname, email, password_hash, phone, address, role, is_active,
	wishlist, cart, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID, &u.Fullname, &u.Email, &u.PasswordHash, &u.Phone, &u.Address, &u.Role, &u.IsActive,
		&u.Wishlist, &u.Cart, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func wishlistOrEmpty(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}

func cartOrEmpty(items []model.CartItem) []model.CartItem {
	if items == nil {
		return []model.CartItem{}
	}
	return items
}

// CreateUser создаёт нового пользователя. Email сохраняется в нижнем регистре.
func (r *PostgresRepository) CreateUser(ctx context.Context, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.Email = strings.ToLower(u.Email)
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now

	_, err := r.db.Exec(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		u.ID, u.Fullname, u.Email, u.PasswordHash, u.Phone, u.Address, u.Role, u.IsActive,
		wishlistOrEmpty(u.Wishlist), cartOrEmpty(u.Cart), u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("email %s: %w", u.Email, ErrConflict)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUser возвращает пользователя по идентификатору.
func (r *PostgresRepository) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "user")
	}
	return u, nil
}

// GetUserByEmail возвращает пользователя по email без учёта регистра.
func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		strings.ToLower(email),
	))
	if err != nil {
		return nil, notFound(err, "user")
	}
	return u, nil
}

// UpdateUser сохраняет профиль, роль и статус пользователя.
func (r *PostgresRepository) UpdateUser(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(u.Email)
	u.UpdatedAt = time.Now().UTC()

	tag, err := r.db.Exec(ctx,
		`UPDATE users SET fullname = $2, email = $3, phone = $4, address = $5, role = $6,
			is_active = $7, updated_at = $8
		 WHERE id = $1`,
		u.ID, u.Fullname, u.Email, u.Phone, u.Address, u.Role, u.IsActive, u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("email %s: %w", u.Email, ErrConflict)
		}
		return fmt.Errorf("update user: %w", err)
	}
	return requireRow(tag, "user")
}

// DeleteUser удаляет пользователя.
func (r *PostgresRepository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return requireRow(tag, "user")
}

// ListUsers возвращает страницу пользователей и их общее число.
func (r *PostgresRepository) ListUsers(ctx context.Context, f model.UserFilter) ([]model.User, int64, error) {
	w := userWhere(f)

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+userColumns+` FROM users`+w.String()+
			orderBy(f.Sort, "created_at DESC, id DESC")+w.page(f.Page, f.Limit),
		w.args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()

	var res []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		res = append(res, *u)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}
	return res, total, nil
}

// SaveWishlist перезаписывает список желаемого пользователя.
func (r *PostgresRepository) SaveWishlist(ctx context.Context, userID uuid.UUID, wishlist []uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET wishlist = $2, updated_at = now() WHERE id = $1`,
		userID, wishlistOrEmpty(wishlist),
	)
	if err != nil {
		return fmt.Errorf("save wishlist: %w", err)
	}
	return requireRow(tag, "user")
}

// SaveCart перезаписывает корзину пользователя.
func (r *PostgresRepository) SaveCart(ctx context.Context, userID uuid.UUID, cart []model.CartItem) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET cart = $2, updated_at = now() WHERE id = $1`,
		userID, cartOrEmpty(cart),
	)
	if err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return requireRow(tag, "user")
}

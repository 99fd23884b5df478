package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mmeshcher/keystore/internal/model"
)

const productColumns = `id, name, description, price, original_price, category, platform,
	main_image, images, screenshots, developer, publisher, release_date, size,
	system_requirements, features, tags, rating, review_count, is_sale, sale_percentage,
	sale_end_date, is_featured, is_new_release, is_coming_soon, is_best_seller,
	stock, is_active, views, sales, created_at, updated_at`

func scanProduct(row pgx.Row) (*model.Product, error) {
	var p model.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.OriginalPrice, &p.Category, &p.Platform,
		&p.MainImage, &p.Images, &p.Screenshots, &p.Developer, &p.Publisher, &p.ReleaseDate, &p.Size,
		&p.SystemRequirements, &p.Features, &p.Tags, &p.Rating, &p.ReviewCount, &p.IsSale, &p.SalePercentage,
		&p.SaleEndDate, &p.IsFeatured, &p.IsNewRelease, &p.IsComingSoon, &p.IsBestSeller,
		&p.Stock, &p.IsActive, &p.Views, &p.Sales, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func collectProducts(rows pgx.Rows) ([]model.Product, error) {
	defer rows.Close()

	var res []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		res = append(res, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return res, nil
}

func strs(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// CreateProduct сохраняет новый товар и заполняет его идентификатор и метки времени.
func (r *PostgresRepository) CreateProduct(ctx context.Context, p *model.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	_, err := r.db.Exec(ctx,
		`INSERT INTO products (`+productColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
		         $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32)`,
		p.ID, p.Name, p.Description, p.Price, p.OriginalPrice, p.Category, p.Platform,
		p.MainImage, strs(p.Images), strs(p.Screenshots), p.Developer, p.Publisher, p.ReleaseDate, p.Size,
		p.SystemRequirements, strs(p.Features), strs(p.Tags), p.Rating, p.ReviewCount, p.IsSale, p.SalePercentage,
		p.SaleEndDate, p.IsFeatured, p.IsNewRelease, p.IsComingSoon, p.IsBestSeller,
		p.Stock, p.IsActive, p.Views, p.Sales, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetProduct возвращает товар по идентификатору.
func (r *PostgresRepository) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "product")
	}
	return p, nil
}

// LockProducts блокирует строки товаров в порядке идентификаторов.
func (r *PostgresRepository) LockProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Product, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ANY($1) ORDER BY id FOR UPDATE`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("lock products: %w", err)
	}

	products, err := collectProducts(rows)
	if err != nil {
		return nil, err
	}

	res := make(map[uuid.UUID]*model.Product, len(products))
	for i := range products {
		res[products[i].ID] = &products[i]
	}
	return res, nil
}

// GetProductsByIDs возвращает найденные товары из списка идентификаторов.
func (r *PostgresRepository) GetProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	return collectProducts(rows)
}

// UpdateProduct сохраняет изменённые поля товара.
func (r *PostgresRepository) UpdateProduct(ctx context.Context, p *model.Product) error {
	p.UpdatedAt = time.Now().UTC()

	tag, err := r.db.Exec(ctx,
		`UPDATE products SET
			name = $2, description = $3, price = $4, original_price = $5, category = $6, platform = $7,
			main_image = $8, images = $9, screenshots = $10, developer = $11, publisher = $12,
			release_date = $13, size = $14, system_requirements = $15, features = $16, tags = $17,
			rating = $18, review_count = $19, is_sale = $20, sale_percentage = $21, sale_end_date = $22,
			is_featured = $23, is_new_release = $24, is_coming_soon = $25, is_best_seller = $26,
			stock = $27, is_active = $28, updated_at = $29
		 WHERE id = $1`,
		p.ID, p.Name, p.Description, p.Price, p.OriginalPrice, p.Category, p.Platform,
		p.MainImage, strs(p.Images), strs(p.Screenshots), p.Developer, p.Publisher,
		p.ReleaseDate, p.Size, p.SystemRequirements, strs(p.Features), strs(p.Tags),
		p.Rating, p.ReviewCount, p.IsSale, p.SalePercentage, p.SaleEndDate,
		p.IsFeatured, p.IsNewRelease, p.IsComingSoon, p.IsBestSeller,
		p.Stock, p.IsActive, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return requireRow(tag, "product")
}

// DeleteProduct удаляет товар.
func (r *PostgresRepository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return requireRow(tag, "product")
}

// ListProducts возвращает страницу активных товаров и их общее число.
func (r *PostgresRepository) ListProducts(ctx context.Context, f model.ProductFilter) ([]model.Product, int64, error) {
	w := productWhere(f)

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := `SELECT ` + productColumns + ` FROM products` + w.String() +
		orderBy(f.Sort, "created_at DESC, id DESC") + w.page(f.Page, f.Limit)

	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("select products: %w", err)
	}

	products, err := collectProducts(rows)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// ListSlice возвращает подборку каталога.
func (r *PostgresRepository) ListSlice(ctx context.Context, slice model.Slice, now time.Time, limit int) ([]model.Product, error) {
	w, order, ok := sliceQuery(slice, now)
	if !ok {
		return nil, fmt.Errorf("slice %q: %w", slice, ErrNotFound)
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+productColumns+` FROM products`+w.String()+order+` LIMIT `+w.arg(limit),
		w.args...,
	)
	if err != nil {
		return nil, fmt.Errorf("select slice %s: %w", slice, err)
	}
	return collectProducts(rows)
}

// IncrementViews увеличивает счётчик просмотров товара.
func (r *PostgresRepository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `UPDATE products SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	return requireRow(tag, "product")
}

// AdjustStock изменяет остаток и число продаж товара.
func (r *PostgresRepository) AdjustStock(ctx context.Context, id uuid.UUID, stockDelta, salesDelta int) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE products
		 SET stock = stock + $2, sales = GREATEST(sales + $3, 0), updated_at = now()
		 WHERE id = $1`,
		id, stockDelta, salesDelta,
	)
	if err != nil {
		return fmt.Errorf("adjust stock: %w", err)
	}
	return requireRow(tag, "product")
}

package repository

import (
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mmeshcher/keystore/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductWhere(t *testing.T) {
	minPrice := decimal.NewFromInt(10)
	w := productWhere(model.ProductFilter{
		Category: model.CategoryRPG,
		Search:   "dark souls",
		MinPrice: &minPrice,
	})

	assert.Equal(t,
		" WHERE is_active AND category = $1 AND "+productSearchVector+" @@ plainto_tsquery('simple', $2) AND price >= $3",
		w.String(),
	)
	assert.Equal(t, []any{"RPG", "dark souls", minPrice}, w.args)

	assert.Equal(t, " LIMIT $4 OFFSET $5", w.page(3, 12))
	assert.Equal(t, 24, w.args[4])
}

func TestOrderWhere(t *testing.T) {
	id := uuid.New()
	w := orderWhere(model.OrderFilter{UserID: &id, Status: model.OrderStatusPending})
	assert.Equal(t, " WHERE user_id = $1 AND status = $2", w.String())

	assert.Equal(t, "", orderWhere(model.OrderFilter{}).String())
}

func TestUserWhere_EscapesLike(t *testing.T) {
	w := userWhere(model.UserFilter{Search: "50%_off"})
	assert.Equal(t, " WHERE (fullname ILIKE $1 OR email ILIKE $1)", w.String())
	assert.Equal(t, []any{`%50\%\_off%`}, w.args)
}

func TestOrderBy(t *testing.T) {
	assert.Equal(t, " ORDER BY price DESC, id DESC", orderBy(model.ParseSort("-price"), "created_at DESC"))
	assert.Equal(t, " ORDER BY name ASC, id ASC", orderBy(model.ParseSort("name"), "created_at DESC"))
	assert.Equal(t, " ORDER BY created_at DESC", orderBy(model.ParseSort("password_hash; DROP"), "created_at DESC"))
}

func TestSliceQuery(t *testing.T) {
	now := time.Now()
	for _, s := range model.Slices {
		w, order, ok := sliceQuery(s, now)
		require.True(t, ok, s)
		assert.Contains(t, w.String(), "is_active")
		assert.NotEmpty(t, order)
	}

	w, _, _ := sliceQuery(model.SliceSale, now)
	assert.Equal(t, []any{now}, w.args)

	_, _, ok := sliceQuery("nope", now)
	assert.False(t, ok)
}

// Перечисления в CHECK-ограничениях миграций должны совпадать с model.
func TestMigrations_EnumsMatchModel(t *testing.T) {
	raw, err := fs.ReadFile(migrationsFS, "migrations/00001_init.sql")
	require.NoError(t, err)
	sql := string(raw)

	check := func(column string, values []string) {
		t.Helper()
		start := strings.Index(sql, "CHECK ("+column+" IN (")
		require.GreaterOrEqual(t, start, 0, "no CHECK for %s", column)
		clause := sql[start : start+strings.Index(sql[start:], "))")]
		for _, v := range values {
			assert.Contains(t, clause, "'"+v+"'", "%s lacks %q", column, v)
		}
		assert.Equal(t, len(values), strings.Count(clause, "'")/2, "%s has extra values", column)
	}

	check("role", asStrings(model.Roles))
	check("category", asStrings(model.Categories))
	check("platform", asStrings(model.Platforms))
	check("status", asStrings(model.OrderStatuses))
	check("payment_method", asStrings(model.PaymentMethods))
	check("payment_status", asStrings(model.PaymentStatuses))
}

func asStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

package repository

import (
	"strconv"
	"strings"
	"time"

	"github.com/mmeshcher/keystore/internal/model"
)

// where собирает условие WHERE с позиционными параметрами.
type where struct {
	conds []string
	args  []any
}

// arg добавляет параметр и возвращает его плейсхолдер.
func (w *where) arg(v any) string {
	w.args = append(w.args, v)
	return "$" + strconv.Itoa(len(w.args))
}

func (w *where) and(cond string) {
	w.conds = append(w.conds, cond)
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// orderBy возвращает выражение ORDER BY для допустимого поля или fallback.
func orderBy(s model.SortSpec, fallback string) string {
	col, ok := sortColumns[s.Field]
	if !ok {
		return " ORDER BY " + fallback
	}
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	// id добавлен для стабильного порядка между страницами
	return " ORDER BY " + col + " " + dir + ", id " + dir
}

// page возвращает LIMIT/OFFSET для страницы.
func (w *where) page(page, limit int) string {
	return " LIMIT " + w.arg(limit) + " OFFSET " + w.arg(model.Offset(page, limit))
}

const productSearchVector = `to_tsvector('simple', name || ' ' || description || ' ' || category || ' ' || developer || ' ' || publisher)`

func productWhere(f model.ProductFilter) *where {
	w := &where{}
	w.and("is_active")
	if f.Category != "" {
		w.and("category = " + w.arg(string(f.Category)))
	}
	if f.Platform != "" {
		w.and("platform = " + w.arg(string(f.Platform)))
	}
	if f.Search != "" {
		w.and(productSearchVector + " @@ plainto_tsquery('simple', " + w.arg(f.Search) + ")")
	}
	if f.MinPrice != nil {
		w.and("price >= " + w.arg(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		w.and("price <= " + w.arg(*f.MaxPrice))
	}
	return w
}

func orderWhere(f model.OrderFilter) *where {
	w := &where{}
	if f.UserID != nil {
		w.and("user_id = " + w.arg(*f.UserID))
	}
	if f.Status != "" {
		w.and("status = " + w.arg(string(f.Status)))
	}
	if f.PaymentStatus != "" {
		w.and("payment_status = " + w.arg(string(f.PaymentStatus)))
	}
	return w
}

func userWhere(f model.UserFilter) *where {
	w := &where{}
	if f.Role != "" {
		w.and("role = " + w.arg(string(f.Role)))
	}
	if f.Search != "" {
		p := w.arg("%" + escapeLike(f.Search) + "%")
		w.and("(fullname ILIKE " + p + " OR email ILIKE " + p + ")")
	}
	return w
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s)
}

// sliceQuery возвращает условие и порядок для подборки каталога.
func sliceQuery(slice model.Slice, now time.Time) (*where, string, bool) {
	w := &where{}
	w.and("is_active")
	switch slice {
	case model.SliceFeatured:
		w.and("is_featured")
		return w, " ORDER BY created_at DESC", true
	case model.SliceSale:
		w.and("is_sale")
		w.and("sale_end_date > " + w.arg(now))
		return w, " ORDER BY sale_percentage DESC", true
	case model.SliceNew:
		w.and("is_new_release")
		return w, " ORDER BY release_date DESC NULLS LAST", true
	case model.SliceComingSoon:
		w.and("is_coming_soon")
		return w, " ORDER BY release_date ASC NULLS LAST", true
	case model.SliceBestSellers:
		w.and("is_best_seller")
		return w, " ORDER BY sales DESC", true
	}
	return nil, "", false
}

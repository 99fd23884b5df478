package validation

import (
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Query разбирает параметры строки запроса и накапливает ошибки по полям.
type Query struct {
	values url.Values
	errs   Errors
}

// NewQuery создаёт разборщик для параметров values.
func NewQuery(values url.Values) *Query {
	return &Query{values: values}
}

// String возвращает значение параметра без пробелов по краям.
func (q *Query) String(name string) string {
	return strings.TrimSpace(q.values.Get(name))
}

// Int возвращает целое значение параметра в диапазоне [lo, hi] или def, если параметр не задан.
// hi <= 0 означает отсутствие верхней границы.
func (q *Query) Int(name string, def, lo, hi int, msg string) int {
	raw := q.String(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < lo || (hi > 0 && n > hi) {
		q.errs.Add(name, msg)
		return def
	}
	return n
}

// Page возвращает номер страницы, начиная с 1.
func (q *Query) Page() int {
	return q.Int("page", 1, 1, 0, "Page must be a positive integer")
}

// Limit возвращает размер страницы в диапазоне [1, max].
func (q *Query) Limit(def, max int) int {
	return q.Int("limit", def, 1, max, "Limit must be between 1 and "+strconv.Itoa(max))
}

// OneOf возвращает значение параметра, если оно входит в allowed.
func (q *Query) OneOf(name string, allowed []string, msg string) string {
	raw := q.String(name)
	if raw == "" {
		return ""
	}
	if !slices.Contains(allowed, raw) {
		q.errs.Add(name, msg)
		return ""
	}
	return raw
}

// Decimal возвращает неотрицательное десятичное значение параметра или nil.
func (q *Query) Decimal(name, msg string) *decimal.Decimal {
	raw := q.String(name)
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		q.errs.Add(name, msg)
		return nil
	}
	return &d
}

// Err возвращает накопленные ошибки или nil.
func (q *Query) Err() error {
	return q.errs.Err()
}

// SortValues возвращает допустимые значения сортировки для полей fields в обоих направлениях.
func SortValues(fields ...string) []string {
	out := make([]string, 0, len(fields)*2)
	for _, f := range fields {
		out = append(out, f, "-"+f)
	}
	return out
}

// Strings приводит набор строковых значений перечисления к []string.
func Strings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Pagination описывает положение страницы в общей выборке.
type Pagination struct {
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Pages   int  `json:"pages"`
	HasNext bool `json:"hasNext"`
	HasPrev bool `json:"hasPrev"`
}

// NewPagination вычисляет параметры пагинации для страницы page размером limit.
func NewPagination(page, limit int, total int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{
		Page:    page,
		Limit:   limit,
		Pages:   pages,
		HasNext: int64(page)*int64(limit) < total,
		HasPrev: page > 1,
	}
}

// Page содержит одну страницу выборки и общее число найденных записей.
type Page[T any] struct {
	Items      []T
	Total      int64
	Pagination Pagination
}

// NewPage собирает страницу выборки.
func NewPage[T any](items []T, total int64, page, limit int) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:      items,
		Total:      total,
		Pagination: NewPagination(page, limit, total),
	}
}

// Offset возвращает смещение первой записи страницы.
func Offset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}

// SortSpec описывает сортировку по одному полю.
type SortSpec struct {
	Field string
	Desc  bool
}

// ParseSort разбирает параметр вида "-field" в SortSpec.
func ParseSort(s string) SortSpec {
	if len(s) > 0 && s[0] == '-' {
		return SortSpec{Field: s[1:], Desc: true}
	}
	return SortSpec{Field: s}
}

// ProductFilter задаёт параметры выборки каталога.
type ProductFilter struct {
	Category Category
	Platform Platform
	Search   string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     SortSpec
	Page     int
	Limit    int
}

// OrderFilter задаёт параметры выборки заказов.
// UserID равен nil для административной выборки по всем пользователям.
type OrderFilter struct {
	UserID        *uuid.UUID
	Status        OrderStatus
	PaymentStatus PaymentStatus
	Sort          SortSpec
	Page          int
	Limit         int
}

// UserFilter задаёт параметры административной выборки пользователей.
type UserFilter struct {
	Role   Role
	Search string
	Sort   SortSpec
	Page   int
	Limit  int
}

// Slice обозначает подборку каталога без пагинации.
type Slice string

const (
	SliceFeatured    Slice = "featured"
	SliceSale        Slice = "sale"
	SliceNew         Slice = "new"
	SliceComingSoon  Slice = "coming-soon"
	SliceBestSellers Slice = "best-sellers"
)

// Slices содержит все подборки каталога.
var Slices = []Slice{SliceFeatured, SliceSale, SliceNew, SliceComingSoon, SliceBestSellers}

// SliceSize задаёт фиксированный размер подборки.
const SliceSize = 8

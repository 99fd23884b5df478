package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProduct_EffectivePrice(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name    string
		product Product
		want    string
	}{
		{
			name:    "not on sale",
			product: Product{Price: decimal.NewFromInt(100000), SalePercentage: 30},
			want:    "100000",
		},
		{
			name:    "on sale without end date",
			product: Product{Price: decimal.NewFromInt(100000), IsSale: true, SalePercentage: 30},
			want:    "70000",
		},
		{
			name:    "sale running",
			product: Product{Price: decimal.NewFromInt(100000), IsSale: true, SalePercentage: 25, SaleEndDate: &future},
			want:    "75000",
		},
		{
			name:    "sale expired",
			product: Product{Price: decimal.NewFromInt(100000), IsSale: true, SalePercentage: 25, SaleEndDate: &past},
			want:    "100000",
		},
		{
			name:    "fractional result rounded",
			product: Product{Price: decimal.RequireFromString("9.99"), IsSale: true, SalePercentage: 33},
			want:    "6.69",
		},
		{
			name:    "full discount",
			product: Product{Price: decimal.NewFromInt(500), IsSale: true, SalePercentage: 100},
			want:    "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.product.EffectivePrice(now)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s, want %s", got, tt.want)
			assert.False(t, got.IsNegative())
			assert.True(t, got.LessThanOrEqual(tt.product.Price))
		})
	}
}

func TestProduct_MarshalJSONAddsSalePrice(t *testing.T) {
	p := Product{Name: "Hades", Price: decimal.NewFromInt(200), IsSale: true, SalePercentage: 50}

	raw, err := json.Marshal(p)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "Hades", out["name"])
	assert.Equal(t, "100", out["salePrice"])
}

func TestNewPagination(t *testing.T) {
	tests := []struct {
		page, limit int
		total       int64
		want        Pagination
	}{
		{1, 10, 0, Pagination{Page: 1, Limit: 10, Pages: 0}},
		{1, 10, 25, Pagination{Page: 1, Limit: 10, Pages: 3, HasNext: true}},
		{2, 10, 25, Pagination{Page: 2, Limit: 10, Pages: 3, HasNext: true, HasPrev: true}},
		{3, 10, 25, Pagination{Page: 3, Limit: 10, Pages: 3, HasPrev: true}},
		{2, 10, 20, Pagination{Page: 2, Limit: 10, Pages: 2, HasPrev: true}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NewPagination(tt.page, tt.limit, tt.total))
	}
}

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, OrderStatusPending.CanTransitionTo(OrderStatusProcessing))
	assert.True(t, OrderStatusPending.CanTransitionTo(OrderStatusRefunded))
	assert.True(t, OrderStatusProcessing.CanTransitionTo(OrderStatusCompleted))
	assert.True(t, OrderStatusCompleted.CanTransitionTo(OrderStatusRefunded))
	assert.True(t, OrderStatusCompleted.CanTransitionTo(OrderStatusCompleted))

	assert.False(t, OrderStatusCompleted.CanTransitionTo(OrderStatusPending))
	assert.False(t, OrderStatusCancelled.CanTransitionTo(OrderStatusProcessing))
	assert.False(t, OrderStatusRefunded.CanTransitionTo(OrderStatusCompleted))
	assert.False(t, OrderStatusProcessing.CanTransitionTo(OrderStatusPending))
}

func TestParseSort(t *testing.T) {
	assert.Equal(t, SortSpec{Field: "price", Desc: true}, ParseSort("-price"))
	assert.Equal(t, SortSpec{Field: "name"}, ParseSort("name"))
	assert.Equal(t, SortSpec{}, ParseSort(""))
}

func TestProductInput_Apply(t *testing.T) {
	p := Product{Name: "Old", Stock: 3, Tags: []string{"a"}}
	name := "New"
	stock := 0
	in := ProductInput{Name: &name, Stock: &stock}

	in.Apply(&p)

	assert.Equal(t, "New", p.Name)
	assert.Equal(t, 0, p.Stock)
	assert.Equal(t, []string{"a"}, p.Tags)
}

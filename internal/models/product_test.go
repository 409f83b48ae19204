package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestProductNormalize(t *testing.T) {
	cases := []struct {
		name     string
		price    string
		original *string
		stock    int
		inStock  bool
		discount int
	}{
		{"no original price", "500", nil, 3, true, 0},
		{"discounted", "750", strPtr("1000"), 1, true, 25},
		{"rounded discount", "4999", strPtr("6999"), 1, true, 29},
		{"original below price", "1200", strPtr("1000"), 1, true, 0},
		{"out of stock", "500", nil, 0, false, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := Product{Price: decimal.RequireFromString(tc.price), StockQuantity: tc.stock, InStock: !tc.inStock, Discount: 99}
			if tc.original != nil {
				p.OriginalPrice = decimal.NewNullDecimal(decimal.RequireFromString(*tc.original))
			}
			p.Normalize()
			assert.Equal(t, tc.inStock, p.InStock)
			assert.Equal(t, tc.discount, p.Discount)
		})
	}
}

func TestAssignSlug(t *testing.T) {
	p := Product{Name: "  Men's Slim-Fit Jeans!! "}
	p.AssignSlug()
	assert.Regexp(t, `^men-s-slim-fit-jeans-[0-9a-z]+$`, p.Slug)

	other := Product{Name: p.Name}
	other.AssignSlug()
	assert.NotEqual(t, p.Slug, other.Slug)
}

func TestIsAllowedSize(t *testing.T) {
	assert.True(t, IsAllowedSize("Free Size"))
	assert.True(t, IsAllowedSize("32"))
	assert.False(t, IsAllowedSize("XXXL"))
}

func strPtr(s string) *string { return &s }

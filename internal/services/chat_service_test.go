package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"luxe/internal/apperror"
	"luxe/internal/models"
	"luxe/internal/services"
	"luxe/pkg/gemini"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockGenerator is a mock implementation of services.Generator
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func TestExtractKeywords(t *testing.T) {
	cases := []struct {
		message string
		want    []string
	}{
		{"Show me a black leather jacket", []string{"jacket", "leather", "black"}},
		{"I need a t-shirt please", []string{"shirt", "t-shirt"}},
		{"saree for women wedding", []string{"men", "women", "wedding", "saree"}},
		{"Looking for linen trousers", []string{"linen", "trousers"}},
		{"hello you", []string{}},
	}

	for _, tc := range cases {
		t.Run(tc.message, func(t *testing.T) {
			assert.Equal(t, tc.want, services.ExtractKeywords(tc.message))
		})
	}
}

func TestExtractKeywordsCapsAtTen(t *testing.T) {
	kw := services.ExtractKeywords("alpha bravo charlie delta echo foxtrot golf hotel india juliet kilo lima")
	assert.Len(t, kw, 10)
	assert.Equal(t, "alpha", kw[0])
}

func chatProducts() []services.ChatProduct {
	off := "20% off"
	return []services.ChatProduct{
		{Name: "Floral Dress", Price: "₹1,299", Category: "Women", Stock: "In Stock", Discount: &off},
		{Name: "Oxford Shirt", Price: "₹999", Category: "Men", Stock: "In Stock"},
		{Name: "Slim Jeans", Price: "₹1,800", Category: "Men", Stock: "Out of Stock"},
		{Name: "Leather Belt", Price: "₹450", Category: "Accessories", Stock: "In Stock"},
	}
}

func TestFallbackReply(t *testing.T) {
	products := chatProducts()

	empty := services.FallbackReply("anything", nil)
	assert.Contains(t, empty, "Hi there!")

	price := services.FallbackReply("How much is it?", products)
	assert.Contains(t, price, "Here are some products with prices:")
	assert.Contains(t, price, "• Floral Dress: ₹1,299 (20% off)")
	assert.NotContains(t, price, "Leather Belt")

	category := services.FallbackReply("got any jeans", products)
	assert.Contains(t, category, "Great choice!")
	assert.Contains(t, category, "• Slim Jeans - ₹1,800 (Men)")

	generic := services.FallbackReply("what's new", products)
	assert.Contains(t, generic, "Here's what we have in stock")
	assert.Contains(t, generic, "• Slim Jeans: ₹1,800 - Out of Stock")
	assert.Contains(t, generic, "Leather Belt")
}

func TestChatService_Reply(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	jacket := &models.Product{
		Name:          "Black Leather Jacket",
		Description:   "Classic biker jacket",
		Price:         decimal.NewFromInt(4999),
		OriginalPrice: decimal.NewNullDecimal(decimal.NewFromInt(6999)),
		Category:      models.CategoryMen,
		Image:         "https://img.example.com/j.jpg",
		StockQuantity: 2,
		Colors:        []string{"Black"},
	}
	require.NoError(t, store.Products().Create(ctx, jacket))
	seedProduct(t, store, "Silk Scarf", "799", 4)

	t.Run("generated text is returned verbatim", func(t *testing.T) {
		gen := new(MockGenerator)
		gen.On("Generate", mock.Anything, mock.MatchedBy(func(prompt string) bool {
			return strings.Contains(prompt, "Black Leather Jacket") &&
				strings.Contains(prompt, "₹4,999") &&
				strings.Contains(prompt, "29% off") &&
				strings.Contains(prompt, "User's Question:\nDo you have a leather jacket?")
		})).Return("Yes! The Black Leather Jacket is ₹4,999.", nil).Once()

		svc := services.NewChatService(store.Products(), gen)
		reply, err := svc.Reply(ctx, "Do you have a leather jacket?")
		require.NoError(t, err)
		assert.Equal(t, "Yes! The Black Leather Jacket is ₹4,999.", reply.Text)
		assert.False(t, reply.Fallback)
		assert.Equal(t, 1, reply.ProductsFound)
		assert.Contains(t, reply.KeywordsUsed, "leather")
		gen.AssertExpectations(t)
	})

	t.Run("no match falls back to catalog", func(t *testing.T) {
		gen := new(MockGenerator)
		gen.On("Generate", mock.Anything, mock.Anything).Return("ok", nil).Once()

		svc := services.NewChatService(store.Products(), gen)
		reply, err := svc.Reply(ctx, "zzqx")
		require.NoError(t, err)
		assert.Equal(t, 2, reply.ProductsFound)
	})

	t.Run("quota error uses the canned reply", func(t *testing.T) {
		gen := new(MockGenerator)
		gen.On("Generate", mock.Anything, mock.Anything).Return("", gemini.ErrQuotaExceeded).Once()

		svc := services.NewChatService(store.Products(), gen)
		reply, err := svc.Reply(ctx, "what is the price of the jacket")
		require.NoError(t, err)
		assert.True(t, reply.Fallback)
		assert.Contains(t, reply.Text, "Here are some products with prices:")
		assert.Contains(t, reply.Text, "Black Leather Jacket: ₹4,999 (29% off)")
	})

	t.Run("transport error uses the canned reply", func(t *testing.T) {
		gen := new(MockGenerator)
		gen.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("connection refused")).Once()

		svc := services.NewChatService(store.Products(), gen)
		reply, err := svc.Reply(ctx, "jacket")
		require.NoError(t, err)
		assert.True(t, reply.Fallback)
	})

	t.Run("missing key", func(t *testing.T) {
		gen := new(MockGenerator)
		gen.On("Generate", mock.Anything, mock.Anything).Return("", gemini.ErrNotConfigured).Once()

		svc := services.NewChatService(store.Products(), gen)
		_, err := svc.Reply(ctx, "jacket")
		assert.True(t, apperror.Is(err, apperror.KindUnavailable))
	})

	t.Run("empty message", func(t *testing.T) {
		svc := services.NewChatService(store.Products(), new(MockGenerator))
		_, err := svc.Reply(ctx, "   ")
		assert.True(t, apperror.Is(err, apperror.KindValidation))
	})
}

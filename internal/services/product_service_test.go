package services_test

import (
	"context"
	"testing"

	"luxe/internal/apperror"
	"luxe/internal/models"
	"luxe/internal/repositories"
	"luxe/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProductInput(name, price string, category models.Category, stock int) services.ProductInput {
	return services.ProductInput{
		Name:          name,
		Description:   "A " + name,
		Price:         dec(price),
		Category:      category,
		Image:         "https://img.example.com/p.jpg",
		StockQuantity: stock,
		Sizes:         []string{"M"},
		Colors:        []string{"Blue"},
	}
}

func TestProductService_CreateDerivesFields(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	service := services.NewProductService(store.Products())

	in := newProductInput("Denim Jeans", "1500", models.CategoryMen, 4)
	in.OriginalPrice = decimal.NewNullDecimal(dec("2000"))
	p, err := service.CreateProduct(ctx, in)
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.Regexp(t, `^denim-jeans-[0-9a-z]+$`, p.Slug)
	assert.True(t, p.InStock)
	assert.Equal(t, 25, p.Discount)

	stored, err := service.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, stored.Discount)
	assert.Equal(t, []string{"M"}, stored.Sizes)

	out := newProductInput("Sold Out Tee", "300", models.CategoryMen, 0)
	sold, err := service.CreateProduct(ctx, out)
	require.NoError(t, err)
	assert.False(t, sold.InStock)

	bad := newProductInput("Broken", "-1", models.CategoryMen, 1)
	_, err = service.CreateProduct(ctx, bad)
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestProductService_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	service := services.NewProductService(store.Products())

	p, err := service.CreateProduct(ctx, newProductInput("Wool Coat", "3000", models.CategoryWomen, 2))
	require.NoError(t, err)

	zero := 0
	price := dec("2500")
	updated, err := service.UpdateProduct(ctx, p.ID, services.ProductPatch{StockQuantity: &zero, Price: &price})
	require.NoError(t, err)
	assert.False(t, updated.InStock)
	assert.True(t, dec("2500").Equal(updated.Price))
	assert.Equal(t, "Wool Coat", updated.Name)

	_, err = service.UpdateProduct(ctx, "missing", services.ProductPatch{})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	require.NoError(t, service.DeleteProduct(ctx, p.ID))
	_, err = service.GetProduct(ctx, p.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	assert.True(t, apperror.Is(service.DeleteProduct(ctx, p.ID), apperror.KindNotFound))
}

func seedCatalog(t *testing.T, service *services.ProductService) {
	t.Helper()
	ctx := context.Background()
	for _, in := range []services.ProductInput{
		newProductInput("Oxford Shirt", "1200", models.CategoryMen, 5),
		newProductInput("Slim Jeans", "1800", models.CategoryMen, 3),
		newProductInput("Summer Dress", "900", models.CategoryWomen, 8),
		newProductInput("Kids Hoodie", "600", models.CategoryKids, 0),
		newProductInput("Leather Wallet", "450", models.CategoryAccessories, 10),
	} {
		_, err := service.CreateProduct(ctx, in)
		require.NoError(t, err)
	}
}

func TestProductService_ListProducts(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	service := services.NewProductService(store.Products())
	seedCatalog(t, service)

	t.Run("only in stock", func(t *testing.T) {
		products, page, err := service.ListProducts(ctx, services.ProductQuery{})
		require.NoError(t, err)
		assert.Len(t, products, 4)
		assert.Equal(t, int64(4), page.Total)
		assert.Equal(t, 50, page.Limit)
		for _, p := range products {
			assert.True(t, p.InStock)
		}
	})

	t.Run("category", func(t *testing.T) {
		products, _, err := service.ListProducts(ctx, services.ProductQuery{Category: "Men"})
		require.NoError(t, err)
		assert.Len(t, products, 2)

		all, _, err := service.ListProducts(ctx, services.ProductQuery{Category: "All"})
		require.NoError(t, err)
		assert.Len(t, all, 4)
	})

	t.Run("price range and sort", func(t *testing.T) {
		lo, hi := dec("500"), dec("1500")
		products, _, err := service.ListProducts(ctx, services.ProductQuery{
			MinPrice: &lo, MaxPrice: &hi, Sort: repositories.SortPriceLow,
		})
		require.NoError(t, err)
		require.Len(t, products, 2)
		assert.Equal(t, "Summer Dress", products[0].Name)
		assert.Equal(t, "Oxford Shirt", products[1].Name)

		_, _, err = service.ListProducts(ctx, services.ProductQuery{MinPrice: &hi, MaxPrice: &lo})
		assert.True(t, apperror.Is(err, apperror.KindValidation))
	})

	t.Run("search", func(t *testing.T) {
		products, _, err := service.ListProducts(ctx, services.ProductQuery{Search: "jeans"})
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, "Slim Jeans", products[0].Name)
	})

	t.Run("pagination", func(t *testing.T) {
		products, page, err := service.ListProducts(ctx, services.ProductQuery{Page: 2, Limit: 3, Sort: repositories.SortPriceHigh})
		require.NoError(t, err)
		assert.Len(t, products, 1)
		assert.Equal(t, 2, page.Pages)
		assert.Equal(t, "Leather Wallet", products[0].Name)
	})

	t.Run("categories", func(t *testing.T) {
		cats, err := service.Categories(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"Men", "Women", "Kids", "Accessories"}, cats)
	})
}

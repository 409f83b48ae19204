package repositories_test

import (
	"context"
	"errors"
	"testing"

	"luxe/internal/apperror"
	"luxe/internal/models"
	"luxe/internal/repositories"
	"luxe/pkg/database"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *repositories.GORMStore {
	t.Helper()
	db, err := database.OpenGORM("sqlite", "file:"+uuid.New().String()+"?mode=memory&cache=shared", false)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return repositories.NewGORMStore(db)
}

func newProduct(name string, category models.Category, price string, stock int, colors ...string) *models.Product {
	return &models.Product{
		Name:          name,
		Description:   "Great " + name,
		Price:         decimal.RequireFromString(price),
		Category:      category,
		Image:         "https://img.example.com/x.jpg",
		StockQuantity: stock,
		Colors:        colors,
	}
}

func TestProductRepository_Stock(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	repo := store.Products()

	p := newProduct("Canvas Sneakers", models.CategoryMen, "1999", 3)
	require.NoError(t, repo.Create(ctx, p))

	require.NoError(t, repo.DecrementStock(ctx, p.ID, 2))
	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.StockQuantity)
	assert.True(t, got.InStock)

	err = repo.DecrementStock(ctx, p.ID, 2)
	assert.True(t, apperror.Is(err, apperror.KindInsufficientStock))

	require.NoError(t, repo.DecrementStock(ctx, p.ID, 1))
	got, err = repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.StockQuantity)
	assert.False(t, got.InStock)

	require.NoError(t, repo.IncrementStock(ctx, p.ID, 4))
	got, err = repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.StockQuantity)
	assert.True(t, got.InStock)

	assert.True(t, apperror.Is(repo.IncrementStock(ctx, "missing", 1), apperror.KindNotFound))
	assert.True(t, apperror.Is(repo.DecrementStock(ctx, "missing", 1), apperror.KindInsufficientStock))
}

func TestProductRepository_SearchAny(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	repo := store.Products()

	for _, p := range []*models.Product{
		newProduct("Linen Shirt", models.CategoryMen, "899", 5, "White"),
		newProduct("Maxi Dress", models.CategoryWomen, "1499", 5, "Red", "Pink"),
		newProduct("Canvas Tote", models.CategoryAccessories, "599", 5, "Beige"),
	} {
		require.NoError(t, repo.Create(ctx, p))
	}

	found, err := repo.SearchAny(ctx, []string{"PINK"}, 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Maxi Dress", found[0].Name)

	found, err = repo.SearchAny(ctx, []string{"shirt", "accessories"}, 10)
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = repo.SearchAny(ctx, []string{"velvet"}, 10)
	require.NoError(t, err)
	assert.Empty(t, found)

	top, err := repo.Top(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, top, 2)
}

func TestProductRepository_SearchMatchesWildcardsLiterally(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	repo := store.Products()

	for _, p := range []*models.Product{
		newProduct("100% Cotton Tee", models.CategoryMen, "499", 5),
		newProduct("Silk_Scarf", models.CategoryAccessories, "899", 5),
		newProduct("Denim Jacket", models.CategoryWomen, "2499", 5),
	} {
		require.NoError(t, repo.Create(ctx, p))
	}

	list, total, err := repo.List(ctx, repositories.ProductFilter{Search: "%"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, "100% Cotton Tee", list[0].Name)

	list, _, err = repo.List(ctx, repositories.ProductFilter{Search: "_"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Silk_Scarf", list[0].Name)

	found, err := repo.SearchAny(ctx, []string{"%"}, 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "100% Cotton Tee", found[0].Name)

	found, err = repo.SearchAny(ctx, []string{`\`}, 10)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	repo := store.Users()

	u := &models.User{Name: "Ravi", Email: "ravi@example.com", Password: "hash", Role: models.RoleUser}
	u.AddAddress(models.Address{ID: uuid.New().String(), Name: "Home", City: "Pune"})
	require.NoError(t, repo.Create(ctx, u))

	dup := &models.User{Name: "Ravi 2", Email: "ravi@example.com", Password: "hash", Role: models.RoleUser}
	err := repo.Create(ctx, dup)
	assert.True(t, apperror.Is(err, apperror.KindConflict))

	got, err := repo.GetByEmail(ctx, "ravi@example.com")
	require.NoError(t, err)
	require.Len(t, got.Addresses, 1)
	assert.Equal(t, "Pune", got.Addresses[0].City)

	got.AddAddress(models.Address{ID: uuid.New().String(), Name: "Work", City: "Mumbai", IsDefault: true})
	got.AddToWishlist("p1")
	require.NoError(t, repo.Update(ctx, got))

	again, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, again.Addresses, 2)
	assert.Equal(t, "Home", again.Addresses[0].Name)
	assert.False(t, again.Addresses[0].IsDefault)
	assert.True(t, again.Addresses[1].IsDefault)
	assert.Equal(t, []string{"p1"}, again.Wishlist)

	_, err = repo.GetByID(ctx, "missing")
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	admins, err := repo.ListByRole(ctx, models.RoleAdmin)
	require.NoError(t, err)
	assert.Empty(t, admins)
}

func TestOrderRepository(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	repo := store.Orders()

	order := &models.Order{
		OrderNumber: "LUXE-TEST-0001",
		UserID:      "u1",
		Items: []models.OrderItem{
			{ProductID: "p1", Name: "First", Price: decimal.NewFromInt(100), Quantity: 1},
			{ProductID: "p2", Name: "Second", Price: decimal.NewFromInt(200), Quantity: 2},
		},
		ShippingAddress: models.ShippingAddress{Name: "A", City: "Chennai", Pincode: "600001"},
		PaymentMethod:   models.PaymentMethodUPI,
		PaymentStatus:   models.PaymentStatusPaid,
		OrderStatus:     models.OrderStatusConfirmed,
		PaymentIntentID: "order_gw_1",
		Total:           decimal.NewFromInt(500),
	}
	require.NoError(t, repo.Create(ctx, order))

	got, err := repo.GetByPaymentIntent(ctx, "order_gw_1")
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "First", got.Items[0].Name)
	assert.Equal(t, "Chennai", got.ShippingAddress.City)

	got.OrderStatus = models.OrderStatusProcessing
	got.TrackingNumber = "TRK"
	require.NoError(t, repo.Update(ctx, got))

	list, total, err := repo.List(ctx, repositories.OrderFilter{UserID: "u1", Status: models.OrderStatusProcessing})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Len(t, list[0].Items, 2, "updating the order keeps its items")
	assert.Equal(t, "TRK", list[0].TrackingNumber)

	_, err = repo.GetByID(ctx, "missing")
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestGORMStore_WithinTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	p := newProduct("Wool Scarf", models.CategoryAccessories, "700", 5)
	require.NoError(t, store.Products().Create(ctx, p))

	boom := errors.New("boom")
	err := store.WithinTransaction(ctx, func(ctx context.Context, tx repositories.Store) error {
		if err := tx.Products().DecrementStock(ctx, p.ID, 3); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.Products().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.StockQuantity)
}

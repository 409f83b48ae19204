package repositories

import (
	"context"

	"luxe/internal/models"

	"github.com/shopspring/decimal"
)

// Product sort keys accepted by ProductFilter.SortBy.
const (
	SortNewest    = "newest"
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
	SortRating    = "rating"
	SortPopular   = "popular"
)

// ProductFilter describes a catalog listing query.
type ProductFilter struct {
	Category    string
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	Search      string
	Featured    bool
	InStockOnly bool
	SortBy      string
	Page        int
	Limit       int
}

// Offset returns the number of rows to skip for the requested page.
func (f ProductFilter) Offset() int {
	return offset(f.Page, f.Limit)
}

// OrderFilter describes an order listing query. Empty fields do not filter.
type OrderFilter struct {
	UserID string
	Status models.OrderStatus
	Page   int
	Limit  int
}

// Offset returns the number of rows to skip for the requested page.
func (f OrderFilter) Offset() int {
	return offset(f.Page, f.Limit)
}

func offset(page, limit int) int {
	if page < 1 || limit < 1 {
		return 0
	}
	return (page - 1) * limit
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	List(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
	Categories(ctx context.Context) ([]string, error)
	// SearchAny returns products whose name, description, category or
	// colors contain any of the keywords, case-insensitively.
	SearchAny(ctx context.Context, keywords []string, limit int) ([]models.Product, error)
	Top(ctx context.Context, limit int) ([]models.Product, error)
	// DecrementStock removes qty units only if the product is in stock with
	// at least qty units; otherwise it fails with InsufficientStock.
	DecrementStock(ctx context.Context, id string, qty int) error
	IncrementStock(ctx context.Context, id string, qty int) error
}

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	GetByPaymentIntent(ctx context.Context, intentID string) (*models.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error)
	// Update persists the mutable order fields. Line snapshots are never
	// rewritten.
	Update(ctx context.Context, order *models.Order) error
}

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// Update persists the user together with its address list and wishlist.
	Update(ctx context.Context, user *models.User) error
	ListByRole(ctx context.Context, role models.Role) ([]models.User, error)
}

// CheckoutIntentRepository stores pending online checkouts.
type CheckoutIntentRepository interface {
	Create(ctx context.Context, intent *models.CheckoutIntent) error
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.CheckoutIntent, error)
	Update(ctx context.Context, intent *models.CheckoutIntent) error
}

// Store groups the repositories of one backend.
type Store interface {
	Products() ProductRepository
	Orders() OrderRepository
	Users() UserRepository
	CheckoutIntents() CheckoutIntentRepository
	// WithinTransaction runs fn with a Store whose repositories share one
	// transaction. fn must use the ctx and Store it is given.
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

package repositories

import (
	"context"

	"gorm.io/gorm"
)

// GORMStore is the Store backed by a relational database.
type GORMStore struct {
	db       *gorm.DB
	products *GORMProductRepository
	orders   *GORMOrderRepository
	users    *GORMUserRepository
	intents  *GORMCheckoutIntentRepository
}

// NewGORMStore builds every GORM repository on top of db.
func NewGORMStore(db *gorm.DB) *GORMStore {
	return &GORMStore{
		db:       db,
		products: NewGORMProductRepository(db),
		orders:   NewGORMOrderRepository(db),
		users:    NewGORMUserRepository(db),
		intents:  NewGORMCheckoutIntentRepository(db),
	}
}

func (s *GORMStore) Products() ProductRepository               { return s.products }
func (s *GORMStore) Orders() OrderRepository                   { return s.orders }
func (s *GORMStore) Users() UserRepository                     { return s.users }
func (s *GORMStore) CheckoutIntents() CheckoutIntentRepository { return s.intents }

// WithinTransaction commits when fn returns nil and rolls back otherwise.
func (s *GORMStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, NewGORMStore(tx))
	})
}

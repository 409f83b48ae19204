package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"luxe/internal/apperror"
	"luxe/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoCheckoutIntentRepository stores pending online checkouts.
type MongoCheckoutIntentRepository struct {
	coll *mongo.Collection
}

func NewMongoCheckoutIntentRepository(db *mongo.Database) *MongoCheckoutIntentRepository {
	return &MongoCheckoutIntentRepository{coll: db.Collection("checkout_intents")}
}

func (r *MongoCheckoutIntentRepository) Create(ctx context.Context, intent *models.CheckoutIntent) error {
	if intent.ID == "" {
		intent.ID = uuid.New().String()
	}
	now := time.Now()
	intent.CreatedAt, intent.UpdatedAt = now, now
	if _, err := r.coll.InsertOne(ctx, intent); err != nil {
		return fmt.Errorf("failed to create checkout intent: %w", err)
	}
	return nil
}

func (r *MongoCheckoutIntentRepository) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.CheckoutIntent, error) {
	var intent models.CheckoutIntent
	err := r.coll.FindOne(ctx, bson.M{"gatewayOrderId": gatewayOrderID}).Decode(&intent)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperror.NotFound("Payment order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get checkout intent %s: %w", gatewayOrderID, err)
	}
	return &intent, nil
}

func (r *MongoCheckoutIntentRepository) Update(ctx context.Context, intent *models.CheckoutIntent) error {
	intent.UpdatedAt = time.Now()
	if _, err := r.coll.ReplaceOne(ctx, bson.M{"_id": intent.ID}, intent); err != nil {
		return fmt.Errorf("failed to update checkout intent: %w", err)
	}
	return nil
}

// MongoStore is the Store backed by a MongoDB database. Transactions need a
// replica set.
type MongoStore struct {
	db       *mongo.Database
	products *MongoProductRepository
	orders   *MongoOrderRepository
	users    *MongoUserRepository
	intents  *MongoCheckoutIntentRepository
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		db:       db,
		products: NewMongoProductRepository(db),
		orders:   NewMongoOrderRepository(db),
		users:    NewMongoUserRepository(db),
		intents:  NewMongoCheckoutIntentRepository(db),
	}
}

func (s *MongoStore) Products() ProductRepository               { return s.products }
func (s *MongoStore) Orders() OrderRepository                   { return s.orders }
func (s *MongoStore) Users() UserRepository                     { return s.users }
func (s *MongoStore) CheckoutIntents() CheckoutIntentRepository { return s.intents }

// WithinTransaction runs fn inside a session transaction. The repositories
// join it through the session context passed to fn.
func (s *MongoStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	session, err := s.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, s)
	})
	return err
}

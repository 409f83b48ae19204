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
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoOrderRepository stores orders with their items embedded.
type MongoOrderRepository struct {
	coll *mongo.Collection
}

func NewMongoOrderRepository(db *mongo.Database) *MongoOrderRepository {
	return &MongoOrderRepository{coll: db.Collection("orders")}
}

func (r *MongoOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.New().String()
		}
		order.Items[i].OrderID = order.ID
		order.Items[i].Position = i
	}
	now := time.Now()
	order.CreatedAt, order.UpdatedAt = now, now
	if _, err := r.coll.InsertOne(ctx, order); err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *MongoOrderRepository) findOne(ctx context.Context, filter bson.M) (*models.Order, error) {
	var order models.Order
	err := r.coll.FindOne(ctx, filter).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperror.NotFound("Order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &order, nil
}

func (r *MongoOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoOrderRepository) GetByPaymentIntent(ctx context.Context, intentID string) (*models.Order, error) {
	return r.findOne(ctx, bson.M{"paymentIntentId": intentID})
}

func (r *MongoOrderRepository) List(ctx context.Context, f OrderFilter) ([]models.Order, int64, error) {
	q := bson.M{}
	if f.UserID != "" {
		q["user"] = f.UserID
	}
	if f.Status != "" {
		q["orderStatus"] = f.Status
	}

	total, err := r.coll.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetSkip(int64(f.Offset()))
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	cur, err := r.coll.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	orders := []models.Order{}
	if err := cur.All(ctx, &orders); err != nil {
		return nil, 0, fmt.Errorf("failed to decode orders: %w", err)
	}
	return orders, total, nil
}

func (r *MongoOrderRepository) Update(ctx context.Context, order *models.Order) error {
	order.UpdatedAt = time.Now()
	set := bson.M{
		"paymentStatus":   order.PaymentStatus,
		"orderStatus":     order.OrderStatus,
		"trackingNumber":  order.TrackingNumber,
		"paymentIntentId": order.PaymentIntentID,
		"paymentId":       order.PaymentID,
		"deliveredAt":     order.DeliveredAt,
		"updatedAt":       order.UpdatedAt,
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": order.ID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("Order not found")
	}
	return nil
}

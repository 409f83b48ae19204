package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectMongo opens a client using the decimal-aware registry and pings
// the primary.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Client().ApplyURI(uri).SetRegistry(NewRegistry())
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client, nil
}

type collectionIndexes struct {
	collection string
	models     []mongo.IndexModel
}

var indexSet = []collectionIndexes{
	{"products", []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetName("slug_unique").SetUnique(true)},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "price", Value: 1}}, Options: options.Index().SetName("category_price")},
		{Keys: bson.D{{Key: "featured", Value: 1}}, Options: options.Index().SetName("featured_index")},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}, Options: options.Index().SetName("createdAt_desc")},
	}},
	{"users", []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetName("email_unique").SetUnique(true)},
		{Keys: bson.D{{Key: "role", Value: 1}}, Options: options.Index().SetName("role_index")},
	}},
	{"orders", []mongo.IndexModel{
		{Keys: bson.D{{Key: "orderNumber", Value: 1}}, Options: options.Index().SetName("orderNumber_unique").SetUnique(true)},
		{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetName("user_createdAt")},
		{Keys: bson.D{{Key: "orderStatus", Value: 1}}, Options: options.Index().SetName("orderStatus_index")},
		{Keys: bson.D{{Key: "paymentIntentId", Value: 1}}, Options: options.Index().SetName("paymentIntentId_index")},
	}},
	{"checkout_intents", []mongo.IndexModel{
		{Keys: bson.D{{Key: "gatewayOrderId", Value: 1}}, Options: options.Index().SetName("gatewayOrderId_unique").SetUnique(true)},
	}},
}

// EnsureIndexes creates the indexes every collection relies on.
func EnsureIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, set := range indexSet {
		names, err := db.Collection(set.collection).Indexes().CreateMany(ctx, set.models)
		if err != nil {
			log.Printf("EnsureIndexes: %s index error: %v", set.collection, err)
			return fmt.Errorf("failed to create %s indexes: %w", set.collection, err)
		}
		log.Printf("EnsureIndexes: %s indexes ready: %v", set.collection, names)
	}
	return nil
}

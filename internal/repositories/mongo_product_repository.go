package repositories

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"

	"luxe/internal/apperror"
	"luxe/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoProductRepository stores products in the "products" collection.
type MongoProductRepository struct {
	coll *mongo.Collection
}

func NewMongoProductRepository(db *mongo.Database) *MongoProductRepository {
	return &MongoProductRepository{coll: db.Collection("products")}
}

var mongoProductSorts = map[string]bson.D{
	SortNewest:    {{Key: "createdAt", Value: -1}},
	SortPriceLow:  {{Key: "price", Value: 1}},
	SortPriceHigh: {{Key: "price", Value: -1}},
	SortRating:    {{Key: "rating", Value: -1}},
	SortPopular:   {{Key: "reviews", Value: -1}},
}

func containsRegex(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

func productQuery(f ProductFilter) bson.M {
	q := bson.M{}
	if f.Category != "" && f.Category != "All" {
		q["category"] = f.Category
	}
	price := bson.M{}
	if f.MinPrice != nil {
		price["$gte"] = *f.MinPrice
	}
	if f.MaxPrice != nil {
		price["$lte"] = *f.MaxPrice
	}
	if len(price) > 0 {
		q["price"] = price
	}
	if f.Search != "" {
		re := containsRegex(f.Search)
		q["$or"] = bson.A{bson.M{"name": re}, bson.M{"description": re}}
	}
	if f.Featured {
		q["featured"] = true
	}
	if f.InStockOnly {
		q["inStock"] = true
	}
	return q
}

func (r *MongoProductRepository) List(ctx context.Context, f ProductFilter) ([]models.Product, int64, error) {
	q := productQuery(f)
	total, err := r.coll.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	sortBy, ok := mongoProductSorts[f.SortBy]
	if !ok {
		sortBy = mongoProductSorts[SortNewest]
	}
	opts := options.Find().SetSort(sortBy).SetSkip(int64(f.Offset()))
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}

	products, err := r.find(ctx, q, opts)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *MongoProductRepository) find(ctx context.Context, q interface{}, opts *options.FindOptions) ([]models.Product, error) {
	cur, err := r.coll.Find(ctx, q, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	products := []models.Product{}
	if err := cur.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, nil
}

func (r *MongoProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperror.NotFound("Product not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

func (r *MongoProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if product.Slug == "" {
		product.AssignSlug()
	}
	now := time.Now()
	product.CreatedAt, product.UpdatedAt = now, now
	product.Normalize()
	if _, err := r.coll.InsertOne(ctx, product); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *MongoProductRepository) Update(ctx context.Context, product *models.Product) error {
	product.UpdatedAt = time.Now()
	product.Normalize()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": product.ID}, product)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("Product not found: %s", product.ID)
	}
	return nil
}

func (r *MongoProductRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperror.NotFound("Product not found: %s", id)
	}
	return nil
}

func (r *MongoProductRepository) Categories(ctx context.Context) ([]string, error) {
	values, err := r.coll.Distinct(ctx, "category", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	categories := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			categories = append(categories, s)
		}
	}
	sort.Strings(categories)
	return categories, nil
}

func (r *MongoProductRepository) SearchAny(ctx context.Context, keywords []string, limit int) ([]models.Product, error) {
	if len(keywords) == 0 {
		return r.Top(ctx, limit)
	}
	or := bson.A{}
	for _, kw := range keywords {
		re := containsRegex(kw)
		or = append(or,
			bson.M{"name": re},
			bson.M{"description": re},
			bson.M{"category": re},
			bson.M{"colors": re},
		)
	}
	return r.find(ctx, bson.M{"$or": or}, options.Find().SetLimit(int64(limit)))
}

func (r *MongoProductRepository) Top(ctx context.Context, limit int) ([]models.Product, error) {
	opts := options.Find().SetSort(mongoProductSorts[SortNewest]).SetLimit(int64(limit))
	return r.find(ctx, bson.M{}, opts)
}

// stockUpdate adjusts stockQuantity by delta and recomputes inStock from the
// new value in the same write.
func stockUpdate(delta int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "stockQuantity", Value: bson.D{{Key: "$add", Value: bson.A{"$stockQuantity", delta}}}},
		}}},
		{{Key: "$set", Value: bson.D{
			{Key: "inStock", Value: bson.D{{Key: "$gt", Value: bson.A{"$stockQuantity", 0}}}},
			{Key: "updatedAt", Value: time.Now()},
		}}},
	}
}

func (r *MongoProductRepository) DecrementStock(ctx context.Context, id string, qty int) error {
	filter := bson.M{
		"_id":           id,
		"inStock":       true,
		"stockQuantity": bson.M{"$gte": qty},
	}
	res, err := r.coll.UpdateOne(ctx, filter, stockUpdate(-qty))
	if err != nil {
		return fmt.Errorf("failed to decrement stock for product %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return apperror.InsufficientStock("Insufficient stock for product: %s", id)
	}
	return nil
}

func (r *MongoProductRepository) IncrementStock(ctx context.Context, id string, qty int) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, stockUpdate(qty))
	if err != nil {
		return fmt.Errorf("failed to increment stock for product %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("Product not found: %s", id)
	}
	return nil
}

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

// MongoUserRepository stores users with their addresses embedded.
type MongoUserRepository struct {
	coll *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{coll: db.Collection("users")}
}

func assignAddressIDs(user *models.User) {
	for i := range user.Addresses {
		if user.Addresses[i].ID == "" {
			user.Addresses[i].ID = uuid.New().String()
		}
		user.Addresses[i].UserID = user.ID
		user.Addresses[i].Position = i
	}
}

func (r *MongoUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	assignAddressIDs(user)
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.Conflict("User already exists with this email")
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := r.coll.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperror.NotFound("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	assignAddressIDs(&user)
	return &user, nil
}

func (r *MongoUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoUserRepository) Update(ctx context.Context, user *models.User) error {
	assignAddressIDs(user)
	user.UpdatedAt = time.Now()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.Conflict("Email is already in use")
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("User not found")
	}
	return nil
}

func (r *MongoUserRepository) ListByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.M{"role": role}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list users by role: %w", err)
	}
	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}

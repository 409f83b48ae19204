package repositories

import (
	"context"
	"errors"
	"fmt"

	"luxe/internal/apperror"
	"luxe/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

func (r *GORMUserRepository) withAddresses(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Addresses", func(db *gorm.DB) *gorm.DB {
		return db.Order("position")
	})
}

// Create creates a new user in the database.
func (r *GORMUserRepository) Create(ctx context.Context, user *models.User) error {
	for i := range user.Addresses {
		user.Addresses[i].Position = i
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperror.Conflict("User already exists with this email")
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByEmail retrieves a user by their email from the database.
func (r *GORMUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.withAddresses(ctx).First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("User not found")
		}
		return nil, fmt.Errorf("failed to get user by email %s: %w", email, err)
	}
	return &user, nil
}

// GetByID retrieves a user by their ID from the database.
func (r *GORMUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.withAddresses(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("User not found")
		}
		return nil, fmt.Errorf("failed to get user by ID %s: %w", id, err)
	}
	return &user, nil
}

// Update saves the user row and replaces its address rows.
func (r *GORMUserRepository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(user).Error; err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Address{}).Error; err != nil {
			return fmt.Errorf("failed to clear addresses: %w", err)
		}
		if len(user.Addresses) == 0 {
			return nil
		}
		for i := range user.Addresses {
			user.Addresses[i].UserID = user.ID
			user.Addresses[i].Position = i
		}
		if err := tx.Create(&user.Addresses).Error; err != nil {
			return fmt.Errorf("failed to save addresses: %w", err)
		}
		return nil
	})
}

// ListByRole returns every user with the given role, oldest first.
func (r *GORMUserRepository) ListByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Where("role = ?", role).Order("created_at").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users by role: %w", err)
	}
	return users, nil
}

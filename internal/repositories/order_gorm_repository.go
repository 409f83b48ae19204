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

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

func (r *GORMOrderRepository) withItems(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position")
	})
}

// Create inserts the order together with its line snapshots.
func (r *GORMOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// GetByID retrieves an order by ID with its items.
func (r *GORMOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := r.withItems(ctx).First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Order not found")
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// GetByPaymentIntent finds the order created for a gateway order.
func (r *GORMOrderRepository) GetByPaymentIntent(ctx context.Context, intentID string) (*models.Order, error) {
	var order models.Order
	if err := r.withItems(ctx).First(&order, "payment_intent_id = ?", intentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Order not found")
		}
		return nil, fmt.Errorf("failed to get order by payment intent %s: %w", intentID, err)
	}
	return &order, nil
}

func (r *GORMOrderRepository) filtered(ctx context.Context, f OrderFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Order{})
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("order_status = ?", f.Status)
	}
	return q
}

// List returns orders matching the filter, newest first, with the total count.
func (r *GORMOrderRepository) List(ctx context.Context, f OrderFilter) ([]models.Order, int64, error) {
	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	q := r.filtered(ctx, f).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position")
	}).Order("created_at DESC").Offset(f.Offset())
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var orders []models.Order
	if err := q.Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

// Update saves the order row without touching its items.
func (r *GORMOrderRepository) Update(ctx context.Context, order *models.Order) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(order).Error; err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	return nil
}

package repositories

import (
	"context"
	"errors"
	"fmt"

	"luxe/internal/apperror"
	"luxe/internal/models"

	"gorm.io/gorm"
)

// GORMCheckoutIntentRepository is a GORM implementation of CheckoutIntentRepository.
type GORMCheckoutIntentRepository struct {
	db *gorm.DB
}

func NewGORMCheckoutIntentRepository(db *gorm.DB) *GORMCheckoutIntentRepository {
	return &GORMCheckoutIntentRepository{db: db}
}

func (r *GORMCheckoutIntentRepository) Create(ctx context.Context, intent *models.CheckoutIntent) error {
	if err := r.db.WithContext(ctx).Create(intent).Error; err != nil {
		return fmt.Errorf("failed to create checkout intent: %w", err)
	}
	return nil
}

func (r *GORMCheckoutIntentRepository) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.CheckoutIntent, error) {
	var intent models.CheckoutIntent
	if err := r.db.WithContext(ctx).First(&intent, "gateway_order_id = ?", gatewayOrderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Payment order not found")
		}
		return nil, fmt.Errorf("failed to get checkout intent %s: %w", gatewayOrderID, err)
	}
	return &intent, nil
}

func (r *GORMCheckoutIntentRepository) Update(ctx context.Context, intent *models.CheckoutIntent) error {
	if err := r.db.WithContext(ctx).Save(intent).Error; err != nil {
		return fmt.Errorf("failed to update checkout intent: %w", err)
	}
	return nil
}

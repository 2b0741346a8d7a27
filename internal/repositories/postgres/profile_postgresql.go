package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/quantprep/challenge-service/internal/models"
	"github.com/quantprep/challenge-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type profileRepository struct {
	db *gorm.DB
}

func (r *profileRepository) Get(ctx context.Context, userID string) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &profile, nil
}

func (r *profileRepository) Upsert(ctx context.Context, profile *models.Profile) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"display_name", "avatar_url", "updated_at",
		}),
	}).Create(profile).Error
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

// SetPaidStatus applies a billing webhook outcome. Stripe ids are only
// overwritten when provided so a cancellation does not erase the customer
// linkage.
func (r *profileRepository) SetPaidStatus(ctx context.Context, userID string, isPaid bool, customerID, subscriptionID *string) error {
	updates := map[string]interface{}{
		"is_paid":    isPaid,
		"updated_at": time.Now(),
	}
	if customerID != nil {
		updates["stripe_customer_id"] = *customerID
	}
	if subscriptionID != nil {
		updates["stripe_subscription_id"] = *subscriptionID
	}

	result := r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("user_id = ?", userID).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to set paid status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *profileRepository) GetByStripeCustomer(ctx context.Context, customerID string) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.WithContext(ctx).Where("stripe_customer_id = ?", customerID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile by stripe customer: %w", err)
	}
	return &profile, nil
}

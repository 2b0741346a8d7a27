package models

import "time"

// Profile mirrors the billing and identity state for one user. IsPaid is
// flipped by billing webhooks; everything else comes from the auth provider
// on first sight of the user.
type Profile struct {
	UserID      string  `json:"user_id" gorm:"primaryKey;size:255"`
	DisplayName string  `json:"display_name" gorm:"size:100"`
	AvatarURL   *string `json:"avatar_url" gorm:"size:500"`

	IsPaid  bool `json:"is_paid" gorm:"default:false"`
	IsAdmin bool `json:"is_admin" gorm:"default:false"`

	StripeCustomerID     *string `json:"stripe_customer_id" gorm:"size:255;index"`
	StripeSubscriptionID *string `json:"stripe_subscription_id" gorm:"size:255"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

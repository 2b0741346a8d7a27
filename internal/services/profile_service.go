package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/quantprep/challenge-service/internal/models"
	"github.com/quantprep/challenge-service/internal/repositories"
)

type UpdateProfileRequest struct {
	DisplayName string `json:"display_name" validate:"required,max=100"`
	AvatarURL   string `json:"avatar_url" validate:"omitempty,url,max=500"`
}

// BillingEventRequest is the payload of the billing provider's webhook after
// signature verification. Only subscription lifecycle events reach here.
type BillingEventRequest struct {
	Type           string `json:"type" validate:"required"`
	CustomerID     string `json:"customer_id" validate:"required"`
	SubscriptionID string `json:"subscription_id"`
	UserID         string `json:"user_id"`
}

const (
	BillingSubscriptionActivated = "subscription.activated"
	BillingSubscriptionCanceled  = "subscription.canceled"
)

type ProfileService interface {
	Get(ctx context.Context, userID string) (*models.Profile, error)
	Update(ctx context.Context, userID string, req UpdateProfileRequest) (*models.Profile, error)
	// EnsureExists creates a default profile on first authenticated request.
	EnsureExists(ctx context.Context, userID, displayName string) (*models.Profile, error)
	HandleBillingEvent(ctx context.Context, req BillingEventRequest) error
}

type profileService struct {
	repo   repositories.Repository
	logger *ServiceLogger
}

func NewProfileService(repo repositories.Repository, logger *slog.Logger) ProfileService {
	return &profileService{
		repo:   repo,
		logger: NewServiceLogger(logger, LogConfig{Service: "challenge-service", Component: "profile"}),
	}
}

func (s *profileService) Get(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := s.repo.Profile().Get(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return profile, nil
}

func (s *profileService) Update(ctx context.Context, userID string, req UpdateProfileRequest) (*models.Profile, error) {
	op := s.logger.WithOperation(ctx, "update_profile", userID)

	profile := &models.Profile{
		UserID:      userID,
		DisplayName: req.DisplayName,
		UpdatedAt:   time.Now().UTC(),
	}
	if req.AvatarURL != "" {
		profile.AvatarURL = &req.AvatarURL
	}
	if err := s.repo.Profile().Upsert(ctx, profile); err != nil {
		op.LogResult(userID, err)
		return nil, err
	}

	op.LogResult(userID, nil)
	return s.Get(ctx, userID)
}

func (s *profileService) EnsureExists(ctx context.Context, userID, displayName string) (*models.Profile, error) {
	profile, err := s.repo.Profile().Get(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, err
	}

	profile = &models.Profile{
		UserID:      userID,
		DisplayName: displayName,
		UpdatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Profile().Upsert(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// HandleBillingEvent flips the paid flag from subscription lifecycle events.
// The webhook is the single writer of is_paid; nothing else touches it.
func (s *profileService) HandleBillingEvent(ctx context.Context, req BillingEventRequest) error {
	op := s.logger.WithOperation(ctx, "billing_event", req.UserID)

	userID := req.UserID
	if userID == "" {
		profile, err := s.repo.Profile().GetByStripeCustomer(ctx, req.CustomerID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				err = ErrProfileNotFound
			}
			op.LogResult(req.CustomerID, err)
			return err
		}
		userID = profile.UserID
	}

	var err error
	switch req.Type {
	case BillingSubscriptionActivated:
		err = s.repo.Profile().SetPaidStatus(ctx, userID, true, &req.CustomerID, &req.SubscriptionID)
	case BillingSubscriptionCanceled:
		err = s.repo.Profile().SetPaidStatus(ctx, userID, false, nil, nil)
	default:
		err = NewValidationError("type", "unknown billing event type", req.Type)
	}

	op.LogResult(userID, err)
	return err
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/quantprep/challenge-service/internal/models"
	"github.com/quantprep/challenge-service/internal/repositories"
	"gorm.io/gorm"
)

type challengeRepository struct {
	db *gorm.DB
}

func (r *challengeRepository) Create(ctx context.Context, completion *models.ChallengeCompletion) error {
	if err := r.db.WithContext(ctx).Create(completion).Error; err != nil {
		return fmt.Errorf("failed to create challenge completion: %w", err)
	}
	return nil
}

func (r *challengeRepository) GetByUser(ctx context.Context, userID string, filters repositories.ChallengeFilters) ([]*models.ChallengeCompletion, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ChallengeCompletion{}).
		Where("user_id = ?", userID)
	return r.list(applyChallengeFilters(query, filters), filters)
}

func (r *challengeRepository) List(ctx context.Context, filters repositories.ChallengeFilters) ([]*models.ChallengeCompletion, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ChallengeCompletion{})
	return r.list(applyChallengeFilters(query, filters), filters)
}

func (r *challengeRepository) list(query *gorm.DB, filters repositories.ChallengeFilters) ([]*models.ChallengeCompletion, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count challenge completions: %w", err)
	}

	sortBy := "created_at"
	if filters.SortBy == "score" {
		sortBy = "score"
	}
	direction := "DESC"
	if filters.SortOrd == "asc" {
		direction = "ASC"
	}
	query = query.Order(sortBy + " " + direction)

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var completions []*models.ChallengeCompletion
	if err := query.Find(&completions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list challenge completions: %w", err)
	}
	return completions, total, nil
}

// TopScores returns the best successful runs for a firm, one row per entry.
func (r *challengeRepository) TopScores(ctx context.Context, firm string, limit int) ([]*models.ChallengeCompletion, error) {
	var completions []*models.ChallengeCompletion
	err := r.db.WithContext(ctx).
		Where("firm = ? AND failed = ?", firm, false).
		Order("score DESC, time_taken ASC").
		Limit(limit).
		Find(&completions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get top scores: %w", err)
	}
	return completions, nil
}

func (r *challengeRepository) BestScore(ctx context.Context, userID, firm string) (int, error) {
	var completion models.ChallengeCompletion
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND firm = ? AND failed = ?", userID, firm, false).
		Order("score DESC").
		First(&completion).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, repositories.ErrNotFound
		}
		return 0, fmt.Errorf("failed to get best score: %w", err)
	}
	return completion.Score, nil
}

func applyChallengeFilters(query *gorm.DB, filters repositories.ChallengeFilters) *gorm.DB {
	if filters.Firm != nil {
		query = query.Where("firm = ?", *filters.Firm)
	}
	if filters.Failed != nil {
		query = query.Where("failed = ?", *filters.Failed)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	return query
}

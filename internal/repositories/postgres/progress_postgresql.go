package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/quantprep/challenge-service/internal/models"
	"github.com/quantprep/challenge-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type progressRepository struct {
	db *gorm.DB
}

func (r *progressRepository) Get(ctx context.Context, userID string) (*models.UserProgress, error) {
	var progress models.UserProgress
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&progress).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user progress: %w", err)
	}
	return &progress, nil
}

func (r *progressRepository) Upsert(ctx context.Context, progress *models.UserProgress) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"streak_days", "last_activity_date", "questions_completed",
			"correct_answers", "total_practice_time", "updated_at",
		}),
	}).Create(progress).Error
	if err != nil {
		return fmt.Errorf("failed to upsert user progress: %w", err)
	}
	return nil
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/quantprep/challenge-service/internal/models"
	"github.com/quantprep/challenge-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type completionRepository struct {
	db *gorm.DB
}

// Upsert writes the latest graded answer for (user, question). A conflicting
// insert updates the existing row in place.
func (r *completionRepository) Upsert(ctx context.Context, completion *models.QuestionCompletion) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"is_correct", "time_taken", "completed_at", "submitted_answer",
		}),
	}).Create(completion).Error
	if err != nil {
		return fmt.Errorf("failed to upsert question completion: %w", err)
	}
	return nil
}

func (r *completionRepository) GetByUser(ctx context.Context, userID string, filters repositories.CompletionFilters) ([]*models.QuestionCompletion, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.QuestionCompletion{}).Where("user_id = ?", userID)

	if filters.IsCorrect != nil {
		query = query.Where("is_correct = ?", *filters.IsCorrect)
	}
	if filters.DateFrom != nil {
		query = query.Where("completed_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("completed_at <= ?", *filters.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count completions: %w", err)
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var completions []*models.QuestionCompletion
	if err := query.Order("completed_at DESC").Find(&completions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list completions: %w", err)
	}
	return completions, total, nil
}

func (r *completionRepository) CorrectQuestionIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.QuestionCompletion{}).
		Where("user_id = ? AND is_correct = ?", userID, true).
		Pluck("question_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get correct question ids: %w", err)
	}
	return ids, nil
}

// DailyCounts returns completion counts keyed by UTC calendar day, the input
// to streak computation. Days without activity are absent.
func (r *completionRepository) DailyCounts(ctx context.Context, userID string, since time.Time) (map[string]int, error) {
	type row struct {
		Day   time.Time
		Count int
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.QuestionCompletion{}).
		Select("date_trunc('day', completed_at AT TIME ZONE 'UTC') AS day, count(*) AS count").
		Where("user_id = ? AND completed_at >= ?", userID, since).
		Group("day").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get daily completion counts: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Day.UTC().Format("2006-01-02")] = r.Count
	}
	return counts, nil
}

func (r *completionRepository) Stats(ctx context.Context, userID string) (*repositories.CompletionStats, error) {
	var stats repositories.CompletionStats
	err := r.db.WithContext(ctx).
		Model(&models.QuestionCompletion{}).
		Select("count(*) AS completed, count(*) FILTER (WHERE is_correct) AS correct, coalesce(sum(time_taken), 0) AS total_time").
		Where("user_id = ?", userID).
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get completion stats: %w", err)
	}
	return &stats, nil
}

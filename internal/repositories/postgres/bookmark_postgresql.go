package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/quantprep/challenge-service/internal/models"
	"github.com/quantprep/challenge-service/internal/repositories"
	"gorm.io/gorm"
)

type bookmarkRepository struct {
	db *gorm.DB
}

func (r *bookmarkRepository) Add(ctx context.Context, bookmark *models.Bookmark) error {
	err := r.db.WithContext(ctx).Create(bookmark).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return repositories.ErrDuplicateKey
		}
		return fmt.Errorf("failed to create bookmark: %w", err)
	}
	return nil
}

func (r *bookmarkRepository) Remove(ctx context.Context, userID, questionID string) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND question_id = ?", userID, questionID).
		Delete(&models.Bookmark{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove bookmark: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *bookmarkRepository) Exists(ctx context.Context, userID, questionID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Bookmark{}).
		Where("user_id = ? AND question_id = ?", userID, questionID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check bookmark: %w", err)
	}
	return count > 0, nil
}

func (r *bookmarkRepository) ListByUser(ctx context.Context, userID string) ([]*models.Bookmark, error) {
	var bookmarks []*models.Bookmark
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&bookmarks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}
	return bookmarks, nil
}

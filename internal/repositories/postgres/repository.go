package postgres

import (
	"context"

	"github.com/quantprep/challenge-service/internal/models"
	"github.com/quantprep/challenge-service/internal/repositories"
	"gorm.io/gorm"
)

type gormRepository struct {
	db *gorm.DB

	completion *completionRepository
	bookmark   *bookmarkRepository
	challenge  *challengeRepository
	progress   *progressRepository
	profile    *profileRepository
}

// NewRepository wraps a GORM handle in the Repository aggregate.
func NewRepository(db *gorm.DB) repositories.Repository {
	return newGormRepository(db)
}

func newGormRepository(db *gorm.DB) *gormRepository {
	return &gormRepository{
		db:         db,
		completion: &completionRepository{db: db},
		bookmark:   &bookmarkRepository{db: db},
		challenge:  &challengeRepository{db: db},
		progress:   &progressRepository{db: db},
		profile:    &profileRepository{db: db},
	}
}

func (r *gormRepository) Completion() repositories.CompletionRepository { return r.completion }
func (r *gormRepository) Bookmark() repositories.BookmarkRepository     { return r.bookmark }
func (r *gormRepository) Challenge() repositories.ChallengeRepository   { return r.challenge }
func (r *gormRepository) Progress() repositories.ProgressRepository     { return r.progress }
func (r *gormRepository) Profile() repositories.ProfileRepository       { return r.profile }

func (r *gormRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newGormRepository(tx))
	})
}

func (r *gormRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *gormRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AutoMigrate creates or updates the persistence schema.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.QuestionCompletion{},
		&models.Bookmark{},
		&models.ChallengeCompletion{},
		&models.UserProgress{},
		&models.Profile{},
	)
}

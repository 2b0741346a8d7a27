package repositories

import (
	"context"
	"time"

	"github.com/quantprep/challenge-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type ChallengeFilters struct {
	Firm     *string    `json:"firm"`
	Failed   *bool      `json:"failed"`
	DateFrom *time.Time `json:"date_from"`
	DateTo   *time.Time `json:"date_to"`
	Limit    int        `json:"limit"`
	Offset   int        `json:"offset"`
	SortBy   string     `json:"sort_by"`    // "created_at", "score"
	SortOrd  string     `json:"sort_order"` // "asc", "desc"
}

type CompletionFilters struct {
	IsCorrect *bool      `json:"is_correct"`
	DateFrom  *time.Time `json:"date_from"`
	DateTo    *time.Time `json:"date_to"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
}

// ===== REPOSITORY INTERFACES =====

// CompletionRepository stores per-question practice results with upsert
// semantics keyed on (user, question).
type CompletionRepository interface {
	Upsert(ctx context.Context, completion *models.QuestionCompletion) error
	GetByUser(ctx context.Context, userID string, filters CompletionFilters) ([]*models.QuestionCompletion, int64, error)
	CorrectQuestionIDs(ctx context.Context, userID string) ([]string, error)
	DailyCounts(ctx context.Context, userID string, since time.Time) (map[string]int, error)
	Stats(ctx context.Context, userID string) (*CompletionStats, error)
}

// CompletionStats is the per-user rollup of practice completions. Rows are
// unique per question, so Completed counts distinct questions attempted.
type CompletionStats struct {
	Completed int `json:"completed"`
	Correct   int `json:"correct"`
	TotalTime int `json:"total_time"` // seconds
}

type BookmarkRepository interface {
	Add(ctx context.Context, bookmark *models.Bookmark) error
	Remove(ctx context.Context, userID, questionID string) error
	Exists(ctx context.Context, userID, questionID string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Bookmark, error)
}

// ChallengeRepository is append-only: one row per terminal session.
type ChallengeRepository interface {
	Create(ctx context.Context, completion *models.ChallengeCompletion) error
	GetByUser(ctx context.Context, userID string, filters ChallengeFilters) ([]*models.ChallengeCompletion, int64, error)
	List(ctx context.Context, filters ChallengeFilters) ([]*models.ChallengeCompletion, int64, error)
	TopScores(ctx context.Context, firm string, limit int) ([]*models.ChallengeCompletion, error)
	BestScore(ctx context.Context, userID, firm string) (int, error)
}

type ProgressRepository interface {
	Get(ctx context.Context, userID string) (*models.UserProgress, error)
	Upsert(ctx context.Context, progress *models.UserProgress) error
}

type ProfileRepository interface {
	Get(ctx context.Context, userID string) (*models.Profile, error)
	Upsert(ctx context.Context, profile *models.Profile) error
	SetPaidStatus(ctx context.Context, userID string, isPaid bool, customerID, subscriptionID *string) error
	GetByStripeCustomer(ctx context.Context, customerID string) (*models.Profile, error)
}

// Repository aggregates the entity repositories behind one handle so
// services can run multi-entity writes in a transaction.
type Repository interface {
	Completion() CompletionRepository
	Bookmark() BookmarkRepository
	Challenge() ChallengeRepository
	Progress() ProgressRepository
	Profile() ProfileRepository

	WithTransaction(ctx context.Context, fn func(Repository) error) error
	Ping(ctx context.Context) error
	Close() error
}

// ===== SHARED STATISTICS STRUCTS =====

type LeaderboardEntry struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name,omitempty"`
	Score       int       `json:"score"`
	TimeTaken   int       `json:"time_taken"`
	CompletedAt time.Time `json:"completed_at"`
}

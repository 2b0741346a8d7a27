package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/quantprep/challenge-service/internal/catalog"
	"github.com/quantprep/challenge-service/internal/events"
	"github.com/quantprep/challenge-service/internal/models"
	"github.com/quantprep/challenge-service/internal/progress"
	"github.com/quantprep/challenge-service/internal/repositories"
)

type DashboardResponse struct {
	StreakDays         int                                      `json:"streak_days"`
	LastActivityDate   *time.Time                               `json:"last_activity_date,omitempty"`
	QuestionsCompleted int                                      `json:"questions_completed"`
	CorrectAnswers     int                                      `json:"correct_answers"`
	TotalPracticeTime  int                                      `json:"total_practice_time"` // seconds
	CompletedToday     int                                      `json:"completed_today"`
	BandCompletion     map[models.DifficultyBand]progress.Ratio `json:"band_completion"`
	RecentChallenges   []*models.ChallengeCompletion            `json:"recent_challenges"`
}

type ProgressService interface {
	Dashboard(ctx context.Context, userID string) (*DashboardResponse, error)
	// RecordActivity refreshes the user's rollup after any completed work.
	RecordActivity(ctx context.Context, userID string, at time.Time) error
}

type progressService struct {
	repo      repositories.Repository
	catalog   *catalog.Catalog
	publisher events.EventPublisher
	logger    *ServiceLogger
	slog      *slog.Logger
}

func NewProgressService(repo repositories.Repository, cat *catalog.Catalog, publisher events.EventPublisher, logger *slog.Logger) ProgressService {
	return &progressService{
		repo:      repo,
		catalog:   cat,
		publisher: publisher,
		logger:    NewServiceLogger(logger, LogConfig{Service: "challenge-service", Component: "progress"}),
		slog:      logger,
	}
}

func (s *progressService) Dashboard(ctx context.Context, userID string) (*DashboardResponse, error) {
	op := s.logger.WithOperation(ctx, "dashboard", userID)

	now := time.Now().UTC()
	daily, err := s.repo.Completion().DailyCounts(ctx, userID, now.AddDate(-1, 0, -1))
	if err != nil {
		op.LogResult("", err)
		return nil, err
	}

	stats, err := s.repo.Completion().Stats(ctx, userID)
	if err != nil {
		op.LogResult("", err)
		return nil, err
	}

	correctIDs, err := s.repo.Completion().CorrectQuestionIDs(ctx, userID)
	if err != nil {
		op.LogResult("", err)
		return nil, err
	}
	correct := make(map[string]bool, len(correctIDs))
	for _, id := range correctIDs {
		correct[id] = true
	}

	recent, _, err := s.repo.Challenge().GetByUser(ctx, userID, repositories.ChallengeFilters{
		Limit:   5,
		SortBy:  "created_at",
		SortOrd: "desc",
	})
	if err != nil {
		op.LogResult("", err)
		return nil, err
	}

	resp := &DashboardResponse{
		StreakDays:         progress.Streak(daily, now),
		QuestionsCompleted: stats.Completed,
		CorrectAnswers:     stats.Correct,
		TotalPracticeTime:  stats.TotalTime,
		CompletedToday:     daily[progress.DayKey(now)],
		BandCompletion:     progress.BandCompletion(s.catalog, correct),
		RecentChallenges:   recent,
	}

	if stored, err := s.repo.Progress().Get(ctx, userID); err == nil {
		resp.LastActivityDate = stored.LastActivityDate
	}

	op.LogResult("", nil)
	return resp, nil
}

// RecordActivity recomputes the stored rollup from the completion tables.
// The write is skipped when nothing changed, so retried submissions of the
// same question stay idempotent.
func (s *progressService) RecordActivity(ctx context.Context, userID string, at time.Time) error {
	at = at.UTC()

	daily, err := s.repo.Completion().DailyCounts(ctx, userID, at.AddDate(-1, 0, -1))
	if err != nil {
		return err
	}
	stats, err := s.repo.Completion().Stats(ctx, userID)
	if err != nil {
		return err
	}

	streak := progress.Streak(daily, at)

	stored, err := s.repo.Progress().Get(ctx, userID)
	if err != nil && !IsNotFound(err) && !repositories.IsNotFoundError(err) {
		return err
	}

	next := &models.UserProgress{
		UserID:             userID,
		StreakDays:         streak,
		LastActivityDate:   &at,
		QuestionsCompleted: stats.Completed,
		CorrectAnswers:     stats.Correct,
		TotalPracticeTime:  stats.TotalTime,
		UpdatedAt:          at,
	}

	if stored != nil && stored.LastActivityDate != nil &&
		stored.StreakDays == next.StreakDays &&
		stored.QuestionsCompleted == next.QuestionsCompleted &&
		stored.CorrectAnswers == next.CorrectAnswers &&
		stored.TotalPracticeTime == next.TotalPracticeTime &&
		progress.DayKey(*stored.LastActivityDate) == progress.DayKey(at) {
		return nil
	}

	if err := s.repo.Progress().Upsert(ctx, next); err != nil {
		return err
	}

	if streak > 0 && (stored == nil || streak > stored.StreakDays) {
		pubCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.publisher.PublishChallengeEvent(pubCtx, events.NewStreakExtendedEvent(userID, streak)); err != nil {
			s.slog.Warn("streak event publish failed", "user_id", userID, "error", err)
		}
	}
	return nil
}

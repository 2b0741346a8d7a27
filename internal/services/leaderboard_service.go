package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/quantprep/challenge-service/internal/cache"
	"github.com/quantprep/challenge-service/internal/repositories"
)

const (
	leaderboardCacheTTL = 5 * time.Minute
	defaultLeaderboardN = 10
	maxLeaderboardN     = 100
)

type LeaderboardResponse struct {
	Firm    string                          `json:"firm"`
	Entries []repositories.LeaderboardEntry `json:"entries"`
	// UserBest is the caller's best score for this firm, 0 when absent.
	UserBest int `json:"user_best"`
}

type LeaderboardService interface {
	TopScores(ctx context.Context, userID, firm string, limit int) (*LeaderboardResponse, error)
}

type leaderboardService struct {
	repo   repositories.Repository
	cache  cache.CacheService
	logger *ServiceLogger
}

func NewLeaderboardService(repo repositories.Repository, c cache.CacheService, logger *slog.Logger) LeaderboardService {
	return &leaderboardService{
		repo:   repo,
		cache:  c,
		logger: NewServiceLogger(logger, LogConfig{Service: "challenge-service", Component: "leaderboard"}),
	}
}

func leaderboardKey(firm string, limit int) string {
	return fmt.Sprintf("leaderboard:%s:%d", firm, limit)
}

func leaderboardKeyPattern(firm string) string {
	return fmt.Sprintf("leaderboard:%s:*", firm)
}

func (s *leaderboardService) TopScores(ctx context.Context, userID, firm string, limit int) (*LeaderboardResponse, error) {
	op := s.logger.WithOperation(ctx, "leaderboard", userID)

	if limit <= 0 {
		limit = defaultLeaderboardN
	}
	if limit > maxLeaderboardN {
		limit = maxLeaderboardN
	}

	var entries []repositories.LeaderboardEntry
	key := leaderboardKey(firm, limit)
	if err := s.cache.Get(ctx, key, &entries); err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.LogOperation(ctx, "leaderboard_cache_get", userID, firm, 0, err)
		}

		rows, err := s.repo.Challenge().TopScores(ctx, firm, limit)
		if err != nil {
			op.LogResult(firm, err)
			return nil, err
		}

		entries = make([]repositories.LeaderboardEntry, 0, len(rows))
		for _, row := range rows {
			entry := repositories.LeaderboardEntry{
				UserID:      row.UserID,
				Score:       row.Score,
				TimeTaken:   row.TimeTaken,
				CompletedAt: row.CreatedAt,
			}
			if profile, err := s.repo.Profile().Get(ctx, row.UserID); err == nil {
				entry.DisplayName = profile.DisplayName
			}
			entries = append(entries, entry)
		}

		if err := s.cache.Set(ctx, key, entries, leaderboardCacheTTL); err != nil {
			s.logger.LogOperation(ctx, "leaderboard_cache_set", userID, firm, 0, err)
		}
	}

	resp := &LeaderboardResponse{Firm: firm, Entries: entries}
	if userID != "" {
		if best, err := s.repo.Challenge().BestScore(ctx, userID, firm); err == nil {
			resp.UserBest = best
		}
	}

	op.LogResult(firm, nil)
	return resp, nil
}

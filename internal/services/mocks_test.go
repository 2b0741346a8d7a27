package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/quantprep/challenge-service/internal/cache"
	"github.com/quantprep/challenge-service/internal/models"
	"github.com/quantprep/challenge-service/internal/repositories"
)

// ===== REPOSITORY MOCKS =====

type mockCompletionRepo struct{ mock.Mock }

func (m *mockCompletionRepo) Upsert(ctx context.Context, completion *models.QuestionCompletion) error {
	args := m.Called(ctx, completion)
	return args.Error(0)
}

func (m *mockCompletionRepo) GetByUser(ctx context.Context, userID string, filters repositories.CompletionFilters) ([]*models.QuestionCompletion, int64, error) {
	args := m.Called(ctx, userID, filters)
	return args.Get(0).([]*models.QuestionCompletion), args.Get(1).(int64), args.Error(2)
}

func (m *mockCompletionRepo) CorrectQuestionIDs(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockCompletionRepo) DailyCounts(ctx context.Context, userID string, since time.Time) (map[string]int, error) {
	args := m.Called(ctx, userID, since)
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *mockCompletionRepo) Stats(ctx context.Context, userID string) (*repositories.CompletionStats, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(*repositories.CompletionStats), args.Error(1)
}

type mockBookmarkRepo struct{ mock.Mock }

func (m *mockBookmarkRepo) Add(ctx context.Context, bookmark *models.Bookmark) error {
	args := m.Called(ctx, bookmark)
	return args.Error(0)
}

func (m *mockBookmarkRepo) Remove(ctx context.Context, userID, questionID string) error {
	args := m.Called(ctx, userID, questionID)
	return args.Error(0)
}

func (m *mockBookmarkRepo) Exists(ctx context.Context, userID, questionID string) (bool, error) {
	args := m.Called(ctx, userID, questionID)
	return args.Bool(0), args.Error(1)
}

func (m *mockBookmarkRepo) ListByUser(ctx context.Context, userID string) ([]*models.Bookmark, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*models.Bookmark), args.Error(1)
}

type mockChallengeRepo struct{ mock.Mock }

func (m *mockChallengeRepo) Create(ctx context.Context, completion *models.ChallengeCompletion) error {
	args := m.Called(ctx, completion)
	return args.Error(0)
}

func (m *mockChallengeRepo) GetByUser(ctx context.Context, userID string, filters repositories.ChallengeFilters) ([]*models.ChallengeCompletion, int64, error) {
	args := m.Called(ctx, userID, filters)
	return args.Get(0).([]*models.ChallengeCompletion), args.Get(1).(int64), args.Error(2)
}

func (m *mockChallengeRepo) List(ctx context.Context, filters repositories.ChallengeFilters) ([]*models.ChallengeCompletion, int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.ChallengeCompletion), args.Get(1).(int64), args.Error(2)
}

func (m *mockChallengeRepo) TopScores(ctx context.Context, firm string, limit int) ([]*models.ChallengeCompletion, error) {
	args := m.Called(ctx, firm, limit)
	return args.Get(0).([]*models.ChallengeCompletion), args.Error(1)
}

func (m *mockChallengeRepo) BestScore(ctx context.Context, userID, firm string) (int, error) {
	args := m.Called(ctx, userID, firm)
	return args.Int(0), args.Error(1)
}

type mockProgressRepo struct{ mock.Mock }

func (m *mockProgressRepo) Get(ctx context.Context, userID string) (*models.UserProgress, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProgress), args.Error(1)
}

func (m *mockProgressRepo) Upsert(ctx context.Context, progress *models.UserProgress) error {
	args := m.Called(ctx, progress)
	return args.Error(0)
}

type mockProfileRepo struct{ mock.Mock }

func (m *mockProfileRepo) Get(ctx context.Context, userID string) (*models.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *mockProfileRepo) Upsert(ctx context.Context, profile *models.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *mockProfileRepo) SetPaidStatus(ctx context.Context, userID string, isPaid bool, customerID, subscriptionID *string) error {
	args := m.Called(ctx, userID, isPaid, customerID, subscriptionID)
	return args.Error(0)
}

func (m *mockProfileRepo) GetByStripeCustomer(ctx context.Context, customerID string) (*models.Profile, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

// mockRepository aggregates the entity mocks. WithTransaction runs the
// callback against the same mocks, so expectations set on them cover
// transactional writes too.
type mockRepository struct {
	completion *mockCompletionRepo
	bookmark   *mockBookmarkRepo
	challenge  *mockChallengeRepo
	progress   *mockProgressRepo
	profile    *mockProfileRepo
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		completion: &mockCompletionRepo{},
		bookmark:   &mockBookmarkRepo{},
		challenge:  &mockChallengeRepo{},
		progress:   &mockProgressRepo{},
		profile:    &mockProfileRepo{},
	}
}

func (m *mockRepository) Completion() repositories.CompletionRepository { return m.completion }
func (m *mockRepository) Bookmark() repositories.BookmarkRepository     { return m.bookmark }
func (m *mockRepository) Challenge() repositories.ChallengeRepository   { return m.challenge }
func (m *mockRepository) Progress() repositories.ProgressRepository     { return m.progress }
func (m *mockRepository) Profile() repositories.ProfileRepository       { return m.profile }

func (m *mockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}

func (m *mockRepository) Ping(ctx context.Context) error { return nil }
func (m *mockRepository) Close() error                   { return nil }

// ===== CACHE FAKE =====

// fakeCache is an in-memory CacheService that records invalidations.
type fakeCache struct {
	mu              sync.Mutex
	store           map[string][]byte
	deletedPatterns []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: make(map[string][]byte)}
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.store[key] = data
	f.mu.Unlock()
	return nil
}

func (f *fakeCache) Get(ctx context.Context, key string, dest interface{}) error {
	f.mu.Lock()
	data, ok := f.store[key]
	f.mu.Unlock()
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (f *fakeCache) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	delete(f.store, key)
	f.mu.Unlock()
	return nil
}

func (f *fakeCache) DeletePattern(ctx context.Context, pattern string) error {
	f.mu.Lock()
	f.deletedPatterns = append(f.deletedPatterns, pattern)
	f.store = make(map[string][]byte)
	f.mu.Unlock()
	return nil
}

func (f *fakeCache) patterns() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.deletedPatterns))
	copy(out, f.deletedPatterns)
	return out
}

// ===== PROGRESS STUB =====

// stubProgress records RecordActivity calls without touching storage.
type stubProgress struct {
	mu    sync.Mutex
	users []string
}

func (s *stubProgress) Dashboard(ctx context.Context, userID string) (*DashboardResponse, error) {
	return &DashboardResponse{}, nil
}

func (s *stubProgress) RecordActivity(ctx context.Context, userID string, at time.Time) error {
	s.mu.Lock()
	s.users = append(s.users, userID)
	s.mu.Unlock()
	return nil
}

func (s *stubProgress) recordedUsers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.users))
	copy(out, s.users)
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

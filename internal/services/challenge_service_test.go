package services

import (
	"context"
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/quantprep/challenge-service/internal/catalog"
	"github.com/quantprep/challenge-service/internal/challenge"
	"github.com/quantprep/challenge-service/internal/events"
	"github.com/quantprep/challenge-service/internal/models"
	"github.com/quantprep/challenge-service/internal/utils"
)

func testQuestion(id, firm string, difficulty int) models.Question {
	answer := 1.0
	return models.Question{
		ID:            id,
		Title:         "Question " + id,
		Content:       "What is the answer?",
		Difficulty:    difficulty,
		AnswerType:    models.AnswerNumber,
		NumericAnswer: &answer,
		Hints:         []string{"think about it"},
		Firm:          firm,
	}
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New([]models.Question{
		testQuestion("cit-1", catalog.FreeFirm, 2),
		testQuestion("cit-2", catalog.FreeFirm, 6),
		testQuestion("cit-3", catalog.FreeFirm, 9),
		testQuestion("cit-4", catalog.FreeFirm, 10),
		testQuestion("js-1", "Jane Street", 3),
		testQuestion("js-2", "Jane Street", 5),
		testQuestion("js-3", "Jane Street", 8),
		testQuestion("ts-1", "Two Sigma", 4),
		testQuestion("ts-2", "Two Sigma", 6),
	})
	require.NoError(t, err)
	return cat
}

type challengeFixture struct {
	svc       *challengeService
	repo      *mockRepository
	cache     *fakeCache
	publisher *events.MockEventPublisher
	progress  *stubProgress
}

func newChallengeFixture(t *testing.T) *challengeFixture {
	t.Helper()
	f := &challengeFixture{
		repo:      newMockRepository(),
		cache:     newFakeCache(),
		publisher: events.NewMockEventPublisher(testLogger()),
		progress:  &stubProgress{},
	}
	f.svc = NewChallengeService(ChallengeServiceDeps{
		Repo:      f.repo,
		Catalog:   testCatalog(t),
		Cache:     f.cache,
		Publisher: f.publisher,
		Progress:  f.progress,
		Validator: utils.NewValidator(),
		Logger:    testLogger(),
		Rand:      rand.New(rand.NewSource(1)),
	})
	t.Cleanup(f.svc.SessionManager().Shutdown)
	return f
}

func TestStartChallengeValidation(t *testing.T) {
	f := newChallengeFixture(t)
	ctx := context.Background()

	_, err := f.svc.Start(ctx, "user-1", false, StartChallengeRequest{})
	assert.True(t, IsValidation(err))

	_, err = f.svc.Start(ctx, "user-1", false, StartChallengeRequest{
		Firm: "Citadel", Mode: "speedrun",
	})
	assert.True(t, IsValidation(err))
}

func TestStartChallengeUnknownFirm(t *testing.T) {
	f := newChallengeFixture(t)

	_, err := f.svc.Start(context.Background(), "user-1", true, StartChallengeRequest{
		Firm: "Hudson River", Mode: models.ModeProbability,
	})
	assert.ErrorIs(t, err, ErrFirmNotFound)
}

func TestStartChallengePaidGate(t *testing.T) {
	f := newChallengeFixture(t)
	ctx := context.Background()

	_, err := f.svc.Start(ctx, "user-1", false, StartChallengeRequest{
		Firm: "Jane Street", Mode: models.ModeProbability,
	})
	assert.ErrorIs(t, err, ErrFirmNotAccessible)

	// The free firm is open to unpaid users.
	resp, err := f.svc.Start(ctx, "user-1", false, StartChallengeRequest{
		Firm: catalog.FreeFirm, Mode: models.ModeProbability,
	})
	require.NoError(t, err)
	assert.Equal(t, challenge.StateInProgress, resp.State)
}

func TestStartChallengeInsufficientQuestions(t *testing.T) {
	f := newChallengeFixture(t)

	// Two Sigma has only two questions in the fixture catalog.
	_, err := f.svc.Start(context.Background(), "user-1", true, StartChallengeRequest{
		Firm: "Two Sigma", Mode: models.ModeProbability,
	})
	assert.ErrorIs(t, err, ErrInsufficientQuestions)
}

func TestStartChallengeSnapshot(t *testing.T) {
	f := newChallengeFixture(t)

	resp, err := f.svc.Start(context.Background(), "user-1", false, StartChallengeRequest{
		Firm: catalog.FreeFirm, Mode: models.ModeProbability,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, catalog.FreeFirm, resp.Firm)
	assert.Equal(t, challenge.StateInProgress, resp.State)
	assert.Equal(t, challenge.StartingLives, resp.Lives)
	assert.Equal(t, challenge.SessionDuration, resp.TimeRemaining)
	assert.Len(t, resp.Questions, challenge.QuestionsPerSession)
	for _, q := range resp.Questions {
		assert.NotEmpty(t, q.ID)
		assert.NotEmpty(t, q.Content)
		assert.Equal(t, 1, q.HintCount)
	}

	published := f.publisher.PublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventChallengeStarted, published[0].Type)
}

func TestStartChallengeReplacesSession(t *testing.T) {
	f := newChallengeFixture(t)
	ctx := context.Background()

	first, err := f.svc.Start(ctx, "user-1", false, StartChallengeRequest{
		Firm: catalog.FreeFirm, Mode: models.ModeProbability,
	})
	require.NoError(t, err)

	second, err := f.svc.Start(ctx, "user-1", false, StartChallengeRequest{
		Firm: catalog.FreeFirm, Mode: models.ModeProbability,
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.SessionID, second.SessionID)

	state, err := f.svc.GetState(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, second.SessionID, state.SessionID)
}

func TestGetStateWithoutSession(t *testing.T) {
	f := newChallengeFixture(t)

	_, err := f.svc.GetState(context.Background(), "user-1")
	assert.ErrorIs(t, err, ErrChallengeNotActive)
}

func TestSubmitAnswerWithoutSession(t *testing.T) {
	f := newChallengeFixture(t)

	v := 1.0
	_, err := f.svc.SubmitAnswer(context.Background(), "user-1", SubmitChallengeAnswerRequest{
		QuestionID: "cit-1", NumericValue: &v,
	})
	assert.ErrorIs(t, err, ErrChallengeNotActive)
}

func TestAbandonChallenge(t *testing.T) {
	f := newChallengeFixture(t)
	ctx := context.Background()

	_, err := f.svc.Start(ctx, "user-1", false, StartChallengeRequest{
		Firm: catalog.FreeFirm, Mode: models.ModeProbability,
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Abandon(ctx, "user-1"))
	assert.ErrorIs(t, f.svc.Abandon(ctx, "user-1"), ErrChallengeNotActive)

	// Abandoned sessions never persist a completion row.
	time.Sleep(50 * time.Millisecond)
	f.repo.challenge.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestChallengeFullRun(t *testing.T) {
	f := newChallengeFixture(t)
	ctx := context.Background()

	created := make(chan *models.ChallengeCompletion, 1)
	f.repo.challenge.On("Create", mock.Anything, mock.AnythingOfType("*models.ChallengeCompletion")).
		Run(func(args mock.Arguments) {
			created <- args.Get(1).(*models.ChallengeCompletion)
		}).
		Return(nil)

	state, err := f.svc.Start(ctx, "user-1", false, StartChallengeRequest{
		Firm: catalog.FreeFirm, Mode: models.ModeProbability,
	})
	require.NoError(t, err)

	// Reveal a hint on the first question, then clear the set.
	hint, err := f.svc.RevealHint(ctx, "user-1", HintRequest{
		QuestionID: state.Questions[0].ID,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, hint.HintsRevealed)

	v := 1.0
	var last *SubmitChallengeAnswerResponse
	for _, q := range state.Questions {
		last, err = f.svc.SubmitAnswer(ctx, "user-1", SubmitChallengeAnswerRequest{
			QuestionID: q.ID, NumericValue: &v,
		})
		require.NoError(t, err)
		require.True(t, last.Correct)
	}
	require.NotNil(t, last.Result)
	assert.False(t, last.Result.Failed)

	var completion *models.ChallengeCompletion
	select {
	case completion = <-created:
	case <-time.After(2 * time.Second):
		t.Fatal("completion row was never persisted")
	}

	assert.Equal(t, "user-1", completion.UserID)
	assert.Equal(t, catalog.FreeFirm, completion.Firm)
	assert.Equal(t, models.ModeProbability, completion.Mode)
	assert.Equal(t, last.Result.Score, completion.Score)
	assert.Equal(t, challenge.QuestionsPerSession, completion.QuestionsCompleted)
	assert.Equal(t, 1, completion.HintsUsed)
	assert.False(t, completion.Failed)
	assert.JSONEq(t, mustJSON(t, last.Result.QuestionIDs), string(completion.QuestionIDs))

	waitFor(t, func() bool { return len(f.progress.recordedUsers()) > 0 })
	assert.Equal(t, []string{"user-1"}, f.progress.recordedUsers())

	waitFor(t, func() bool { return len(f.publisher.PublishedEvents()) >= 2 })
	published := f.publisher.PublishedEvents()
	assert.Equal(t, events.EventChallengeStarted, published[0].Type)
	assert.Equal(t, events.EventChallengeCompleted, published[1].Type)

	waitFor(t, func() bool { return len(f.cache.patterns()) > 0 })
	assert.Contains(t, f.cache.patterns(), "leaderboard:Citadel:*")
}

func TestChallengeFailureReportsZeroScore(t *testing.T) {
	f := newChallengeFixture(t)
	ctx := context.Background()

	created := make(chan *models.ChallengeCompletion, 1)
	f.repo.challenge.On("Create", mock.Anything, mock.AnythingOfType("*models.ChallengeCompletion")).
		Run(func(args mock.Arguments) {
			created <- args.Get(1).(*models.ChallengeCompletion)
		}).
		Return(nil)

	state, err := f.svc.Start(ctx, "user-1", false, StartChallengeRequest{
		Firm: catalog.FreeFirm, Mode: models.ModeProbability,
	})
	require.NoError(t, err)

	wrong := -42.0
	var last *SubmitChallengeAnswerResponse
	for i := 0; i < challenge.StartingLives; i++ {
		last, err = f.svc.SubmitAnswer(ctx, "user-1", SubmitChallengeAnswerRequest{
			QuestionID: state.Questions[0].ID, NumericValue: &wrong,
		})
		require.NoError(t, err)
		require.False(t, last.Correct)
	}
	require.NotNil(t, last.Result)
	assert.True(t, last.Result.Failed)

	var completion *models.ChallengeCompletion
	select {
	case completion = <-created:
	case <-time.After(2 * time.Second):
		t.Fatal("completion row was never persisted")
	}
	assert.True(t, completion.Failed)
	assert.Equal(t, 0, completion.Score)
	assert.Equal(t, 0, completion.LivesRemaining)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never met")
}

func mustJSON(t *testing.T, v interface{}) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

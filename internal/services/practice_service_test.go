package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/quantprep/challenge-service/internal/models"
	"github.com/quantprep/challenge-service/internal/repositories"
)

type practiceFixture struct {
	svc      PracticeService
	repo     *mockRepository
	progress *stubProgress
}

func newPracticeFixture(t *testing.T) *practiceFixture {
	t.Helper()
	f := &practiceFixture{
		repo:     newMockRepository(),
		progress: &stubProgress{},
	}
	f.svc = NewPracticeService(f.repo, testCatalog(t), f.progress, testLogger())
	return f
}

func TestSubmitPracticeAnswerCorrect(t *testing.T) {
	f := newPracticeFixture(t)
	ctx := context.Background()

	var saved *models.QuestionCompletion
	f.repo.completion.On("Upsert", mock.Anything, mock.AnythingOfType("*models.QuestionCompletion")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*models.QuestionCompletion)
		}).
		Return(nil)

	v := 1.0
	resp, err := f.svc.SubmitAnswer(ctx, "user-1", false, SubmitPracticeAnswerRequest{
		QuestionID:   "cit-1",
		NumericValue: &v,
		TimeTaken:    42,
	})
	require.NoError(t, err)

	assert.True(t, resp.Correct)
	require.NotNil(t, resp.NumericAnswer)
	assert.Equal(t, 1.0, *resp.NumericAnswer)

	require.NotNil(t, saved)
	assert.Equal(t, "user-1", saved.UserID)
	assert.Equal(t, "cit-1", saved.QuestionID)
	assert.True(t, saved.IsCorrect)
	assert.Equal(t, 42, saved.TimeTaken)
	assert.NotEmpty(t, saved.SubmittedAnswer)

	assert.Equal(t, []string{"user-1"}, f.progress.recordedUsers())
}

func TestSubmitPracticeAnswerTolerance(t *testing.T) {
	f := newPracticeFixture(t)
	f.repo.completion.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	// Within the practice tolerance of 1e-4.
	within := 1.00005
	resp, err := f.svc.SubmitAnswer(context.Background(), "user-1", false, SubmitPracticeAnswerRequest{
		QuestionID: "cit-1", NumericValue: &within,
	})
	require.NoError(t, err)
	assert.True(t, resp.Correct)

	// Outside it.
	outside := 1.001
	resp, err = f.svc.SubmitAnswer(context.Background(), "user-1", false, SubmitPracticeAnswerRequest{
		QuestionID: "cit-1", NumericValue: &outside,
	})
	require.NoError(t, err)
	assert.False(t, resp.Correct)
}

func TestSubmitPracticeAnswerUnknownQuestion(t *testing.T) {
	f := newPracticeFixture(t)

	v := 1.0
	_, err := f.svc.SubmitAnswer(context.Background(), "user-1", false, SubmitPracticeAnswerRequest{
		QuestionID: "missing", NumericValue: &v,
	})
	assert.ErrorIs(t, err, ErrQuestionNotFound)
	f.repo.completion.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestSubmitPracticeAnswerMalformedGradesIncorrect(t *testing.T) {
	f := newPracticeFixture(t)
	f.repo.completion.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	// MCQ option id against a numeric question: graded wrong, not rejected.
	resp, err := f.svc.SubmitAnswer(context.Background(), "user-1", false, SubmitPracticeAnswerRequest{
		QuestionID: "cit-1", OptionID: "a",
	})
	require.NoError(t, err)
	assert.False(t, resp.Correct)
}

func TestGetHint(t *testing.T) {
	f := newPracticeFixture(t)
	ctx := context.Background()

	hint, err := f.svc.GetHint(ctx, "user-1", false, "cit-1", 0)
	require.NoError(t, err)
	assert.Equal(t, "think about it", hint.Hint)
	assert.Equal(t, 0, hint.HintIndex)
	assert.Equal(t, 1, hint.HintCount)

	var ve *ValidationError
	_, err = f.svc.GetHint(ctx, "user-1", false, "cit-1", 1)
	assert.ErrorAs(t, err, &ve)

	_, err = f.svc.GetHint(ctx, "user-1", false, "cit-1", -1)
	assert.ErrorAs(t, err, &ve)

	_, err = f.svc.GetHint(ctx, "user-1", false, "missing", 0)
	assert.ErrorIs(t, err, ErrQuestionNotFound)
}

func TestToggleBookmarkAdds(t *testing.T) {
	f := newPracticeFixture(t)
	ctx := context.Background()

	f.repo.bookmark.On("Exists", mock.Anything, "user-1", "cit-1").Return(false, nil)
	f.repo.bookmark.On("Add", mock.Anything, mock.AnythingOfType("*models.Bookmark")).Return(nil)

	bookmarked, err := f.svc.ToggleBookmark(ctx, "user-1", "cit-1")
	require.NoError(t, err)
	assert.True(t, bookmarked)
	f.repo.bookmark.AssertCalled(t, "Add", mock.Anything, mock.Anything)
}

func TestToggleBookmarkRemoves(t *testing.T) {
	f := newPracticeFixture(t)
	ctx := context.Background()

	f.repo.bookmark.On("Exists", mock.Anything, "user-1", "cit-1").Return(true, nil)
	f.repo.bookmark.On("Remove", mock.Anything, "user-1", "cit-1").Return(nil)

	bookmarked, err := f.svc.ToggleBookmark(ctx, "user-1", "cit-1")
	require.NoError(t, err)
	assert.False(t, bookmarked)
}

func TestToggleBookmarkToleratesRaces(t *testing.T) {
	f := newPracticeFixture(t)
	ctx := context.Background()

	// A concurrent insert between Exists and Add lands on the unique index.
	f.repo.bookmark.On("Exists", mock.Anything, "user-1", "cit-1").Return(false, nil)
	f.repo.bookmark.On("Add", mock.Anything, mock.Anything).Return(repositories.ErrDuplicateKey)

	bookmarked, err := f.svc.ToggleBookmark(ctx, "user-1", "cit-1")
	require.NoError(t, err)
	assert.True(t, bookmarked)
}

func TestToggleBookmarkUnknownQuestion(t *testing.T) {
	f := newPracticeFixture(t)

	_, err := f.svc.ToggleBookmark(context.Background(), "user-1", "missing")
	assert.ErrorIs(t, err, ErrQuestionNotFound)
}

func TestListBookmarksSkipsOrphans(t *testing.T) {
	f := newPracticeFixture(t)

	f.repo.bookmark.On("ListByUser", mock.Anything, "user-1").Return([]*models.Bookmark{
		{UserID: "user-1", QuestionID: "cit-1"},
		{UserID: "user-1", QuestionID: "retired-question"},
	}, nil)

	views, err := f.svc.ListBookmarks(context.Background(), "user-1", false)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "cit-1", views[0].ID)
	assert.True(t, views[0].Bookmarked)
}

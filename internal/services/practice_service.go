package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/quantprep/challenge-service/internal/catalog"
	"github.com/quantprep/challenge-service/internal/challenge"
	"github.com/quantprep/challenge-service/internal/models"
	"github.com/quantprep/challenge-service/internal/repositories"
)

type SubmitPracticeAnswerRequest struct {
	QuestionID   string   `json:"question_id" validate:"required"`
	NumericValue *float64 `json:"numeric_value,omitempty"`
	OptionID     string   `json:"option_id,omitempty"`
	TimeTaken    int      `json:"time_taken" validate:"min=0"`
}

// PracticeResultResponse reveals the grading material once an answer has
// been submitted.
type PracticeResultResponse struct {
	Correct         bool     `json:"correct"`
	NumericAnswer   *float64 `json:"numeric_answer,omitempty"`
	CorrectAnswerID string   `json:"correct_answer_id,omitempty"`
	Solution        string   `json:"solution,omitempty"`
	SolutionSteps   []string `json:"solution_steps,omitempty"`
}

type HintViewResponse struct {
	Hint      string `json:"hint"`
	HintIndex int    `json:"hint_index"`
	HintCount int    `json:"hint_count"`
}

type PracticeService interface {
	SubmitAnswer(ctx context.Context, userID string, isPaid bool, req SubmitPracticeAnswerRequest) (*PracticeResultResponse, error)
	GetHint(ctx context.Context, userID string, isPaid bool, questionID string, index int) (*HintViewResponse, error)
	ToggleBookmark(ctx context.Context, userID, questionID string) (bool, error)
	ListBookmarks(ctx context.Context, userID string, isPaid bool) ([]QuestionView, error)
	History(ctx context.Context, userID string, filters repositories.CompletionFilters) ([]*models.QuestionCompletion, int64, error)
}

type practiceService struct {
	repo     repositories.Repository
	catalog  *catalog.Catalog
	progress ProgressService
	logger   *ServiceLogger
}

func NewPracticeService(repo repositories.Repository, cat *catalog.Catalog, progress ProgressService, logger *slog.Logger) PracticeService {
	return &practiceService{
		repo:     repo,
		catalog:  cat,
		progress: progress,
		logger:   NewServiceLogger(logger, LogConfig{Service: "challenge-service", Component: "practice"}),
	}
}

func (s *practiceService) SubmitAnswer(ctx context.Context, userID string, isPaid bool, req SubmitPracticeAnswerRequest) (*PracticeResultResponse, error) {
	op := s.logger.WithOperation(ctx, "submit_practice_answer", userID)

	q := s.catalog.Get(req.QuestionID)
	if q == nil {
		op.LogResult(req.QuestionID, ErrQuestionNotFound)
		return nil, ErrQuestionNotFound
	}
	if q.RequiresPaid && !isPaid {
		op.LogResult(req.QuestionID, ErrPaidContentLocked)
		return nil, ErrPaidContentLocked
	}

	ans := challenge.Answer{NumericValue: req.NumericValue, OptionID: req.OptionID}
	correct := challenge.Grade(q, ans, challenge.PracticeTolerance)

	submitted, err := json.Marshal(ans)
	if err != nil {
		op.LogResult(req.QuestionID, err)
		return nil, err
	}

	now := time.Now().UTC()
	completion := &models.QuestionCompletion{
		UserID:          userID,
		QuestionID:      req.QuestionID,
		IsCorrect:       correct,
		TimeTaken:       req.TimeTaken,
		CompletedAt:     now,
		SubmittedAnswer: submitted,
	}
	if err := s.repo.Completion().Upsert(ctx, completion); err != nil {
		op.LogResult(req.QuestionID, err)
		return nil, err
	}

	if err := s.progress.RecordActivity(ctx, userID, now); err != nil {
		// The completion row is the source of truth; a stale rollup
		// self-heals on the next write.
		s.logger.LogOperation(ctx, "record_activity", userID, req.QuestionID, 0, err)
	}

	op.LogResult(req.QuestionID, nil)
	return &PracticeResultResponse{
		Correct:         correct,
		NumericAnswer:   q.NumericAnswer,
		CorrectAnswerID: q.CorrectAnswerID,
		Solution:        q.Solution,
		SolutionSteps:   q.SolutionSteps,
	}, nil
}

func (s *practiceService) GetHint(ctx context.Context, userID string, isPaid bool, questionID string, index int) (*HintViewResponse, error) {
	q := s.catalog.Get(questionID)
	if q == nil {
		return nil, ErrQuestionNotFound
	}
	if q.RequiresPaid && !isPaid {
		return nil, ErrPaidContentLocked
	}
	if index < 0 || index >= len(q.Hints) {
		return nil, NewValidationError("hint_index", "hint index out of range", index)
	}
	return &HintViewResponse{
		Hint:      q.Hints[index],
		HintIndex: index,
		HintCount: len(q.Hints),
	}, nil
}

// ToggleBookmark flips the bookmark for (user, question) and reports the new
// state. A concurrent duplicate insert lands on the existing row.
func (s *practiceService) ToggleBookmark(ctx context.Context, userID, questionID string) (bool, error) {
	op := s.logger.WithOperation(ctx, "toggle_bookmark", userID)

	if s.catalog.Get(questionID) == nil {
		op.LogResult(questionID, ErrQuestionNotFound)
		return false, ErrQuestionNotFound
	}

	exists, err := s.repo.Bookmark().Exists(ctx, userID, questionID)
	if err != nil {
		op.LogResult(questionID, err)
		return false, err
	}

	if exists {
		if err := s.repo.Bookmark().Remove(ctx, userID, questionID); err != nil && !repositories.IsNotFoundError(err) {
			op.LogResult(questionID, err)
			return false, err
		}
		op.LogResult(questionID, nil)
		return false, nil
	}

	err = s.repo.Bookmark().Add(ctx, &models.Bookmark{
		UserID:     userID,
		QuestionID: questionID,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil && !repositories.IsDuplicateError(err) {
		op.LogResult(questionID, err)
		return false, err
	}
	op.LogResult(questionID, nil)
	return true, nil
}

func (s *practiceService) ListBookmarks(ctx context.Context, userID string, isPaid bool) ([]QuestionView, error) {
	marks, err := s.repo.Bookmark().ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]QuestionView, 0, len(marks))
	for _, b := range marks {
		q := s.catalog.Get(b.QuestionID)
		if q == nil {
			// Question retired from the catalog; skip the orphan.
			continue
		}
		v := NewQuestionView(q, isPaid)
		v.Bookmarked = true
		views = append(views, v)
	}
	return views, nil
}

func (s *practiceService) History(ctx context.Context, userID string, filters repositories.CompletionFilters) ([]*models.QuestionCompletion, int64, error) {
	return s.repo.Completion().GetByUser(ctx, userID, filters)
}

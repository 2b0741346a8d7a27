package services

import (
	"context"
	"log/slog"

	"github.com/quantprep/challenge-service/internal/catalog"
	"github.com/quantprep/challenge-service/internal/models"
	"github.com/quantprep/challenge-service/internal/repositories"
)

// QuestionView is a question stripped of its grading material. Answers,
// hints and solutions never leave the server in listings; they are revealed
// only through the practice and challenge flows.
type QuestionView struct {
	ID          string                  `json:"id"`
	Title       string                  `json:"title"`
	Content     string                  `json:"content"`
	Category    models.QuestionCategory `json:"category"`
	Subcategory string                  `json:"subcategory,omitempty"`
	Band        models.DifficultyBand   `json:"band"`
	AnswerType  models.AnswerType       `json:"answer_type"`
	Options     []models.QuestionOption `json:"options,omitempty"`
	Firm        string                  `json:"firm,omitempty"`
	HintCount   int                     `json:"hint_count"`
	Locked      bool                    `json:"locked"`
	Bookmarked  bool                    `json:"bookmarked,omitempty"`
}

// NewQuestionView builds the public view of a question. Locked marks paid
// content the caller cannot open yet; the content itself is still withheld
// elsewhere.
func NewQuestionView(q *models.Question, isPaid bool) QuestionView {
	return QuestionView{
		ID:          q.ID,
		Title:       q.Title,
		Content:     q.Content,
		Category:    q.Category,
		Subcategory: q.Subcategory,
		Band:        q.Band(),
		AnswerType:  q.AnswerType,
		Options:     q.Options,
		Firm:        q.Firm,
		HintCount:   len(q.Hints),
		Locked:      q.RequiresPaid && !isPaid,
	}
}

type ListQuestionsRequest struct {
	Category   models.QuestionCategory `form:"category"`
	Band       models.DifficultyBand   `form:"band"`
	Firm       string                  `form:"firm"`
	AnswerType models.AnswerType       `form:"answer_type"`
}

type FirmSummary struct {
	Name          string `json:"name"`
	QuestionCount int    `json:"question_count"`
	Eligible      bool   `json:"eligible"`
	Locked        bool   `json:"locked"`
}

type QuestionService interface {
	List(ctx context.Context, userID string, isPaid bool, req ListQuestionsRequest) ([]QuestionView, error)
	Get(ctx context.Context, userID string, isPaid bool, questionID string) (*QuestionView, error)
	Firms(ctx context.Context, isPaid bool) ([]FirmSummary, error)
}

type questionService struct {
	catalog *catalog.Catalog
	repo    repositories.Repository
	logger  *ServiceLogger
}

func NewQuestionService(cat *catalog.Catalog, repo repositories.Repository, logger *slog.Logger) QuestionService {
	return &questionService{
		catalog: cat,
		repo:    repo,
		logger:  NewServiceLogger(logger, LogConfig{Service: "challenge-service", Component: "question"}),
	}
}

func (s *questionService) List(ctx context.Context, userID string, isPaid bool, req ListQuestionsRequest) ([]QuestionView, error) {
	questions := s.catalog.List(catalog.Filters{
		Category:   req.Category,
		Band:       req.Band,
		Firm:       req.Firm,
		AnswerType: req.AnswerType,
	})

	bookmarked := map[string]bool{}
	if userID != "" {
		marks, err := s.repo.Bookmark().ListByUser(ctx, userID)
		if err != nil {
			// Listing still works without bookmark decoration.
			s.logger.LogOperation(ctx, "list_questions", userID, "", 0, err)
		} else {
			for _, b := range marks {
				bookmarked[b.QuestionID] = true
			}
		}
	}

	views := make([]QuestionView, 0, len(questions))
	for _, q := range questions {
		v := NewQuestionView(q, isPaid)
		v.Bookmarked = bookmarked[q.ID]
		if v.Locked {
			// Paid questions appear in listings as teasers only.
			v.Content = ""
			v.Options = nil
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *questionService) Get(ctx context.Context, userID string, isPaid bool, questionID string) (*QuestionView, error) {
	q := s.catalog.Get(questionID)
	if q == nil {
		return nil, ErrQuestionNotFound
	}
	if q.RequiresPaid && !isPaid {
		return nil, ErrPaidContentLocked
	}

	v := NewQuestionView(q, isPaid)
	if userID != "" {
		exists, err := s.repo.Bookmark().Exists(ctx, userID, questionID)
		if err == nil {
			v.Bookmarked = exists
		}
	}
	return &v, nil
}

func (s *questionService) Firms(ctx context.Context, isPaid bool) ([]FirmSummary, error) {
	eligible := map[string]bool{}
	for _, firm := range s.catalog.EligibleFirms() {
		eligible[firm] = true
	}

	summaries := make([]FirmSummary, 0)
	for _, firm := range s.catalog.Firms() {
		count := len(s.catalog.List(catalog.Filters{Firm: firm}))
		summaries = append(summaries, FirmSummary{
			Name:          firm,
			QuestionCount: count,
			Eligible:      eligible[firm],
			Locked:        firm != catalog.FreeFirm && !isPaid,
		})
	}
	return summaries, nil
}

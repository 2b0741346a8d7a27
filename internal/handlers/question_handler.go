package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quantprep/challenge-service/internal/models"
	"github.com/quantprep/challenge-service/internal/services"
	"github.com/quantprep/challenge-service/internal/utils"
)

type QuestionHandler struct {
	BaseHandler
	questionService services.QuestionService
}

func NewQuestionHandler(questionService services.QuestionService, logger utils.Logger) *QuestionHandler {
	return &QuestionHandler{
		BaseHandler:     NewBaseHandler(logger),
		questionService: questionService,
	}
}

// ListQuestions returns the catalog filtered by query parameters
// @Summary List questions
// @Tags questions
// @Produce json
// @Param category query string false "Question category"
// @Param band query string false "Difficulty band"
// @Param firm query string false "Firm name"
// @Param answer_type query string false "Answer type"
// @Success 200 {object} ListResponse
// @Router /questions [get]
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	req := services.ListQuestionsRequest{
		Category:   models.QuestionCategory(c.Query("category")),
		Band:       models.DifficultyBand(c.Query("band")),
		Firm:       c.Query("firm"),
		AnswerType: models.AnswerType(c.Query("answer_type")),
	}

	views, err := h.questionService.List(c.Request.Context(), c.GetString("user_id"), CallerIsPaid(c), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Items: views, Total: int64(len(views))})
}

// GetQuestion returns one question by id
// @Summary Get question
// @Tags questions
// @Produce json
// @Param id path string true "Question ID"
// @Success 200 {object} services.QuestionView
// @Failure 404 {object} ErrorResponse
// @Router /questions/{id} [get]
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	view, err := h.questionService.Get(c.Request.Context(), c.GetString("user_id"), CallerIsPaid(c), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// ListFirms returns every firm with its eligibility and lock state
// @Summary List firms
// @Tags firms
// @Produce json
// @Success 200 {object} ListResponse
// @Router /firms [get]
func (h *QuestionHandler) ListFirms(c *gin.Context) {
	summaries, err := h.questionService.Firms(c.Request.Context(), CallerIsPaid(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Items: summaries, Total: int64(len(summaries))})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quantprep/challenge-service/internal/repositories"
	"github.com/quantprep/challenge-service/internal/services"
	"github.com/quantprep/challenge-service/internal/utils"
)

type PracticeHandler struct {
	BaseHandler
	practiceService services.PracticeService
}

func NewPracticeHandler(practiceService services.PracticeService, logger utils.Logger) *PracticeHandler {
	return &PracticeHandler{
		BaseHandler:     NewBaseHandler(logger),
		practiceService: practiceService,
	}
}

// SubmitAnswer grades a practice answer and reveals the solution
// @Summary Submit practice answer
// @Tags practice
// @Accept json
// @Produce json
// @Param request body services.SubmitPracticeAnswerRequest true "Answer"
// @Success 200 {object} services.PracticeResultResponse
// @Failure 402 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /practice/answer [post]
func (h *PracticeHandler) SubmitAnswer(c *gin.Context) {
	userID, ok := CurrentUserID(c)
	if !ok {
		return
	}

	var req services.SubmitPracticeAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	resp, err := h.practiceService.SubmitAnswer(c.Request.Context(), userID, CallerIsPaid(c), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetHint returns one hint of a question by index
// @Summary Get practice hint
// @Tags practice
// @Produce json
// @Param id path string true "Question ID"
// @Param index query int false "Hint index"
// @Success 200 {object} services.HintViewResponse
// @Router /practice/questions/{id}/hint [get]
func (h *PracticeHandler) GetHint(c *gin.Context) {
	userID, ok := CurrentUserID(c)
	if !ok {
		return
	}
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	resp, err := h.practiceService.GetHint(
		c.Request.Context(), userID, CallerIsPaid(c), id, ParseIntQuery(c, "index", 0))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ToggleBookmark flips the bookmark state for a question
// @Summary Toggle bookmark
// @Tags bookmarks
// @Produce json
// @Param id path string true "Question ID"
// @Success 200 {object} SuccessResponse
// @Router /bookmarks/{id} [post]
func (h *PracticeHandler) ToggleBookmark(c *gin.Context) {
	userID, ok := CurrentUserID(c)
	if !ok {
		return
	}
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	bookmarked, err := h.practiceService.ToggleBookmark(c.Request.Context(), userID, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Bookmark updated",
		Data:    gin.H{"question_id": id, "bookmarked": bookmarked},
	})
}

// ListBookmarks lists the caller's bookmarked questions
// @Summary List bookmarks
// @Tags bookmarks
// @Produce json
// @Success 200 {object} ListResponse
// @Router /bookmarks [get]
func (h *PracticeHandler) ListBookmarks(c *gin.Context) {
	userID, ok := CurrentUserID(c)
	if !ok {
		return
	}

	views, err := h.practiceService.ListBookmarks(c.Request.Context(), userID, CallerIsPaid(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Items: views, Total: int64(len(views))})
}

// GetHistory lists the caller's practice completions
// @Summary Practice history
// @Tags practice
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} ListResponse
// @Router /practice/history [get]
func (h *PracticeHandler) GetHistory(c *gin.Context) {
	userID, ok := CurrentUserID(c)
	if !ok {
		return
	}

	filters := repositories.CompletionFilters{
		Limit:  ParseIntQuery(c, "limit", 20),
		Offset: ParseIntQuery(c, "offset", 0),
	}

	items, total, err := h.practiceService.History(c.Request.Context(), userID, filters)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Items: items, Total: total})
}

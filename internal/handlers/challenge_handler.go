package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quantprep/challenge-service/internal/repositories"
	"github.com/quantprep/challenge-service/internal/services"
	"github.com/quantprep/challenge-service/internal/utils"
)

type ChallengeHandler struct {
	BaseHandler
	challengeService   services.ChallengeService
	leaderboardService services.LeaderboardService
}

func NewChallengeHandler(
	challengeService services.ChallengeService,
	leaderboardService services.LeaderboardService,
	logger utils.Logger,
) *ChallengeHandler {
	return &ChallengeHandler{
		BaseHandler:        NewBaseHandler(logger),
		challengeService:   challengeService,
		leaderboardService: leaderboardService,
	}
}

// StartChallenge begins a timed session for a firm
// @Summary Start challenge
// @Tags challenge
// @Accept json
// @Produce json
// @Param request body services.StartChallengeRequest true "Firm and mode"
// @Success 201 {object} services.ChallengeStateResponse
// @Failure 402 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /challenge/start [post]
func (h *ChallengeHandler) StartChallenge(c *gin.Context) {
	userID, ok := CurrentUserID(c)
	if !ok {
		return
	}

	var req services.StartChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Starting challenge", "firm", req.Firm, "mode", req.Mode)

	state, err := h.challengeService.Start(c.Request.Context(), userID, CallerIsPaid(c), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, state)
}

// GetState returns the live session snapshot
// @Summary Challenge state
// @Tags challenge
// @Produce json
// @Success 200 {object} services.ChallengeStateResponse
// @Failure 404 {object} ErrorResponse
// @Router /challenge/state [get]
func (h *ChallengeHandler) GetState(c *gin.Context) {
	userID, ok := CurrentUserID(c)
	if !ok {
		return
	}

	state, err := h.challengeService.GetState(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

// SubmitAnswer grades one answer inside the live session
// @Summary Submit challenge answer
// @Tags challenge
// @Accept json
// @Produce json
// @Param request body services.SubmitChallengeAnswerRequest true "Answer"
// @Success 200 {object} services.SubmitChallengeAnswerResponse
// @Failure 404 {object} ErrorResponse
// @Router /challenge/answer [post]
func (h *ChallengeHandler) SubmitAnswer(c *gin.Context) {
	userID, ok := CurrentUserID(c)
	if !ok {
		return
	}

	var req services.SubmitChallengeAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	resp, err := h.challengeService.SubmitAnswer(c.Request.Context(), userID, req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// RevealHint reveals the next hint on the current question
// @Summary Reveal hint
// @Tags challenge
// @Accept json
// @Produce json
// @Param request body services.HintRequest true "Question"
// @Success 200 {object} services.HintResponse
// @Router /challenge/hint [post]
func (h *ChallengeHandler) RevealHint(c *gin.Context) {
	userID, ok := CurrentUserID(c)
	if !ok {
		return
	}

	var req services.HintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	resp, err := h.challengeService.RevealHint(c.Request.Context(), userID, req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// AbandonChallenge drops the live session without recording a result
// @Summary Abandon challenge
// @Tags challenge
// @Success 204
// @Router /challenge [delete]
func (h *ChallengeHandler) AbandonChallenge(c *gin.Context) {
	userID, ok := CurrentUserID(c)
	if !ok {
		return
	}

	if err := h.challengeService.Abandon(c.Request.Context(), userID); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetHistory lists the caller's past challenge completions
// @Summary Challenge history
// @Tags challenge
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} ListResponse
// @Router /challenge/history [get]
func (h *ChallengeHandler) GetHistory(c *gin.Context) {
	userID, ok := CurrentUserID(c)
	if !ok {
		return
	}

	filters := repositories.ChallengeFilters{
		Limit:   ParseIntQuery(c, "limit", 20),
		Offset:  ParseIntQuery(c, "offset", 0),
		SortBy:  c.DefaultQuery("sort_by", "created_at"),
		SortOrd: c.DefaultQuery("sort_order", "desc"),
	}
	if firm := c.Query("firm"); firm != "" {
		filters.Firm = &firm
	}

	items, total, err := h.challengeService.History(c.Request.Context(), userID, filters)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Items: items, Total: total})
}

// GetLeaderboard returns the top scores for a firm
// @Summary Firm leaderboard
// @Tags challenge
// @Produce json
// @Param firm path string true "Firm name"
// @Param limit query int false "Number of entries"
// @Success 200 {object} services.LeaderboardResponse
// @Router /leaderboard/{firm} [get]
func (h *ChallengeHandler) GetLeaderboard(c *gin.Context) {
	firm := ParseStringIDParam(c, "firm")
	if firm == "" {
		return
	}

	resp, err := h.leaderboardService.TopScores(
		c.Request.Context(), c.GetString("user_id"), firm, ParseIntQuery(c, "limit", 10))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quantprep/challenge-service/internal/services"
	"github.com/quantprep/challenge-service/internal/utils"
)

type ProfileHandler struct {
	BaseHandler
	profileService  services.ProfileService
	progressService services.ProgressService
	webhookSecret   string
}

func NewProfileHandler(
	profileService services.ProfileService,
	progressService services.ProgressService,
	webhookSecret string,
	logger utils.Logger,
) *ProfileHandler {
	return &ProfileHandler{
		BaseHandler:     NewBaseHandler(logger),
		profileService:  profileService,
		progressService: progressService,
		webhookSecret:   webhookSecret,
	}
}

// GetProfile returns the caller's profile, creating it on first access
// @Summary Get profile
// @Tags profile
// @Produce json
// @Success 200 {object} models.Profile
// @Router /profile [get]
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, ok := CurrentUserID(c)
	if !ok {
		return
	}

	profile, err := h.profileService.EnsureExists(c.Request.Context(), userID, c.GetString("display_name"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// UpdateProfile changes display name and avatar
// @Summary Update profile
// @Tags profile
// @Accept json
// @Produce json
// @Param request body services.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} models.Profile
// @Router /profile [put]
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, ok := CurrentUserID(c)
	if !ok {
		return
	}

	var req services.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	profile, err := h.profileService.Update(c.Request.Context(), userID, req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// GetDashboard returns streaks, totals and band completion
// @Summary Progress dashboard
// @Tags progress
// @Produce json
// @Success 200 {object} services.DashboardResponse
// @Router /progress [get]
func (h *ProfileHandler) GetDashboard(c *gin.Context) {
	userID, ok := CurrentUserID(c)
	if !ok {
		return
	}

	resp, err := h.progressService.Dashboard(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// BillingWebhook ingests subscription lifecycle events from the billing
// provider. The HMAC signature gates it instead of user auth.
// @Summary Billing webhook
// @Tags billing
// @Accept json
// @Success 200 {object} SuccessResponse
// @Failure 401 {object} ErrorResponse
// @Router /billing/webhook [post]
func (h *ProfileHandler) BillingWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Unreadable payload"})
		return
	}

	if !h.verifySignature(body, c.GetHeader("X-Webhook-Signature")) {
		h.LogWarn(c, "Billing webhook signature mismatch")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Invalid signature"})
		return
	}

	var req services.BillingEventRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.profileService.HandleBillingEvent(c.Request.Context(), req); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Event processed"})
}

func (h *ProfileHandler) verifySignature(body []byte, signature string) bool {
	if h.webhookSecret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quantprep/challenge-service/internal/middleware"
	"github.com/quantprep/challenge-service/internal/services"
	"github.com/quantprep/challenge-service/internal/utils"
)

type HandlerManager struct {
	questionHandler  *QuestionHandler
	challengeHandler *ChallengeHandler
	practiceHandler  *PracticeHandler
	profileHandler   *ProfileHandler
	adminHandler     *AdminHandler
}

type RouterConfig struct {
	BillingWebhookSecret string
}

func NewHandlerManager(serviceManager services.ServiceManager, cfg RouterConfig, logger utils.Logger) *HandlerManager {
	return &HandlerManager{
		questionHandler:  NewQuestionHandler(serviceManager.Question(), logger),
		challengeHandler: NewChallengeHandler(serviceManager.Challenge(), serviceManager.Leaderboard(), logger),
		practiceHandler:  NewPracticeHandler(serviceManager.Practice(), logger),
		profileHandler:   NewProfileHandler(serviceManager.Profile(), serviceManager.Progress(), cfg.BillingWebhookSecret, logger),
		adminHandler:     NewAdminHandler(serviceManager.Export(), logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine, auth *middleware.Authenticator) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "challenge-service",
		})
	})

	v1 := router.Group("/api/v1")

	// Billing webhook authenticates with its own signature, not user auth.
	v1.POST("/billing/webhook", hm.profileHandler.BillingWebhook)

	// Browsing works anonymously; paid content stays locked.
	public := v1.Group("")
	public.Use(auth.Optional())
	{
		public.GET("/questions", hm.questionHandler.ListQuestions)
		public.GET("/questions/:id", hm.questionHandler.GetQuestion)
		public.GET("/firms", hm.questionHandler.ListFirms)
		public.GET("/leaderboard/:firm", hm.challengeHandler.GetLeaderboard)
	}

	authed := v1.Group("")
	authed.Use(auth.Required())
	{
		chal := authed.Group("/challenge")
		{
			chal.POST("/start", hm.challengeHandler.StartChallenge)
			chal.GET("/state", hm.challengeHandler.GetState)
			chal.POST("/answer", hm.challengeHandler.SubmitAnswer)
			chal.POST("/hint", hm.challengeHandler.RevealHint)
			chal.DELETE("", hm.challengeHandler.AbandonChallenge)
			chal.GET("/history", hm.challengeHandler.GetHistory)
		}

		practice := authed.Group("/practice")
		{
			practice.POST("/answer", hm.practiceHandler.SubmitAnswer)
			practice.GET("/questions/:id/hint", hm.practiceHandler.GetHint)
			practice.GET("/history", hm.practiceHandler.GetHistory)
		}

		authed.GET("/bookmarks", hm.practiceHandler.ListBookmarks)
		authed.POST("/bookmarks/:id", hm.practiceHandler.ToggleBookmark)

		authed.GET("/progress", hm.profileHandler.GetDashboard)
		authed.GET("/profile", hm.profileHandler.GetProfile)
		authed.PUT("/profile", hm.profileHandler.UpdateProfile)

		admin := authed.Group("/admin")
		admin.Use(middleware.AdminOnly())
		{
			admin.GET("/export/challenges", hm.adminHandler.ExportChallengeResults)
		}
	}
}

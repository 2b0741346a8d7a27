package middleware

import (
	"net/http"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"

	"github.com/quantprep/challenge-service/internal/config"
	"github.com/quantprep/challenge-service/internal/repositories"
	"github.com/quantprep/challenge-service/internal/utils"
)

// Authenticator validates Casdoor-issued JWTs and decorates the request
// context with user_id, display_name, is_admin and is_paid. The paid flag is
// read from the profile store, never from the token: billing is the single
// writer of that bit.
type Authenticator struct {
	profiles repositories.ProfileRepository
	logger   utils.Logger
}

func NewAuthenticator(cfg config.CasdoorConfig, profiles repositories.ProfileRepository, logger utils.Logger) *Authenticator {
	casdoorsdk.InitConfig(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Certificate,
		cfg.Organization,
		cfg.Application,
	)
	return &Authenticator{
		profiles: profiles,
		logger:   logger,
	}
}

// Required rejects requests without a valid bearer token.
func (a *Authenticator) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.authenticate(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "User not authenticated",
			})
			return
		}
		c.Next()
	}
}

// Optional decorates the context when a valid token is present and lets
// anonymous requests through untouched.
func (a *Authenticator) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		a.authenticate(c)
		c.Next()
	}
}

func (a *Authenticator) authenticate(c *gin.Context) bool {
	token := bearerToken(c)
	if token == "" {
		return false
	}

	claims, err := casdoorsdk.ParseJwtToken(token)
	if err != nil {
		a.logger.Debug("token rejected", "error", err)
		return false
	}

	userID := claims.User.Id
	if userID == "" {
		userID = claims.User.Name
	}
	if userID == "" {
		return false
	}

	c.Set("user_id", userID)
	c.Set("display_name", claims.User.DisplayName)
	c.Set("is_admin", claims.User.IsAdmin)

	if profile, err := a.profiles.Get(c.Request.Context(), userID); err == nil {
		c.Set("is_paid", profile.IsPaid)
		if profile.IsAdmin {
			c.Set("is_admin", true)
		}
	}
	return true
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// AdminOnly gates admin routes on the is_admin flag set by the
// Authenticator.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool("is_admin") {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"message": "Admin access required",
			})
			return
		}
		c.Next()
	}
}

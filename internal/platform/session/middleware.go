package session

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskly_backend/internal/feature/auth/domain/entity"
)

// CookieName is the name of the session cookie.
const CookieName = "taskly_session"

// Context keys set by AuthRequired for downstream handlers.
const (
	ContextUserID    = "userID"
	ContextUser      = "currentUser"
	ContextSessionID = "sessionID"
)

// CookieConfig holds the attributes applied to session cookies.
type CookieConfig struct {
	Domain string
	Secure bool
	MaxAge int // Max-Age in seconds
}

// UserResolver resolves the authenticated user for a session ID.
// Following Go convention: the interface is defined by the consumer (middleware), not the provider (usecase).
type UserResolver interface {
	CurrentUser(ctx context.Context, sessionID string) (*entity.User, error)
}

// AuthRequired returns a Gin middleware function that resolves the session
// cookie and restricts access to authenticated users only.
func AuthRequired(resolver UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Get session cookie
		sessionID, err := c.Cookie(CookieName)
		if err != nil || sessionID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
			return
		}

		// 2. Resolve the user (rejects expired/revoked sessions)
		user, err := resolver.CurrentUser(c.Request.Context(), sessionID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
			return
		}

		// 3. Expose identity to downstream handlers
		c.Set(ContextUserID, user.ID)
		c.Set(ContextUser, user)
		c.Set(ContextSessionID, sessionID)

		// 4. Pass control to the next handler
		c.Next()
	}
}

// VerifiedRequired returns a Gin middleware that rejects users whose email
// address has not been verified yet. It must run after AuthRequired.
func VerifiedRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !user.HasVerifiedEmail() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Your email address is not verified."})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user set by AuthRequired, or nil.
func CurrentUser(c *gin.Context) *entity.User {
	value, ok := c.Get(ContextUser)
	if !ok {
		return nil
	}
	user, ok := value.(*entity.User)
	if !ok {
		return nil
	}
	return user
}

// SetCookie writes the session cookie for an established session.
func SetCookie(c *gin.Context, cfg CookieConfig, sessionID string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, sessionID, cfg.MaxAge, "/", cfg.Domain, cfg.Secure, true)
}

// ClearCookie removes the session cookie.
func ClearCookie(c *gin.Context, cfg CookieConfig) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, "", -1, "/", cfg.Domain, cfg.Secure, true)
}

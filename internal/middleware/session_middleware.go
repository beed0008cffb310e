package middleware

import (
	"context"
	"net/http"

	"livepoll/internal/redis"
	"livepoll/internal/services"
	"livepoll/pkg/logger"

	"github.com/gin-gonic/gin"
)

const sessionContextKey = "livepoll_session"

// LoadSession resolves the session cookie, if any, and attaches the session
// to the request. It never rejects: gating is RequireSession's job.
func LoadSession(auth *services.AuthService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err == nil && token != "" {
			if session, err := auth.SessionFromToken(c.Request.Context(), token); err == nil {
				c.Set(sessionContextKey, session)
				ctx := context.WithValue(c.Request.Context(), logger.UserIdKey, session.UserID.String())
				c.Request = c.Request.WithContext(ctx)
			}
		}
		c.Next()
	}
}

// SessionFromContext returns the session LoadSession attached, if any.
func SessionFromContext(c *gin.Context) (redis.Session, bool) {
	value, ok := c.Get(sessionContextKey)
	if !ok {
		return redis.Session{}, false
	}
	session, ok := value.(redis.Session)
	return session, ok
}

// RequireSession redirects unauthenticated requests to the landing page
// instead of answering with an error status.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := SessionFromContext(c); !ok {
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RedirectIfAuthenticated sends already-logged-in users to the dashboard.
func RedirectIfAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := SessionFromContext(c); ok {
			c.Redirect(http.StatusFound, "/dashboard")
			c.Abort()
			return
		}
		c.Next()
	}
}

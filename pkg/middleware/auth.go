package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/journee-docs/livedocs/backend/internal/identity"
)

const userKey = "user"

// AuthMiddleware returns a Gin middleware that verifies Bearer tokens using
// the provided authenticator and stores the resolved user in the context.
func AuthMiddleware(auth identity.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "No token provided"})
			return
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "No token provided"})
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid or expired token"})
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// CurrentUser returns the authenticated user stored by AuthMiddleware, or
// nil when the request is unauthenticated.
func CurrentUser(c *gin.Context) *identity.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	u, _ := v.(*identity.User)
	return u
}

// SetCurrentUser injects a user directly; handler tests use it in place of
// a real authenticator.
func SetCurrentUser(c *gin.Context, u *identity.User) {
	c.Set(userKey, u)
}

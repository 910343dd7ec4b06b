package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/journee-docs/livedocs/backend/internal/identity"
)

type stubAuth struct {
	user *identity.User
	err  error
}

func (s *stubAuth) Authenticate(ctx context.Context, rawToken string) (*identity.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

func authRouter(auth identity.Authenticator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", AuthMiddleware(auth), func(c *gin.Context) {
		u := CurrentUser(c)
		if u == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no user in context"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": u.ID})
	})
	return r
}

func TestAuthMiddlewareNoHeader(t *testing.T) {
	r := authRouter(&stubAuth{user: &identity.User{ID: "u1"}})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareMalformedHeader(t *testing.T) {
	r := authRouter(&stubAuth{user: &identity.User{ID: "u1"}})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Basic abc123")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareInvalidToken(t *testing.T) {
	r := authRouter(&stubAuth{err: errors.New("bad token")})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer bad")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareValidToken(t *testing.T) {
	r := authRouter(&stubAuth{user: &identity.User{ID: "u1"}})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer good")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "u1")
}

func TestCurrentUserUnset(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, CurrentUser(c))
}

func TestSetCurrentUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	SetCurrentUser(c, &identity.User{ID: "u2"})
	u := CurrentUser(c)
	require.NotNil(t, u)
	assert.Equal(t, "u2", u.ID)
}

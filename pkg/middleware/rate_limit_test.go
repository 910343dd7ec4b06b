package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func limitedRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", mw, func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r
}

func hit(r *gin.Engine, ip string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.RemoteAddr = ip + ":1234"
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimitMiddlewareBurst(t *testing.T) {
	r := limitedRouter(RateLimitMiddleware(1, 3))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(r, "10.0.0.1"), "request %d should pass", i)
	}
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "10.0.0.1"))
}

func TestRateLimitMiddlewarePerKey(t *testing.T) {
	r := limitedRouter(RateLimitMiddleware(1, 2))

	assert.Equal(t, http.StatusOK, hit(r, "10.0.1.1"))
	assert.Equal(t, http.StatusOK, hit(r, "10.0.1.1"))
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "10.0.1.1"))
	// a different client has its own bucket
	assert.Equal(t, http.StatusOK, hit(r, "10.0.1.2"))
}

func TestRedisRateLimitMiddleware(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})

	// long window keeps the test inside one bucket; 0 rps + burst 3 allows 3
	r := limitedRouter(RedisRateLimitMiddleware(client, 0, 3, time.Minute))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(r, "10.0.2.1"), "request %d should pass", i)
	}
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "10.0.2.1"))
	assert.Equal(t, http.StatusOK, hit(r, "10.0.2.2"))
}

func TestRedisRateLimitMiddlewareNilClientFallsBack(t *testing.T) {
	r := limitedRouter(RedisRateLimitMiddleware(nil, 1, 1, time.Second))
	assert.Equal(t, http.StatusOK, hit(r, "10.0.3.1"))
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "10.0.3.1"))
}

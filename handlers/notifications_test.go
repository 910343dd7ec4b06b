package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/journee-docs/livedocs/backend/internal/rooms"
)

func newNotificationsRouter(providerURL string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api", fakeAuth("alice"))
	NewNotificationsHandler(rooms.NewClient("sk_test", providerURL)).Register(api)
	return r
}

func TestNotificationsListScopedToCaller(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// the inbox path must be the authenticated user's, not a request param
		assert.Equal(t, "/users/alice/inbox-notifications", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{{"id": "in_1", "kind": "$textMention"}},
		})
	}))
	defer srv.Close()

	r := newNotificationsRouter(srv.URL)
	w := doJSON(t, r, http.MethodGet, "/api/notifications", "")
	require.Equal(t, http.StatusOK, w.Code)
	env := envelope(t, w)
	page := env["data"].(map[string]interface{})
	assert.Len(t, page["data"], 1)
}

func TestNotificationsMarkRead(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := newNotificationsRouter(srv.URL)
	w := doJSON(t, r, http.MethodPost, "/api/notifications/in_1/read", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/users/alice/inbox-notifications/in_1/read", path)
}

func TestNotificationsProviderFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	r := newNotificationsRouter(srv.URL)
	w := doJSON(t, r, http.MethodGet, "/api/notifications", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

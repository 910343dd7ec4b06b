package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/journee-docs/livedocs/backend/internal/document/service"
)

func newHealthRouter(t *testing.T) (*gin.Engine, *service.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := service.New(&memRepo{}, nil)
	r := gin.New()
	NewHealthHandler(svc).Register(r)
	return r, svc
}

func TestHealthEndpoint(t *testing.T) {
	r, _ := newHealthRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestReadyEndpoint(t *testing.T) {
	r, _ := newHealthRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStatsEndpoint(t *testing.T) {
	r, svc := newHealthRouter(t)
	ctx := context.Background()
	for i := 0; i < 7; i++ {
		creator := "alice"
		if i >= 4 {
			creator = "bob"
		}
		_, err := svc.Create(ctx, service.CreateInput{Title: "d", CreatedBy: creator})
		require.NoError(t, err)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var env map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	data := env["data"].(map[string]interface{})
	assert.Equal(t, float64(7), data["totalDocuments"])
	byCreator := data["documentsByCreator"].(map[string]interface{})
	assert.Equal(t, float64(4), byCreator["alice"])
	assert.Equal(t, float64(3), byCreator["bob"])
	assert.Len(t, data["recentDocuments"], 5)
}

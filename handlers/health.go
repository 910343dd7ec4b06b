package handlers

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/journee-docs/livedocs/backend/internal/document"
	"github.com/journee-docs/livedocs/backend/internal/document/service"
	"github.com/journee-docs/livedocs/backend/pkg/logger"
)

// HealthHandler serves liveness, readiness and a small stats endpoint used
// by the admin dashboard.
type HealthHandler struct {
	svc     *service.Service
	started time.Time
}

func NewHealthHandler(svc *service.Service) *HealthHandler {
	return &HealthHandler{svc: svc, started: time.Now()}
}

func (h *HealthHandler) Register(r gin.IRoutes) {
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)
	r.GET("/stats", h.Stats)
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(h.started).Round(time.Second).String(),
	})
}

// Ready checks that the document store answers.
func (h *HealthHandler) Ready(c *gin.Context) {
	if _, err := h.svc.All(c.Request.Context()); err != nil {
		logger.Errorf("readiness check failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Stats reports document counts, per-creator counts and the five most
// recently updated documents.
func (h *HealthHandler) Stats(c *gin.Context) {
	docs, err := h.svc.All(c.Request.Context())
	if err != nil {
		logger.Errorf("stats failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to collect stats"})
		return
	}

	byCreator := make(map[string]int)
	for _, d := range docs {
		byCreator[d.CreatedBy]++
	}

	recent := make([]*document.Document, len(docs))
	copy(recent, docs)
	sort.Slice(recent, func(i, j int) bool {
		return recent[i].UpdatedAt.After(recent[j].UpdatedAt)
	})
	if len(recent) > 5 {
		recent = recent[:5]
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{
		"totalDocuments":     len(docs),
		"documentsByCreator": byCreator,
		"recentDocuments":    recent,
		"uptime":             time.Since(h.started).Round(time.Second).String(),
	}})
}

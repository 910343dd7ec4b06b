package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/journee-docs/livedocs/backend/internal/rooms"
	"github.com/journee-docs/livedocs/backend/pkg/logger"
	"github.com/journee-docs/livedocs/backend/pkg/middleware"
)

// NotificationsHandler proxies the caller's realtime inbox. The provider
// owns the inbox; this layer only scopes it to the authenticated user.
type NotificationsHandler struct {
	rooms *rooms.Client
}

func NewNotificationsHandler(client *rooms.Client) *NotificationsHandler {
	return &NotificationsHandler{rooms: client}
}

func (h *NotificationsHandler) Register(rg *gin.RouterGroup) {
	n := rg.Group("/notifications")
	n.GET("", h.List)
	n.POST("/read-all", h.MarkAllRead)
	n.POST("/:id/read", h.MarkRead)
	n.DELETE("/:id", h.Delete)
}

func (h *NotificationsHandler) List(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "User not authenticated"})
		return
	}
	page, err := h.rooms.GetInboxNotifications(c.Request.Context(), user.ID, intQuery(c, "limit", 20), c.Query("cursor"))
	if err != nil {
		logger.Errorf("inbox fetch failed for %s: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to get notifications"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": page})
}

func (h *NotificationsHandler) MarkRead(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "User not authenticated"})
		return
	}
	if err := h.rooms.MarkNotificationRead(c.Request.Context(), user.ID, c.Param("id")); err != nil {
		logger.Errorf("mark notification read failed for %s: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to mark notification as read"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Notification marked as read"})
}

func (h *NotificationsHandler) MarkAllRead(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "User not authenticated"})
		return
	}
	if err := h.rooms.MarkAllNotificationsRead(c.Request.Context(), user.ID); err != nil {
		logger.Errorf("mark all notifications read failed for %s: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to mark notifications as read"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "All notifications marked as read"})
}

func (h *NotificationsHandler) Delete(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "User not authenticated"})
		return
	}
	if err := h.rooms.DeleteNotification(c.Request.Context(), user.ID, c.Param("id")); err != nil {
		logger.Errorf("delete notification failed for %s: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to delete notification"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Notification deleted"})
}

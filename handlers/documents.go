package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/journee-docs/livedocs/backend/internal/document"
	"github.com/journee-docs/livedocs/backend/internal/document/service"
	"github.com/journee-docs/livedocs/backend/internal/identity"
	"github.com/journee-docs/livedocs/backend/pkg/logger"
	"github.com/journee-docs/livedocs/backend/pkg/middleware"
)

// InviteNotifier pushes an inbox notification to an invited user.
// Best-effort, like all room side effects.
type InviteNotifier interface {
	TriggerNotification(ctx context.Context, userID, kind, subjectID, roomID string, activityData map[string]interface{}) error
}

// DocumentsHandler serves the document REST surface.
type DocumentsHandler struct {
	svc      *service.Service
	users    identity.Provider
	notifier InviteNotifier // may be nil
}

func NewDocumentsHandler(svc *service.Service, users identity.Provider) *DocumentsHandler {
	return &DocumentsHandler{svc: svc, users: users}
}

// WithInviteNotifier enables inbox notifications on invite.
func (h *DocumentsHandler) WithInviteNotifier(n InviteNotifier) *DocumentsHandler {
	h.notifier = n
	return h
}

// Register mounts the document routes on an authenticated group.
func (h *DocumentsHandler) Register(rg *gin.RouterGroup) {
	d := rg.Group("/documents")
	d.GET("", h.List)
	d.POST("", h.Create)
	d.GET("/room/:roomId", h.GetByRoom)
	d.GET("/:id", h.Get)
	d.PATCH("/:id", h.Update)
	d.DELETE("/:id", h.Delete)
	d.POST("/:id/collaborators", h.AddCollaborator)
	d.DELETE("/:id/collaborators/:userId", h.RemoveCollaborator)
	d.POST("/:id/invite", h.InviteByEmail)
}

// List returns the caller's page of documents.
// Query params: page, limit, search, sortBy, sortOrder, dateFrom, dateTo.
func (h *DocumentsHandler) List(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "User not authenticated"})
		return
	}

	opts := document.ListOptions{
		Page:      intQuery(c, "page", 1),
		Limit:     intQuery(c, "limit", 10),
		Search:    c.Query("search"),
		SortBy:    c.DefaultQuery("sortBy", "createdAt"),
		SortOrder: c.DefaultQuery("sortOrder", "desc"),
	}
	var err error
	if opts.DateFrom, err = dateQuery(c, "dateFrom"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid dateFrom"})
		return
	}
	if opts.DateTo, err = dateQuery(c, "dateTo"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid dateTo"})
		return
	}

	result, err := h.svc.List(c.Request.Context(), user.ID, opts)
	if err != nil {
		logger.Errorf("list documents failed for %s: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to get documents"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
}

// Create makes a new document owned by the caller.
func (h *DocumentsHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "User not authenticated"})
		return
	}
	var req struct {
		Title         string   `json:"title"`
		Collaborators []string `json:"collaborators"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Document title is required"})
		return
	}

	doc, err := h.svc.Create(c.Request.Context(), service.CreateInput{
		Title:         req.Title,
		CreatedBy:     user.ID,
		Collaborators: req.Collaborators,
	})
	if err != nil {
		h.fail(c, err, "Failed to create document")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": doc, "message": "Document created successfully"})
}

func (h *DocumentsHandler) Get(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "User not authenticated"})
		return
	}
	doc, err := h.svc.Get(c.Request.Context(), c.Param("id"), user.ID)
	if err != nil {
		h.fail(c, err, "Failed to get document")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": doc})
}

func (h *DocumentsHandler) GetByRoom(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "User not authenticated"})
		return
	}
	doc, err := h.svc.GetByRoomID(c.Request.Context(), c.Param("roomId"), user.ID)
	if err != nil {
		h.fail(c, err, "Failed to get document")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": doc})
}

// Update applies a partial update: title and/or the collaborator list.
func (h *DocumentsHandler) Update(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "User not authenticated"})
		return
	}
	var req struct {
		Title         *string  `json:"title,omitempty"`
		Collaborators []string `json:"collaborators,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	doc, err := h.svc.Update(c.Request.Context(), c.Param("id"), user.ID, service.UpdateInput{
		Title:         req.Title,
		Collaborators: req.Collaborators,
	})
	if err != nil {
		h.fail(c, err, "Failed to update document")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": doc, "message": "Document updated successfully"})
}

func (h *DocumentsHandler) Delete(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "User not authenticated"})
		return
	}
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), user.ID); err != nil {
		if errors.Is(err, document.ErrAccessDenied) {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "Only the document creator can delete this document"})
			return
		}
		h.fail(c, err, "Failed to delete document")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Document deleted successfully"})
}

func (h *DocumentsHandler) AddCollaborator(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "User not authenticated"})
		return
	}
	var req struct {
		CollaboratorID string `json:"collaboratorId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Collaborator ID is required"})
		return
	}

	doc, err := h.svc.AddCollaborator(c.Request.Context(), c.Param("id"), user.ID, req.CollaboratorID)
	if err != nil {
		h.fail(c, err, "Failed to add collaborator")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": doc, "message": "Collaborator added successfully"})
}

func (h *DocumentsHandler) RemoveCollaborator(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "User not authenticated"})
		return
	}
	doc, err := h.svc.RemoveCollaborator(c.Request.Context(), c.Param("id"), user.ID, c.Param("userId"))
	if err != nil {
		h.fail(c, err, "Failed to remove collaborator")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": doc, "message": "Collaborator removed successfully"})
}

// InviteByEmail resolves an email with the identity provider and adds the
// matched user as a collaborator.
func (h *DocumentsHandler) InviteByEmail(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "User not authenticated"})
		return
	}
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Email is required"})
		return
	}

	invitee, err := h.users.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "User with this email was not found"})
			return
		}
		logger.Errorf("invite lookup failed for %s: %v", req.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to invite collaborator"})
		return
	}

	doc, err := h.svc.AddCollaborator(c.Request.Context(), c.Param("id"), user.ID, invitee.ID)
	if err != nil {
		h.fail(c, err, "Failed to invite collaborator")
		return
	}

	if h.notifier != nil {
		activity := map[string]interface{}{"title": doc.Title, "invitedBy": user.ID}
		if err := h.notifier.TriggerNotification(c.Request.Context(), invitee.ID, "$documentInvite", doc.ID, doc.RoomID, activity); err != nil {
			logger.Warnf("invite notification failed for %s: %v", invitee.ID, err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": doc, "message": "Collaborator invited successfully"})
}

// fail maps document service errors onto the conventional statuses.
func (h *DocumentsHandler) fail(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, document.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Document not found"})
	case errors.Is(err, document.ErrCannotRemoveCreator):
		c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "Cannot remove the creator from collaborators"})
	case errors.Is(err, document.ErrAccessDenied):
		c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "Access denied to this document"})
	case errors.Is(err, document.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
	default:
		logger.Errorf("document operation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": fallback})
	}
}

func intQuery(c *gin.Context, name string, def int) int {
	v := c.Query(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}

// dateQuery accepts "2006-01-02" or full RFC3339 values.
func dateQuery(c *gin.Context, name string) (*time.Time, error) {
	v := c.Query(name)
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/journee-docs/livedocs/backend/internal/identity"
	"github.com/journee-docs/livedocs/backend/pkg/logger"
	"github.com/journee-docs/livedocs/backend/pkg/middleware"
)

// UsersHandler exposes identity lookups used by the editor frontend
// (mentions, collaborator pickers, presence avatars).
type UsersHandler struct {
	users identity.Provider
}

func NewUsersHandler(users identity.Provider) *UsersHandler {
	return &UsersHandler{users: users}
}

func (h *UsersHandler) Register(rg *gin.RouterGroup) {
	u := rg.Group("/users")
	u.GET("/me", h.Me)
	u.GET("/search", h.Search)
	u.GET("/email/:email", h.GetByEmail)
	u.GET("/:id", h.Get)
}

// Me returns the authenticated caller's profile.
func (h *UsersHandler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "User not authenticated"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": user})
}

func (h *UsersHandler) Get(c *gin.Context) {
	user, err := h.users.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": user})
}

func (h *UsersHandler) GetByEmail(c *gin.Context) {
	user, err := h.users.GetUserByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": user})
}

func (h *UsersHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Search query is required"})
		return
	}
	users, err := h.users.SearchUsers(c.Request.Context(), query, intQuery(c, "limit", 10))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": users})
}

func (h *UsersHandler) fail(c *gin.Context, err error) {
	if errors.Is(err, identity.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "User not found"})
		return
	}
	logger.Errorf("user lookup failed: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to look up user"})
}

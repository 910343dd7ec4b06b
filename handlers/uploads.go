package handlers

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/journee-docs/livedocs/backend/internal/storage"
	"github.com/journee-docs/livedocs/backend/pkg/logger"
	"github.com/journee-docs/livedocs/backend/pkg/middleware"
)

const (
	maxUploadBytes     = 20 << 20 // 20 MiB
	uploadURLLifetime  = 24 * time.Hour
	dataURIPrefix      = "data:"
	defaultContentType = "application/octet-stream"
)

// UploadsHandler stores editor media (attachments, pasted images) in the
// object store and hands back presigned URLs.
type UploadsHandler struct {
	media *storage.MediaStorage
}

func NewUploadsHandler(media *storage.MediaStorage) *UploadsHandler {
	return &UploadsHandler{media: media}
}

func (h *UploadsHandler) Register(rg *gin.RouterGroup) {
	u := rg.Group("/upload")
	u.POST("", h.UploadFile)
	u.POST("/image", h.UploadImage)
	u.DELETE("/*key", h.Delete)
}

// UploadFile accepts a multipart form with a "file" field.
func (h *UploadsHandler) UploadFile(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "User not authenticated"})
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No file provided"})
		return
	}
	if fileHeader.Size > maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "File too large"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		logger.Errorf("upload open failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to read file"})
		return
	}
	defer f.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultContentType
	}
	key := objectKey(user.ID, fileHeader.Filename)
	if err := h.media.Upload(c.Request.Context(), key, f, fileHeader.Size, contentType); err != nil {
		logger.Errorf("upload store failed for %s: %v", key, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to store file"})
		return
	}

	h.respondWithURL(c, key, fileHeader.Filename, fileHeader.Size, contentType)
}

// UploadImage accepts a base64 data URI, the shape the editor produces for
// pasted images.
func (h *UploadsHandler) UploadImage(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "User not authenticated"})
		return
	}
	var req struct {
		ImageData string `json:"imageData" binding:"required"`
		Filename  string `json:"filename"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Image data is required"})
		return
	}

	contentType, data, err := decodeDataURI(req.ImageData)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid image data"})
		return
	}
	if len(data) > maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Image too large"})
		return
	}
	if !strings.HasPrefix(contentType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Only image uploads are accepted here"})
		return
	}

	name := req.Filename
	if name == "" {
		name = "image" + extensionFor(contentType)
	}
	key := objectKey(user.ID, name)
	if err := h.media.Upload(c.Request.Context(), key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		logger.Errorf("image store failed for %s: %v", key, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to store image"})
		return
	}

	h.respondWithURL(c, key, name, int64(len(data)), contentType)
}

// Delete removes an uploaded object. Keys embed the uploader's user id, and
// only the uploader may delete their objects.
func (h *UploadsHandler) Delete(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "User not authenticated"})
		return
	}
	key := strings.TrimPrefix(c.Param("key"), "/")
	if !strings.HasPrefix(key, user.ID+"/") {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "Cannot delete another user's upload"})
		return
	}
	if err := h.media.Delete(c.Request.Context(), key); err != nil {
		logger.Errorf("upload delete failed for %s: %v", key, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to delete file"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "File deleted"})
}

func (h *UploadsHandler) respondWithURL(c *gin.Context, key, filename string, size int64, contentType string) {
	url, err := h.media.PresignedURL(c.Request.Context(), key, uploadURLLifetime)
	if err != nil {
		logger.Errorf("presign failed for %s: %v", key, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to generate file URL"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": gin.H{
		"key":         key,
		"url":         url,
		"filename":    filename,
		"size":        size,
		"contentType": contentType,
	}})
}

// objectKey namespaces uploads per user and keeps keys unique over time.
func objectKey(userID, filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	return fmt.Sprintf("%s/%d_%s", userID, time.Now().UnixMilli(), base)
}

// decodeDataURI parses "data:<type>;base64,<payload>". Bare base64 without a
// prefix is accepted and treated as a PNG.
func decodeDataURI(s string) (string, []byte, error) {
	contentType := "image/png"
	payload := s
	if strings.HasPrefix(s, dataURIPrefix) {
		rest := s[len(dataURIPrefix):]
		meta, data, ok := strings.Cut(rest, ",")
		if !ok {
			return "", nil, fmt.Errorf("malformed data uri")
		}
		if ct, _, _ := strings.Cut(meta, ";"); ct != "" {
			contentType = ct
		}
		payload = data
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode image payload: %w", err)
	}
	return contentType, raw, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}

package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/journee-docs/livedocs/backend/pkg/logger"
)

// webhookTolerance bounds how stale a signed webhook timestamp may be.
const webhookTolerance = 5 * time.Minute

// WebhooksHandler receives signed callbacks from the realtime provider and
// the identity provider. Payloads are verified before anything is parsed.
type WebhooksHandler struct {
	liveblocksSecret string
	clerkSecret      string
}

func NewWebhooksHandler(liveblocksSecret, clerkSecret string) *WebhooksHandler {
	return &WebhooksHandler{liveblocksSecret: liveblocksSecret, clerkSecret: clerkSecret}
}

// Register mounts the webhook routes. These sit outside the authenticated
// group; the HMAC signature is the authentication.
func (h *WebhooksHandler) Register(rg *gin.RouterGroup) {
	w := rg.Group("/webhooks")
	w.POST("/liveblocks", h.Liveblocks)
	w.POST("/clerk", h.Clerk)
}

// Liveblocks handles room lifecycle and notification events. The provider
// signs the raw body with "t=<unix>,v1=<hex hmac>" in webhook-signature.
func (h *WebhooksHandler) Liveblocks(c *gin.Context) {
	if h.liveblocksSecret == "" {
		c.JSON(http.StatusNotImplemented, gin.H{"success": false, "error": "Webhook secret not configured"})
		return
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Unable to read body"})
		return
	}
	if !verifyLiveblocksSignature(h.liveblocksSecret, c.GetHeader("webhook-signature"), body) {
		logger.Warnf("liveblocks webhook signature rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid webhook signature"})
		return
	}

	var event struct {
		Type string `json:"type"`
		Data struct {
			RoomID string `json:"roomId"`
			UserID string `json:"userId"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid payload"})
		return
	}
	logger.Infof("liveblocks webhook: type=%s room=%s user=%s", event.Type, event.Data.RoomID, event.Data.UserID)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Clerk handles identity events (user created/updated/deleted), signed with
// the svix scheme: HMAC over "<svix-id>.<svix-timestamp>.<body>".
func (h *WebhooksHandler) Clerk(c *gin.Context) {
	if h.clerkSecret == "" {
		c.JSON(http.StatusNotImplemented, gin.H{"success": false, "error": "Webhook secret not configured"})
		return
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Unable to read body"})
		return
	}
	id := c.GetHeader("svix-id")
	ts := c.GetHeader("svix-timestamp")
	sig := c.GetHeader("svix-signature")
	if !verifySvixSignature(h.clerkSecret, id, ts, sig, body) {
		logger.Warnf("clerk webhook signature rejected id=%s", id)
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid webhook signature"})
		return
	}

	var event struct {
		Type string `json:"type"`
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid payload"})
		return
	}
	logger.Infof("clerk webhook: type=%s user=%s", event.Type, event.Data.ID)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// verifyLiveblocksSignature checks "t=<unix>,v1=<hex>" against an HMAC-SHA256
// of "<t>.<body>".
func verifyLiveblocksSignature(secret, header string, body []byte) bool {
	var ts string
	var sigs []string
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts = v
		case "v1":
			sigs = append(sigs, v)
		}
	}
	if ts == "" || len(sigs) == 0 || !timestampFresh(ts) {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s.%s", ts, body)
	want := hex.EncodeToString(mac.Sum(nil))
	for _, got := range sigs {
		if subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1 {
			return true
		}
	}
	return false
}

// verifySvixSignature checks the space-separated "v1,<base64>" entries in the
// svix-signature header. The secret is base64 after the "whsec_" prefix.
func verifySvixSignature(secret, id, ts, header string, body []byte) bool {
	if id == "" || ts == "" || header == "" || !timestampFresh(ts) {
		return false
	}
	key, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(secret, "whsec_"))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, key)
	fmt.Fprintf(mac, "%s.%s.%s", id, ts, body)
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	for _, entry := range strings.Fields(header) {
		version, sig, ok := strings.Cut(entry, ",")
		if !ok || version != "v1" {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(want), []byte(sig)) == 1 {
			return true
		}
	}
	return false
}

func timestampFresh(ts string) bool {
	sec, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return false
	}
	age := time.Since(time.Unix(sec, 0))
	return age > -webhookTolerance && age < webhookTolerance
}

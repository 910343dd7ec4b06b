package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/journee-docs/livedocs/backend/pkg/logger"
)

// FAQHandler answers help-center queries. Vietnamese questions go to an
// external answering service when one is configured; English questions are
// matched against a local knowledge base.
type FAQHandler struct {
	externalURL string
	http        *http.Client
	entries     []faqEntry
}

type faqEntry struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Keywords []string `json:"-"`
}

func NewFAQHandler(externalURL string, timeout time.Duration) *FAQHandler {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &FAQHandler{
		externalURL: externalURL,
		http:        &http.Client{Timeout: timeout},
		entries:     defaultFAQEntries,
	}
}

func (h *FAQHandler) Register(rg *gin.RouterGroup) {
	f := rg.Group("/faq")
	f.GET("/search", h.Search)
	f.POST("/search", h.Search)
}

// Search accepts ?query= on GET or {"query": ...} on POST.
func (h *FAQHandler) Search(c *gin.Context) {
	query := c.Query("query")
	if query == "" && c.Request.Method == http.MethodPost {
		var req struct {
			Query string `json:"query"`
		}
		if err := c.ShouldBindJSON(&req); err == nil {
			query = req.Query
		}
	}
	query = strings.TrimSpace(query)
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Query parameter is required",
			"message": "Please provide a question to search for",
		})
		return
	}
	if len([]rune(query)) < 2 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Query too short",
			"message": "Please provide at least 2 characters for search",
		})
		return
	}

	if isVietnamese(query) {
		h.answerVietnamese(c, query)
		return
	}
	h.answerLocal(c, query)
}

func (h *FAQHandler) answerVietnamese(c *gin.Context, query string) {
	if h.externalURL != "" {
		answer, fromCache, err := h.fetchExternal(c.Request.Context(), query)
		if err != nil {
			logger.Warnf("external faq service failed: %v", err)
		} else {
			c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{
				"query":      query,
				"answer":     answer,
				"language":   "vi",
				"source":     "external",
				"from_cache": fromCache,
			}})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{
		"query":    query,
		"answer":   "Xin lỗi, hiện tại dịch vụ FAQ tiếng Việt không khả dụng. Vui lòng thử lại sau hoặc liên hệ hỗ trợ để được giúp đỡ.",
		"language": "vi",
		"source":   "fallback",
	}})
}

func (h *FAQHandler) answerLocal(c *gin.Context, query string) {
	matches := searchFAQ(h.entries, query)
	if len(matches) == 0 {
		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{
			"query":    query,
			"answer":   fmt.Sprintf("I couldn't find a specific answer for %q. Try rephrasing your question with different keywords, or contact support for additional help.", query),
			"language": "en",
			"source":   "local",
			"suggestions": []string{
				"How do I create a new document?",
				"How do I share a document with others?",
				"How do I add comments to a document?",
			},
		}})
		return
	}

	var answer string
	if len(matches) == 1 {
		answer = fmt.Sprintf("**%s**\n\n%s", matches[0].Question, matches[0].Answer)
	} else {
		var b strings.Builder
		fmt.Fprintf(&b, "I found %d relevant answers for %q:\n\n", len(matches), query)
		for i, m := range matches {
			if i == 3 {
				fmt.Fprintf(&b, "And %d more related topics. Try being more specific for better results.", len(matches)-3)
				break
			}
			fmt.Fprintf(&b, "**%d. %s**\n%s\n\n", i+1, m.Question, m.Answer)
		}
		answer = b.String()
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{
		"query":        query,
		"answer":       answer,
		"language":     "en",
		"source":       "local",
		"matches":      matches,
		"totalMatches": len(matches),
	}})
}

func (h *FAQHandler) fetchExternal(ctx context.Context, query string) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		h.externalURL+"?query="+url.QueryEscape(query), nil)
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("ngrok-skip-browser-warning", "true")
	resp, err := h.http.Do(req)
	if err != nil {
		return "", false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("faq service status %d", resp.StatusCode)
	}
	var body struct {
		Answer    string `json:"answer"`
		FromCache bool   `json:"from_cache"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", false, err
	}
	if body.Answer == "" {
		return "", false, fmt.Errorf("faq service returned no answer")
	}
	return body.Answer, body.FromCache, nil
}

var (
	vietnameseChars = regexp.MustCompile(`(?i)[àáạảãâầấậẩẫăằắặẳẵèéẹẻẽêềếệểễìíịỉĩòóọỏõôồốộổỗơờớợởỡùúụủũưừứựửữỳýỵỷỹđ]`)
	vietnameseWords = regexp.MustCompile(`(?i)\b(tôi|bạn|của|với|trong|một|này|đó|như|có|được|để|và|hoặc|nhưng|khi|nào|làm|gì|sao|thế|tại|về|từ|đến|cho|vào|ra|lên|xuống|qua|theo|sau|trước|không|chưa|rồi|các|những)\b`)
)

// isVietnamese flags queries containing Vietnamese diacritics or common
// Vietnamese words.
func isVietnamese(text string) bool {
	return vietnameseChars.MatchString(text) || vietnameseWords.MatchString(text)
}

// searchFAQ matches the query against question text, answer text and
// keywords, ranking question-text hits first.
func searchFAQ(entries []faqEntry, query string) []faqEntry {
	q := strings.ToLower(strings.TrimSpace(query))
	var questionHits, otherHits []faqEntry
	for _, e := range entries {
		switch {
		case strings.Contains(strings.ToLower(e.Question), q):
			questionHits = append(questionHits, e)
		case strings.Contains(strings.ToLower(e.Answer), q) || keywordMatch(e.Keywords, q):
			otherHits = append(otherHits, e)
		}
	}
	return append(questionHits, otherHits...)
}

func keywordMatch(keywords []string, q string) bool {
	for _, k := range keywords {
		k = strings.ToLower(k)
		if strings.Contains(k, q) || strings.Contains(q, k) {
			return true
		}
	}
	return false
}

var defaultFAQEntries = []faqEntry{
	{
		Question: "How do I create a new document?",
		Answer:   "Click the 'Add Document' button on your dashboard, give the document a title and start editing. Changes are saved automatically as you type.",
		Keywords: []string{"create", "new", "document", "add", "make"},
	},
	{
		Question: "How do I share a document with others?",
		Answer:   "Open the document and click the 'Share' button. Enter the email addresses of the people you want to collaborate with; they will get access to the document right away.",
		Keywords: []string{"share", "collaborate", "invite", "permission", "access"},
	},
	{
		Question: "How do I change document permissions?",
		Answer:   "Open the document and click the 'Share' button to see the current collaborators. Only the document owner can remove collaborators or change their access.",
		Keywords: []string{"permission", "access", "owner", "editor", "viewer", "change"},
	},
	{
		Question: "Can I work offline?",
		Answer:   "Real-time collaboration needs an internet connection. If you lose connection temporarily your changes are kept locally and synchronized once you are back online.",
		Keywords: []string{"offline", "internet", "connection", "sync", "local"},
	},
	{
		Question: "How do I add comments to a document?",
		Answer:   "Select the text you want to comment on and click the comment icon that appears. Other collaborators see your comment in real time and can reply to it.",
		Keywords: []string{"comment", "reply", "feedback", "discuss", "note"},
	},
	{
		Question: "How do I delete a document?",
		Answer:   "Use the three-dot menu next to the document in your documents list and choose 'Delete'. Only the document owner can delete a document, and deletion cannot be undone.",
		Keywords: []string{"delete", "remove", "owner", "permanent"},
	},
	{
		Question: "How do I see who's currently editing a document?",
		Answer:   "Active collaborators show in the top-right corner of the editor, along with their live cursors and selections.",
		Keywords: []string{"collaborators", "active", "live", "cursor", "editing", "who"},
	},
	{
		Question: "Can I format text in the editor?",
		Answer:   "Yes. The editor supports bold, italic, underline, headings and lists via the toolbar or the usual keyboard shortcuts (Ctrl+B, Ctrl+I and so on).",
		Keywords: []string{"format", "bold", "italic", "heading", "list", "toolbar", "shortcuts"},
	},
	{
		Question: "How do I rename a document?",
		Answer:   "Click the document title while viewing it to edit it inline, or use the three-dot menu next to the document in your list and select 'Rename'.",
		Keywords: []string{"rename", "title", "name", "change"},
	},
}

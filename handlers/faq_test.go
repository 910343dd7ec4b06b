package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFAQRouter(externalURL string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewFAQHandler(externalURL, 2*time.Second).Register(r.Group("/api"))
	return r
}

func faqSearch(t *testing.T, r *gin.Engine, query string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/faq/search?query="+url.QueryEscape(query), nil)
	r.ServeHTTP(w, req)
	var env map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func TestIsVietnamese(t *testing.T) {
	assert.True(t, isVietnamese("làm sao để tạo tài liệu"))
	assert.True(t, isVietnamese("tôi can help"))
	assert.False(t, isVietnamese("how do I create a document"))
	assert.False(t, isVietnamese("delete"))
}

func TestFAQRequiresQuery(t *testing.T) {
	r := newFAQRouter("")
	w, env := faqSearch(t, r, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, env["success"])

	w, _ = faqSearch(t, r, "a")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFAQLocalSearch(t *testing.T) {
	r := newFAQRouter("")
	w, env := faqSearch(t, r, "delete")
	require.Equal(t, http.StatusOK, w.Code)
	data := env["data"].(map[string]interface{})
	assert.Equal(t, "en", data["language"])
	assert.Equal(t, "local", data["source"])
	assert.Contains(t, data["answer"].(string), "delete")
}

func TestFAQLocalNoMatch(t *testing.T) {
	r := newFAQRouter("")
	w, env := faqSearch(t, r, "quantum blockchain")
	require.Equal(t, http.StatusOK, w.Code)
	data := env["data"].(map[string]interface{})
	assert.Equal(t, "local", data["source"])
	assert.NotEmpty(t, data["suggestions"])
}

func TestFAQPostBody(t *testing.T) {
	r := newFAQRouter("")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/faq/search", strings.NewReader(`{"query":"share a document"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestFAQVietnameseExternal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.URL.Query().Get("query"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"answer": "câu trả lời", "from_cache": true})
	}))
	defer srv.Close()

	r := newFAQRouter(srv.URL)
	w, env := faqSearch(t, r, "làm sao để chia sẻ tài liệu")
	require.Equal(t, http.StatusOK, w.Code)
	data := env["data"].(map[string]interface{})
	assert.Equal(t, "vi", data["language"])
	assert.Equal(t, "external", data["source"])
	assert.Equal(t, "câu trả lời", data["answer"])
	assert.Equal(t, true, data["from_cache"])
}

func TestFAQVietnameseFallbackWhenServiceDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	srv.Close() // immediately unreachable

	r := newFAQRouter(srv.URL)
	w, env := faqSearch(t, r, "tôi muốn xóa tài liệu")
	require.Equal(t, http.StatusOK, w.Code)
	data := env["data"].(map[string]interface{})
	assert.Equal(t, "vi", data["language"])
	assert.Equal(t, "fallback", data["source"])
}

func TestSearchFAQRanksQuestionHitsFirst(t *testing.T) {
	entries := []faqEntry{
		{Question: "About widgets", Answer: "mentions gadgets in passing", Keywords: []string{"widget"}},
		{Question: "About gadgets", Answer: "all about gadgets", Keywords: []string{"gadget"}},
	}
	got := searchFAQ(entries, "gadgets")
	require.Len(t, got, 2)
	assert.Equal(t, "About gadgets", got[0].Question)
}

package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestResponseCacheServesCachedBody(t *testing.T) {
	client, _ := newTestRedis(t)

	hits := 0
	router := gin.New()
	router.Use(func(c *gin.Context) { c.Set("user_id", "member-1") })
	router.GET("/listings", ResponseCache(client, 30*time.Second), func(c *gin.Context) {
		hits++
		c.JSON(http.StatusOK, gin.H{"serial": hits})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/listings", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	first := w.Body.String()

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/listings", nil))
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	assert.Equal(t, first, w.Body.String())
	assert.Equal(t, 1, hits, "handler must not run on a cache hit")
}

func TestResponseCachePrivateForUserScopedPayloads(t *testing.T) {
	client, _ := newTestRedis(t)

	router := gin.New()
	router.Use(func(c *gin.Context) { c.Set("user_id", "member-1") })
	router.GET("/listings", ResponseCache(client, 30*time.Second), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/listings", nil))
		assert.Equal(t, "private, max-age=30", w.Header().Get("Cache-Control"),
			"request %d: authenticated payloads must never be publicly cacheable", i+1)
	}
}

func TestResponseCacheKeyIsScopedPerUser(t *testing.T) {
	client, _ := newTestRedis(t)

	router := gin.New()
	router.Use(func(c *gin.Context) { c.Set("user_id", c.GetHeader("X-Test-User")) })
	router.GET("/listings", ResponseCache(client, 30*time.Second), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"for": c.GetString("user_id")})
	})

	get := func(user string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", "/listings", nil)
		req.Header.Set("X-Test-User", user)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	get("alice")
	w := get("bob")
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.Contains(t, w.Body.String(), "bob", "one member's cached payload must not serve another")
}

func TestResponseCacheBypassesWritesAndNilClient(t *testing.T) {
	client, _ := newTestRedis(t)

	hits := 0
	handler := func(c *gin.Context) {
		hits++
		c.JSON(http.StatusOK, gin.H{"serial": hits})
	}

	router := gin.New()
	router.POST("/listings", ResponseCache(client, 30*time.Second), handler)
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("POST", "/listings", nil))
		assert.Equal(t, fmt.Sprintf(`{"serial":%d}`, i+1), w.Body.String())
	}

	hits = 0
	router = gin.New()
	router.GET("/listings", ResponseCache(nil, 30*time.Second), handler)
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/listings", nil))
		assert.Equal(t, fmt.Sprintf(`{"serial":%d}`, i+1), w.Body.String())
	}
}

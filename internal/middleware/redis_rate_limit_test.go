package middleware

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/lineup-social/backend/internal/cache"
	"github.com/lineup-social/backend/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.InitializeForTests()
	gin.SetMode(gin.TestMode)
	m.Run()
}

func newTestRedis(t *testing.T) (*cache.RedisClient, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	host, port, err := net.SplitHostPort(mr.Addr())
	require.NoError(t, err)

	client, err := cache.NewRedisClient(host, port, "")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return client, mr
}

func TestRedisRateLimit(t *testing.T) {
	client, mr := newTestRedis(t)

	router := gin.New()
	router.Use(RedisRateLimit(client, 3, time.Second))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// First 3 requests should succeed
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "Request %d should succeed", i+1)
	}

	// 4th request should be rate limited
	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code, "4th request should be rate limited")

	// Should work again after the window expires
	mr.FastForward(2 * time.Second)

	req = httptest.NewRequest("GET", "/test", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, "Request after window should succeed")
}

func TestRedisRateLimitNilClientAllows(t *testing.T) {
	router := gin.New()
	router.Use(RedisRateLimit(nil, 1, time.Second))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestResponseCache(t *testing.T) {
	client, _ := newTestRedis(t)

	hits := 0
	router := gin.New()
	router.Use(ResponseCache(client, time.Minute))
	router.GET("/feed", func(c *gin.Context) {
		hits++
		c.JSON(http.StatusOK, gin.H{"hits": hits})
	})

	req := httptest.NewRequest("GET", "/feed", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.Equal(t, 1, hits)

	// Second request is served from cache without hitting the handler
	req = httptest.NewRequest("GET", "/feed", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	assert.Equal(t, 1, hits)
	assert.JSONEq(t, `{"hits":1}`, w.Body.String())
}

func TestResponseCacheSkipsMutations(t *testing.T) {
	client, _ := newTestRedis(t)

	hits := 0
	router := gin.New()
	router.Use(ResponseCache(client, time.Minute))
	router.POST("/posts", func(c *gin.Context) {
		hits++
		c.JSON(http.StatusCreated, gin.H{"hits": hits})
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("POST", "/posts", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusCreated, w.Code)
	}
	assert.Equal(t, 2, hits)
}

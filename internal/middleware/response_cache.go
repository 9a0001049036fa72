package middleware

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lineup-social/backend/internal/cache"
	"github.com/lineup-social/backend/internal/logger"
	"go.uber.org/zap"
)

// ResponseCache caches successful GET responses in Redis with the given TTL.
// Only 2xx responses are cached. The cache key is scoped to the requesting
// user so one member's payload never leaks into another's. Routes whose
// payloads must reflect every write, like feed engagement counters, must
// not sit behind it. Adds an X-Cache HIT/MISS header for debugging.
func ResponseCache(client *cache.RedisClient, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet || client == nil {
			c.Next()
			return
		}

		userID := c.GetString("user_id")
		cacheKey := responseCacheKey(c.Request.URL.Path, c.Request.URL.RawQuery, userID)
		ctx := c.Request.Context()

		if cachedData, err := client.Get(ctx, cacheKey); err == nil {
			logger.Log.Debug("response cache hit",
				zap.String("key", cacheKey),
			)
			c.Header("X-Cache", "HIT")
			c.Header("Cache-Control", cacheControlValue(userID, ttl))
			c.Data(http.StatusOK, "application/json", []byte(cachedData))
			c.Abort()
			return
		}

		writer := &cachedResponseWriter{
			ResponseWriter: c.Writer,
			statusCode:     http.StatusOK,
			body:           &bytes.Buffer{},
		}
		c.Writer = writer
		c.Header("X-Cache", "MISS")
		c.Header("Cache-Control", cacheControlValue(userID, ttl))

		c.Next()

		if writer.statusCode >= 200 && writer.statusCode < 300 && writer.body.Len() > 0 {
			if err := client.SetEx(ctx, cacheKey, writer.body.String(), ttl); err != nil {
				logger.Log.Debug("failed to write response to cache",
					zap.String("key", cacheKey),
					zap.Error(err),
				)
			}
		}
	}
}

// cacheControlValue marks user-scoped payloads private so shared
// intermediaries never cache one member's response for another.
func cacheControlValue(userID string, ttl time.Duration) string {
	scope := "public"
	if userID != "" {
		scope = "private"
	}
	return fmt.Sprintf("%s, max-age=%d", scope, int(ttl.Seconds()))
}

func responseCacheKey(path, query, userID string) string {
	key := fmt.Sprintf("response:%s", path)
	if query != "" {
		key = fmt.Sprintf("%s:%s", key, query)
	}
	if userID != "" {
		key = fmt.Sprintf("%s:%s", key, userID)
	}
	return key
}

// cachedResponseWriter intercepts response writes to capture the response body
type cachedResponseWriter struct {
	gin.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (w *cachedResponseWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *cachedResponseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

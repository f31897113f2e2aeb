package middleware

import (
	"bytes"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	// IdempotencyKeyHeader is the HTTP header for idempotency keys
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyKeyTTL is how long keys are valid
	IdempotencyKeyTTL = 24 * time.Hour
)

// ReplayCache is a minimal in-process TTL cache of completed responses.
// Expired entries are skipped on Get and swept on Set.
type ReplayCache struct {
	mu   sync.RWMutex
	data map[string]cachedResponse
	now  func() time.Time
}

type cachedResponse struct {
	status      int
	contentType string
	body        []byte
	exp         time.Time
}

// NewReplayCache creates an empty cache. A nil clock means time.Now.
func NewReplayCache(now func() time.Time) *ReplayCache {
	if now == nil {
		now = time.Now
	}
	return &ReplayCache{data: make(map[string]cachedResponse), now: now}
}

func (rc *ReplayCache) get(k string) (cachedResponse, bool) {
	rc.mu.RLock()
	e, ok := rc.data[k]
	rc.mu.RUnlock()
	if !ok || rc.now().After(e.exp) {
		return cachedResponse{}, false
	}
	return e, true
}

func (rc *ReplayCache) set(k string, v cachedResponse, ttl time.Duration) {
	now := rc.now()
	v.exp = now.Add(ttl)

	rc.mu.Lock()
	defer rc.mu.Unlock()
	for key, e := range rc.data {
		if now.After(e.exp) {
			delete(rc.data, key)
		}
	}
	rc.data[k] = v
}

// responseWriter wraps gin.ResponseWriter to capture the response body
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays the first successful response to a POST carrying an
// Idempotency-Key header. Keys are scoped to the authenticated user and route.
func Idempotency(cache *ReplayCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		idempotencyKey := c.GetHeader(IdempotencyKeyHeader)
		if idempotencyKey == "" {
			c.Next()
			return
		}

		cacheKey := c.GetString("username") + "|" + c.Request.Method + " " + c.FullPath() + "|" + idempotencyKey
		if cached, ok := cache.get(cacheKey); ok {
			c.Header("X-Idempotency-Replayed", "true")
			c.Data(cached.status, cached.contentType, cached.body)
			c.Abort()
			return
		}

		// Capture the response
		blw := &responseWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		// Only store successful responses (2xx status codes)
		if status := c.Writer.Status(); status >= 200 && status < 300 {
			cache.set(cacheKey, cachedResponse{
				status:      status,
				contentType: c.Writer.Header().Get("Content-Type"),
				body:        blw.body.Bytes(),
			}, IdempotencyKeyTTL)
		}
	}
}

package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/carsonjc04/Hive-Engine/internal/middleware"
	"github.com/carsonjc04/Hive-Engine/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestIDAndContextLogger(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.ContextLogger(zap.NewNop()))

	var seenRID string
	var hasLogger bool
	r.GET("/ping", func(c *gin.Context) {
		seenRID = contextutil.GetRequestID(c.Request.Context())
		hasLogger = contextutil.GetLogger(c.Request.Context(), nil) != nil
		c.Status(http.StatusNoContent)
	})

	t.Run("keeps incoming request id", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(middleware.RequestIDHeader, "req-123")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "req-123", seenRID)
		assert.Equal(t, "req-123", w.Header().Get(middleware.RequestIDHeader))
		assert.True(t, hasLogger)
	})

	t.Run("generates request id when missing", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

		assert.NotEmpty(t, seenRID)
		assert.Equal(t, seenRID, w.Header().Get(middleware.RequestIDHeader))
	})
}

func TestRateLimitByIP(t *testing.T) {
	r := gin.New()
	r.GET("/limited", middleware.RateLimitByIP(0.001, 1), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/limited", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/limited", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "RATE_LIMITED")
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/ping", func(c *gin.Context) {
		id, _ := c.Get(ContextRequestID)
		c.String(http.StatusOK, "%v", id)
	})
	return r
}

func TestRequestLogger_AssignsRequestID(t *testing.T) {
	t.Parallel()

	r := newRouter(RequestLogger(zerolog.Nop()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)
	id := w.Header().Get("X-Request-ID")
	assert.Len(t, id, 36)
	assert.Equal(t, id, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get("X-Request-ID"))
}

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	newRouter(SecurityHeaders()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	l := NewIPRateLimiter(2, time.Minute)
	r := newRouter(RateLimit(l, zerolog.Nop()))

	do := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, do("10.0.0.1").Code)
	w := do("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"too many requests"}`, w.Body.String())

	assert.Equal(t, http.StatusOK, do("10.0.0.2").Code)
}

func TestIPRateLimiter_Prune(t *testing.T) {
	t.Parallel()

	l := NewIPRateLimiter(1, time.Millisecond)
	assert.True(t, l.Allow("a"))
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 1, l.Prune())
	assert.True(t, l.Allow("a"))
}

func TestNewIPRateLimiter_NonPositiveBudgetAllowsAll(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		perWindow int
		window    time.Duration
	}{
		{"zero per window", 0, time.Minute},
		{"negative per window", -5, time.Minute},
		{"zero window", 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var l *IPRateLimiter
			require.NotPanics(t, func() { l = NewIPRateLimiter(tt.perWindow, tt.window) })
			for range 20 {
				assert.True(t, l.Allow("10.0.0.1"))
			}
		})
	}
}

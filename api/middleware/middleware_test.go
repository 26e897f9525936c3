package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/crop-advisor/internal/auth"
	"github.com/OldStager01/crop-advisor/internal/logger"
	"github.com/OldStager01/crop-advisor/internal/metrics"
	"github.com/OldStager01/crop-advisor/pkg/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func ok(c *gin.Context) { c.String(http.StatusOK, "ok") }

func TestJWTAuth(t *testing.T) {
	svc := auth.NewService("secret", time.Hour, "crop-advisor")
	expired := auth.NewService("secret", -time.Minute, "crop-advisor")

	admin, err := svc.GenerateToken("ops", auth.RoleAdmin)
	require.NoError(t, err)
	viewer, err := svc.GenerateToken("bob", "viewer")
	require.NoError(t, err)
	old, err := expired.GenerateToken("ops", auth.RoleAdmin)
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{"missing", "", http.StatusUnauthorized, "missing authorization header"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "invalid authorization header format"},
		{"garbage", "Bearer not-a-token", http.StatusUnauthorized, "invalid token"},
		{"expired", "Bearer " + old, http.StatusUnauthorized, "token expired"},
		{"wrong role", "Bearer " + viewer, http.StatusForbidden, "insufficient permissions"},
		{"admin", "Bearer " + admin, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/admin", JWTAuth(svc, auth.RoleAdmin), func(c *gin.Context) {
				c.String(http.StatusOK, GetSubject(c))
			})

			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.header != "" {
				req.Header.Set(AuthorizationHeader, tt.header)
			}
			w := serve(r, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.message != "" {
				assert.Contains(t, w.Body.String(), tt.message)
			} else {
				assert.Equal(t, "ops", w.Body.String())
			}
		})
	}
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name   string
		cfg    config.CORSConfig
		origin string
		want   string
	}{
		{"wildcard", config.CORSConfig{}, "http://a.example", "*"},
		{"listed origin", config.CORSConfig{AllowedOrigins: []string{"http://a.example"}}, "http://a.example", "http://a.example"},
		{"unlisted origin", config.CORSConfig{AllowedOrigins: []string{"http://a.example"}}, "http://b.example", ""},
		{"credentials echo origin", config.CORSConfig{AllowCredentials: true}, "http://a.example", "http://a.example"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(CORS(CORSFromConfig(tt.cfg)))
			r.GET("/", ok)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Origin", tt.origin)
			w := serve(r, req)

			assert.Equal(t, tt.want, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS(DefaultCORSConfig()))
	r.POST("/recommend", ok)

	req := httptest.NewRequest(http.MethodOptions, "/recommend", nil)
	req.Header.Set("Origin", "http://a.example")
	w := serve(r, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), TraceIDHeader)
}

func TestTraceID(t *testing.T) {
	r := gin.New()
	r.Use(TraceID())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, logger.TraceIDFromContext(c.Request.Context()))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TraceIDHeader, "abc-123")
	w := serve(r, req)
	assert.Equal(t, "abc-123", w.Header().Get(TraceIDHeader))
	assert.Equal(t, "abc-123", w.Body.String())

	w = serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(TraceIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/", ok)
	r.GET("/swagger/*any", ok)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, apiCSP, w.Header().Get("Content-Security-Policy"))

	w = serve(r, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	assert.Equal(t, docsCSP, w.Header().Get("Content-Security-Policy"))
}

func TestRequestSizeLimit(t *testing.T) {
	r := gin.New()
	r.Use(RequestSizeLimit(16))
	r.POST("/", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too large")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := serve(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1}`)))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 64))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/", io.NopCloser(bytes.NewReader(make([]byte, 64))))
	req.ContentLength = -1
	w = serve(r, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRateLimit(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()

	r := gin.New()
	r.Use(RateLimit(rl))
	r.GET("/", ok)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		codes = append(codes, serve(r, req).Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	assert.Equal(t, http.StatusOK, serve(r, req).Code)
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(1, time.Second)
	rl.Allow("a")
	rl.Allow("b")

	rl.cleanup(time.Now().Add(time.Minute))

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.Empty(t, rl.limiters)
}

func TestRateLimit_NilDisables(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(nil))
	r.GET("/", ok)

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/districts", ok)

	serve(r, httptest.NewRequest(http.MethodGet, "/districts", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/nope", nil))

	count, err := testutil.GatherAndCount(reg, "cropadvisor_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

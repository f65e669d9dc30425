package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventreg/pkg/logger"
)

func testConfig() *Config {
	return &Config{
		Enabled:          true,
		WindowDuration:   time.Minute,
		DefaultRequests:  60,
		PublicRequests:   100,
		RegisterRequests: 10,
		VerifyRequests:   20,
		HealthRequests:   300,
		WhitelistedIPs:   []string{"10.0.0.1"},
	}
}

func TestGetRateLimitType(t *testing.T) {
	tests := map[string]RateLimitType{
		"/health":              RateLimitTypeHealth,
		"/ping":                RateLimitTypeHealth,
		"/register":            RateLimitTypeRegister,
		"/verify/:token":       RateLimitTypeVerify,
		"/verify_email/:email": RateLimitTypePublic,
		"/verify_limits":       RateLimitTypePublic,
		"/something-else":      RateLimitTypeDefault,
		"":                     RateLimitTypeDefault,
	}

	for path, want := range tests {
		assert.Equal(t, want, getRateLimitType(path), path)
	}
}

func TestGetLimit(t *testing.T) {
	limiter := NewRateLimiter(nil, testConfig())

	assert.Equal(t, 10, limiter.getLimit(RateLimitTypeRegister))
	assert.Equal(t, 20, limiter.getLimit(RateLimitTypeVerify))
	assert.Equal(t, 100, limiter.getLimit(RateLimitTypePublic))
	assert.Equal(t, 300, limiter.getLimit(RateLimitTypeHealth))
	assert.Equal(t, 60, limiter.getLimit("unknown"))
}

func TestIsAllowed_BypassesRedis(t *testing.T) {
	ctx := context.Background()

	disabled := testConfig()
	disabled.Enabled = false
	result, err := NewRateLimiter(nil, disabled).IsAllowed(ctx, "1.2.3.4", RateLimitTypeRegister)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, 10, result.Remaining)

	result, err = NewRateLimiter(nil, testConfig()).IsAllowed(ctx, "10.0.0.1", RateLimitTypeRegister)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestGetClientIP(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded first hop", map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.2"}, "10.0.0.3:1234", "203.0.113.9"},
		{"invalid forwarded falls through", map[string]string{"X-Forwarded-For": "junk", "X-Real-IP": "198.51.100.7"}, "10.0.0.3:1234", "198.51.100.7"},
		{"remote addr", nil, "192.0.2.1:5555", "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Request.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				c.Request.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(c))
		})
	}
}

func TestMiddleware_SetsHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	cfg.Enabled = false

	router := gin.New()
	router.Use(Middleware(NewRateLimiter(nil, cfg), logger.Discard()))
	router.POST("/register", func(c *gin.Context) { c.Status(http.StatusCreated) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/register", nil))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "10", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "10", w.Header().Get("X-RateLimit-Remaining"))
}

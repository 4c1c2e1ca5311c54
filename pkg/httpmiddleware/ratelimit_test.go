package httpmiddleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func limited(max int, opts ...func(*RateLimitConfig)) http.Handler {
	cfg := RateLimitConfig{Max: max, Window: time.Minute}
	for _, opt := range opts {
		opt(&cfg)
	}
	return RateLimit(cfg)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

// hit issues one request from addr, with optional header pairs.
func hit(h http.Handler, addr string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = addr
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRateLimit_UnderLimit(t *testing.T) {
	h := limited(5)

	for i := range 5 {
		w := hit(h, "192.168.1.1:12345")
		assert.Equal(t, http.StatusOK, w.Code, "request %d should pass", i+1)
		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
	}
}

func TestRateLimit_OverLimit(t *testing.T) {
	h := limited(2)

	for range 2 {
		require.Equal(t, http.StatusOK, hit(h, "10.0.0.1:9999").Code)
	}

	w := hit(h, "10.0.0.1:9999")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "rate limit exceeded", body["message"])
}

func TestRateLimit_SkipFunc(t *testing.T) {
	h := limited(1, func(cfg *RateLimitConfig) {
		cfg.Skip = func(r *http.Request) bool { return r.URL.Path == "/livez" }
	})

	// Exempt path never counts against the limit and carries no headers.
	for range 5 {
		req := httptest.NewRequest(http.MethodGet, "/livez", nil)
		req.RemoteAddr = "10.0.0.1:1111"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	}

	// Regular paths still do.
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1111").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1:1111").Code)
}

func TestRateLimit_KeysAreIndependent(t *testing.T) {
	h := limited(1)

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1234").Code)
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.2:1234").Code)
	// The port is not part of the key.
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1:5678").Code)
}

func TestRateLimit_CustomKeyFunc(t *testing.T) {
	h := limited(1, func(cfg *RateLimitConfig) {
		cfg.KeyFunc = func(r *http.Request) string { return r.Header.Get("X-API-Key") }
	})

	assert.Equal(t, http.StatusOK, hit(h, "1.1.1.1:1", "X-API-Key", "key-a").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "2.2.2.2:2", "X-API-Key", "key-a").Code)
	assert.Equal(t, http.StatusOK, hit(h, "1.1.1.1:1", "X-API-Key", "key-b").Code)
}

func TestRateLimit_XForwardedFor(t *testing.T) {
	h := limited(1)

	// The first hop of the proxy chain is the key, not RemoteAddr.
	assert.Equal(t, http.StatusOK,
		hit(h, "192.168.1.1:4444", "X-Forwarded-For", "203.0.113.50, 70.41.3.18").Code)
	assert.Equal(t, http.StatusTooManyRequests,
		hit(h, "192.168.1.2:5555", "X-Forwarded-For", "203.0.113.50, 70.41.3.18").Code)
}

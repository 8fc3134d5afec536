package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(3, time.Hour, testLogger())

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("1.2.3.4"), "attempt %d should pass", i+1)
	}
	assert.False(t, rl.Allow("1.2.3.4"), "fourth attempt should be limited")

	// A different key has its own window.
	assert.True(t, rl.Allow("5.6.7.8"))
}

func TestRateLimiterReset(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour, testLogger())

	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))

	rl.Reset("1.2.3.4")
	assert.True(t, rl.Allow("1.2.3.4"))
}

func TestRateLimitMiddlewareResponse(t *testing.T) {
	mw := NewRateLimitMiddleware(NewRateLimiter(1, time.Hour, testLogger()), testLogger())
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	send := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/register", nil)
		r.RemoteAddr = "1.2.3.4:5555"
		mw.Limit(next).ServeHTTP(w, r)
		return w
	}

	assert.Equal(t, http.StatusCreated, send().Code)

	w := send()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "rate_limit_exceeded")
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{
			name:    "x-forwarded-for first hop wins",
			headers: map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"},
			remote:  "127.0.0.1:1234",
			want:    "10.0.0.1",
		},
		{
			name:    "x-real-ip fallback",
			headers: map[string]string{"X-Real-IP": "10.0.0.3"},
			remote:  "127.0.0.1:1234",
			want:    "10.0.0.3",
		},
		{
			name:   "remote addr fallback strips port",
			remote: "192.168.1.9:4321",
			want:   "192.168.1.9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(r))
		})
	}
}

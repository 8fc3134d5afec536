package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecurityHeaders(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	t.Run("development", func(t *testing.T) {
		w := httptest.NewRecorder()
		NewSecurityHeadersMiddleware(false).Handler(next).
			ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "strict-origin-when-cross-origin", w.Header().Get("Referrer-Policy"))
		assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
		assert.Contains(t, w.Header().Get("Content-Security-Policy"), "default-src 'none'")
	})

	t.Run("production enables HSTS", func(t *testing.T) {
		w := httptest.NewRecorder()
		NewSecurityHeadersMiddleware(true).Handler(next).
			ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Contains(t, w.Header().Get("Strict-Transport-Security"), "max-age=31536000")
	})
}

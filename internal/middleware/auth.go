// Package middleware contains HTTP middleware for the API server.
//
// Middleware functions follow the standard Go pattern of wrapping http.Handler.
// They are designed to be composed using a middleware stack approach.
package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/leadgrid/leadgrid/internal/handler"
	"github.com/leadgrid/leadgrid/internal/service"
)

// AuthMiddleware authenticates API requests with a Bearer API key.
type AuthMiddleware struct {
	tenants service.TenantService
	logger  *slog.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware instance.
func NewAuthMiddleware(tenants service.TenantService, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		tenants: tenants,
		logger:  logger,
	}
}

// RequireTenant is middleware that requires a valid API key.
//
// This middleware:
// 1. Reads the Authorization header (format: "Bearer lg_<hex>")
// 2. Resolves the key to a tenant
// 3. Stores the tenant in the request context
// 4. Returns 401 when the key is missing or unknown
//
// The tenant can be retrieved in handlers using:
//
//	tenant := handler.TenantFromContext(r.Context())
func (m *AuthMiddleware) RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, ok := bearerToken(r)
		if !ok {
			handler.UnauthorizedResponse(w, r, m.logger)
			return
		}

		tenant, err := m.tenants.GetByAPIKey(r.Context(), key)
		if err != nil {
			handler.ErrorResponse(w, r, m.logger, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(handler.ContextWithTenant(r.Context(), tenant)))
	})
}

// bearerToken extracts the Bearer token from the Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) <= len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(auth[len(prefix):])
	return token, token != ""
}

// Stack composes multiple middleware functions into a single middleware.
//
// Middleware is applied in the order provided, meaning the first middleware
// in the slice is the outermost (runs first on request, last on response).
//
// Example:
//
//	stack := Stack(loggingMw, authMw.RequireTenant)
//	mux.Handle("GET /api/leads", stack(listLeadsHandler))
func Stack(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// Ensure middleware functions have the correct signature
var _ func(http.Handler) http.Handler = (&AuthMiddleware{}).RequireTenant

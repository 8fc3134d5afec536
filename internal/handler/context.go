package handler

import (
	"context"
	"net/http"

	"github.com/leadgrid/leadgrid/internal/domain"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// tenantContextKey stores the authenticated tenant, set by the auth
// middleware. Use TenantFromContext to retrieve it.
const tenantContextKey contextKey = "tenant"

// ContextWithTenant stores the authenticated tenant in the context.
func ContextWithTenant(ctx context.Context, tenant *domain.Tenant) context.Context {
	return context.WithValue(ctx, tenantContextKey, tenant)
}

// TenantFromContext retrieves the authenticated tenant from the context.
// Returns nil if no tenant is authenticated.
func TenantFromContext(ctx context.Context) *domain.Tenant {
	tenant, ok := ctx.Value(tenantContextKey).(*domain.Tenant)
	if !ok {
		return nil
	}
	return tenant
}

// tenantFromContext is shorthand for handlers working with a request.
func tenantFromContext(r *http.Request) *domain.Tenant {
	return TenantFromContext(r.Context())
}

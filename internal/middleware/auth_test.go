package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadgrid/leadgrid/internal/domain"
	"github.com/leadgrid/leadgrid/internal/handler"
	"github.com/leadgrid/leadgrid/internal/service"
)

// stubTenants resolves one known API key.
type stubTenants struct {
	service.TenantService

	key    string
	tenant *domain.Tenant
}

func (s stubTenants) GetByAPIKey(_ context.Context, key string) (*domain.Tenant, error) {
	if key == s.key {
		return s.tenant, nil
	}
	return nil, domain.Unauthorized("tenant.get_by_api_key", "invalid API key")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRequireTenant(t *testing.T) {
	tenant := &domain.Tenant{ID: 42, Email: "owner@example.com"}
	mw := NewAuthMiddleware(stubTenants{key: "lg_good", tenant: tenant}, testLogger())

	var got *domain.Tenant
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = handler.TenantFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
		wantTenant bool
	}{
		{name: "valid key", authHeader: "Bearer lg_good", wantStatus: http.StatusOK, wantTenant: true},
		{name: "case-insensitive scheme", authHeader: "bearer lg_good", wantStatus: http.StatusOK, wantTenant: true},
		{name: "unknown key", authHeader: "Bearer lg_bad", wantStatus: http.StatusUnauthorized},
		{name: "missing header", authHeader: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", authHeader: "Basic lg_good", wantStatus: http.StatusUnauthorized},
		{name: "empty token", authHeader: "Bearer ", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got = nil
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/api/leads", nil)
			if tt.authHeader != "" {
				r.Header.Set("Authorization", tt.authHeader)
			}

			mw.RequireTenant(next).ServeHTTP(w, r)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantTenant {
				require.NotNil(t, got)
				assert.Equal(t, tenant.ID, got.ID)
			} else {
				assert.Nil(t, got)
			}
		})
	}
}

func TestStackOrdering(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	stack := Stack(mark("outer"), mark("inner"))
	stack(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

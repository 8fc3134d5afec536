// Package handler contains HTTP handlers for the LeadGrid API.
//
// Handlers decode JSON requests, call services, and encode JSON responses.
// Business rules live in the service layer; handlers stay thin.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/leadgrid/leadgrid/internal/domain"
	"github.com/leadgrid/leadgrid/internal/service"
)

// TenantHandler handles registration and account endpoints.
type TenantHandler struct {
	tenants service.TenantService
	logger  *slog.Logger
}

// NewTenantHandler creates a new TenantHandler.
func NewTenantHandler(tenants service.TenantService, logger *slog.Logger) *TenantHandler {
	return &TenantHandler{tenants: tenants, logger: logger}
}

// registerRequest is the registration payload.
type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// registerResponse returns the new account and its API key. The raw key is
// shown exactly once; only a hash is stored.
type registerResponse struct {
	Tenant tenantPayload `json:"tenant"`
	APIKey string        `json:"api_key"`
}

// tenantPayload is the public view of a tenant.
type tenantPayload struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Plan  string `json:"plan"`
}

// HandleRegister handles POST /api/register.
//
// This route is public and sits behind the registration rate limiter.
func (h *TenantHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	result, err := h.tenants.Register(r.Context(), domain.RegisterTenantParams{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{
		Tenant: tenantView(result.Tenant),
		APIKey: result.APIKey,
	})
}

// HandleMe handles GET /api/me for the authenticated tenant.
func (h *TenantHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromContext(r)
	if tenant == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, tenantView(tenant))
}

func tenantView(t *domain.Tenant) tenantPayload {
	plan := t.Plan
	if plan == "" {
		plan = string(domain.PlanFree)
	}
	return tenantPayload{
		ID:    t.ID,
		Email: t.Email,
		Plan:  plan,
	}
}

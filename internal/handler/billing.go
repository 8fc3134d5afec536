// Billing/subscription management handlers backed by Stripe.
//
// Routes handled:
//   - POST /api/billing/checkout   -> HandleCheckout
//   - POST /api/billing/portal     -> HandlePortal
//   - POST /api/billing/cancel     -> HandleCancel
//   - POST /api/billing/reactivate -> HandleReactivate
//
// Plan changes themselves arrive through the Stripe webhook; these endpoints
// only start the flows.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/leadgrid/leadgrid/internal/billing"
	"github.com/leadgrid/leadgrid/internal/domain"
	"github.com/leadgrid/leadgrid/internal/service"
)

// BillingHandler handles billing and subscription management HTTP requests.
type BillingHandler struct {
	billing billing.Service
	tenants service.TenantService
	logger  *slog.Logger
}

// NewBillingHandler creates a new BillingHandler.
// billingService may be nil when Stripe is not configured (development mode).
func NewBillingHandler(billingService billing.Service, tenants service.TenantService, logger *slog.Logger) *BillingHandler {
	return &BillingHandler{
		billing: billingService,
		tenants: tenants,
		logger:  logger,
	}
}

// checkoutRequest starts a subscription checkout.
type checkoutRequest struct {
	PriceID    string `json:"price_id"`
	SuccessURL string `json:"success_url"`
	CancelURL  string `json:"cancel_url"`
}

// portalRequest opens the billing provider's customer portal.
type portalRequest struct {
	ReturnURL string `json:"return_url"`
}

// redirectResponse carries the URL the client should redirect to.
type redirectResponse struct {
	URL string `json:"url"`
}

// HandleCheckout handles POST /api/billing/checkout.
func (h *BillingHandler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromContext(r)
	if tenant == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}
	if h.billing == nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("billing.checkout", "billing is not configured"))
		return
	}

	var req checkoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if req.PriceID == "" || req.SuccessURL == "" || req.CancelURL == "" {
		ErrorResponse(w, r, h.logger,
			domain.Invalid("billing.checkout", "price_id, success_url, and cancel_url are required"))
		return
	}
	if h.billing.PlanForPriceID(req.PriceID) == "" {
		ErrorResponse(w, r, h.logger, domain.Invalid("billing.checkout", "unknown price_id"))
		return
	}

	customerID := tenant.StripeCustomerID
	if customerID == "" {
		id, err := h.billing.CreateCustomer(tenant.Email)
		if err != nil {
			InternalErrorResponse(w, r, h.logger, err)
			return
		}
		if err := h.tenants.SetStripeCustomerID(r.Context(), tenant.ID, id); err != nil {
			ErrorResponse(w, r, h.logger, err)
			return
		}
		customerID = id
	}

	url, err := h.billing.CreateCheckoutSession(customerID, req.PriceID, req.SuccessURL, req.CancelURL)
	if err != nil {
		InternalErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, redirectResponse{URL: url})
}

// HandlePortal handles POST /api/billing/portal.
func (h *BillingHandler) HandlePortal(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromContext(r)
	if tenant == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}
	if h.billing == nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("billing.portal", "billing is not configured"))
		return
	}

	var req portalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if req.ReturnURL == "" {
		ErrorResponse(w, r, h.logger, domain.Invalid("billing.portal", "return_url is required"))
		return
	}
	if tenant.StripeCustomerID == "" {
		ErrorResponse(w, r, h.logger, domain.Invalid("billing.portal", "tenant has no billing account"))
		return
	}

	url, err := h.billing.CreatePortalSession(tenant.StripeCustomerID, req.ReturnURL)
	if err != nil {
		InternalErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, redirectResponse{URL: url})
}

// HandleCancel handles POST /api/billing/cancel.
//
// The subscription cancels at period end; the webhook downgrades the plan
// when the deletion event arrives.
func (h *BillingHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	h.updateCancelFlag(w, r, true)
}

// HandleReactivate handles POST /api/billing/reactivate.
func (h *BillingHandler) HandleReactivate(w http.ResponseWriter, r *http.Request) {
	h.updateCancelFlag(w, r, false)
}

func (h *BillingHandler) updateCancelFlag(w http.ResponseWriter, r *http.Request, cancel bool) {
	const op = "billing.update_cancel_flag"

	tenant := tenantFromContext(r)
	if tenant == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}
	if h.billing == nil {
		ErrorResponse(w, r, h.logger, domain.Invalid(op, "billing is not configured"))
		return
	}
	if tenant.SubscriptionID == "" {
		ErrorResponse(w, r, h.logger, domain.Invalid(op, "tenant has no active subscription"))
		return
	}

	var err error
	if cancel {
		err = h.billing.CancelSubscription(tenant.SubscriptionID)
	} else {
		err = h.billing.ReactivateSubscription(tenant.SubscriptionID)
	}
	if err != nil {
		InternalErrorResponse(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Stripe webhook handler for processing billing events.
//
// Route:
//   - POST /webhooks/stripe -> HandleStripeWebhook
//
// This route is PUBLIC (no auth middleware) because Stripe calls it directly.
// Authentication is via the Stripe webhook signature verification.
package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/stripe/stripe-go/v79"

	"github.com/leadgrid/leadgrid/internal/billing"
	"github.com/leadgrid/leadgrid/internal/domain"
	"github.com/leadgrid/leadgrid/internal/service"
)

// WebhookHandler handles incoming webhook events from Stripe.
//
// Webhook events are the only write path for a tenant's plan field: the
// quota engine reads whatever plan the last event stored.
type WebhookHandler struct {
	billing billing.Service
	tenants service.TenantService
	logger  *slog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
// billingService may be nil when Stripe is not configured.
func NewWebhookHandler(billingService billing.Service, tenants service.TenantService, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		billing: billingService,
		tenants: tenants,
		logger:  logger,
	}
}

// HandleStripeWebhook processes incoming Stripe webhook events.
func (h *WebhookHandler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	if h.billing == nil {
		h.logger.Warn("stripe webhook received but billing is not configured")
		w.WriteHeader(http.StatusOK)
		return
	}

	// Read body (limit to 64KB)
	body, err := io.ReadAll(io.LimitReader(r.Body, 65536))
	if err != nil {
		h.logger.Error("failed to read webhook body", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	// Verify signature
	signature := r.Header.Get("Stripe-Signature")
	event, err := h.billing.VerifyWebhookSignature(body, signature)
	if err != nil {
		h.logger.Warn("webhook signature verification failed", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	h.logger.Info("stripe webhook received", "type", event.Type, "id", event.ID)

	ctx := r.Context()

	// Route to event-specific handler. Unrecognized events are acknowledged
	// so Stripe does not retry them.
	switch event.Type {
	case "checkout.session.completed":
		h.handleCheckoutCompleted(ctx, event)
	case "customer.subscription.created", "customer.subscription.updated":
		h.handleSubscriptionChanged(ctx, event)
	case "customer.subscription.deleted":
		h.handleSubscriptionDeleted(ctx, event)
	case "invoice.payment_succeeded":
		h.handlePaymentSucceeded(ctx, event)
	case "invoice.payment_failed":
		h.handlePaymentFailed(ctx, event)
	default:
		h.logger.Debug("unhandled webhook event type", "type", event.Type)
	}

	w.WriteHeader(http.StatusOK)
}

func (h *WebhookHandler) handleCheckoutCompleted(ctx context.Context, event stripe.Event) {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		h.logger.Error("failed to parse checkout session", "error", err)
		return
	}

	if session.Customer == nil || session.Subscription == nil {
		h.logger.Warn("checkout session missing customer or subscription", "session_id", session.ID)
		return
	}

	tenant, err := h.tenants.GetByStripeCustomerID(ctx, session.Customer.ID)
	if err != nil {
		// The subscription.created event carries the price and will complete
		// the plan update once the customer is linked.
		h.logger.Info("tenant not found by customer ID, awaiting subscription event",
			"customer_id", session.Customer.ID, "subscription_id", session.Subscription.ID)
		return
	}

	if err := h.tenants.UpdateSubscription(ctx, service.UpdateSubscriptionParams{
		TenantID:       tenant.ID,
		Plan:           domain.PlanID(tenant.Plan),
		BillingPriceID: tenant.BillingPriceID,
		Status:         domain.SubscriptionStatusActive,
		SubscriptionID: session.Subscription.ID,
	}); err != nil {
		h.logger.Error("failed to update subscription on checkout", "error", err, "tenant_id", tenant.ID)
	}
}

// handleSubscriptionChanged stores the plan derived from the subscription's
// price. The stored plan takes priority over price mapping on every
// subsequent quota check.
func (h *WebhookHandler) handleSubscriptionChanged(ctx context.Context, event stripe.Event) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		h.logger.Error("failed to parse subscription event", "error", err)
		return
	}

	if sub.Customer == nil {
		h.logger.Warn("subscription event missing customer", "subscription_id", sub.ID)
		return
	}

	tenant, err := h.tenants.GetByStripeCustomerID(ctx, sub.Customer.ID)
	if err != nil {
		h.logger.Warn("tenant not found for subscription event",
			"customer_id", sub.Customer.ID, "subscription_id", sub.ID)
		return
	}

	priceID := ""
	if len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		priceID = sub.Items.Data[0].Price.ID
	}
	plan := h.billing.PlanForPriceID(priceID)
	if plan == "" {
		h.logger.Warn("subscription price has no plan mapping",
			"price_id", priceID, "tenant_id", tenant.ID)
	}

	status := domain.SubscriptionStatus(sub.Status)
	if err := h.tenants.UpdateSubscription(ctx, service.UpdateSubscriptionParams{
		TenantID:       tenant.ID,
		Plan:           plan,
		BillingPriceID: priceID,
		Status:         status,
		SubscriptionID: sub.ID,
	}); err != nil {
		h.logger.Error("failed to update subscription", "error", err, "tenant_id", tenant.ID)
		return
	}

	h.logger.Info("subscription event processed",
		"tenant_id", tenant.ID, "status", status, "plan", plan)
}

// handleSubscriptionDeleted downgrades the tenant to the free plan.
func (h *WebhookHandler) handleSubscriptionDeleted(ctx context.Context, event stripe.Event) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		h.logger.Error("failed to parse subscription deleted event", "error", err)
		return
	}

	if sub.Customer == nil {
		h.logger.Warn("subscription deleted event missing customer", "subscription_id", sub.ID)
		return
	}

	tenant, err := h.tenants.GetByStripeCustomerID(ctx, sub.Customer.ID)
	if err != nil {
		h.logger.Warn("tenant not found for subscription deletion", "customer_id", sub.Customer.ID)
		return
	}

	if err := h.tenants.UpdateSubscription(ctx, service.UpdateSubscriptionParams{
		TenantID:       tenant.ID,
		Plan:           domain.PlanFree,
		BillingPriceID: "",
		Status:         domain.SubscriptionStatusCanceled,
		SubscriptionID: "",
	}); err != nil {
		h.logger.Error("failed to downgrade tenant", "error", err, "tenant_id", tenant.ID)
		return
	}

	h.logger.Info("subscription deleted, tenant downgraded to free",
		"tenant_id", tenant.ID, "subscription_id", sub.ID)
}

func (h *WebhookHandler) handlePaymentSucceeded(ctx context.Context, event stripe.Event) {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		h.logger.Error("failed to parse invoice payment succeeded event", "error", err)
		return
	}

	if invoice.Customer == nil {
		return
	}

	tenant, err := h.tenants.GetByStripeCustomerID(ctx, invoice.Customer.ID)
	if err != nil {
		h.logger.Debug("tenant not found for payment succeeded", "customer_id", invoice.Customer.ID)
		return
	}

	// Recovery from past_due keeps the existing plan.
	if tenant.SubscriptionStatus != domain.SubscriptionStatusActive {
		if err := h.tenants.UpdateSubscription(ctx, service.UpdateSubscriptionParams{
			TenantID:       tenant.ID,
			Plan:           domain.PlanID(tenant.Plan),
			BillingPriceID: tenant.BillingPriceID,
			Status:         domain.SubscriptionStatusActive,
			SubscriptionID: tenant.SubscriptionID,
		}); err != nil {
			h.logger.Error("failed to reactivate on payment success", "error", err, "tenant_id", tenant.ID)
		}
	}
}

func (h *WebhookHandler) handlePaymentFailed(ctx context.Context, event stripe.Event) {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		h.logger.Error("failed to parse invoice payment failed event", "error", err)
		return
	}

	if invoice.Customer == nil {
		return
	}

	tenant, err := h.tenants.GetByStripeCustomerID(ctx, invoice.Customer.ID)
	if err != nil {
		h.logger.Debug("tenant not found for payment failed", "customer_id", invoice.Customer.ID)
		return
	}

	// past_due does not revoke the plan; enforcement keeps honoring it until
	// the subscription is actually deleted.
	if err := h.tenants.UpdateSubscription(ctx, service.UpdateSubscriptionParams{
		TenantID:       tenant.ID,
		Plan:           domain.PlanID(tenant.Plan),
		BillingPriceID: tenant.BillingPriceID,
		Status:         domain.SubscriptionStatusPastDue,
		SubscriptionID: tenant.SubscriptionID,
	}); err != nil {
		h.logger.Error("failed to set past_due on payment failure", "error", err, "tenant_id", tenant.ID)
		return
	}

	h.logger.Warn("payment failed", "tenant_id", tenant.ID, "customer_id", invoice.Customer.ID)
}

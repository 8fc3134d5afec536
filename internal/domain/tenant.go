// Package domain contains core business types and interfaces.
//
// This file defines the Tenant domain type. A tenant is an account whose
// usage and plan are tracked independently of all others; it is identified
// by a stable lower-cased email and owns exactly one effective plan at any
// instant. The plan field is only mutated by the billing webhook write path
// or administrative action.
package domain

import "time"

// SubscriptionStatus represents the billing state of a tenant.
type SubscriptionStatus string

const (
	SubscriptionStatusInactive SubscriptionStatus = "inactive"
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
)

// Tenant represents a registered account.
type Tenant struct {
	ID    int64
	Email string

	// Plan is the stored plan identifier. Empty means "not set"; resolution
	// then falls through to the billing price id and finally the free plan.
	Plan string

	// BillingPriceID is the billing provider's price identifier for the
	// tenant's current subscription, if any.
	BillingPriceID string

	// StripeCustomerID links the tenant to the billing provider.
	StripeCustomerID string

	SubscriptionStatus SubscriptionStatus
	SubscriptionID     string

	PasswordHash string // Never expose in API responses
	APIKeyHash   string // SHA-256 of the raw API key

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasStoredPlan reports whether the tenant carries an explicit plan field.
func (t *Tenant) HasStoredPlan() bool {
	return t.Plan != ""
}

// IsActive reports whether the tenant's subscription is in good standing.
// Free-plan tenants are always considered active.
func (t *Tenant) IsActive() bool {
	return t.SubscriptionStatus == SubscriptionStatusActive || t.SubscriptionID == ""
}

// RegisterTenantParams contains the validated parameters for registration.
type RegisterTenantParams struct {
	Email    string
	Password string // Raw password, hashed by the service
}

// RegisterTenantResult is returned once at registration; the raw API key is
// never recoverable afterward.
type RegisterTenantResult struct {
	Tenant *Tenant
	APIKey string
}

package repository

import (
	"context"
	"database/sql"
	"time"
)

// Tenant is the database representation of a tenant row.
type Tenant struct {
	ID                 int64
	Email              string
	Plan               string
	BillingPriceID     string
	StripeCustomerID   string
	SubscriptionStatus string
	SubscriptionID     string
	PasswordHash       string
	APIKeyHash         string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

const tenantColumns = `
id, email, plan, billing_price_id, stripe_customer_id,
subscription_status, subscription_id, password_hash, api_key_hash,
created_at, updated_at
`

func scanTenant(row *sql.Row) (Tenant, error) {
	var t Tenant
	err := row.Scan(
		&t.ID, &t.Email, &t.Plan, &t.BillingPriceID, &t.StripeCustomerID,
		&t.SubscriptionStatus, &t.SubscriptionID, &t.PasswordHash, &t.APIKeyHash,
		&t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

const createTenant = `
INSERT INTO tenants (email, password_hash, api_key_hash, subscription_status)
VALUES ($1, $2, $3, 'inactive')
RETURNING ` + tenantColumns

// CreateTenantParams are the inputs for CreateTenant.
type CreateTenantParams struct {
	Email        string
	PasswordHash string
	APIKeyHash   string
}

// CreateTenant inserts a new tenant. The email must already be lower-cased
// by the caller; uniqueness is enforced by the database.
func (q *Queries) CreateTenant(ctx context.Context, arg CreateTenantParams) (Tenant, error) {
	row := q.db.QueryRowContext(ctx, createTenant, arg.Email, arg.PasswordHash, arg.APIKeyHash)
	return scanTenant(row)
}

const getTenantByID = `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`

func (q *Queries) GetTenantByID(ctx context.Context, id int64) (Tenant, error) {
	return scanTenant(q.db.QueryRowContext(ctx, getTenantByID, id))
}

const getTenantByAPIKeyHash = `SELECT ` + tenantColumns + ` FROM tenants WHERE api_key_hash = $1`

func (q *Queries) GetTenantByAPIKeyHash(ctx context.Context, hash string) (Tenant, error) {
	return scanTenant(q.db.QueryRowContext(ctx, getTenantByAPIKeyHash, hash))
}

const getTenantByStripeCustomerID = `SELECT ` + tenantColumns + ` FROM tenants WHERE stripe_customer_id = $1`

func (q *Queries) GetTenantByStripeCustomerID(ctx context.Context, customerID string) (Tenant, error) {
	return scanTenant(q.db.QueryRowContext(ctx, getTenantByStripeCustomerID, customerID))
}

const updateTenantSubscription = `
UPDATE tenants
SET plan = $2,
    billing_price_id = $3,
    subscription_status = $4,
    subscription_id = $5,
    updated_at = now()
WHERE id = $1
`

// UpdateTenantSubscriptionParams are the inputs for UpdateTenantSubscription.
type UpdateTenantSubscriptionParams struct {
	ID                 int64
	Plan               string
	BillingPriceID     string
	SubscriptionStatus string
	SubscriptionID     string
}

// UpdateTenantSubscription is the billing webhook's write path for plan
// changes. Resolution is uncached, so the new plan takes effect on the next
// request.
func (q *Queries) UpdateTenantSubscription(ctx context.Context, arg UpdateTenantSubscriptionParams) error {
	res, err := q.db.ExecContext(ctx, updateTenantSubscription,
		arg.ID, arg.Plan, arg.BillingPriceID, arg.SubscriptionStatus, arg.SubscriptionID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

const setTenantStripeCustomerID = `
UPDATE tenants SET stripe_customer_id = $2, updated_at = now() WHERE id = $1
`

func (q *Queries) SetTenantStripeCustomerID(ctx context.Context, id int64, customerID string) error {
	_, err := q.db.ExecContext(ctx, setTenantStripeCustomerID, id, customerID)
	return err
}

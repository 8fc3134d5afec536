// Package service contains the business logic layer.
//
// Services orchestrate interactions between repositories, external APIs,
// and domain logic. They are responsible for:
// - Input validation
// - Business rule enforcement
// - Error translation (database errors -> domain errors)
package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/leadgrid/leadgrid/internal/domain"
	"github.com/leadgrid/leadgrid/internal/repository"
)

const (
	// BcryptCost is the cost factor for bcrypt password hashing.
	// Cost 12 provides good security while being fast enough for login flows.
	BcryptCost = 12

	// APIKeyBytes is the number of random bytes for API keys.
	// 32 bytes = 256 bits of entropy, hex-encoded to 64 characters.
	APIKeyBytes = 32

	// MinPasswordLength is the minimum password length.
	MinPasswordLength = 8

	// MaxPasswordLength prevents DoS via bcrypt on very long passwords.
	// bcrypt has a 72-byte limit anyway, but we cap earlier for clarity.
	MaxPasswordLength = 72
)

// TenantService defines the interface for tenant account operations.
type TenantService interface {
	// Register creates a new tenant account and issues its API key.
	// The raw key is returned exactly once; only its hash is stored.
	// Returns domain.ECONFLICT if the email already exists.
	Register(ctx context.Context, params domain.RegisterTenantParams) (*domain.RegisterTenantResult, error)

	// GetByID retrieves a tenant by id.
	// Returns domain.ENOTFOUND if the tenant does not exist.
	GetByID(ctx context.Context, id int64) (*domain.Tenant, error)

	// GetByAPIKey authenticates a raw API key.
	// Returns domain.EUNAUTHORIZED for unknown keys.
	GetByAPIKey(ctx context.Context, key string) (*domain.Tenant, error)

	// GetByStripeCustomerID looks up the tenant linked to a billing customer.
	GetByStripeCustomerID(ctx context.Context, customerID string) (*domain.Tenant, error)

	// UpdateSubscription is the billing webhook's write path: it stores the
	// new plan, price id, and subscription state on the tenant row.
	UpdateSubscription(ctx context.Context, params UpdateSubscriptionParams) error

	// SetStripeCustomerID links the tenant to a billing customer. Called once
	// when the first checkout session is created.
	SetStripeCustomerID(ctx context.Context, tenantID int64, customerID string) error
}

// UpdateSubscriptionParams describe a plan change from the billing provider.
type UpdateSubscriptionParams struct {
	TenantID       int64
	Plan           domain.PlanID
	BillingPriceID string
	Status         domain.SubscriptionStatus
	SubscriptionID string
}

type tenantService struct {
	queries *repository.Queries
	logger  *slog.Logger
}

// NewTenantService creates a new tenant service.
func NewTenantService(queries *repository.Queries, logger *slog.Logger) TenantService {
	return &tenantService{queries: queries, logger: logger}
}

func (s *tenantService) Register(ctx context.Context, params domain.RegisterTenantParams) (*domain.RegisterTenantResult, error) {
	const op = "tenant.register"

	email := strings.ToLower(strings.TrimSpace(params.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.Invalid(op, "a valid email address is required")
	}
	if len(params.Password) < MinPasswordLength {
		return nil, domain.Invalid(op, "password must be at least 8 characters")
	}
	if len(params.Password) > MaxPasswordLength {
		return nil, domain.Invalid(op, "password must be at most 72 characters")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(params.Password), BcryptCost)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to hash password")
	}

	rawKey, keyHash, err := generateAPIKey()
	if err != nil {
		return nil, domain.Internal(err, op, "failed to generate API key")
	}

	row, err := s.queries.CreateTenant(ctx, repository.CreateTenantParams{
		Email:        email,
		PasswordHash: string(passwordHash),
		APIKeyHash:   keyHash,
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, domain.Conflict(op, "an account with this email already exists")
		}
		return nil, domain.Internal(err, op, "failed to create tenant")
	}

	tenant := tenantFromRow(row)
	s.logger.Info("Tenant registered", "tenant_id", tenant.ID, "email", tenant.Email)

	return &domain.RegisterTenantResult{Tenant: tenant, APIKey: rawKey}, nil
}

func (s *tenantService) GetByID(ctx context.Context, id int64) (*domain.Tenant, error) {
	const op = "tenant.get_by_id"

	row, err := s.queries.GetTenantByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "tenant", formatID(id))
		}
		return nil, domain.Internal(err, op, "failed to load tenant")
	}
	return tenantFromRow(row), nil
}

func (s *tenantService) GetByAPIKey(ctx context.Context, key string) (*domain.Tenant, error) {
	const op = "tenant.get_by_api_key"

	key = strings.TrimSpace(key)
	if key == "" {
		return nil, domain.Unauthorized(op, "API key required")
	}

	row, err := s.queries.GetTenantByAPIKeyHash(ctx, hashAPIKey(key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.Unauthorized(op, "invalid API key")
		}
		return nil, domain.Internal(err, op, "failed to look up API key")
	}
	return tenantFromRow(row), nil
}

func (s *tenantService) GetByStripeCustomerID(ctx context.Context, customerID string) (*domain.Tenant, error) {
	const op = "tenant.get_by_stripe_customer"

	row, err := s.queries.GetTenantByStripeCustomerID(ctx, customerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "tenant", customerID)
		}
		return nil, domain.Internal(err, op, "failed to look up tenant")
	}
	return tenantFromRow(row), nil
}

func (s *tenantService) UpdateSubscription(ctx context.Context, params UpdateSubscriptionParams) error {
	const op = "tenant.update_subscription"

	err := s.queries.UpdateTenantSubscription(ctx, repository.UpdateTenantSubscriptionParams{
		ID:                 params.TenantID,
		Plan:               string(params.Plan),
		BillingPriceID:     params.BillingPriceID,
		SubscriptionStatus: string(params.Status),
		SubscriptionID:     params.SubscriptionID,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound(op, "tenant", formatID(params.TenantID))
		}
		return domain.Internal(err, op, "failed to update subscription")
	}

	s.logger.Info("Tenant subscription updated",
		"tenant_id", params.TenantID, "plan", params.Plan, "status", params.Status)
	return nil
}

func (s *tenantService) SetStripeCustomerID(ctx context.Context, tenantID int64, customerID string) error {
	const op = "tenant.set_stripe_customer"

	if err := s.queries.SetTenantStripeCustomerID(ctx, tenantID, customerID); err != nil {
		return domain.Internal(err, op, "failed to link billing customer")
	}
	s.logger.Info("Tenant linked to billing customer",
		"tenant_id", tenantID, "customer_id", customerID)
	return nil
}

// generateAPIKey returns a fresh raw key and its storage hash.
func generateAPIKey() (raw, hash string, err error) {
	buf := make([]byte, APIKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	raw = "lg_" + hex.EncodeToString(buf)
	return raw, hashAPIKey(raw), nil
}

// hashAPIKey hashes a raw API key for storage and lookup. Keys carry enough
// entropy that an unsalted hash is sufficient.
func hashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func tenantFromRow(row repository.Tenant) *domain.Tenant {
	return &domain.Tenant{
		ID:                 row.ID,
		Email:              row.Email,
		Plan:               row.Plan,
		BillingPriceID:     row.BillingPriceID,
		StripeCustomerID:   row.StripeCustomerID,
		SubscriptionStatus: domain.SubscriptionStatus(row.SubscriptionStatus),
		SubscriptionID:     row.SubscriptionID,
		PasswordHash:       row.PasswordHash,
		APIKeyHash:         row.APIKeyHash,
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
	}
}

package ai

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Provider defines the interface for AI-powered outreach generation
type Provider interface {
	// GenerateOutreach writes a short cold-outreach message for a lead
	GenerateOutreach(ctx context.Context, params OutreachParams) (*OutreachResult, error)
}

// OutreachParams contains parameters for outreach generation
type OutreachParams struct {
	BusinessName string // Lead's business name
	Domain       string // Lead's website domain
	Niche        string // The niche the lead was found under
	Geo          string // The lead's locality
	SenderName   string // Who the message is from
	Tone         Tone   // Desired tone of voice
	TenantID     int64  // Tenant ID for usage tracking
	LeadID       int64  // Lead ID for usage tracking
}

// OutreachResult contains the generated message
type OutreachResult struct {
	Message string    // The outreach message body
	Subject string    // Suggested email subject line
	Usage   UsageInfo // Token usage and cost information
}

// UsageInfo tracks API usage for billing and monitoring
type UsageInfo struct {
	Model        string        // AI model used
	InputTokens  int           // Tokens in the request
	OutputTokens int           // Tokens in the response
	CostCents    int           // Estimated cost in cents
	Duration     time.Duration // Request duration
}

// Tone of voice for generated messages
type Tone string

const (
	ToneProfessional Tone = "professional"
	ToneFriendly     Tone = "friendly"
	ToneDirect       Tone = "direct"
)

// Valid checks if the tone is valid
func (t Tone) Valid() bool {
	switch t {
	case ToneProfessional, ToneFriendly, ToneDirect:
		return true
	default:
		return false
	}
}

// ProviderConfig contains common configuration for AI providers
type ProviderConfig struct {
	MaxRetries     int           // Maximum retry attempts for transient errors
	RetryBaseDelay time.Duration // Base delay for exponential backoff
	RequestTimeout time.Duration // Timeout for individual requests
}

// Error codes for AI provider operations
var (
	// EAIRateLimit indicates the API rate limit has been exceeded
	EAIRateLimit = errors.New("ai provider rate limit exceeded")

	// EAIContentPolicy indicates the request violates content policy
	EAIContentPolicy = errors.New("request violates content policy")

	// EAITimeout indicates the request timed out
	EAITimeout = errors.New("ai request timed out")

	// EAIUnavailable indicates the AI service is temporarily unavailable
	EAIUnavailable = errors.New("ai service temporarily unavailable")

	// EAIUnauthorized indicates invalid API credentials
	EAIUnauthorized = errors.New("ai provider authentication failed")
)

// IsRetryable returns true if the error is a transient error that can be retried
func IsRetryable(err error) bool {
	return errors.Is(err, EAIRateLimit) ||
		errors.Is(err, EAITimeout) ||
		errors.Is(err, EAIUnavailable)
}

// WrapError wraps an error with context about the AI operation
func WrapError(operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("ai %s: %w", operation, err)
}

package mock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/leadgrid/leadgrid/internal/ai"
)

// Provider is a mock AI provider for testing and development
type Provider struct {
	logger *slog.Logger

	// Configurable responses for testing
	GenerateOutreachResponse *ai.OutreachResult
	GenerateOutreachError    error

	// Call tracking for testing
	GenerateOutreachCalls int
}

// New creates a new mock AI provider
func New(logger *slog.Logger) *Provider {
	return &Provider{
		logger: logger,
	}
}

// GenerateOutreach returns a canned outreach message derived from the lead
func (p *Provider) GenerateOutreach(ctx context.Context, params ai.OutreachParams) (*ai.OutreachResult, error) {
	p.GenerateOutreachCalls++

	// If a custom response or error is set, use it
	if p.GenerateOutreachError != nil {
		return nil, p.GenerateOutreachError
	}
	if p.GenerateOutreachResponse != nil {
		return p.GenerateOutreachResponse, nil
	}

	sender := params.SenderName
	if sender == "" {
		sender = "The LeadGrid Team"
	}

	return &ai.OutreachResult{
		Subject: fmt.Sprintf("Quick question about %s", params.BusinessName),
		Message: fmt.Sprintf(
			"Hi %s team,\n\nI came across %s while researching %s businesses in %s and noticed a few things on your site worth a conversation. Would you be open to a 15-minute call this week?\n\nBest,\n%s",
			params.BusinessName, params.Domain, params.Niche, params.Geo, sender),
		Usage: ai.UsageInfo{
			Model:        "mock-ai-v1",
			InputTokens:  320,
			OutputTokens: 95,
			CostCents:    1,
			Duration:     50 * time.Millisecond,
		},
	}, nil
}

// Reset clears call counters and custom responses for testing
func (p *Provider) Reset() {
	p.GenerateOutreachCalls = 0
	p.GenerateOutreachResponse = nil
	p.GenerateOutreachError = nil
}

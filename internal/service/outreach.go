package service

import (
	"context"
	"log/slog"

	"github.com/leadgrid/leadgrid/internal/ai"
	"github.com/leadgrid/leadgrid/internal/domain"
	"github.com/leadgrid/leadgrid/internal/metrics"
)

// OutreachService generates AI cold-outreach messages for saved leads,
// gated by the daily AI message quota.
type OutreachService interface {
	// Generate writes an outreach message for one of the tenant's leads.
	// Returns a quota denial when the daily allowance is used up.
	Generate(ctx context.Context, tenant *domain.Tenant, params GenerateOutreachParams) (*domain.OutreachMessage, error)
}

// GenerateOutreachParams describe an outreach request.
type GenerateOutreachParams struct {
	LeadID     int64
	SenderName string
	Tone       ai.Tone
}

type outreachService struct {
	leads    LeadService
	quota    QuotaService
	provider ai.Provider
	logger   *slog.Logger
}

// NewOutreachService creates a new outreach service.
func NewOutreachService(leads LeadService, quota QuotaService, provider ai.Provider, logger *slog.Logger) OutreachService {
	return &outreachService{leads: leads, quota: quota, provider: provider, logger: logger}
}

func (s *outreachService) Generate(ctx context.Context, tenant *domain.Tenant, params GenerateOutreachParams) (*domain.OutreachMessage, error) {
	const op = "outreach.generate"

	if params.Tone != "" && !params.Tone.Valid() {
		return nil, domain.Invalid(op, "unknown tone")
	}

	lead, err := s.leads.GetByID(ctx, tenant, params.LeadID)
	if err != nil {
		return nil, err
	}

	// The quota is consumed before calling the provider; a provider failure
	// after that still counts against the day, matching how the upstream
	// API bills attempts.
	if err := s.quota.ConsumeAIMessage(ctx, tenant); err != nil {
		return nil, err
	}

	result, err := s.provider.GenerateOutreach(ctx, ai.OutreachParams{
		BusinessName: lead.Name,
		Domain:       lead.Domain,
		Niche:        lead.Niche,
		Geo:          lead.Geo,
		SenderName:   params.SenderName,
		Tone:         params.Tone,
		TenantID:     tenant.ID,
		LeadID:       lead.ID,
	})
	if err != nil {
		metrics.OutreachMessages.WithLabelValues("failed").Inc()
		s.logger.Error("Outreach generation failed",
			"tenant_id", tenant.ID, "lead_id", lead.ID, "error", err)
		return nil, domain.Internal(err, op, "failed to generate outreach message")
	}

	metrics.OutreachMessages.WithLabelValues("generated").Inc()
	s.logger.Info("Outreach message generated",
		"tenant_id", tenant.ID, "lead_id", lead.ID,
		"model", result.Usage.Model, "cost_cents", result.Usage.CostCents)

	return &domain.OutreachMessage{
		LeadID:  lead.ID,
		Subject: result.Subject,
		Message: result.Message,
		Model:   result.Usage.Model,
	}, nil
}

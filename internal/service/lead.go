package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/leadgrid/leadgrid/internal/domain"
	"github.com/leadgrid/leadgrid/internal/metrics"
	"github.com/leadgrid/leadgrid/internal/repository"
)

// LeadService defines the interface for lead persistence.
//
// SaveLeads is the single quota-metered write path: manual imports and
// extraction jobs both go through it, so truncation arithmetic lives in
// exactly one place.
type LeadService interface {
	// SaveLeads deduplicates candidates against stored leads, meters the
	// new ones through the search quota, and persists what was granted.
	// Returns a quota denial when the tenant's searches or credits are
	// fully exhausted.
	SaveLeads(ctx context.Context, tenant *domain.Tenant, niche, geo, source string, candidates []domain.NewLead) (*domain.SearchResult, error)

	// GetByID retrieves one of the tenant's leads.
	GetByID(ctx context.Context, tenant *domain.Tenant, id int64) (*domain.Lead, error)

	// List returns all of the tenant's leads, newest first.
	List(ctx context.Context, tenant *domain.Tenant) ([]domain.Lead, error)
}

type leadService struct {
	queries *repository.Queries
	quota   QuotaService
	logger  *slog.Logger
}

// NewLeadService creates a new lead service.
func NewLeadService(queries *repository.Queries, quota QuotaService, logger *slog.Logger) LeadService {
	return &leadService{queries: queries, quota: quota, logger: logger}
}

func (s *leadService) SaveLeads(ctx context.Context, tenant *domain.Tenant, niche, geo, source string, candidates []domain.NewLead) (*domain.SearchResult, error) {
	const op = "lead.save_leads"

	if source != domain.LeadSourceImport && source != domain.LeadSourceExtraction {
		return nil, domain.Invalid(op, "unknown lead source")
	}

	// Split candidates into fresh and already-stored. In-batch duplicates
	// count as duplicates too, not as new leads.
	seen := make(map[string]struct{}, len(candidates))
	fresh := make([]domain.NewLead, 0, len(candidates))
	duplicates := 0

	for _, c := range candidates {
		dom := normalizeDomain(c.Domain)
		if dom == "" {
			continue
		}
		if _, batchDup := seen[dom]; batchDup {
			duplicates++
			continue
		}
		seen[dom] = struct{}{}

		exists, err := s.queries.LeadExists(ctx, tenant.ID, dom)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to check for duplicate lead")
		}
		if exists {
			duplicates++
			continue
		}
		c.Domain = dom
		fresh = append(fresh, c)
	}

	// The quota engine decides how many of the fresh leads may be kept and
	// consumes one search plus the granted credits.
	result, err := s.quota.ConsumeSearch(ctx, tenant, len(fresh), duplicates)
	if err != nil {
		return nil, err
	}

	saved := 0
	for _, c := range fresh[:result.Saved] {
		inserted, err := s.queries.InsertLead(ctx, repository.InsertLeadParams{
			TenantID: tenant.ID,
			Domain:   c.Domain,
			Name:     c.Name,
			Email:    c.Email,
			Phone:    c.Phone,
			Website:  c.Website,
			Niche:    niche,
			Geo:      geo,
			Source:   source,
		})
		if err != nil {
			return nil, domain.Internal(err, op, "failed to save lead")
		}
		if !inserted {
			// Lost a race with a concurrent save for the same domain.
			duplicates++
			continue
		}
		saved++
	}

	if saved != result.Saved {
		result.Saved = saved
		result.Duplicates = duplicates
		result.Discarded = result.Duplicates + result.TruncatedByCap + result.TruncatedByCredits
	}
	metrics.LeadsSaved.Add(float64(saved))

	s.logger.Info("Leads saved",
		"tenant_id", tenant.ID, "source", source,
		"saved", result.Saved, "duplicates", result.Duplicates, "truncated", result.Truncated)
	return result, nil
}

func (s *leadService) GetByID(ctx context.Context, tenant *domain.Tenant, id int64) (*domain.Lead, error) {
	const op = "lead.get_by_id"

	row, err := s.queries.GetLeadByID(ctx, id, tenant.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "lead", formatID(id))
		}
		return nil, domain.Internal(err, op, "failed to load lead")
	}
	lead := leadFromRow(row)
	return &lead, nil
}

func (s *leadService) List(ctx context.Context, tenant *domain.Tenant) ([]domain.Lead, error) {
	const op = "lead.list"

	rows, err := s.queries.ListLeadsByTenant(ctx, tenant.ID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list leads")
	}

	leads := make([]domain.Lead, 0, len(rows))
	for _, row := range rows {
		leads = append(leads, leadFromRow(row))
	}
	return leads, nil
}

// normalizeDomain canonicalizes a lead's domain for deduplication.
func normalizeDomain(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "www.")
	if i := strings.IndexByte(d, '/'); i >= 0 {
		d = d[:i]
	}
	return d
}

func leadFromRow(row repository.Lead) domain.Lead {
	return domain.Lead{
		ID:        row.ID,
		TenantID:  row.TenantID,
		Domain:    row.Domain,
		Name:      row.Name,
		Email:     row.Email,
		Phone:     row.Phone,
		Website:   row.Website,
		Niche:     row.Niche,
		Geo:       row.Geo,
		Source:    row.Source,
		CreatedAt: row.CreatedAt,
	}
}

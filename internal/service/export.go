package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"log/slog"
	"strconv"
	"time"

	"github.com/leadgrid/leadgrid/internal/domain"
	"github.com/leadgrid/leadgrid/internal/metrics"
	"github.com/leadgrid/leadgrid/internal/storage"
)

// ExportURLExpiry is how long a generated download link stays valid.
const ExportURLExpiry = 24 * time.Hour

// ExportService generates CSV exports of a tenant's leads, gated by the
// monthly export quota.
type ExportService interface {
	// ExportLeads writes all of the tenant's leads to object storage as CSV
	// and returns a download URL. Returns a quota denial when the monthly
	// export allowance is used up.
	ExportLeads(ctx context.Context, tenant *domain.Tenant) (*domain.ExportResult, error)
}

type exportService struct {
	leads  LeadService
	quota  QuotaService
	store  storage.Storage
	logger *slog.Logger
}

// NewExportService creates a new export service.
func NewExportService(leads LeadService, quota QuotaService, store storage.Storage, logger *slog.Logger) ExportService {
	return &exportService{leads: leads, quota: quota, store: store, logger: logger}
}

func (s *exportService) ExportLeads(ctx context.Context, tenant *domain.Tenant) (*domain.ExportResult, error) {
	const op = "export.leads"

	// Quota first: an empty export still consumes an export slot.
	if err := s.quota.ConsumeExport(ctx, tenant); err != nil {
		return nil, err
	}

	leads, err := s.leads.List(ctx, tenant)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"id", "domain", "name", "email", "phone", "website", "niche", "geo", "source", "created_at"}); err != nil {
		return nil, domain.Internal(err, op, "failed to write CSV header")
	}
	for _, l := range leads {
		record := []string{
			strconv.FormatInt(l.ID, 10),
			l.Domain,
			l.Name,
			l.Email,
			l.Phone,
			l.Website,
			l.Niche,
			l.Geo,
			l.Source,
			l.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return nil, domain.Internal(err, op, "failed to write CSV row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, domain.Internal(err, op, "failed to flush CSV")
	}

	key := storage.ExportKey(tenant.ID)
	err = s.store.Put(ctx, key, &buf, storage.PutOptions{
		ContentType: storage.ContentTypeCSV,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to store export")
	}

	url, err := s.store.URL(ctx, key, ExportURLExpiry)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to generate download URL")
	}

	metrics.ExportsGenerated.Inc()
	s.logger.Info("Export generated", "tenant_id", tenant.ID, "key", key, "leads", len(leads))

	return &domain.ExportResult{
		Key:       key,
		URL:       url,
		LeadCount: len(leads),
	}, nil
}

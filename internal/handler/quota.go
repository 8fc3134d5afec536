package handler

import (
	"log/slog"
	"net/http"

	"github.com/leadgrid/leadgrid/internal/domain"
	"github.com/leadgrid/leadgrid/internal/service"
)

// QuotaHandler exposes the read-only usage snapshot.
type QuotaHandler struct {
	quota  service.QuotaService
	logger *slog.Logger
}

// NewQuotaHandler creates a new QuotaHandler.
func NewQuotaHandler(quota service.QuotaService, logger *slog.Logger) *QuotaHandler {
	return &QuotaHandler{quota: quota, logger: logger}
}

// HandleSnapshot handles GET /api/quotas.
//
// The snapshot is advisory only: concurrent consumption can change the
// balances before the client acts on them. Enforcement happens at the
// consuming endpoints.
//
// An optional ?metric= query parameter narrows the response to a single
// metric; aliases from older clients are accepted.
func (h *QuotaHandler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromContext(r)
	if tenant == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	snapshot, err := h.quota.Snapshot(r.Context(), tenant)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if name := r.URL.Query().Get("metric"); name != "" {
		metric, ok := domain.ParseMetric(name)
		if !ok {
			ErrorResponse(w, r, h.logger, domain.Invalid("quotas.snapshot", "unknown metric"))
			return
		}
		writeJSON(w, http.StatusOK, filterSnapshot(snapshot, metric))
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

// filterSnapshot reduces a snapshot to a single metric's balances.
func filterSnapshot(snap *domain.QuotaSnapshot, m domain.Metric) *domain.QuotaSnapshot {
	return &domain.QuotaSnapshot{
		Plan:      snap.Plan,
		Limits:    map[domain.Metric]*int{m: snap.Limits[m]},
		Usage:     map[domain.Metric]int{m: snap.Usage[m]},
		Remaining: map[domain.Metric]*int{m: snap.Remaining[m]},
		Meta:      snap.Meta,
	}
}

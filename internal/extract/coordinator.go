package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/leadgrid/leadgrid/internal/domain"
	"github.com/leadgrid/leadgrid/internal/metrics"
	"github.com/leadgrid/leadgrid/internal/period"
	"github.com/leadgrid/leadgrid/internal/scraper"
)

// LeadSink persists a job's unique leads through the quota engine. The
// returned result carries the saved count and truncation flag that end up
// on the job record. Satisfied by service.LeadService.
type LeadSink interface {
	SaveLeads(ctx context.Context, tenant *domain.Tenant, niche, geo, source string, candidates []domain.NewLead) (*domain.SearchResult, error)
}

// PlanResolver supplies the tenant's effective plan, used here only for the
// queue priority. Satisfied by service.PlanResolver.
type PlanResolver interface {
	Resolve(tenant *domain.Tenant) (domain.PlanID, domain.PlanDefinition)
}

// Coordinator runs extraction jobs and deduplicates logically-equivalent
// submissions by request fingerprint. A fingerprint that is still in flight
// is rejected as duplicate_ignored; the check and the reservation happen
// under one lock so two racing submissions can never both start.
type Coordinator struct {
	provider scraper.Provider
	sink     LeadSink
	plans    PlanResolver
	config   Config
	logger   *slog.Logger
	now      period.Clock

	// sem bounds concurrent jobs. Free-tier jobs acquire double weight so
	// paid tenants keep headroom when capacity is contended.
	sem *semaphore.Weighted

	mu       sync.Mutex
	inflight map[string]struct{}
	jobs     map[string]*domain.ExtractionJob

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Coordinator. now may be nil, defaulting to the system clock.
// Start() launches the janitor; Stop() drains running jobs.
func New(provider scraper.Provider, sink LeadSink, plans PlanResolver, config Config, logger *slog.Logger, now period.Clock) (*Coordinator, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if now == nil {
		now = period.SystemClock
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		provider: provider,
		sink:     sink,
		plans:    plans,
		config:   config,
		logger:   logger,
		now:      now,
		sem:      semaphore.NewWeighted(int64(config.MaxConcurrentJobs)),
		inflight: make(map[string]struct{}),
		jobs:     make(map[string]*domain.ExtractionJob),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start launches the janitor that evicts finished job records past their
// retention window.
func (c *Coordinator) Start() {
	c.wg.Add(1)
	go c.runJanitor()
	c.logger.Info("Extraction coordinator started",
		"max_concurrent_jobs", c.config.MaxConcurrentJobs,
		"pages_per_variant", c.config.PagesPerVariant)
}

// Stop cancels running jobs and waits for them to finish.
// It respects the configured ShutdownTimeout.
func (c *Coordinator) Stop() {
	c.logger.Info("Stopping extraction coordinator...")
	c.cancel()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Extraction coordinator stopped gracefully")
	case <-time.After(c.config.ShutdownTimeout):
		c.logger.Warn("Extraction coordinator shutdown timeout exceeded, some jobs may still be running")
	}
}

// Submit registers an extraction request and starts it in the background.
// The call returns immediately; RequestID is the fingerprint and is the
// handle for Job and Results. A fingerprint already in flight returns
// duplicate_ignored without creating a second job record.
func (c *Coordinator) Submit(tenant *domain.Tenant, niche, geo string, variants []string) (*domain.SubmitResult, error) {
	const op = "extract.submit"

	niche = Normalize(niche)
	geo = Normalize(geo)
	variants = NormalizeVariants(variants)

	if niche == "" {
		return nil, domain.Invalid(op, "niche is required")
	}
	if geo == "" {
		return nil, domain.Invalid(op, "geo is required")
	}
	if len(variants) == 0 {
		return nil, domain.Invalid(op, "at least one query variant is required")
	}

	fp := Fingerprint(tenant.ID, niche, geo, variants, c.config.PagesPerVariant)

	c.mu.Lock()
	if _, running := c.inflight[fp]; running {
		c.mu.Unlock()
		c.logger.Info("Duplicate extraction ignored", "tenant_id", tenant.ID, "request_id", fp)
		metrics.ExtractionJobsTotal.WithLabelValues("duplicate_ignored").Inc()
		return &domain.SubmitResult{Status: domain.SubmitDuplicateIgnored, RequestID: fp}, nil
	}

	job := &domain.ExtractionJob{
		Fingerprint:  fp,
		TenantID:     tenant.ID,
		Niche:        niche,
		Geo:          geo,
		Variants:     variants,
		Phase:        domain.ExtractionPreparing,
		VariantCount: len(variants),
		PageCount:    c.config.PagesPerVariant,
		StartedAt:    c.now(),
	}
	c.inflight[fp] = struct{}{}
	c.jobs[fp] = job
	c.mu.Unlock()

	t := *tenant
	c.wg.Add(1)
	go c.run(&t, fp, niche, geo, variants)

	c.logger.Info("Extraction started",
		"tenant_id", tenant.ID, "request_id", fp,
		"niche", niche, "geo", geo, "variants", len(variants))
	return &domain.SubmitResult{Status: domain.SubmitStarted, RequestID: fp}, nil
}

// Job returns a snapshot of the job record for polling.
func (c *Coordinator) Job(requestID string) (*domain.ExtractionJob, error) {
	const op = "extract.job"

	c.mu.Lock()
	defer c.mu.Unlock()

	job, ok := c.jobs[requestID]
	if !ok {
		return nil, domain.NotFound(op, "extraction", requestID)
	}
	snapshot := *job
	snapshot.Variants = append([]string(nil), job.Variants...)
	return &snapshot, nil
}

// Results returns the job totals once the job is done.
func (c *Coordinator) Results(requestID string) (*domain.ExtractionTotals, error) {
	const op = "extract.results"

	c.mu.Lock()
	defer c.mu.Unlock()

	job, ok := c.jobs[requestID]
	if !ok {
		return nil, domain.NotFound(op, "extraction", requestID)
	}
	if !job.Done {
		return nil, domain.Invalid(op, "extraction not finished")
	}
	return &domain.ExtractionTotals{
		RawLeads:    job.RawLeads,
		UniqueLeads: job.UniqueLeads,
		Saved:       job.Saved,
		Truncated:   job.Truncated,
	}, nil
}

// run drives one job: acquire capacity, walk variants and pages, dedup by
// domain across the whole job, then persist through the quota engine.
func (c *Coordinator) run(tenant *domain.Tenant, fp, niche, geo string, variants []string) {
	defer c.wg.Done()

	logger := c.logger.With("tenant_id", tenant.ID, "request_id", fp)

	weight := int64(1)
	if _, def := c.plans.Resolve(tenant); def.QueuePriority == 0 {
		weight = 2
	}

	jobCtx, cancel := context.WithTimeout(c.ctx, c.config.JobTimeout)
	defer cancel()

	if err := c.sem.Acquire(jobCtx, weight); err != nil {
		c.fail(fp, fmt.Errorf("waiting for capacity: %w", err), logger)
		return
	}
	defer c.sem.Release(weight)

	metrics.ExtractionJobsInFlight.Inc()
	defer metrics.ExtractionJobsInFlight.Dec()
	start := time.Now()
	defer func() {
		metrics.ExtractionJobDuration.Observe(time.Since(start).Seconds())
	}()

	seen := make(map[string]struct{})
	unique := make([]domain.NewLead, 0)
	raw := 0

	for vi, variant := range variants {
		for page := 1; page <= c.config.PagesPerVariant; page++ {
			c.setProgress(fp, vi+1, page)

			pg, err := c.provider.FetchPage(jobCtx, scraper.Query{
				Niche:   niche,
				Geo:     geo,
				Variant: variant,
				Page:    page,
			})
			if errors.Is(err, scraper.ErrNoResults) {
				break
			}
			if err != nil {
				c.fail(fp, fmt.Errorf("variant %q page %d: %w", variant, page, err), logger)
				return
			}

			for _, lead := range pg.Leads {
				raw++
				key := Normalize(lead.Domain)
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				unique = append(unique, lead)
			}
			c.setCounts(fp, raw, len(unique))
		}
	}

	result, err := c.sink.SaveLeads(jobCtx, tenant, niche, geo, domain.LeadSourceExtraction, unique)
	if err != nil {
		c.fail(fp, err, logger)
		return
	}

	c.mu.Lock()
	job := c.jobs[fp]
	job.RawLeads = raw
	job.UniqueLeads = len(unique)
	job.Saved = result.Saved
	job.Truncated = result.Truncated
	job.Phase = domain.ExtractionFinished
	job.Done = true
	finished := c.now()
	job.FinishedAt = &finished
	delete(c.inflight, fp)
	c.mu.Unlock()

	metrics.ExtractionJobsTotal.WithLabelValues("finished").Inc()
	logger.Info("Extraction finished",
		"raw_leads", raw, "unique_leads", len(unique),
		"saved", result.Saved, "truncated", result.Truncated)
}

// fail marks the job terminal with an error. The error surfaces only when
// the client polls; it never propagates out of the job goroutine.
func (c *Coordinator) fail(fp string, err error, logger *slog.Logger) {
	c.mu.Lock()
	job := c.jobs[fp]
	job.Phase = domain.ExtractionFailed
	job.Error = domain.ErrorMessage(err)
	job.Done = true
	finished := c.now()
	job.FinishedAt = &finished
	delete(c.inflight, fp)
	c.mu.Unlock()

	metrics.ExtractionJobsTotal.WithLabelValues("failed").Inc()
	logger.Error("Extraction failed", "error", err)
}

func (c *Coordinator) setProgress(fp string, variant, page int) {
	c.mu.Lock()
	job := c.jobs[fp]
	job.Phase = domain.ExtractionRunning
	job.Variant = variant
	job.Page = page
	c.mu.Unlock()
}

func (c *Coordinator) setCounts(fp string, raw, uniqueCount int) {
	c.mu.Lock()
	job := c.jobs[fp]
	job.RawLeads = raw
	job.UniqueLeads = uniqueCount
	c.mu.Unlock()
}

// runJanitor evicts finished job records older than the retention window.
// In-flight records are never evicted.
func (c *Coordinator) runJanitor() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.JanitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *Coordinator) sweep() {
	cutoff := c.now().Add(-c.config.RetainFinished)

	c.mu.Lock()
	evicted := 0
	for fp, job := range c.jobs {
		if job.Done && job.FinishedAt != nil && job.FinishedAt.Before(cutoff) {
			delete(c.jobs, fp)
			evicted++
		}
	}
	c.mu.Unlock()

	if evicted > 0 {
		c.logger.Debug("Evicted finished extraction records", "count", evicted)
	}
}

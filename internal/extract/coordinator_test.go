package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/leadgrid/leadgrid/internal/domain"
	"github.com/leadgrid/leadgrid/internal/scraper"
)

type stubResolver struct {
	def domain.PlanDefinition
}

func (r stubResolver) Resolve(*domain.Tenant) (domain.PlanID, domain.PlanDefinition) {
	return domain.PlanFree, r.def
}

type fakeSink struct {
	mu     sync.Mutex
	result *domain.SearchResult
	err    error

	calls int
	got   []domain.NewLead
}

func (s *fakeSink) SaveLeads(_ context.Context, _ *domain.Tenant, _, _, _ string, candidates []domain.NewLead) (*domain.SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.got = candidates
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

// gatedProvider blocks every FetchPage call until released, keeping a job
// in flight for as long as the test needs.
type gatedProvider struct {
	release chan struct{}
	pages   map[string][]domain.NewLead
	err     error
}

func (p *gatedProvider) FetchPage(ctx context.Context, q scraper.Query) (*scraper.Page, error) {
	if p.release != nil {
		select {
		case <-p.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.err != nil {
		return nil, p.err
	}
	leads, ok := p.pages[fmt.Sprintf("%s|%d", q.Variant, q.Page)]
	if !ok {
		return nil, scraper.ErrNoResults
	}
	return &scraper.Page{Leads: leads}, nil
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JobTimeout = 5 * time.Second
	cfg.JanitorInterval = time.Second
	return cfg
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestCoordinator(t *testing.T, provider scraper.Provider, sink LeadSink) *Coordinator {
	t.Helper()
	c, err := New(provider, sink, stubResolver{def: domain.PlanDefinition{QueuePriority: 1}}, testConfig(), testLogger(), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(c.Stop)
	return c
}

// waitDone polls until the job record reports done.
func waitDone(t *testing.T, c *Coordinator, requestID string) *domain.ExtractionJob {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		job, err := c.Job(requestID)
		if err != nil {
			t.Fatalf("Job() error = %v", err)
		}
		if job.Done {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("job did not finish in time")
	return nil
}

func lead(dom string) domain.NewLead {
	return domain.NewLead{Domain: dom, Name: dom, Email: "contact@" + dom}
}

func TestSubmitValidation(t *testing.T) {
	c := newTestCoordinator(t, &gatedProvider{}, &fakeSink{})
	tenant := &domain.Tenant{ID: 1}

	if _, err := c.Submit(tenant, "", "madrid", []string{"a"}); err == nil {
		t.Error("expected error for empty niche")
	}
	if _, err := c.Submit(tenant, "dentistas", "madrid", nil); err == nil {
		t.Error("expected error for no variants")
	}
	if _, err := c.Submit(tenant, "dentistas", "madrid", []string{"  ", ""}); err == nil {
		t.Error("expected error when all variants normalize to empty")
	}
}

func TestSubmitDuplicateIgnoredWhileInFlight(t *testing.T) {
	provider := &gatedProvider{release: make(chan struct{})}
	sink := &fakeSink{result: &domain.SearchResult{}}
	c := newTestCoordinator(t, provider, sink)
	tenant := &domain.Tenant{ID: 42}

	first, err := c.Submit(tenant, "Dentistas", "Madrid", []string{"clinica", "dental"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if first.Status != domain.SubmitStarted {
		t.Fatalf("first status = %q, want %q", first.Status, domain.SubmitStarted)
	}

	// Same request, different casing and variant order.
	second, err := c.Submit(tenant, "  dentistas ", "MADRID", []string{"Dental", "Clínica"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if second.Status != domain.SubmitDuplicateIgnored {
		t.Errorf("second status = %q, want %q", second.Status, domain.SubmitDuplicateIgnored)
	}
	if second.RequestID != first.RequestID {
		t.Errorf("request ids differ: %s vs %s", second.RequestID, first.RequestID)
	}

	close(provider.release)
	waitDone(t, c, first.RequestID)

	// Once done the fingerprint is free again.
	third, err := c.Submit(tenant, "dentistas", "madrid", []string{"clinica", "dental"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if third.Status != domain.SubmitStarted {
		t.Errorf("post-completion status = %q, want %q", third.Status, domain.SubmitStarted)
	}
}

func TestJobCompletionDeduplicatesAndPersists(t *testing.T) {
	// Two variants sharing one lead; dedup spans the whole job.
	provider := &gatedProvider{pages: map[string][]domain.NewLead{
		"clinica|1": {lead("a.example.com"), lead("b.example.com")},
		"dental|1":  {lead("A.Example.Com"), lead("c.example.com")},
	}}
	saved := 3
	sink := &fakeSink{result: &domain.SearchResult{Saved: saved, Truncated: false}}
	c := newTestCoordinator(t, provider, sink)

	res, err := c.Submit(&domain.Tenant{ID: 7}, "dentistas", "madrid", []string{"clinica", "dental"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	job := waitDone(t, c, res.RequestID)
	if job.Phase != domain.ExtractionFinished {
		t.Errorf("phase = %q, want %q", job.Phase, domain.ExtractionFinished)
	}
	if job.RawLeads != 4 {
		t.Errorf("raw leads = %d, want 4", job.RawLeads)
	}
	if job.UniqueLeads != 3 {
		t.Errorf("unique leads = %d, want 3", job.UniqueLeads)
	}
	if job.Saved != saved {
		t.Errorf("saved = %d, want %d", job.Saved, saved)
	}
	if job.FinishedAt == nil {
		t.Error("finished job missing FinishedAt")
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.calls != 1 {
		t.Fatalf("sink calls = %d, want 1", sink.calls)
	}
	if len(sink.got) != 3 {
		t.Errorf("sink received %d leads, want 3", len(sink.got))
	}

	totals, err := c.Results(res.RequestID)
	if err != nil {
		t.Fatalf("Results() error = %v", err)
	}
	if totals.UniqueLeads != 3 || totals.Saved != saved {
		t.Errorf("totals = %+v", totals)
	}
}

func TestJobFailureCapturedOnRecord(t *testing.T) {
	provider := &gatedProvider{err: errors.New("source unreachable")}
	c := newTestCoordinator(t, provider, &fakeSink{})

	res, err := c.Submit(&domain.Tenant{ID: 7}, "dentistas", "madrid", []string{"clinica"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	job := waitDone(t, c, res.RequestID)
	if job.Phase != domain.ExtractionFailed {
		t.Errorf("phase = %q, want %q", job.Phase, domain.ExtractionFailed)
	}
	if job.Error == "" {
		t.Error("failed job missing error message")
	}
}

func TestSinkFailureFailsJob(t *testing.T) {
	provider := &gatedProvider{pages: map[string][]domain.NewLead{
		"clinica|1": {lead("a.example.com")},
	}}
	sink := &fakeSink{err: domain.QuotaExceeded("quota.consume_search", domain.MetricSearches, domain.PlanFree, 4, 4)}
	c := newTestCoordinator(t, provider, sink)

	res, err := c.Submit(&domain.Tenant{ID: 7}, "dentistas", "madrid", []string{"clinica"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	job := waitDone(t, c, res.RequestID)
	if job.Phase != domain.ExtractionFailed {
		t.Errorf("phase = %q, want %q", job.Phase, domain.ExtractionFailed)
	}
	if job.Error == "" {
		t.Error("failed job missing error message")
	}
}

func TestResultsBeforeDone(t *testing.T) {
	provider := &gatedProvider{release: make(chan struct{})}
	c := newTestCoordinator(t, provider, &fakeSink{result: &domain.SearchResult{}})

	res, err := c.Submit(&domain.Tenant{ID: 7}, "dentistas", "madrid", []string{"clinica"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if _, err := c.Results(res.RequestID); domain.ErrorCode(err) != domain.EINVALID {
		t.Errorf("Results() before done error code = %v, want EINVALID", domain.ErrorCode(err))
	}

	close(provider.release)
	waitDone(t, c, res.RequestID)

	if _, err := c.Results(res.RequestID); err != nil {
		t.Errorf("Results() after done error = %v", err)
	}
}

func TestResultsUnknownRequest(t *testing.T) {
	c := newTestCoordinator(t, &gatedProvider{}, &fakeSink{})

	if _, err := c.Job("deadbeef"); domain.ErrorCode(err) != domain.ENOTFOUND {
		t.Errorf("Job() unknown error code = %v, want ENOTFOUND", domain.ErrorCode(err))
	}
	if _, err := c.Results("deadbeef"); domain.ErrorCode(err) != domain.ENOTFOUND {
		t.Errorf("Results() unknown error code = %v, want ENOTFOUND", domain.ErrorCode(err))
	}
}

func TestSweepEvictsOnlyExpiredFinishedJobs(t *testing.T) {
	c := newTestCoordinator(t, &gatedProvider{}, &fakeSink{})

	old := time.Now().Add(-2 * c.config.RetainFinished)
	fresh := time.Now()

	c.mu.Lock()
	c.jobs["expired"] = &domain.ExtractionJob{Done: true, FinishedAt: &old}
	c.jobs["recent"] = &domain.ExtractionJob{Done: true, FinishedAt: &fresh}
	c.jobs["running"] = &domain.ExtractionJob{Phase: domain.ExtractionRunning}
	c.mu.Unlock()

	c.sweep()

	if _, err := c.Job("expired"); domain.ErrorCode(err) != domain.ENOTFOUND {
		t.Error("expired record should be evicted")
	}
	if _, err := c.Job("recent"); err != nil {
		t.Errorf("recent record evicted: %v", err)
	}
	if _, err := c.Job("running"); err != nil {
		t.Errorf("running record evicted: %v", err)
	}
}

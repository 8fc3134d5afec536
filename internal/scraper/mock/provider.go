package mock

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"

	"github.com/leadgrid/leadgrid/internal/domain"
	"github.com/leadgrid/leadgrid/internal/scraper"
)

// Provider is a mock scraper for testing and development.
//
// It fabricates deterministic leads from the query so that the same job
// input always yields the same candidates, including cross-variant overlap
// (every third lead repeats across variants) to exercise deduplication.
type Provider struct {
	logger *slog.Logger

	// LeadsPerPage controls how many candidates each page returns.
	LeadsPerPage int

	// FetchPageError, when set, is returned by every call.
	FetchPageError error

	// Call tracking for testing.
	mu             sync.Mutex
	FetchPageCalls int
}

// New creates a new mock scraper provider.
func New(logger *slog.Logger) *Provider {
	return &Provider{
		logger:       logger,
		LeadsPerPage: 5,
	}
}

// FetchPage fabricates a page of leads derived from the query.
func (p *Provider) FetchPage(_ context.Context, q scraper.Query) (*scraper.Page, error) {
	p.mu.Lock()
	p.FetchPageCalls++
	p.mu.Unlock()

	if p.FetchPageError != nil {
		return nil, p.FetchPageError
	}

	leads := make([]domain.NewLead, 0, p.LeadsPerPage)
	for i := 0; i < p.LeadsPerPage; i++ {
		var seed string
		if i%3 == 0 {
			// Shared across variants: dedup fodder.
			seed = fmt.Sprintf("%s|%s|p%d|i%d", q.Niche, q.Geo, q.Page, i)
		} else {
			seed = fmt.Sprintf("%s|%s|%s|p%d|i%d", q.Niche, q.Geo, q.Variant, q.Page, i)
		}
		h := fnv.New32a()
		h.Write([]byte(seed))
		n := h.Sum32()

		dom := fmt.Sprintf("business-%08x.example.com", n)
		leads = append(leads, domain.NewLead{
			Domain:  dom,
			Name:    fmt.Sprintf("Business %08x", n),
			Email:   fmt.Sprintf("contact@%s", dom),
			Phone:   fmt.Sprintf("+1-555-%04d", n%10000),
			Website: "https://" + dom,
		})
	}

	return &scraper.Page{Leads: leads}, nil
}

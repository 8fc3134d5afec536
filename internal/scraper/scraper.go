// Package scraper defines the lead source boundary.
//
// The extraction coordinator drives a Provider page by page; the provider
// fetches a results page for one query variant and extracts contact fields.
// How a page is fetched and parsed is up to the provider; the quota and
// deduplication contract around it is not.
package scraper

import (
	"context"
	"errors"

	"github.com/leadgrid/leadgrid/internal/domain"
)

// Provider fetches one page of lead candidates for a query.
type Provider interface {
	// FetchPage returns the candidates on the given page. Implementations
	// must be safe for concurrent use; the coordinator runs one goroutine
	// per job.
	FetchPage(ctx context.Context, q Query) (*Page, error)
}

// Query identifies one page of one query variant within a job.
type Query struct {
	Niche   string
	Geo     string
	Variant string
	Page    int // 1-based
}

// Page is the scrape result for a single page.
type Page struct {
	Leads []domain.NewLead
}

// Sentinel errors a provider may return.
var (
	// ErrRateLimited indicates the upstream source throttled us; the
	// coordinator treats it as a job failure, not a retryable condition.
	ErrRateLimited = errors.New("scraper: rate limited by source")

	// ErrNoResults indicates a page past the end of available results.
	// The coordinator skips ahead to the next variant.
	ErrNoResults = errors.New("scraper: no results on page")
)

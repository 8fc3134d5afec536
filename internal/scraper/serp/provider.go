// Package serp implements the scraper provider backed by a hosted SERP API.
package serp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/leadgrid/leadgrid/internal/domain"
	"github.com/leadgrid/leadgrid/internal/scraper"
)

const (
	// DefaultBaseURL is the hosted SERP API endpoint.
	DefaultBaseURL = "https://api.serphouse.io/v1"

	// defaultTimeout bounds a single page fetch.
	defaultTimeout = 30 * time.Second

	// maxRetries for transient upstream failures. Rate limiting is not
	// retried; the coordinator fails the job instead.
	maxRetries = 2
)

// Config holds the SERP provider configuration.
type Config struct {
	APIKey  string
	BaseURL string // Defaults to DefaultBaseURL
	Timeout time.Duration
}

// Provider fetches lead candidates from the hosted SERP API.
type Provider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// New creates a new SERP provider.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("serp: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Provider{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// FetchPage fetches one page of business listings for the query.
func (p *Provider) FetchPage(ctx context.Context, q scraper.Query) (*scraper.Page, error) {
	params := url.Values{}
	params.Set("q", q.Variant+" "+q.Geo)
	params.Set("category", q.Niche)
	params.Set("page", strconv.Itoa(q.Page))

	endpoint := p.baseURL + "/local/search?" + params.Encode()

	var body []byte
	backoff := retry.WithMaxRetries(maxRetries, retry.NewExponential(time.Second))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
		req.Header.Set("Accept", "application/json")

		resp, err := p.client.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode == http.StatusTooManyRequests:
			return scraper.ErrRateLimited
		case resp.StatusCode >= 500:
			return retry.RetryableError(fmt.Errorf("serp: upstream status %d", resp.StatusCode))
		default:
			return fmt.Errorf("serp: unexpected status %d", resp.StatusCode)
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var payload searchResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("serp: failed to parse response: %w", err)
	}

	if len(payload.Results) == 0 {
		return nil, scraper.ErrNoResults
	}

	leads := make([]domain.NewLead, 0, len(payload.Results))
	for _, r := range payload.Results {
		leads = append(leads, domain.NewLead{
			Domain:  r.Domain,
			Name:    r.Name,
			Email:   r.Email,
			Phone:   r.Phone,
			Website: r.Website,
		})
	}

	return &scraper.Page{Leads: leads}, nil
}

// searchResponse mirrors the SERP API's local search payload.
type searchResponse struct {
	Results []listing `json:"results"`
}

type listing struct {
	Name    string `json:"name"`
	Domain  string `json:"domain"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Website string `json:"website"`
}

// Ensure Provider satisfies the scraper interface.
var _ scraper.Provider = (*Provider)(nil)

package domain

import "time"

// Lead is a saved business contact. At most one lead exists per
// (tenant, domain) pair; the domain is the deduplication key across searches
// and extraction jobs.
type Lead struct {
	ID       int64
	TenantID int64

	Domain  string // normalized website domain, dedup key
	Name    string
	Email   string
	Phone   string
	Website string

	// Niche and Geo record the search that produced the lead.
	Niche string
	Geo   string

	// Source distinguishes manual imports from extraction jobs.
	Source string

	CreatedAt time.Time
}

// Lead sources.
const (
	LeadSourceImport     = "import"
	LeadSourceExtraction = "extraction"
)

// NewLead is an unsaved lead candidate as reported by a caller or scraper.
type NewLead struct {
	Domain  string
	Name    string
	Email   string
	Phone   string
	Website string
}

// SearchResult is the outcome of a quota-metered lead consumption request.
//
// Saved is what was actually persisted; Duplicates counts true duplicates
// reported by the caller or detected against stored leads; TruncatedByCap
// counts leads dropped by the free tier's per-search ceiling; TruncatedByCredits
// counts leads dropped because monthly credits ran out. Discarded is the
// combined drop count kept for clients that render a single figure.
type SearchResult struct {
	Saved              int  `json:"saved"`
	Duplicates         int  `json:"duplicates"`
	TruncatedByCap     int  `json:"truncated_by_cap"`
	TruncatedByCredits int  `json:"truncated_by_credits"`
	Discarded          int  `json:"discarded"`
	Truncated          bool `json:"truncated"`

	// RemainingCredits is the tenant's lead credit balance after the save;
	// nil when the plan has unlimited credits.
	RemainingCredits *int `json:"remaining_credits"`

	// RemainingSearches is the search balance after this call; nil when
	// unlimited.
	RemainingSearches *int `json:"remaining_searches"`
}

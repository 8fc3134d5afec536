package domain

import "time"

// ExtractionPhase is the state of an asynchronous extraction job.
type ExtractionPhase string

const (
	ExtractionPreparing ExtractionPhase = "preparing"
	ExtractionRunning   ExtractionPhase = "running"

	// ExtractionFinished keeps the legacy wire value expected by clients.
	ExtractionFinished ExtractionPhase = "finalizado"

	ExtractionFailed ExtractionPhase = "failed"
)

// ExtractionJob is the record for one in-flight or completed extraction,
// keyed by the request fingerprint. It is mutated only by the coordinating
// goroutine and read by polling clients; pollers only need to check Done.
type ExtractionJob struct {
	Fingerprint string
	TenantID    int64

	Niche    string
	Geo      string
	Variants []string

	Phase        ExtractionPhase
	Variant      int // 1-based index of the variant in progress
	VariantCount int
	Page         int // 1-based index of the page in progress
	PageCount    int

	RawLeads    int // leads seen across all pages, duplicates included
	UniqueLeads int // distinct domains across the whole job

	// Saved and Truncated are filled after the quota-metered persist step.
	Saved     int
	Truncated bool

	Error string
	Done  bool

	StartedAt  time.Time
	FinishedAt *time.Time
}

// SubmitStatus is the outcome of an extraction submission.
type SubmitStatus string

const (
	SubmitStarted          SubmitStatus = "started"
	SubmitDuplicateIgnored SubmitStatus = "duplicate_ignored"
)

// SubmitResult is returned immediately by the coordinator; RequestID is the
// fingerprint and doubles as the polling handle.
type SubmitResult struct {
	Status    SubmitStatus `json:"status"`
	RequestID string       `json:"request_id"`
}

// ExtractionTotals is the results payload, valid only once the job is done.
type ExtractionTotals struct {
	RawLeads    int  `json:"raw_leads"`
	UniqueLeads int  `json:"unique_leads"`
	Saved       int  `json:"saved"`
	Truncated   bool `json:"truncated"`
}

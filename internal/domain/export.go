package domain

// ExportResult describes a generated CSV export.
type ExportResult struct {
	Key       string `json:"key"`
	URL       string `json:"url"`
	LeadCount int    `json:"lead_count"`
}

package domain

// OutreachMessage is a generated cold-outreach draft for a lead. Messages
// are returned to the caller, not stored; regeneration consumes quota again.
type OutreachMessage struct {
	LeadID  int64  `json:"lead_id"`
	Subject string `json:"subject"`
	Message string `json:"message"`
	Model   string `json:"model"`
}

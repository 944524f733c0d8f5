package domain

import "time"

// TimeEntry is one recorded interval of work as returned by the time-tracking API.
// An empty Duration means the entry is still running.
type TimeEntry struct {
	Description string    `json:"description"`
	Start       time.Time `json:"start"`
	Duration    string    `json:"duration,omitempty"`
}

// UserInfo identifies the API key's owner and the workspace entries are scoped to
type UserInfo struct {
	UserID      string `json:"user_id"`
	WorkspaceID string `json:"workspace_id"`
}

// Run statuses
const (
	RunSucceeded = "ok"
	RunFailed    = "error"
)

// ReportRun is the audit record of a single report generation.
// It never carries the generated CSV.
type ReportRun struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id,omitempty"`
	WorkspaceID    string    `json:"workspace_id,omitempty"`
	Month          string    `json:"month"`
	EntriesFetched int       `json:"entries_fetched"`
	EntriesInRange int       `json:"entries_in_range"`
	Descriptions   int       `json:"descriptions"`
	Dates          int       `json:"dates"`
	TotalHours     float64   `json:"total_hours"`
	Status         string    `json:"status"`
	Error          string    `json:"error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

package workflow

import "time"

// Status is the single workflow state, mutated only through machine
// transitions.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusSearching  Status = "searching"
	StatusGenerating Status = "generating"
	StatusReviewing  Status = "reviewing"
	StatusSending    Status = "sending"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Severity classifies a log entry for display.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// LogEntry is one line of the observable run log. Entries are
// append-only and insertion-ordered; no core decision reads them.
type LogEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
}

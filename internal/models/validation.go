// Package models defines the data structures for validation result events.
package models

// Event types published for a validation run.
const (
	EventValidationSucceeded = "config.validation.succeeded"
	EventValidationFailed    = "config.validation.failed"
	EventValidationErrored   = "config.validation.errored"
)

// ValidationEvent describes the outcome of one validation run.
type ValidationEvent struct {
	EventType  string   `json:"eventType"`
	Timestamp  int64    `json:"timestamp"`
	Principal  string   `json:"principal"`
	SchemaURL  string   `json:"schemaUrl"`
	DataPath   string   `json:"dataPath"`
	Valid      bool     `json:"valid"`
	Message    string   `json:"message,omitempty"`
	Path       []string `json:"path,omitempty"`
	Stage      string   `json:"stage,omitempty"`
	Name       string   `json:"name,omitempty"`
	Version    string   `json:"version,omitempty"`
	Packages   int      `json:"packages"`
	DurationMs int64    `json:"durationMs"`
}

// internal/protocol/types.go
package protocol

import (
	"encoding/json"
	"time"
)

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Risk tiers for suggested commands
const (
	RiskLow  = "low"
	RiskMed  = "med"
	RiskHigh = "high"
)

// Message is one redacted conversation turn. Immutable once appended.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// RetrievedPattern is a known incident pattern returned by the vector index
type RetrievedPattern struct {
	ID        string  `json:"id,omitempty"`
	Title     string  `json:"title"`
	Vendor    string  `json:"vendor"`
	Signature string  `json:"signature"`
	Guidance  string  `json:"guidance"`
	Score     float64 `json:"score,omitempty"`
}

// AnalysisResult is the structured diagnosis from the analysis model.
// After normalization every field is populated, possibly with empty collections.
type AnalysisResult struct {
	Summary     string              `json:"summary"`
	Anomalies   []string            `json:"anomalies"`
	Evidence    map[string][]string `json:"evidence"`
	Assumptions []string            `json:"assumptions"`
}

// CommandSuggestion is one proposed remediation command
type CommandSuggestion struct {
	Cmd  string `json:"cmd"`
	Why  string `json:"why"`
	Risk string `json:"risk"`
}

// PipelineOutput is the caller-visible artifact of one pipeline run
type PipelineOutput struct {
	AnalysisResult
	SuggestedCommands []CommandSuggestion `json:"suggested_commands"`
}

// ChatRequest is one chat turn submitted by a caller
type ChatRequest struct {
	SessionID string `json:"sessionId,omitempty"`
	Logs      string `json:"logs"`
	Hints     string `json:"hints,omitempty"`
	Vendor    string `json:"vendor,omitempty"`
}

// ChatResponse is the pipeline output plus the session it ran against
type ChatResponse struct {
	PipelineOutput
	SessionID string `json:"sessionId"`
}

// StoredEvent is one persisted pipeline event, as served by the history API
type StoredEvent struct {
	ID        int64           `json:"id"`
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// StoredSuggestion is one persisted command suggestion
type StoredSuggestion struct {
	ID        int64     `json:"id"`
	Cmd       string    `json:"cmd"`
	Why       string    `json:"why"`
	Risk      string    `json:"risk"`
	Accepted  bool      `json:"accepted"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryResponse is the full recorded history for one session
type HistoryResponse struct {
	SessionID   string             `json:"sessionId"`
	Events      []StoredEvent      `json:"events"`
	Suggestions []StoredSuggestion `json:"suggestions"`
	Messages    []Message          `json:"messages"`
}

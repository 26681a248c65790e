// internal/normalize/normalize.go

// Package normalize coerces untrusted model output into validated typed
// structures. Inference backends are not guaranteed to return clean JSON, so
// every entry point degrades to a safe fallback instead of returning an error.
package normalize

import (
	"encoding/json"
	"strings"

	"github.com/signalnine/logwhisperer/internal/protocol"
)

const (
	maxAnomalies   = 5
	maxAssumptions = 3
)

// FallbackAnalysis is the typed default returned whenever the analysis model's
// output cannot be coerced into a valid AnalysisResult.
func FallbackAnalysis() protocol.AnalysisResult {
	return protocol.AnalysisResult{
		Summary:     "Analysis service unavailable.",
		Anomalies:   []string{},
		Evidence:    map[string][]string{},
		Assumptions: []string{},
	}
}

// envelope covers the known wrapper shapes a backend may return: the real
// payload nested under a single string field.
type envelope struct {
	Response *string `json:"response"`
	Output   *string `json:"output"`
	Result   *string `json:"result"`
}

// extract peels the JSON payload out of raw model output: unwraps a response
// envelope if present, strips a fenced code block, then falls back to the
// substring between the first '{' and the last '}' when prose surrounds it.
func extract(raw string) string {
	s := strings.TrimSpace(raw)

	var env envelope
	if err := json.Unmarshal([]byte(s), &env); err == nil {
		switch {
		case env.Response != nil:
			s = strings.TrimSpace(*env.Response)
		case env.Output != nil:
			s = strings.TrimSpace(*env.Output)
		case env.Result != nil:
			s = strings.TrimSpace(*env.Result)
		}
	}

	s = stripFence(s)

	if start := strings.Index(s, "{"); start >= 0 {
		if end := strings.LastIndex(s, "}"); end > start {
			return s[start : end+1]
		}
	}
	return s
}

func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		// drop the opening fence line, language tag included
		s = s[i+1:]
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// Analysis coerces raw model output into a fully populated AnalysisResult.
// All four fields must be present with the right JSON types (empty collections
// are fine); anything less yields the fallback. Never panics.
func Analysis(raw string) protocol.AnalysisResult {
	payload := extract(raw)

	var parsed struct {
		Summary     *string              `json:"summary"`
		Anomalies   *[]string            `json:"anomalies"`
		Evidence    *map[string][]string `json:"evidence"`
		Assumptions *[]string            `json:"assumptions"`
	}
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return FallbackAnalysis()
	}
	if parsed.Summary == nil || parsed.Anomalies == nil ||
		parsed.Evidence == nil || parsed.Assumptions == nil {
		return FallbackAnalysis()
	}

	result := protocol.AnalysisResult{
		Summary:     *parsed.Summary,
		Anomalies:   capped(*parsed.Anomalies, maxAnomalies),
		Evidence:    *parsed.Evidence,
		Assumptions: capped(*parsed.Assumptions, maxAssumptions),
	}
	if result.Evidence == nil {
		result.Evidence = map[string][]string{}
	}
	return result
}

// Suggestions coerces raw model output into command suggestions. Entries
// missing string cmd or why fields are skipped; a malformed payload yields an
// empty list. Risk classification happens later, in the pipeline.
func Suggestions(raw string) []protocol.CommandSuggestion {
	payload := extract(raw)

	var parsed struct {
		SuggestedCommands []json.RawMessage `json:"suggested_commands"`
	}
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return nil
	}

	var out []protocol.CommandSuggestion
	for _, rawEntry := range parsed.SuggestedCommands {
		var entry struct {
			Cmd  *string `json:"cmd"`
			Why  *string `json:"why"`
			Risk string  `json:"risk"`
		}
		if err := json.Unmarshal(rawEntry, &entry); err != nil {
			continue
		}
		if entry.Cmd == nil || entry.Why == nil {
			continue
		}
		out = append(out, protocol.CommandSuggestion{
			Cmd:  *entry.Cmd,
			Why:  *entry.Why,
			Risk: entry.Risk,
		})
	}
	return out
}

func capped(items []string, limit int) []string {
	if items == nil {
		return []string{}
	}
	if len(items) > limit {
		return items[:limit]
	}
	return items
}

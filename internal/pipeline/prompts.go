// internal/pipeline/prompts.go
package pipeline

import (
	"fmt"
	"strings"

	"github.com/signalnine/logwhisperer/internal/protocol"
)

const analysisSystemPrompt = `You are LogWhisperer. Task: read the redacted logs, reason step-by-step privately, and produce strict JSON with keys: summary (1-2 sentences), anomalies (<=5 bullet phrases), evidence (map from anomaly->log lines), assumptions (<=3). Be decisive. If uncertain, state what single observation would resolve it. Avoid vendor-specific commands here.`

func buildAnalysisPrompt(chunks []string, patterns []protocol.RetrievedPattern, hints, vendor string) string {
	var b strings.Builder
	b.WriteString("LOGS:\n<<<\n")
	b.WriteString(strings.Join(chunks, "\n---\n"))
	b.WriteString("\n>>>\nKNOWN PATTERNS:\n<<<\n")

	var lines []string
	for _, p := range patterns {
		var parts []string
		if p.Title != "" {
			parts = append(parts, "Title: "+p.Title)
		}
		if p.Vendor != "" {
			parts = append(parts, "Vendor: "+p.Vendor)
		}
		if p.Signature != "" {
			parts = append(parts, "Signature: "+p.Signature)
		}
		if p.Guidance != "" {
			parts = append(parts, "Guidance: "+p.Guidance)
		}
		if len(parts) > 0 {
			lines = append(lines, strings.Join(parts, " | "))
		}
	}
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n>>>\n")

	if vendor != "" {
		fmt.Fprintf(&b, "VENDOR: %s\n", vendor)
	}
	if hints != "" {
		fmt.Fprintf(&b, "HINTS: %s\n", hints)
	}
	b.WriteString("Return JSON only.")
	return b.String()
}

func buildCommandPrompt(allowlist []string) string {
	return fmt.Sprintf(`You generate up to 3 SAFE shell commands from an allowlist: %s. Each item: { "cmd": "...", "why": "...", "risk": "low|med|high" }. Classify as "high" if it stops services, modifies firewall broadly, or deletes configs. Never include destructive commands without "high" and a clear rollback line. Respond with JSON: {"suggested_commands": [...]}.`,
		strings.Join(allowlist, ","))
}

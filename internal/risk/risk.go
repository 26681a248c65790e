// internal/risk/risk.go
package risk

import (
	"strings"

	"github.com/signalnine/logwhisperer/internal/protocol"
)

// destructiveTerms force a "high" classification regardless of declared risk:
// firewall flushes, forced operations, deletion, and power verbs. Kept as a
// plain data table so it can be extended without touching the algorithm.
var destructiveTerms = []string{
	"flush",
	"--force",
	"rm -rf",
	"shutdown",
	"reboot",
	"erase",
	"wipe",
	"disable",
	"stop",
	"delete",
}

// ParseAllowlist splits a comma-separated allowlist string into entries,
// trimming whitespace and dropping empties.
func ParseAllowlist(raw string) []string {
	if raw == "" {
		return nil
	}
	var entries []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			entries = append(entries, item)
		}
	}
	return entries
}

// stripSudo removes a leading privilege-elevation prefix.
func stripSudo(cmd string) string {
	cmd = strings.TrimSpace(cmd)
	return strings.TrimSpace(strings.TrimPrefix(cmd, "sudo "))
}

// leadingToken returns the command's first whitespace-delimited token,
// lowercased, with any sudo prefix removed.
func leadingToken(cmd string) string {
	fields := strings.Fields(stripSudo(cmd))
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

// Allowlisted reports whether the command's leading token matches an allowlist
// entry by case-insensitive prefix. An empty allowlist matches nothing.
func Allowlisted(cmd string, allowlist []string) bool {
	token := leadingToken(cmd)
	if token == "" {
		return false
	}
	for _, entry := range allowlist {
		entry = strings.ToLower(strings.TrimSpace(entry))
		if entry != "" && strings.HasPrefix(token, entry) {
			return true
		}
	}
	return false
}

// Classify assigns a risk tier to a candidate command. Any destructive term is
// unconditionally "high", overriding the declared risk. Otherwise the declared
// risk stands ("med" when undeclared or unrecognized), except that a "low"
// command whose leading token is outside the allowlist escalates to "med".
// There is no downgrade path; allowlist absence alone never reaches "high".
func Classify(cmd string, allowlist []string, declared string) string {
	lower := strings.ToLower(stripSudo(cmd))
	for _, term := range destructiveTerms {
		if strings.Contains(lower, term) {
			return protocol.RiskHigh
		}
	}

	base := normalizeDeclared(declared)
	if base == protocol.RiskLow && !Allowlisted(cmd, allowlist) {
		return protocol.RiskMed
	}
	return base
}

func normalizeDeclared(declared string) string {
	switch declared {
	case protocol.RiskLow, protocol.RiskMed, protocol.RiskHigh:
		return declared
	}
	return protocol.RiskMed
}

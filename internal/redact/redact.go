// internal/redact/redact.go
package redact

import "regexp"

// rule pairs a compiled pattern with its replacement sentinel.
type rule struct {
	re       *regexp.Regexp
	sentinel string
}

// Rules run in a fixed order: IP before token before user, so no rule's
// sentinel can be matched by a rule that runs after it.
var rules = []rule{
	{regexp.MustCompile(`\b(\d{1,3}\.){3}\d{1,3}\b`), "IP_REDACTED"},
	{regexp.MustCompile(`(?i)[a-f0-9]{32,64}`), "TOKEN_REDACTED"},
	{regexp.MustCompile(`(?i)\buser=\w+\b`), "user=USER_REDACTED"},
}

// Redact replaces IPv4 addresses, 32-64 char hex runs (token-shaped), and
// user=<word> fields with fixed sentinels. Pure and idempotent: sentinels do
// not match any source pattern, so re-redacting is a no-op.
func Redact(text string) string {
	for _, r := range rules {
		text = r.re.ReplaceAllString(text, r.sentinel)
	}
	return text
}

// internal/redact/redact_test.go
package redact

import (
	"strings"
	"testing"
)

func TestRedactPatterns(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "ipv4",
			input: "connection from 192.168.1.10 refused",
			want:  "connection from IP_REDACTED refused",
		},
		{
			name:  "hex token",
			input: "token=abcdefabcdefabcdefabcdefabcdefab expired",
			want:  "token=TOKEN_REDACTED expired",
		},
		{
			name:  "uppercase hex token",
			input: "sig ABCDEFABCDEFABCDEFABCDEFABCDEFAB",
			want:  "sig TOKEN_REDACTED",
		},
		{
			name:  "username",
			input: "login failed user=alice attempt 3",
			want:  "login failed user=USER_REDACTED attempt 3",
		},
		{
			name:  "all three at once",
			input: "user=alice 192.168.1.10 token=abcdefabcdefabcdefabcdefabcdefab",
			want:  "user=USER_REDACTED IP_REDACTED token=TOKEN_REDACTED",
		},
		{
			name:  "no sensitive content",
			input: "service nginx restarted cleanly",
			want:  "service nginx restarted cleanly",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Redact(tt.input)
			if got != tt.want {
				t.Errorf("Redact(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRedactIdempotent(t *testing.T) {
	inputs := []string{
		"user=bob from 10.0.0.1 with deadbeefdeadbeefdeadbeefdeadbeef",
		"already clean text",
		"IP_REDACTED user=USER_REDACTED TOKEN_REDACTED",
	}
	for _, input := range inputs {
		once := Redact(input)
		twice := Redact(once)
		if once != twice {
			t.Errorf("Redact not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}

func TestRedactLeavesNoRawValues(t *testing.T) {
	input := "user=alice 192.168.1.10 token=abcdefabcdefabcdefabcdefabcdefab"
	got := Redact(input)

	for _, raw := range []string{"alice", "192.168.1.10", "abcdefabcdefabcdefabcdefabcdefab"} {
		if strings.Contains(got, raw) {
			t.Errorf("Redact output %q still contains %q", got, raw)
		}
	}
	for _, sentinel := range []string{"IP_REDACTED", "TOKEN_REDACTED", "user=USER_REDACTED"} {
		if !strings.Contains(got, sentinel) {
			t.Errorf("Redact output %q missing sentinel %q", got, sentinel)
		}
	}
}

func TestRedactShortHexNotTouched(t *testing.T) {
	// 31 hex chars is below the token threshold
	input := "commit deadbeefdeadbeefdeadbeefdeadbee"
	if got := Redact(input); got != input {
		t.Errorf("Redact(%q) = %q, want unchanged", input, got)
	}
}

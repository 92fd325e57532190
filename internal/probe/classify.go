package probe

import (
	"fmt"
	"strings"

	"github.com/hamed0406/credcheck/internal/domain"
)

// Classification is substring matching over the tool's combined output and
// is inherently fragile against message drift, so it lives here as a pure
// function with its own tests, away from the process-management code.

const maxDetailLen = 100

type classifyRule struct {
	kind    domain.ErrorKind
	needles []string
}

// Ordered; first match wins.
var classifyRules = []classifyRule{
	{domain.KindAuthFailed, []string{"authentication", "unauthorized", "401"}},
	{domain.KindRateLimited, []string{"rate limit", "429"}},
	{domain.KindForbidden, []string{"permission", "403"}},
	{domain.KindNetworkError, []string{"connection", "network"}},
	{domain.KindModelUnavailable, []string{"model", "not found"}},
}

// Classify maps a failed invocation's combined output (stderr then stdout)
// and exit code to an error kind plus a short human-readable detail.
func Classify(combined string, exitCode int) (domain.ErrorKind, string) {
	lower := strings.ToLower(combined)
	for _, rule := range classifyRules {
		for _, needle := range rule.needles {
			if strings.Contains(lower, needle) {
				return rule.kind, truncate(firstNonEmptyLine(combined), maxDetailLen)
			}
		}
	}
	if exitCode != 0 {
		return domain.KindProcessError, fmt.Sprintf("process exited with code %d", exitCode)
	}
	return domain.KindUnknown, truncate(strings.TrimSpace(combined), maxDetailLen)
}

func firstNonEmptyLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			return t
		}
	}
	return ""
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func containsFold(s, needle string) bool {
	return strings.Contains(strings.ToLower(s), needle)
}

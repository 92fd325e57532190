package report

import (
	"fmt"
	"strings"

	"github.com/hamed0406/credcheck/internal/domain"
)

// RenderSummary builds the webhook notification body: counts by overall
// status, then one line per failed or partial account with its truncated
// error. Credentials appear only as prefixes.
func RenderSummary(results []domain.AccountResult) string {
	s := domain.Summarize(results)

	var b strings.Builder
	fmt.Fprintf(&b, "Checked %d accounts: %d ok, %d primary-only, %d failed",
		s.Total, s.BothSucceeded, s.PrimaryOnly, s.BothFailed)

	for _, r := range results {
		switch r.Overall {
		case domain.BothFailed:
			fmt.Fprintf(&b, "\nFAILED %s (%s): %s",
				r.Account.Name, r.Account.CredentialPrefix(), probeError(r.Primary))
		case domain.PrimaryOnly:
			fmt.Fprintf(&b, "\nPARTIAL %s (%s): secondary %s",
				r.Account.Name, r.Account.CredentialPrefix(), probeError(r.Secondary))
		}
	}
	return b.String()
}

// HasFailures reports whether the summary warrants a notification on its
// own (the always-notify override bypasses this).
func HasFailures(results []domain.AccountResult) bool {
	for _, r := range results {
		if r.Overall != domain.BothSucceeded {
			return true
		}
	}
	return false
}

func probeError(p domain.ProbeResult) string {
	if p.ErrorDetail == "" {
		return string(p.ErrorKind)
	}
	return fmt.Sprintf("%s: %s", p.ErrorKind, p.ErrorDetail)
}

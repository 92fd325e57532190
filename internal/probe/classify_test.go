package probe

import (
	"strings"
	"testing"

	"github.com/hamed0406/credcheck/internal/domain"
)

func TestClassify_Table(t *testing.T) {
	cases := []struct {
		name     string
		combined string
		exitCode int
		want     domain.ErrorKind
	}{
		{"auth word", "Authentication failed for key", 1, domain.KindAuthFailed},
		{"401", "HTTP 401 returned by upstream", 1, domain.KindAuthFailed},
		{"unauthorized", "request unauthorized", 1, domain.KindAuthFailed},
		{"rate limit", "You hit a rate limit, slow down", 1, domain.KindRateLimited},
		{"429", "status 429 too many requests", 1, domain.KindRateLimited},
		{"permission", "permission denied for org", 1, domain.KindForbidden},
		{"403", "got 403 from server", 1, domain.KindForbidden},
		{"connection", "connection refused", 1, domain.KindNetworkError},
		{"network", "network is unreachable", 1, domain.KindNetworkError},
		{"model", "requested model does not exist", 1, domain.KindModelUnavailable},
		{"not found", "resource not found", 1, domain.KindModelUnavailable},
		{"bare nonzero exit", "something odd happened", 3, domain.KindProcessError},
		{"zero exit no match", "garbled output", 0, domain.KindUnknown},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			kind, detail := Classify(c.combined, c.exitCode)
			if kind != c.want {
				t.Fatalf("Classify(%q,%d)=%s want %s", c.combined, c.exitCode, kind, c.want)
			}
			if detail == "" {
				t.Fatalf("want non-empty detail")
			}
		})
	}
}

func TestClassify_PriorityOrder(t *testing.T) {
	// Contains both an auth marker and a rate-limit marker; auth wins.
	kind, _ := Classify("401 unauthorized after rate limit backoff", 1)
	if kind != domain.KindAuthFailed {
		t.Fatalf("want auth_failed to win, got %s", kind)
	}
	// Network marker beats the model marker.
	kind, _ = Classify("connection reset while loading model", 1)
	if kind != domain.KindNetworkError {
		t.Fatalf("want network_error to win, got %s", kind)
	}
}

func TestClassify_DetailTruncated(t *testing.T) {
	long := strings.Repeat("x", 500)
	_, detail := Classify(long, 0)
	if len([]rune(detail)) > maxDetailLen {
		t.Fatalf("detail too long: %d", len(detail))
	}

	_, detail = Classify("401 "+long, 1)
	if len([]rune(detail)) > maxDetailLen {
		t.Fatalf("matched detail too long: %d", len(detail))
	}
}

func TestClassify_ProcessErrorCarriesCode(t *testing.T) {
	kind, detail := Classify("no markers here at all", 7)
	if kind != domain.KindProcessError {
		t.Fatalf("want process_error, got %s", kind)
	}
	if !strings.Contains(detail, "7") {
		t.Fatalf("detail should carry the exit code, got %q", detail)
	}
}

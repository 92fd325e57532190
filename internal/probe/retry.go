package probe

import (
	"context"
	"time"

	"github.com/hamed0406/credcheck/internal/domain"
)

// RetryProber re-runs a probe a bounded number of times, but only for
// transient failure kinds. Deterministic failures (auth, forbidden, launch)
// would just burn timeout cycles.
type RetryProber struct {
	Inner    Prober
	Attempts int
	Backoff  time.Duration
}

func transientKind(k domain.ErrorKind) bool {
	return k == domain.KindRateLimited || k == domain.KindNetworkError
}

func (r *RetryProber) Probe(ctx context.Context, acct domain.Account, modelID string, timeout time.Duration, prompt string) domain.ProbeResult {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var last domain.ProbeResult
	for i := 0; i < attempts; i++ {
		last = r.Inner.Probe(ctx, acct, modelID, timeout, prompt)
		if last.Status != domain.StatusFailed || !transientKind(last.ErrorKind) {
			return last
		}
		if i < attempts-1 {
			select {
			case <-time.After(r.Backoff):
			case <-ctx.Done():
				return last
			}
		}
	}
	return last
}

var _ Prober = (*RetryProber)(nil)

package validate

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/credcheck/internal/domain"
	"github.com/hamed0406/credcheck/internal/probe"
)

// Validator sequences two probes per account. The cheap primary model is a
// filter: a dead account fails it immediately instead of burning a second
// timeout cycle on the expensive model.
type Validator struct {
	Prober    probe.Prober
	Primary   string
	Secondary string
	Timeout   time.Duration
	Prompt    string
	Logger    *zap.Logger
}

func New(p probe.Prober, primary, secondary string, timeout time.Duration, prompt string, logger *zap.Logger) *Validator {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{
		Prober:    p,
		Primary:   primary,
		Secondary: secondary,
		Timeout:   timeout,
		Prompt:    prompt,
		Logger:    logger,
	}
}

// Validate runs the two probes strictly sequentially; the tool under test
// cannot hold two concurrent sessions for one account. The secondary probe
// spawns no process when the primary did not succeed.
func (v *Validator) Validate(ctx context.Context, acct domain.Account) domain.AccountResult {
	primary := v.Prober.Probe(ctx, acct, v.Primary, v.Timeout, v.Prompt)

	var secondary domain.ProbeResult
	if primary.Status == domain.StatusSuccess {
		secondary = v.Prober.Probe(ctx, acct, v.Secondary, v.Timeout, v.Prompt)
	} else {
		secondary = domain.ProbeResult{
			ModelID:   v.Secondary,
			Status:    domain.StatusSkipped,
			ErrorKind: domain.KindPrimarySkipped,
		}
	}

	result := domain.AccountResult{
		Account:   acct,
		Primary:   primary,
		Secondary: secondary,
		Overall:   domain.OverallFrom(primary.Status, secondary.Status),
	}
	v.Logger.Info("account_validated",
		zap.String("account", acct.Name),
		zap.String("overall", string(result.Overall)),
	)
	return result
}

// ValidateBatch runs accounts in ordered chunks of size concurrency: every
// validation in chunk N finishes before chunk N+1 starts. This is a
// deliberate throttle on how many tool processes exist at once, not
// work-stealing. Results are written positionally so the report preserves
// input order regardless of completion order. A failed account never aborts
// the batch.
func (v *Validator) ValidateBatch(ctx context.Context, accounts []domain.Account, concurrency int) []domain.AccountResult {
	if concurrency < 1 {
		concurrency = 1
	}
	results := make([]domain.AccountResult, len(accounts))

	for start := 0; start < len(accounts); start += concurrency {
		end := start + concurrency
		if end > len(accounts) {
			end = len(accounts)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = v.Validate(ctx, accounts[i])
			}(i)
		}
		wg.Wait()

		v.Logger.Debug("chunk_finished",
			zap.Int("from", start),
			zap.Int("to", end-1),
			zap.Int("total", len(accounts)),
		)
	}
	return results
}

package probe

import (
	"context"
	"time"

	"github.com/hamed0406/credcheck/internal/domain"
)

// Prober runs one external-tool invocation against one (account, model)
// pair. Implementations must resolve exactly once per call.
type Prober interface {
	Probe(ctx context.Context, acct domain.Account, modelID string, timeout time.Duration, prompt string) domain.ProbeResult
}

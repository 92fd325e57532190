package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/credcheck/internal/domain"
)

const maxPreviewLen = 200

// ToolProbe launches the external CLI tool once per Probe call. The model ID
// is passed as an argument; endpoint and credential travel as process-scoped
// environment values so they never show up in process listings.
type ToolProbe struct {
	Bin         string
	WarmupDelay time.Duration
	Logger      *zap.Logger
}

func NewToolProbe(bin string, warmup time.Duration, logger *zap.Logger) *ToolProbe {
	if warmup <= 0 {
		warmup = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ToolProbe{Bin: bin, WarmupDelay: warmup, Logger: logger}
}

func (p *ToolProbe) Probe(ctx context.Context, acct domain.Account, modelID string, timeout time.Duration, prompt string) domain.ProbeResult {
	start := time.Now()
	res := domain.ProbeResult{ModelID: modelID, Status: domain.StatusTesting}

	cmd := exec.Command(p.Bin, "--model", modelID)
	// Fresh env copy per call; concurrent probes must not see each other's
	// credentials.
	cmd.Env = append(os.Environ(),
		"API_BASE_URL="+acct.Endpoint,
		"API_KEY="+acct.Credential,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return p.launchFailed(res, acct, start, err)
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return p.launchFailed(res, acct, start, err)
	}

	p.Logger.Debug("probe_started",
		zap.String("account", acct.Name),
		zap.String("model", modelID),
		zap.String("credential", acct.CredentialPrefix()),
	)

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	// The tool needs warm-up time before it reads stdin. If the child has
	// already exited by then, the write fails on a closed pipe and is
	// dropped silently.
	go func() {
		defer stdin.Close()
		select {
		case <-time.After(p.WarmupDelay):
			_, _ = io.WriteString(stdin, prompt+"\n")
		case <-ctx.Done():
		}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	// Exactly one of these branches resolves the probe. The kill paths
	// drain done so the child is always reaped.
	select {
	case waitErr := <-done:
		return p.finish(res, acct, start, waitErr, &stdout, &stderr)
	case <-timer.C:
		_ = cmd.Process.Kill()
		<-done
		res.Status = domain.StatusFailed
		res.ErrorKind = domain.KindTimeout
		res.ErrorDetail = fmt.Sprintf("probe exceeded %s", timeout)
		res.ElapsedMS = elapsedMS(start)
		p.logOutcome(acct, res)
		return res
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-done
		res.Status = domain.StatusFailed
		res.ErrorKind = domain.KindTimeout
		res.ErrorDetail = truncate(ctx.Err().Error(), maxDetailLen)
		res.ElapsedMS = elapsedMS(start)
		p.logOutcome(acct, res)
		return res
	}
}

func (p *ToolProbe) finish(res domain.ProbeResult, acct domain.Account, start time.Time, waitErr error, stdout, stderr *bytes.Buffer) domain.ProbeResult {
	res.ElapsedMS = elapsedMS(start)

	exitCode := 0
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}

	out := strings.TrimSpace(stdout.String())
	combined := stderr.String() + stdout.String()

	if exitCode == 0 && len(out) > 0 && !containsFold(combined, "error") {
		res.Status = domain.StatusSuccess
		res.ResponsePreview = truncate(out, maxPreviewLen)
		res.SpeedTier = domain.SpeedTierFor(res.ElapsedMS)
		p.logOutcome(acct, res)
		return res
	}

	kind, detail := Classify(combined, exitCode)
	res.Status = domain.StatusFailed
	res.ErrorKind = kind
	res.ErrorDetail = detail
	res.ExitCode = exitCode
	p.logOutcome(acct, res)
	return res
}

func (p *ToolProbe) launchFailed(res domain.ProbeResult, acct domain.Account, start time.Time, err error) domain.ProbeResult {
	res.Status = domain.StatusFailed
	res.ErrorKind = domain.KindLaunchFailed
	res.ErrorDetail = truncate(err.Error(), maxDetailLen)
	res.ElapsedMS = elapsedMS(start)
	p.logOutcome(acct, res)
	return res
}

func (p *ToolProbe) logOutcome(acct domain.Account, res domain.ProbeResult) {
	p.Logger.Info("probe_finished",
		zap.String("account", acct.Name),
		zap.String("model", res.ModelID),
		zap.String("status", string(res.Status)),
		zap.String("error_kind", string(res.ErrorKind)),
		zap.Uint64("elapsed_ms", res.ElapsedMS),
	)
}

func elapsedMS(start time.Time) uint64 {
	ms := time.Since(start).Milliseconds()
	if ms < 0 {
		ms = 0
	}
	return uint64(ms)
}

var _ Prober = (*ToolProbe)(nil)

package domain

// Account is one endpoint+credential pair under test. Immutable input; the
// credential must never be logged in full — use CredentialPrefix.
type Account struct {
	Name       string `json:"name" yaml:"name" validate:"required"`
	Endpoint   string `json:"endpoint" yaml:"endpoint" validate:"required,url"`
	Credential string `json:"credential" yaml:"credential" validate:"required"`
}

// CredentialPrefix returns at most the first 8 characters of the credential,
// safe for logs and webhook summaries.
func (a Account) CredentialPrefix() string {
	r := []rune(a.Credential)
	if len(r) <= 8 {
		return string(r)
	}
	return string(r[:8]) + "..."
}

type ProbeStatus string

const (
	StatusTesting ProbeStatus = "testing"
	StatusSuccess ProbeStatus = "success"
	StatusFailed  ProbeStatus = "failed"
	StatusSkipped ProbeStatus = "skipped"
)

// ErrorKind classifies a failed probe. All kinds are per-probe and
// recoverable at the batch level.
type ErrorKind string

const (
	KindTimeout          ErrorKind = "timeout"
	KindAuthFailed       ErrorKind = "auth_failed"
	KindRateLimited      ErrorKind = "rate_limited"
	KindForbidden        ErrorKind = "forbidden"
	KindNetworkError     ErrorKind = "network_error"
	KindModelUnavailable ErrorKind = "model_unavailable"
	KindProcessError     ErrorKind = "process_error"
	KindLaunchFailed     ErrorKind = "launch_failed"
	KindUnknown          ErrorKind = "unknown"
	KindPrimarySkipped   ErrorKind = "primary_skipped"
)

type SpeedTier string

const (
	TierVeryFast SpeedTier = "very-fast"
	TierFast     SpeedTier = "fast"
	TierSlow     SpeedTier = "slow"
	TierVerySlow SpeedTier = "very-slow"
)

// SpeedTierFor buckets a successful probe's elapsed time for reporting.
func SpeedTierFor(elapsedMS uint64) SpeedTier {
	switch {
	case elapsedMS < 3000:
		return TierVeryFast
	case elapsedMS < 8000:
		return TierFast
	case elapsedMS < 15000:
		return TierSlow
	default:
		return TierVerySlow
	}
}

// ProbeResult is the outcome of one external-tool invocation against one
// (account, model) pair. Created fresh per probe call and never mutated
// after the process exits.
//
// Invariants: Status==StatusSuccess implies ErrorKind empty and
// ResponsePreview set; Status==StatusFailed implies ErrorKind set.
type ProbeResult struct {
	ModelID         string      `json:"model_id"`
	Status          ProbeStatus `json:"status"`
	ElapsedMS       uint64      `json:"elapsed_ms"`
	ErrorKind       ErrorKind   `json:"error_kind,omitempty"`
	ErrorDetail     string      `json:"error_detail,omitempty"`
	ResponsePreview string      `json:"response_preview,omitempty"`
	SpeedTier       SpeedTier   `json:"speed_tier,omitempty"`
	ExitCode        int         `json:"exit_code,omitempty"`
}

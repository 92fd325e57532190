package domain

import "time"

type OverallStatus string

const (
	BothSucceeded OverallStatus = "both_succeeded"
	PrimaryOnly   OverallStatus = "primary_only"
	BothFailed    OverallStatus = "both_failed"
)

// OverallFrom derives the account-level status from the two probe statuses.
// Only three combinations are reachable: (success,success), (success,failed)
// and (failed/*, skipped).
func OverallFrom(primary, secondary ProbeStatus) OverallStatus {
	if primary != StatusSuccess {
		return BothFailed
	}
	if secondary == StatusSuccess {
		return BothSucceeded
	}
	return PrimaryOnly
}

// AccountResult is the assembled outcome for one account.
// Secondary.Status==StatusSkipped iff Primary.Status!=StatusSuccess.
type AccountResult struct {
	Account   Account       `json:"account"`
	Primary   ProbeResult   `json:"primary"`
	Secondary ProbeResult   `json:"secondary"`
	Overall   OverallStatus `json:"overall"`
}

// BatchSummary holds aggregate counts. It is derived, never separately
// mutated — always recomputed from the result set via Summarize.
type BatchSummary struct {
	Total          int            `json:"total"`
	BothSucceeded  int            `json:"both_succeeded"`
	PrimaryOnly    int            `json:"primary_only"`
	BothFailed     int            `json:"both_failed"`
	ModelSuccesses map[string]int `json:"model_successes,omitempty"`
}

func Summarize(results []AccountResult) BatchSummary {
	s := BatchSummary{
		Total:          len(results),
		ModelSuccesses: make(map[string]int),
	}
	for _, r := range results {
		switch r.Overall {
		case BothSucceeded:
			s.BothSucceeded++
		case PrimaryOnly:
			s.PrimaryOnly++
		default:
			s.BothFailed++
		}
		if r.Primary.Status == StatusSuccess {
			s.ModelSuccesses[r.Primary.ModelID]++
		}
		if r.Secondary.Status == StatusSuccess {
			s.ModelSuccesses[r.Secondary.ModelID]++
		}
	}
	return s
}

// BatchRun is one persisted batch execution (HTTP mode history).
type BatchRun struct {
	ID         string          `json:"id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Summary    BatchSummary    `json:"summary"`
	Results    []AccountResult `json:"results"`
}

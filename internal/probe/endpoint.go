package probe

import (
	"context"
	"net/http"
	"time"
)

// EndpointChecker does a plain HTTP reachability check against an account
// endpoint. Preflight-only; it says nothing about the credential.
type EndpointChecker struct {
	Client *http.Client
}

func NewEndpointChecker(timeout time.Duration) *EndpointChecker {
	return &EndpointChecker{
		Client: &http.Client{Timeout: timeout},
	}
}

type EndpointOutcome struct {
	Reachable  bool
	StatusCode int
	LatencyMS  float64
	Message    string
}

func (e *EndpointChecker) Check(ctx context.Context, endpoint string) EndpointOutcome {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return EndpointOutcome{Reachable: false, Message: err.Error()}
	}

	resp, err := e.Client.Do(req)
	latency := time.Since(start).Seconds() * 1000 // ms
	if err != nil {
		return EndpointOutcome{Reachable: false, Message: err.Error(), LatencyMS: latency}
	}
	defer resp.Body.Close()

	// Any HTTP answer counts as reachable; auth errors are the probe's job.
	return EndpointOutcome{
		Reachable:  true,
		StatusCode: resp.StatusCode,
		LatencyMS:  latency,
		Message:    resp.Status,
	}
}

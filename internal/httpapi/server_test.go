package httpapi

import (
	"net/http/httptest"
	"testing"

	"github.com/hamed0406/credcheck/internal/domain"
)

func TestLimitParam(t *testing.T) {
	cases := []struct {
		url  string
		want int
	}{
		{"/api/runs", 50},
		{"/api/runs?limit=10", 10},
		{"/api/runs?limit=0", 50},
		{"/api/runs?limit=-3", 50},
		{"/api/runs?limit=abc", 50},
	}
	for _, c := range cases {
		r := httptest.NewRequest("GET", c.url, nil)
		if got := limitParam(r, 50); got != c.want {
			t.Fatalf("limitParam(%q)=%d want %d", c.url, got, c.want)
		}
	}
}

func TestRedactRun_DoesNotMutateStored(t *testing.T) {
	run := &domain.BatchRun{
		ID: "r1",
		Results: []domain.AccountResult{{
			Account: domain.Account{Name: "a", Endpoint: "https://api.example.com", Credential: "sk-abcdefgh-tail"},
		}},
	}
	out := redactRun(run)

	if out.Results[0].Account.Credential != "sk-abcde..." {
		t.Fatalf("redacted credential wrong: %q", out.Results[0].Account.Credential)
	}
	// the stored run keeps the full credential
	if run.Results[0].Account.Credential != "sk-abcdefgh-tail" {
		t.Fatalf("redaction mutated the stored run: %q", run.Results[0].Account.Credential)
	}
}

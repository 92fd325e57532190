package validate

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hamed0406/credcheck/internal/domain"
)

// fakeProber resolves by account name: accounts listed in failPrimary fail
// the primary model, accounts in failSecondary fail the secondary. Every
// call is recorded so tests can assert what was (not) spawned.
type fakeProber struct {
	mu            sync.Mutex
	calls         []string // "account/model"
	failPrimary   map[string]bool
	failSecondary map[string]bool
	delay         time.Duration

	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (f *fakeProber) Probe(ctx context.Context, acct domain.Account, modelID string, timeout time.Duration, prompt string) domain.ProbeResult {
	cur := f.inFlight.Add(1)
	for {
		max := f.maxSeen.Load()
		if cur <= max || f.maxSeen.CompareAndSwap(max, cur) {
			break
		}
	}
	defer f.inFlight.Add(-1)

	f.mu.Lock()
	f.calls = append(f.calls, acct.Name+"/"+modelID)
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	fail := false
	if modelID == "primary" && f.failPrimary[acct.Name] {
		fail = true
	}
	if modelID == "secondary" && f.failSecondary[acct.Name] {
		fail = true
	}
	if fail {
		return domain.ProbeResult{ModelID: modelID, Status: domain.StatusFailed, ErrorKind: domain.KindAuthFailed, ErrorDetail: "401"}
	}
	return domain.ProbeResult{ModelID: modelID, Status: domain.StatusSuccess, ResponsePreview: "ok"}
}

func (f *fakeProber) spawnedFor(acct, model string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == acct+"/"+model {
			return true
		}
	}
	return false
}

func newValidator(f *fakeProber) *Validator {
	return New(f, "primary", "secondary", time.Second, "ping", nil)
}

func acct(name string) domain.Account {
	return domain.Account{Name: name, Endpoint: "https://api.example.com", Credential: "sk-" + name}
}

func TestValidate_BothSucceed(t *testing.T) {
	f := &fakeProber{}
	r := newValidator(f).Validate(context.Background(), acct("a"))
	if r.Overall != domain.BothSucceeded {
		t.Fatalf("want both_succeeded, got %+v", r)
	}
	if r.Secondary.Status != domain.StatusSuccess {
		t.Fatalf("secondary should have run: %+v", r.Secondary)
	}
}

func TestValidate_PrimaryOnly(t *testing.T) {
	f := &fakeProber{failSecondary: map[string]bool{"a": true}}
	r := newValidator(f).Validate(context.Background(), acct("a"))
	if r.Overall != domain.PrimaryOnly {
		t.Fatalf("want primary_only, got %s", r.Overall)
	}
}

func TestValidate_PrimaryFailureSkipsSecondary(t *testing.T) {
	f := &fakeProber{failPrimary: map[string]bool{"a": true}}
	r := newValidator(f).Validate(context.Background(), acct("a"))

	if r.Overall != domain.BothFailed {
		t.Fatalf("want both_failed, got %s", r.Overall)
	}
	if r.Secondary.Status != domain.StatusSkipped || r.Secondary.ErrorKind != domain.KindPrimarySkipped {
		t.Fatalf("secondary should be skipped: %+v", r.Secondary)
	}
	if f.spawnedFor("a", "secondary") {
		t.Fatalf("no process may be spawned for a skipped secondary")
	}
}

func TestValidateBatch_PreservesInputOrder(t *testing.T) {
	f := &fakeProber{delay: 5 * time.Millisecond}
	accounts := []domain.Account{acct("a"), acct("b"), acct("c"), acct("d"), acct("e")}

	results := newValidator(f).ValidateBatch(context.Background(), accounts, 3)
	if len(results) != len(accounts) {
		t.Fatalf("want %d results, got %d", len(accounts), len(results))
	}
	for i, r := range results {
		if r.Account.Name != accounts[i].Name {
			t.Fatalf("order broken at %d: want %s got %s", i, accounts[i].Name, r.Account.Name)
		}
	}
}

func TestValidateBatch_BoundsConcurrency(t *testing.T) {
	f := &fakeProber{delay: 20 * time.Millisecond}
	accounts := []domain.Account{acct("a"), acct("b"), acct("c"), acct("d"), acct("e")}

	newValidator(f).ValidateBatch(context.Background(), accounts, 2)
	if max := f.maxSeen.Load(); max > 2 {
		t.Fatalf("saw %d concurrent probes, bound was 2", max)
	}
}

func TestValidateBatch_SerialWhenConcurrencyOne(t *testing.T) {
	f := &fakeProber{delay: 5 * time.Millisecond}
	accounts := []domain.Account{acct("a"), acct("b"), acct("c")}

	newValidator(f).ValidateBatch(context.Background(), accounts, 1)
	if max := f.maxSeen.Load(); max > 1 {
		t.Fatalf("P=1 must fully serialize, saw %d", max)
	}
}

func TestValidateBatch_FailureDoesNotAbort(t *testing.T) {
	f := &fakeProber{failPrimary: map[string]bool{"b": true}}
	accounts := []domain.Account{acct("a"), acct("b"), acct("c")}

	results := newValidator(f).ValidateBatch(context.Background(), accounts, 2)
	if results[0].Overall != domain.BothSucceeded ||
		results[1].Overall != domain.BothFailed ||
		results[2].Overall != domain.BothSucceeded {
		t.Fatalf("batch should record the failure and continue: %+v", results)
	}
}

package probe

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/hamed0406/credcheck/internal/domain"
)

func writeTool(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mocktool")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatalf("write mock tool: %v", err)
	}
	return path
}

func testAccount() domain.Account {
	return domain.Account{
		Name:       "acct-a",
		Endpoint:   "https://api.example.com",
		Credential: "sk-test-key",
	}
}

func TestToolProbe_Success(t *testing.T) {
	bin := writeTool(t, `echo "I am Model X, fast and accurate"`)
	p := NewToolProbe(bin, 10*time.Millisecond, nil)

	res := p.Probe(context.Background(), testAccount(), "model-x", 5*time.Second, "hello")
	if res.Status != domain.StatusSuccess {
		t.Fatalf("want success, got %+v", res)
	}
	if res.ResponsePreview != "I am Model X, fast and accurate" {
		t.Fatalf("preview wrong: %q", res.ResponsePreview)
	}
	if res.ErrorKind != "" {
		t.Fatalf("success must not carry an error kind: %+v", res)
	}
	if res.SpeedTier != domain.SpeedTierFor(res.ElapsedMS) {
		t.Fatalf("speed tier inconsistent with elapsed: %+v", res)
	}
}

func TestToolProbe_PreviewTruncatedTo200(t *testing.T) {
	bin := writeTool(t, `printf 'a%.0s' $(seq 1 400); echo`)
	p := NewToolProbe(bin, 10*time.Millisecond, nil)

	res := p.Probe(context.Background(), testAccount(), "model-x", 5*time.Second, "hi")
	if res.Status != domain.StatusSuccess {
		t.Fatalf("want success, got %+v", res)
	}
	if got := len([]rune(res.ResponsePreview)); got != 200 {
		t.Fatalf("preview length = %d, want 200", got)
	}
}

func TestToolProbe_AuthFailed(t *testing.T) {
	// Exits before the warm-up write; the skipped stdin write must stay
	// silent and the result must classify from stderr.
	bin := writeTool(t, `echo "401 unauthorized" >&2; exit 1`)
	p := NewToolProbe(bin, 300*time.Millisecond, nil)

	res := p.Probe(context.Background(), testAccount(), "model-x", 5*time.Second, "hi")
	if res.Status != domain.StatusFailed {
		t.Fatalf("want failed, got %+v", res)
	}
	if res.ErrorKind != domain.KindAuthFailed {
		t.Fatalf("want auth_failed, got %s (%q)", res.ErrorKind, res.ErrorDetail)
	}
	if res.ExitCode != 1 {
		t.Fatalf("want exit code 1, got %d", res.ExitCode)
	}
}

func TestToolProbe_ErrorWordInStdoutFailsDespiteExitZero(t *testing.T) {
	bin := writeTool(t, `echo "an Error occurred while answering"`)
	p := NewToolProbe(bin, 10*time.Millisecond, nil)

	res := p.Probe(context.Background(), testAccount(), "model-x", 5*time.Second, "hi")
	if res.Status != domain.StatusFailed {
		t.Fatalf("want failed on error marker, got %+v", res)
	}
	if res.ErrorKind == "" {
		t.Fatalf("failed result must carry an error kind")
	}
}

func TestToolProbe_Timeout_KillsAndReaps(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "pid")
	t.Setenv("MOCK_PID_FILE", pidFile)
	bin := writeTool(t, `echo $$ > "$MOCK_PID_FILE"; sleep 30`)
	p := NewToolProbe(bin, 10*time.Millisecond, nil)

	start := time.Now()
	res := p.Probe(context.Background(), testAccount(), "model-x", 200*time.Millisecond, "hi")
	if took := time.Since(start); took > 3*time.Second {
		t.Fatalf("probe did not resolve promptly after timeout: %s", took)
	}
	if res.Status != domain.StatusFailed || res.ErrorKind != domain.KindTimeout {
		t.Fatalf("want timeout failure, got %+v", res)
	}

	raw, err := os.ReadFile(pidFile)
	if err != nil {
		t.Fatalf("mock never started: %v", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		t.Fatalf("bad pid file %q: %v", raw, err)
	}

	// The child must be gone (killed and reaped) within a short grace period.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if syscall.Kill(pid, 0) != nil {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("pid %d still alive after timeout kill", pid)
}

func TestToolProbe_ExitAtTimeoutBoundary_SingleResolution(t *testing.T) {
	// Child lifetime equals the timeout; either side may win the race but
	// every call must yield exactly one terminal result.
	bin := writeTool(t, `sleep 0.2`)
	p := NewToolProbe(bin, 10*time.Millisecond, nil)

	for i := 0; i < 8; i++ {
		res := p.Probe(context.Background(), testAccount(), "model-x", 200*time.Millisecond, "hi")
		if res.Status != domain.StatusFailed {
			t.Fatalf("iteration %d: want failed (empty stdout or timeout), got %+v", i, res)
		}
		if res.ErrorKind == "" {
			t.Fatalf("iteration %d: missing error kind: %+v", i, res)
		}
	}
}

func TestToolProbe_WritesPromptAfterWarmup(t *testing.T) {
	bin := writeTool(t, `read line; echo "got $line"`)
	p := NewToolProbe(bin, 20*time.Millisecond, nil)

	res := p.Probe(context.Background(), testAccount(), "model-x", 5*time.Second, "ping")
	if res.Status != domain.StatusSuccess {
		t.Fatalf("want success, got %+v", res)
	}
	if res.ResponsePreview != "got ping" {
		t.Fatalf("prompt not delivered, preview=%q", res.ResponsePreview)
	}
}

func TestToolProbe_InjectsEnvNotArgv(t *testing.T) {
	bin := writeTool(t, `echo "base=$API_BASE_URL key=$API_KEY model=$1 $2"`)
	p := NewToolProbe(bin, 10*time.Millisecond, nil)

	res := p.Probe(context.Background(), testAccount(), "model-x", 5*time.Second, "hi")
	if res.Status != domain.StatusSuccess {
		t.Fatalf("want success, got %+v", res)
	}
	if !strings.Contains(res.ResponsePreview, "base=https://api.example.com") ||
		!strings.Contains(res.ResponsePreview, "key=sk-test-key") {
		t.Fatalf("env not injected: %q", res.ResponsePreview)
	}
	if !strings.Contains(res.ResponsePreview, "model=--model model-x") {
		t.Fatalf("model flag not passed: %q", res.ResponsePreview)
	}
}

func TestToolProbe_LaunchFailed(t *testing.T) {
	p := NewToolProbe(filepath.Join(t.TempDir(), "does-not-exist"), 10*time.Millisecond, nil)

	res := p.Probe(context.Background(), testAccount(), "model-x", time.Second, "hi")
	if res.Status != domain.StatusFailed || res.ErrorKind != domain.KindLaunchFailed {
		t.Fatalf("want launch_failed, got %+v", res)
	}
	if res.ErrorDetail == "" {
		t.Fatalf("want underlying system error in detail")
	}
}

// cmd/preflight/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/hamed0406/credcheck/internal/accounts"
	"github.com/hamed0406/credcheck/internal/config"
	"github.com/hamed0406/credcheck/internal/probe"
)

// preflight checks the environment before a batch or API deployment:
// the external tool must be on PATH, keys and DSN are sanity-checked, and
// with an accounts file argument it resolves and pings every endpoint
// without spending a single credential.
func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	cfg, err := config.FromViper(config.NewViper())
	if err != nil {
		fail(err.Error())
	}

	if path, err := exec.LookPath(cfg.ToolBin); err != nil {
		fail(fmt.Sprintf("tool binary %q not found on PATH", cfg.ToolBin))
	} else {
		ok("tool binary: " + path)
	}

	if cfg.WebhookURL == "" {
		warn("WEBHOOK_URL empty — failures will not be announced.")
	} else {
		ok("webhook configured")
	}

	for name, keys := range map[string][]string{
		"ADMIN_API_KEYS":  cfg.AdminAPIKeys,
		"PUBLIC_API_KEYS": cfg.PublicAPIKeys,
	} {
		if len(keys) == 0 {
			warn(name + " empty — the HTTP API would run without auth (dev only).")
		} else {
			ok(fmt.Sprintf("%s: %d key(s)", name, len(keys)))
		}
	}

	if cfg.DatabaseURL == "" {
		warn("DATABASE_URL empty — the HTTP API would keep run history in memory.")
	} else {
		ok("DATABASE_URL present")
	}

	// Optional: check every endpoint in an accounts file.
	if len(os.Args) > 1 {
		accts, err := accounts.Load(os.Args[1])
		if err != nil {
			fail(err.Error())
		}
		checker := probe.NewEndpointChecker(10 * time.Second)
		ctx := context.Background()
		bad := 0
		for _, a := range accts {
			dns := probe.CheckEndpointDNS(a.Endpoint)
			if dns.Class != "RESOLVES" {
				warn(fmt.Sprintf("%s: dns %s for %s", a.Name, strings.ToLower(dns.Class), a.Endpoint))
				bad++
				continue
			}
			out := checker.Check(ctx, a.Endpoint)
			if !out.Reachable {
				warn(fmt.Sprintf("%s: unreachable: %s", a.Name, out.Message))
				bad++
				continue
			}
			ok(fmt.Sprintf("%s: resolves, answered %d in %.0fms", a.Name, out.StatusCode, out.LatencyMS))
		}
		if bad > 0 {
			fail(fmt.Sprintf("%d of %d endpoints not reachable", bad, len(accts)))
		}
	}

	ok("preflight passed")
}

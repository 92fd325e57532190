package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hamed0406/credcheck/internal/accounts"
	"github.com/hamed0406/credcheck/internal/config"
	"github.com/hamed0406/credcheck/internal/domain"
	"github.com/hamed0406/credcheck/internal/logging"
	"github.com/hamed0406/credcheck/internal/notify"
	"github.com/hamed0406/credcheck/internal/probe"
	"github.com/hamed0406/credcheck/internal/report"
	"github.com/hamed0406/credcheck/internal/validate"
)

func main() {
	os.Exit(Execute())
}

// Execute runs the root command and maps the outcome to a process exit
// code: 0 all accounts fully validated (or partial), 1 at least one account
// failed both probes, 2 the run itself could not be carried out.
func Execute() int {
	var code int
	root := newRootCmd(&code)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 2
	}
	return code
}

func newRootCmd(code *int) *cobra.Command {
	var accountsPath, csvPath, jsonPath string

	cmd := &cobra.Command{
		Use:   "credcheck",
		Short: "Validate API account credentials against their endpoints",
		Long: `credcheck runs the external CLI tool once per (account, model) pair,
classifies each outcome and writes a CSV report. Accounts come from a
CSV, JSON or YAML file; results can additionally go to a JSON file and
a webhook.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := config.NewViper()
			overlayFlags(v, cmd.Flags())
			cfg, err := config.FromViper(v)
			if err != nil {
				return err
			}
			return runBatch(cmd.Context(), cfg, accountsPath, csvPath, jsonPath, code)
		},
	}

	cmd.Flags().StringVarP(&accountsPath, "accounts", "a", "accounts.csv", "accounts file (csv, json or yaml)")
	cmd.Flags().StringVarP(&csvPath, "out", "o", "report.csv", "CSV report path")
	cmd.Flags().StringVar(&jsonPath, "json", "", "also write the full run document to this JSON file")

	// Everything below overlays config: flag > env > default.
	cmd.Flags().String("tool", "", "external CLI tool binary")
	cmd.Flags().String("primary", "", "primary (cheap) model ID")
	cmd.Flags().String("secondary", "", "secondary (expensive) model ID")
	cmd.Flags().String("prompt", "", "prompt written to the tool after warm-up")
	cmd.Flags().Int("timeout-ms", 0, "per-probe timeout in milliseconds")
	cmd.Flags().IntP("concurrency", "c", 0, "accounts validated in parallel")
	cmd.Flags().Int("retries", 0, "attempts per probe for transient failures")
	cmd.Flags().String("webhook-url", "", "notification webhook URL")
	cmd.Flags().Bool("notify-always", false, "notify even when every account passes")
	cmd.Flags().String("log-dir", "", "directory for the rotated JSON log")
	cmd.Flags().String("log-level", "", "log level (debug, info, warn, error)")

	return cmd
}

var flagToKey = map[string]string{
	"tool":          "TOOL_BIN",
	"primary":       "PRIMARY_MODEL",
	"secondary":     "SECONDARY_MODEL",
	"prompt":        "PROMPT",
	"timeout-ms":    "PROBE_TIMEOUT_MS",
	"concurrency":   "CONCURRENCY",
	"retries":       "RETRY_ATTEMPTS",
	"webhook-url":   "WEBHOOK_URL",
	"notify-always": "NOTIFY_ALWAYS",
	"log-dir":       "LOG_DIR",
	"log-level":     "LOG_LEVEL",
}

// overlayFlags copies only flags the user actually set, so unset flags do
// not shadow environment values.
func overlayFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.Visit(func(f *pflag.Flag) {
		if key, ok := flagToKey[f.Name]; ok {
			v.Set(key, f.Value.String())
		}
	})
}

func runBatch(parent context.Context, cfg config.Config, accountsPath, csvPath, jsonPath string, code *int) error {
	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	accts, err := accounts.Load(accountsPath)
	if err != nil {
		return err
	}

	var prober probe.Prober = probe.NewToolProbe(cfg.ToolBin, cfg.WarmupDelay, logger)
	if cfg.RetryAttempts > 1 {
		prober = &probe.RetryProber{Inner: prober, Attempts: cfg.RetryAttempts, Backoff: cfg.RetryBackoff}
	}
	validator := validate.New(prober, cfg.PrimaryModel, cfg.SecondaryModel, cfg.ProbeTimeout, cfg.Prompt, logger)

	logger.Info("batch_started",
		zap.Int("accounts", len(accts)),
		zap.Int("concurrency", cfg.Concurrency),
		zap.String("primary", cfg.PrimaryModel),
		zap.String("secondary", cfg.SecondaryModel),
	)

	started := time.Now().UTC()
	results := validator.ValidateBatch(ctx, accts, cfg.Concurrency)
	run := domain.BatchRun{
		ID:         uuid.NewString(),
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Summary:    domain.Summarize(results),
		Results:    results,
	}

	if err := report.WriteCSVFile(csvPath, results); err != nil {
		return fmt.Errorf("write csv report: %w", err)
	}
	if jsonPath != "" {
		if err := report.WriteJSONFile(jsonPath, run); err != nil {
			return fmt.Errorf("write json report: %w", err)
		}
	}

	summary := report.RenderSummary(results)
	fmt.Println(summary)

	// Notification failures are logged, never fatal: the report on disk is
	// the source of truth.
	if report.HasFailures(results) || cfg.NotifyAlways {
		hook := notify.NewWebhook(cfg.WebhookURL)
		nctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := hook.Send(nctx, "credcheck batch finished", summary); err != nil {
			logger.Warn("notify_failed", zap.Error(err))
		}
	}

	logger.Info("batch_finished",
		zap.String("run_id", run.ID),
		zap.Int("total", run.Summary.Total),
		zap.Int("both_succeeded", run.Summary.BothSucceeded),
		zap.Int("primary_only", run.Summary.PrimaryOnly),
		zap.Int("both_failed", run.Summary.BothFailed),
	)

	if run.Summary.BothFailed > 0 {
		*code = 1
	}
	return nil
}

package main

import (
	"context"
	"log"
	"net/http"

	"go.uber.org/zap"

	"github.com/hamed0406/credcheck/internal/config"
	"github.com/hamed0406/credcheck/internal/httpapi"
	mw "github.com/hamed0406/credcheck/internal/httpapi/middleware"
	"github.com/hamed0406/credcheck/internal/logging"
	"github.com/hamed0406/credcheck/internal/probe"
	"github.com/hamed0406/credcheck/internal/repo"
	"github.com/hamed0406/credcheck/internal/repo/memory"
	"github.com/hamed0406/credcheck/internal/repo/postgres"
	"github.com/hamed0406/credcheck/internal/validate"
)

func main() {
	cfg, err := config.FromViper(config.NewViper())
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx := context.Background()

	var store repo.RunStore
	if cfg.DatabaseURL != "" {
		pgStore, err := postgres.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			logger.Fatal("postgres_connect", zap.Error(err))
		}
		defer pgStore.Close()
		if err := pgStore.EnsureSchema(ctx); err != nil {
			logger.Fatal("postgres_schema", zap.Error(err))
		}
		store = pgStore
		logger.Info("store", zap.String("kind", "postgres"))
	} else {
		store = memory.New()
		logger.Info("store", zap.String("kind", "memory"))
	}

	prober := probe.NewToolProbe(cfg.ToolBin, cfg.WarmupDelay, logger)
	validator := validate.New(prober, cfg.PrimaryModel, cfg.SecondaryModel, cfg.ProbeTimeout, cfg.Prompt, logger)

	api := httpapi.NewServer(logger, store, validator, cfg.Concurrency)
	keys := mw.Keys{Public: cfg.PublicAPIKeys, Admin: cfg.AdminAPIKeys}

	logger.Info("api_listen", zap.String("addr", cfg.Addr))
	if err := http.ListenAndServe(cfg.Addr, api.Router(keys, cfg.PublicRPM, cfg.PublicBurst)); err != nil {
		logger.Fatal("api_serve", zap.Error(err))
	}
}

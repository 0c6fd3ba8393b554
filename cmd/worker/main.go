package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"mcpgate/internal/pkg/logger"
	"mcpgate/internal/platform/audit"
	"mcpgate/internal/platform/config"
	"mcpgate/internal/platform/database"
	"mcpgate/internal/workers"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	logger.Init(cfg.Logging)

	db, err := database.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if cfg.Audit.Retention <= 0 {
		log.Info().Msg("audit retention disabled, nothing to do")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Dur("retention", cfg.Audit.Retention).Msg("starting background workers")
	workers.Every(ctx, "audit_prune", cfg.Audit.PruneInterval, workers.PruneAuditLogs(audit.NewLogger(db), cfg.Audit.Retention))
}

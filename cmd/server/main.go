package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"mcpgate/internal/api"
	"mcpgate/internal/api/handlers"
	"mcpgate/internal/api/middleware"
	"mcpgate/internal/mcp"
	"mcpgate/internal/pkg/logger"
	"mcpgate/internal/platform/audit"
	"mcpgate/internal/platform/auth"
	"mcpgate/internal/platform/config"
	"mcpgate/internal/platform/database"
	"mcpgate/internal/platform/provision"
	"mcpgate/internal/rpc"
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Database.AutoMigrate {
		if _, err := database.Migrate(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate database")
		}
	}

	// Services
	svc := provision.NewService(db)
	auditLog := audit.NewLogger(db)

	var usage auth.UsageRecorder = svc.Keys
	if cfg.Auth.AsyncTouch {
		toucher := workers.NewUsageToucher(svc.Keys, cfg.Auth.TouchQueueSize)
		defer toucher.Close()
		usage = toucher
	}
	authenticator := auth.NewAuthenticator(svc.Keys, usage)
	authorizer := auth.NewAuthorizer(svc.Memberships)

	// JSON-RPC methods
	dispatcher := rpc.NewDispatcher()
	mcp.NewServer(cfg.MCP, authorizer, svc, auditLog).Register(dispatcher)

	deps := &api.Dependencies{
		MCPHandler:    handlers.NewMCPHandler(authenticator, dispatcher, cfg.Server.MaxBodyBytes),
		HealthHandler: handlers.NewHealthHandler(db),
	}
	if cfg.RateLimit.Enabled {
		deps.RateLimiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute)
		defer deps.RateLimiter.Stop()
	}

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      api.NewRouter(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Strs("methods", dispatcher.Methods()).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			log.Fatal().Err(err).Msg("server failed")
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	auditLog.Wait()
}

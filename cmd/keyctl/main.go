// Command keyctl provisions organizations, users and API keys directly
// against the mcpgate database.
package main

import (
	"context"
	"database/sql"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"mcpgate/internal/pkg/logger"
	"mcpgate/internal/platform/audit"
	"mcpgate/internal/platform/config"
	"mcpgate/internal/platform/database"
	"mcpgate/internal/platform/provision"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "keyctl",
	Short:         "Manage mcpgate organizations and API keys",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/config.yaml", "Path to config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

// env is what every subcommand works with.
type env struct {
	db    *sql.DB
	svc   *provision.Service
	audit *audit.Logger
}

func (e *env) Close() {
	e.audit.Wait()
	e.db.Close()
}

// openEnv loads config, opens the database and brings its schema up to date.
func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logging := cfg.Logging
	logging.Level = "warn"
	logger.Init(logging)

	db, err := database.NewDB(cfg.Database)
	if err != nil {
		return nil, err
	}
	if _, err := database.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	svc := provision.NewService(db)
	svc.DefaultKeyTTL = cfg.Auth.DefaultKeyTTL
	return &env{db: db, svc: svc, audit: audit.NewLogger(db)}, nil
}

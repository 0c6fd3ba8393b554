package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/rs/zerolog/log"
	"mcpgate/internal/pkg/logger"
	"mcpgate/internal/platform/config"
	"mcpgate/internal/platform/database"
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

	applied, err := database.Migrate(context.Background(), db)
	if err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	if len(applied) == 0 {
		fmt.Println("Database is up to date")
		return
	}
	for _, version := range applied {
		fmt.Printf("Applied %s\n", version)
	}
	fmt.Println("Migration completed successfully")
}

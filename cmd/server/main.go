package main

import (
	"fmt"
	"os"

	"github.com/llmadmin-dev/llmadmin/internal/config"
	"github.com/llmadmin-dev/llmadmin/internal/logger"
	"github.com/llmadmin-dev/llmadmin/internal/server"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.GetLogger()

	srv, err := server.New(cfg, log, version)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create gateway")
	}

	log.Info().Str("version", version).Msg("Starting llmadmin dashboard gateway...")

	// Blocks until SIGINT or SIGTERM
	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("Gateway stopped")
	}
}

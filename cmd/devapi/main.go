package main

import (
	"fmt"
	"os"

	"github.com/coursehub/coursehub/internal/config"
	"github.com/coursehub/coursehub/internal/logger"
	"github.com/coursehub/coursehub/internal/server"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.Init(cfg.DevAPI.LogLevel, cfg.Logging.Format, os.Stdout)

	srv, err := server.New(cfg.DevAPI, log, version)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create server")
	}

	log.Info().Str("version", version).Msg("Starting course enrollment dev API...")

	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("Server failed to start")
	}
}

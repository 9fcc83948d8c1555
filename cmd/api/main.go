package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"veloxhub/internal/config"
	"veloxhub/internal/db"
	httpserver "veloxhub/internal/http"
	"veloxhub/internal/seed"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	log.Logger = logger

	cfg := config.Load()

	gdb := db.Connect(cfg.DSN)
	if err := db.Migrate(gdb); err != nil {
		logger.Fatal().Err(err).Msg("migration failed")
	}

	if cfg.Seed {
		if err := seed.FirstSetup(gdb); err != nil {
			logger.Fatal().Err(err).Msg("seeding failed")
		}
		logger.Info().Msg("demo data seeded")
	}

	r := httpserver.NewRouter(gdb, cfg.JWTSecret, logger)
	logger.Info().Str("port", cfg.AppPort).Msg("server listening")
	if err := r.Run(fmt.Sprintf(":%s", cfg.AppPort)); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}

// main.go
//
// Entry point for the Guess the Flag server.
// Loads `.env` and config, picks the log level, builds the country catalog,
// opens the process-local database and serves HTTP until the process exits.

package main

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/guesstheflag/internal/config"
	"github.com/robalobadob/guesstheflag/internal/countries"
	"github.com/robalobadob/guesstheflag/internal/database"
	"github.com/robalobadob/guesstheflag/internal/httpserver"
	"github.com/robalobadob/guesstheflag/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	catalog, err := countries.Load(cfg.CountriesFile, cfg.Countries)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load countries")
	}

	db, err := database.Open()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	srv := httpserver.New(httpserver.Options{
		Config:  cfg,
		Catalog: catalog,
		Store:   store.NewMemoryStore(),
		DB:      db,
	})
	log.Info().
		Str("port", cfg.Port).
		Int("countries", catalog.Len()).
		Int("rounds", cfg.RoundCap).
		Msg("starting guess-the-flag server")
	if err := srv.Start(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

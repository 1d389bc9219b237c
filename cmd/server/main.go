package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"goldcast/internal/config"
	"goldcast/internal/handler"
	"goldcast/internal/marketdata"
	"goldcast/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl)

	source := marketdata.NewClient(cfg)
	svc := service.New(cfg, source)

	// Load artifacts in the background so the listener is up right away.
	// Until loading finishes, /health reports starting and predictions
	// return a transient error the client will retry.
	go func() {
		if err := svc.LoadArtifacts(); err != nil {
			log.Fatal().Err(err).Msg("loading model and scaler artifacts failed")
		}
	}()

	router := handler.NewRouter(svc)
	log.Info().Str("addr", cfg.ListenAddr).Msg("Gold prediction service listening")
	if err := router.Run(cfg.ListenAddr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"goldcast/internal/client"
	"goldcast/internal/config"
	"goldcast/models"
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

	c := client.New(client.Options{
		BaseURL:        cfg.ServerURL,
		Retries:        cfg.ClientRetries,
		AttemptTimeout: time.Duration(cfg.AttemptTimeout) * time.Second,
		BaseDelay:      time.Duration(cfg.RetryBaseDelay * float64(time.Second)),
		ColdStartAfter: time.Duration(cfg.ColdStartThreshold) * time.Second,
		OnColdStart: func(elapsed time.Duration) {
			fmt.Printf("Still working (%s elapsed) - the service is likely loading its model after a cold start...\n",
				elapsed.Round(time.Second))
		},
	})

	result, err := c.Predict(context.Background(), models.PredictionRequest{})
	if err != nil {
		log.Fatal().Err(err).Msg("prediction failed")
	}

	fmt.Println("======================================")
	fmt.Printf("LATEST CLOSE PRICE: $%.2f\n", result.CurrentPrice)
	fmt.Printf("PREDICTED PRICE FOR TOMORROW: $%.2f\n", result.PredictedPrice)
	fmt.Printf("EXPECTED CHANGE: $%.2f (%s)\n", result.PriceChange, result.Direction)
	fmt.Println("======================================")
}

package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration
type Config struct {
	TwelveAPIKey string `env:"TWELVE_API_KEY" envDefault:"-"`
	Symbol       string `env:"SYMBOL" envDefault:"XAU/USD"`
	Interval     string `env:"INTERVAL" envDefault:"1day"`
	BarCount     int    `env:"BAR_COUNT" envDefault:"60"` // covers the 20-bar lookbacks plus the 29-row window

	ModelPath   string `env:"MODEL_PATH" envDefault:"Model/final_gold_model.json"`
	ScalerXPath string `env:"SCALER_X_PATH" envDefault:"Model/gold_scaler_X.json"`
	ScalerYPath string `env:"SCALER_Y_PATH" envDefault:"Model/gold_scaler_Y.json"`

	ListenAddr     string `env:"LISTEN_ADDR" envDefault:":7860"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	RequestTimeout int    `env:"REQUEST_TIMEOUT" envDefault:"30"` // seconds, market data fetch

	// Resilient client settings
	ServerURL          string  `env:"SERVER_URL" envDefault:"http://localhost:7860"`
	ClientRetries      int     `env:"CLIENT_RETRIES" envDefault:"2"`
	AttemptTimeout     int     `env:"ATTEMPT_TIMEOUT" envDefault:"120"`     // seconds, covers cold-start model loading
	RetryBaseDelay     float64 `env:"RETRY_BASE_DELAY" envDefault:"2"`      // seconds
	ColdStartThreshold int     `env:"COLD_START_THRESHOLD" envDefault:"10"` // seconds before the "still working" notice
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg Config

	cfg.TwelveAPIKey = os.Getenv("TWELVE_API_KEY")
	cfg.Symbol = getEnvWithDefault("SYMBOL", "XAU/USD")
	cfg.Interval = getEnvWithDefault("INTERVAL", "1day")
	cfg.BarCount = getEnvIntWithDefault("BAR_COUNT", 60)

	cfg.ModelPath = getEnvWithDefault("MODEL_PATH", "Model/final_gold_model.json")
	cfg.ScalerXPath = getEnvWithDefault("SCALER_X_PATH", "Model/gold_scaler_X.json")
	cfg.ScalerYPath = getEnvWithDefault("SCALER_Y_PATH", "Model/gold_scaler_Y.json")

	cfg.ListenAddr = getEnvWithDefault("LISTEN_ADDR", ":7860")
	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")
	cfg.RequestTimeout = getEnvIntWithDefault("REQUEST_TIMEOUT", 30)

	cfg.ServerURL = getEnvWithDefault("SERVER_URL", "http://localhost:7860")
	cfg.ClientRetries = getEnvIntWithDefault("CLIENT_RETRIES", 2)
	cfg.AttemptTimeout = getEnvIntWithDefault("ATTEMPT_TIMEOUT", 120)
	cfg.RetryBaseDelay = getEnvFloatWithDefault("RETRY_BASE_DELAY", 2)
	cfg.ColdStartThreshold = getEnvIntWithDefault("COLD_START_THRESHOLD", 10)

	return &cfg, nil
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	// Server
	ServerURL string
	ClientID  string

	// Segmentation settings
	SilenceThresholdMS int
	VADAggressiveness  int

	// HTTP
	HTTPTimeoutSeconds int

	// Monitoring
	MonitorEnabled bool
	MonitorAddr    string

	// Logging
	LogLevel string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("No .env file found, using environment variables only")
	}

	cfg := &Config{
		ServerURL: getEnvOrDefault("MIRA_SERVER_URL", "http://localhost:8000"),
		ClientID:  getEnvOrDefault("MIRA_CLIENT_ID", defaultClientID()),

		SilenceThresholdMS: getIntEnvOrDefault("SILENCE_THRESHOLD_MS", 600),
		VADAggressiveness:  getIntEnvOrDefault("VAD_AGGRESSIVENESS", 3),

		HTTPTimeoutSeconds: getIntEnvOrDefault("HTTP_TIMEOUT_SECONDS", 10),

		MonitorEnabled: getBoolEnvOrDefault("MONITOR_ENABLED", true),
		MonitorAddr:    getEnvOrDefault("MONITOR_ADDR", ":9090"),

		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
	}

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("MIRA_SERVER_URL is required")
	}

	if c.ClientID == "" {
		return fmt.Errorf("MIRA_CLIENT_ID is required")
	}

	if c.SilenceThresholdMS <= 0 {
		return fmt.Errorf("SILENCE_THRESHOLD_MS must be positive")
	}

	if c.VADAggressiveness < 0 || c.VADAggressiveness > 3 {
		return fmt.Errorf("VAD_AGGRESSIVENESS must be between 0 and 3")
	}

	if c.HTTPTimeoutSeconds <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT_SECONDS must be positive")
	}

	if c.MonitorEnabled && c.MonitorAddr == "" {
		return fmt.Errorf("MONITOR_ADDR is required when MONITOR_ENABLED is true")
	}

	return nil
}

func defaultClientID() string {
	hostname, err := os.Hostname()
	if err != nil {
		return "mira-client"
	}
	return hostname
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnvOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the HTTP service
type Config struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string
	TimeZone       string
	Location       *time.Location // day boundaries for date filters
	SampleSize     int            // records served by /calls_data
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Port:           getEnv("PORT", "5004"),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		TimeZone:       getEnv("QUERY_TIMEZONE", "UTC"),
	}

	loc, err := time.LoadLocation(config.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid QUERY_TIMEZONE: %w", err)
	}
	config.Location = loc

	sampleSize, err := strconv.Atoi(getEnv("SAMPLE_SIZE", "25"))
	if err != nil {
		return nil, fmt.Errorf("invalid SAMPLE_SIZE: %w", err)
	}
	if sampleSize < 0 {
		return nil, fmt.Errorf("invalid SAMPLE_SIZE: must not be negative")
	}
	config.SampleSize = sampleSize

	// Trim spaces from allowed origins
	for i, origin := range config.AllowedOrigins {
		config.AllowedOrigins[i] = strings.TrimSpace(origin)
	}

	return config, nil
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

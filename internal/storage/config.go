package storage

import (
	"fmt"
	"os"
	"strings"
)

// Mode selects the analytics store backend
type Mode string

const (
	ModePinot  Mode = "pinot"
	ModeDuckDB Mode = "duckdb"
)

// Config holds analytics store configuration
type Config struct {
	Mode       Mode
	BrokerURL  string // pinot broker base URL
	QueryPath  string // pinot broker SQL endpoint
	Table      string
	DuckDBPath string // empty for an in-memory database
}

// LoadConfig loads store configuration from the environment
func LoadConfig() (Config, error) {
	mode := Mode(strings.ToLower(getEnv("STORE_MODE", string(ModePinot))))
	if mode != ModePinot && mode != ModeDuckDB {
		return Config{}, fmt.Errorf("invalid STORE_MODE %q (want pinot or duckdb)", mode)
	}

	return Config{
		Mode:       mode,
		BrokerURL:  strings.TrimRight(getEnv("PINOT_BROKER_URL", "http://localhost:8099"), "/"),
		QueryPath:  getEnv("PINOT_QUERY_PATH", "/query/sql"),
		Table:      getEnv("PINOT_TABLE", "call_analytics"),
		DuckDBPath: os.Getenv("DUCKDB_PATH"),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Package storage connects to the external analytics store that owns the
// call_analytics table.
package storage

import (
	"context"
	"fmt"

	"github.com/dennisdiepolder/monti/callanalytics/internal/query"
	"github.com/rs/zerolog"
)

// ResultSet holds every row returned by one statement, in column order
type ResultSet struct {
	Columns []string
	Rows    [][]any
}

// Conn is a single connection to the analytics store.
// Close must be called exactly once.
type Conn interface {
	Query(ctx context.Context, stmt query.Statement) (*ResultSet, error)
	Close() error
}

// Connector opens connections to the analytics store
type Connector interface {
	Connect(ctx context.Context) (Conn, error)
	Name() string
}

// NewConnector creates the connector selected by cfg.Mode
func NewConnector(ctx context.Context, cfg Config, logger zerolog.Logger) (Connector, error) {
	switch cfg.Mode {
	case ModePinot:
		logger.Info().
			Str("broker", cfg.BrokerURL).
			Str("table", cfg.Table).
			Msg("using Pinot broker")
		return NewPinotConnector(cfg.BrokerURL, cfg.QueryPath), nil
	case ModeDuckDB:
		return OpenDuckDB(ctx, cfg.DuckDBPath, cfg.Table, logger)
	default:
		return nil, fmt.Errorf("unsupported store mode %q", cfg.Mode)
	}
}

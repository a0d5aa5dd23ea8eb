// Package gateway runs filtered call queries against the analytics store and
// returns normalized call records.
package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/dennisdiepolder/monti/callanalytics/internal/metrics"
	"github.com/dennisdiepolder/monti/callanalytics/internal/query"
	"github.com/dennisdiepolder/monti/callanalytics/internal/storage"
	"github.com/dennisdiepolder/monti/callanalytics/internal/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ExecutionError wraps any failure to connect to the store, run the query or
// read its result.
type ExecutionError struct {
	Cause error
}

func (e *ExecutionError) Error() string {
	return e.Cause.Error()
}

func (e *ExecutionError) Unwrap() error { return e.Cause }

// Gateway issues one store query per call. It holds no per-request state and
// is safe for concurrent use.
type Gateway struct {
	connector storage.Connector
	query     *query.CallQuery
	logger    zerolog.Logger
}

// New creates a Gateway
func New(connector storage.Connector, q *query.CallQuery, logger zerolog.Logger) *Gateway {
	return &Gateway{
		connector: connector,
		query:     q,
		logger:    logger.With().Str("component", "gateway").Logger(),
	}
}

// FetchCallRecords runs the query for f and returns every non-null row, at
// most query.MaxRows. The filter must already be validated.
func (g *Gateway) FetchCallRecords(ctx context.Context, f query.Filter) ([]types.CallRecord, error) {
	stmt := g.query.Build(f)
	queryID := uuid.NewString()

	if e := g.logger.Debug(); e.Enabled() {
		start, _ := f.StartMillis()
		end, _ := f.EndMillis()
		e.Str("query_id", queryID).
			Bool("filtered", !f.IsEmpty()).
			Int64("start_ms", start).
			Int64("end_ms", end).
			Str("agent_id", f.AgentID).
			Str("status", f.Status).
			Str("outcome", f.Outcome).
			Str("sql", stmt.SQL).
			Interface("args", stmt.Args).
			Msg("executing call query")
	}

	began := time.Now()
	rs, err := g.execute(ctx, stmt)
	metrics.RecordStoreQuery(g.connector.Name(), err, time.Since(began))
	if err != nil {
		g.logger.Error().Err(err).Str("query_id", queryID).Msg("call query failed")
		return nil, &ExecutionError{Cause: err}
	}

	records, dropped, err := MapRows(rs)
	if err != nil {
		g.logger.Error().Err(err).Str("query_id", queryID).Msg("malformed call query result")
		return nil, &ExecutionError{Cause: fmt.Errorf("read result: %w", err)}
	}
	metrics.RecordRowsDropped(dropped)

	g.logger.Debug().
		Str("query_id", queryID).
		Int("rows", len(records)).
		Int("dropped", dropped).
		Dur("took", time.Since(began)).
		Msg("call query completed")

	return records, nil
}

// execute opens a connection, runs stmt and releases the connection on every path
func (g *Gateway) execute(ctx context.Context, stmt query.Statement) (*storage.ResultSet, error) {
	conn, err := g.connector.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", g.connector.Name(), err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			g.logger.Warn().Err(cerr).Msg("failed to close store connection")
		}
	}()

	return conn.Query(ctx, stmt)
}

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/dennisdiepolder/monti/callanalytics/internal/query"
	"github.com/dennisdiepolder/monti/callanalytics/internal/types"
	"github.com/rs/zerolog"
)

// DuckDBStore is an embedded analytics store used for local development and
// tests. It serves the same call_analytics table as the Pinot deployment.
type DuckDBStore struct {
	db     *sql.DB
	table  string
	logger zerolog.Logger
}

// OpenDuckDB opens (or creates) the database at path and ensures the table
// exists. An empty path opens an in-memory database.
func OpenDuckDB(ctx context.Context, path, table string, logger zerolog.Logger) (*DuckDBStore, error) {
	if _, err := query.NewCallQuery(table); err != nil {
		return nil, err
	}

	if path != "" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}

	s := &DuckDBStore{
		db:     db,
		table:  table,
		logger: logger.With().Str("component", "duckdb").Logger(),
	}

	if err := s.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	where := path
	if where == "" {
		where = ":memory:"
	}
	s.logger.Info().Str("path", where).Str("table", table).Msg("DuckDB store initialized")

	return s, nil
}

func (s *DuckDBStore) Name() string { return "duckdb" }

// EnsureSchema creates the call table if it does not exist
func (s *DuckDBStore) EnsureSchema(ctx context.Context) error {
	cols := make([]string, 0, len(types.Columns))
	for _, name := range types.Columns {
		cols = append(cols, name+" "+duckType(types.Schema[name]))
	}

	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", s.table, strings.Join(cols, ", "))
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.table, err)
	}
	return nil
}

// InsertRecords loads a millisecond batch in a single transaction
func (s *DuckDBStore) InsertRecords(ctx context.Context, batch types.Batch) (int, error) {
	if batch.Unit != types.UnitMilliseconds {
		return 0, fmt.Errorf("refusing to load %s batch, normalize to milliseconds first", batch.Unit)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(types.Columns)), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.table, strings.Join(types.Columns, ", "), placeholders))
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range batch.Records {
		_, err := stmt.ExecContext(ctx,
			r.RowID, r.CallID, r.AgentID, r.CallStartTime, r.CallEndTime,
			r.Duration, r.DepartmentID, r.CompanyID, string(r.CallStatus), string(r.CallOutcome))
		if err != nil {
			return 0, fmt.Errorf("insert %s: %w", r.CallID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	s.logger.Info().Int("records", len(batch.Records)).Msg("records loaded")
	return len(batch.Records), nil
}

// Exec runs a statement that returns no rows
func (s *DuckDBStore) Exec(ctx context.Context, stmt string, args ...any) error {
	_, err := s.db.ExecContext(ctx, stmt, args...)
	return err
}

// Connect checks out a dedicated connection from the embedded database
func (s *DuckDBStore) Connect(ctx context.Context) (Conn, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("duckdb connection: %w", err)
	}
	return &duckConn{conn: conn}, nil
}

// Close closes the underlying database
func (s *DuckDBStore) Close() error {
	return s.db.Close()
}

type duckConn struct {
	conn      *sql.Conn
	closeOnce sync.Once
	closeErr  error
}

func (c *duckConn) Query(ctx context.Context, stmt query.Statement) (*ResultSet, error) {
	rows, err := c.conn.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	rs := &ResultSet{Columns: cols}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		rs.Rows = append(rs.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rs, nil
}

func (c *duckConn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

func duckType(t types.ColumnType) string {
	switch t {
	case types.TypeInt:
		return "INTEGER"
	case types.TypeLong:
		return "BIGINT"
	case types.TypeDouble:
		return "DOUBLE"
	default:
		return "VARCHAR"
	}
}

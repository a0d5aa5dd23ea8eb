package storage

import (
	"context"
	"testing"

	"github.com/dennisdiepolder/monti/callanalytics/internal/query"
	"github.com/dennisdiepolder/monti/callanalytics/internal/types"
	"github.com/rs/zerolog"
)

func testRecords() []types.CallRecord {
	return []types.CallRecord{
		{RowID: 1, CallID: "CALL_000001", AgentID: "AGT_007", CallStartTime: 1704067200000, CallEndTime: 1704067800000, Duration: 10, DepartmentID: 1, CompanyID: 2, CallStatus: types.StatusCompleted, CallOutcome: types.OutcomeResolved},
		{RowID: 2, CallID: "CALL_000002", AgentID: "AGT_008", CallStartTime: 1704153600000, CallEndTime: 1704154200000, Duration: 10, DepartmentID: 3, CompanyID: 4, CallStatus: types.StatusAbandoned, CallOutcome: types.OutcomeEscalated},
		{RowID: 3, CallID: "CALL_000003", AgentID: "AGT_007", CallStartTime: 1704240000000, CallEndTime: 1704240060000, Duration: 1, DepartmentID: 5, CompanyID: 6, CallStatus: types.StatusTransferred, CallOutcome: types.OutcomeFollowUp},
	}
}

func openTestDuckDB(t *testing.T) *DuckDBStore {
	t.Helper()
	store, err := OpenDuckDB(context.Background(), "", "call_analytics", zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to open duckdb: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestDuckDBInsertAndQuery(t *testing.T) {
	ctx := context.Background()
	store := openTestDuckDB(t)

	n, err := store.InsertRecords(ctx, types.Batch{Unit: types.UnitMilliseconds, Records: testRecords()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 inserted, got %d", n)
	}

	q, _ := query.NewCallQuery("call_analytics")
	stmt := q.Build(query.Filter{AgentID: "AGT_007"})

	conn, err := store.Connect(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer conn.Close()

	rs, err := conn.Query(ctx, stmt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(rs.Columns) != len(types.Columns) {
		t.Fatalf("expected %d columns, got %d", len(types.Columns), len(rs.Columns))
	}
	if len(rs.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rs.Rows))
	}
	for _, row := range rs.Rows {
		if row[2] != "AGT_007" {
			t.Errorf("expected agent AGT_007, got %v", row[2])
		}
	}
}

func TestDuckDBRejectsSecondsBatch(t *testing.T) {
	store := openTestDuckDB(t)

	_, err := store.InsertRecords(context.Background(), types.Batch{Unit: types.UnitSeconds, Records: testRecords()})
	if err == nil {
		t.Fatal("expected error for seconds batch, got nil")
	}
}

func TestDuckDBQueryError(t *testing.T) {
	ctx := context.Background()
	store := openTestDuckDB(t)

	conn, err := store.Connect(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Query(ctx, query.Statement{SQL: "SELECT * FROM missing_table"}); err == nil {
		t.Error("expected error for missing table, got nil")
	}
}

func TestOpenDuckDBInvalidTable(t *testing.T) {
	if _, err := OpenDuckDB(context.Background(), "", "calls;drop", zerolog.Nop()); err == nil {
		t.Error("expected error for invalid table name")
	}
}

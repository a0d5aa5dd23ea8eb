package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dennisdiepolder/monti/callanalytics/internal/query"
	"github.com/goccy/go-json"
)

func TestRenderLiterals(t *testing.T) {
	tests := []struct {
		name    string
		stmt    query.Statement
		want    string
		wantErr bool
	}{
		{
			name: "no args",
			stmt: query.Statement{SQL: "SELECT a FROM t LIMIT 10"},
			want: "SELECT a FROM t LIMIT 10",
		},
		{
			name: "int and string",
			stmt: query.Statement{SQL: "SELECT a FROM t WHERE x >= ? AND y = ?", Args: []any{int64(1704067200000), "AGT_007"}},
			want: "SELECT a FROM t WHERE x >= 1704067200000 AND y = 'AGT_007'",
		},
		{
			name: "quote escaping",
			stmt: query.Statement{SQL: "SELECT a FROM t WHERE y = ?", Args: []any{"x' OR '1'='1"}},
			want: "SELECT a FROM t WHERE y = 'x'' OR ''1''=''1'",
		},
		{
			name: "question mark inside literal",
			stmt: query.Statement{SQL: "SELECT a FROM t WHERE z = 'why?' AND y = ?", Args: []any{"b"}},
			want: "SELECT a FROM t WHERE z = 'why?' AND y = 'b'",
		},
		{
			name:    "missing argument",
			stmt:    query.Statement{SQL: "SELECT a FROM t WHERE y = ? AND z = ?", Args: []any{"b"}},
			wantErr: true,
		},
		{
			name:    "extra argument",
			stmt:    query.Statement{SQL: "SELECT a FROM t", Args: []any{"b"}},
			wantErr: true,
		},
		{
			name:    "unsupported type",
			stmt:    query.Statement{SQL: "SELECT a FROM t WHERE y = ?", Args: []any{[]string{"b"}}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RenderLiterals(tt.stmt)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestPinotConnQuery(t *testing.T) {
	var gotSQL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/query/sql" {
			t.Errorf("expected path /query/sql, got %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		var req map[string]string
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("invalid request body: %v", err)
		}
		gotSQL = req["sql"]

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"resultTable": {
				"dataSchema": {"columnNames": ["row_id", "agent_id"], "columnDataTypes": ["LONG", "STRING"]},
				"rows": [[1, "AGT_007"], [2, "null"]]
			},
			"exceptions": []
		}`)
	}))
	defer srv.Close()

	conn, err := NewPinotConnector(srv.URL, "query/sql").Connect(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer conn.Close()

	rs, err := conn.Query(context.Background(), query.Statement{
		SQL:  "SELECT row_id, agent_id FROM call_analytics WHERE agent_id = ? LIMIT 10000",
		Args: []any{"AGT_007"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(gotSQL, "agent_id = 'AGT_007'") {
		t.Errorf("expected rendered literal in SQL, got %q", gotSQL)
	}
	if len(rs.Columns) != 2 || rs.Columns[1] != "agent_id" {
		t.Errorf("unexpected columns %v", rs.Columns)
	}
	if len(rs.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rs.Rows))
	}
	if rs.Rows[0][1] != "AGT_007" {
		t.Errorf("expected AGT_007, got %v", rs.Rows[0][1])
	}
}

func TestPinotConnQueryErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"broker exception", http.StatusOK, `{"exceptions":[{"errorCode":150,"message":"SQLParsingError"}]}`, "SQLParsingError"},
		{"http failure", http.StatusServiceUnavailable, "broker down", "503"},
		{"bad json", http.StatusOK, "not json", "decode broker response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			conn, _ := NewPinotConnector(srv.URL, "/query/sql").Connect(context.Background())
			defer conn.Close()

			_, err := conn.Query(context.Background(), query.Statement{SQL: "SELECT 1"})
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("expected error containing %q, got %v", tt.wantMsg, err)
			}
		})
	}
}

func TestPinotConnCloseTwice(t *testing.T) {
	conn, _ := NewPinotConnector("http://localhost:8099", "/query/sql").Connect(context.Background())
	if err := conn.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Errorf("unexpected error on second close: %v", err)
	}
}

package ingest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

func TestURL(t *testing.T) {
	c := NewControllerClient("http://controller:9000/", "call_analytics_OFFLINE", nil, zerolog.Nop())

	raw, err := c.URL()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("invalid URL %q: %v", raw, err)
	}
	if u.Path != "/ingestFromFile" {
		t.Errorf("expected path /ingestFromFile, got %s", u.Path)
	}
	if got := u.Query().Get("tableNameWithType"); got != "call_analytics_OFFLINE" {
		t.Errorf("expected table call_analytics_OFFLINE, got %s", got)
	}

	var cfg map[string]string
	if err := json.Unmarshal([]byte(u.Query().Get("batchConfigMapStr")), &cfg); err != nil {
		t.Fatalf("batch config is not JSON: %v", err)
	}
	if cfg["inputFormat"] != "csv" || cfg["recordReader.prop.delimiter"] != "," {
		t.Errorf("unexpected batch config %v", cfg)
	}
}

func TestCurlCommand(t *testing.T) {
	c := NewControllerClient("http://controller:9000", "call_analytics_OFFLINE", nil, zerolog.Nop())

	cmd, err := c.CurlCommand("calls.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(cmd, `curl -X POST -F "file=@calls.csv"`) {
		t.Errorf("unexpected command %q", cmd)
	}
}

func TestIngestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calls.csv")
	if err := os.WriteFile(path, []byte("row_id\n1\n"), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	var gotFile, gotTable string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTable = r.URL.Query().Get("tableNameWithType")
		f, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file field: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		gotFile = string(data)
		io.WriteString(w, `{"status":"Successfully ingested file into table: call_analytics_OFFLINE"}`)
	}))
	defer srv.Close()

	c := NewControllerClient(srv.URL, "call_analytics_OFFLINE", nil, zerolog.Nop())
	if err := c.IngestFile(context.Background(), path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotTable != "call_analytics_OFFLINE" {
		t.Errorf("expected table call_analytics_OFFLINE, got %s", gotTable)
	}
	if gotFile != "row_id\n1\n" {
		t.Errorf("unexpected uploaded content %q", gotFile)
	}
}

func TestIngestFileError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calls.csv")
	os.WriteFile(path, []byte("row_id\n"), 0o600)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, "Table call_analytics_OFFLINE not found")
	}))
	defer srv.Close()

	c := NewControllerClient(srv.URL, "call_analytics_OFFLINE", nil, zerolog.Nop())
	err := c.IngestFile(context.Background(), path)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("expected status in error, got %v", err)
	}
}

func TestIngestFileMissing(t *testing.T) {
	c := NewControllerClient("http://localhost:1", "t_OFFLINE", nil, zerolog.Nop())
	if err := c.IngestFile(context.Background(), filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Error("expected error for missing file")
	}
}

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dennisdiepolder/monti/callanalytics/internal/api"
	"github.com/dennisdiepolder/monti/callanalytics/internal/config"
	"github.com/dennisdiepolder/monti/callanalytics/internal/query"
	"github.com/dennisdiepolder/monti/callanalytics/internal/types"
	"github.com/rs/zerolog"
)

type stubFetcher struct {
	records []types.CallRecord
	calls   int
}

func (s *stubFetcher) FetchCallRecords(_ context.Context, _ query.Filter) ([]types.CallRecord, error) {
	s.calls++
	return s.records, nil
}

func TestHealthHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	healthHandler(rec, req)

	// Check status code
	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}

	// Check content type
	contentType := rec.Header().Get("Content-Type")
	if contentType != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", contentType)
	}

	// Parse response body
	var response map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}

	// Check response fields
	if response["status"] != "ok" {
		t.Errorf("expected status ok, got %s", response["status"])
	}
	if response["service"] != "call-analytics" {
		t.Errorf("expected service call-analytics, got %s", response["service"])
	}
}

func TestRouter(t *testing.T) {
	fetcher := &stubFetcher{records: []types.CallRecord{
		{RowID: 1, CallID: "CALL_000001", AgentID: "AGT_007", CallStartTime: 1704067200000, CallEndTime: 1704067260000, Duration: 1, DepartmentID: 1, CompanyID: 1, CallStatus: types.StatusCompleted, CallOutcome: types.OutcomeResolved},
	}}
	sample := []types.CallRecord{
		{RowID: 1, CallID: "CALL_000001", AgentID: "AGT_001", CallStartTime: 1706700000000, CallEndTime: 1706700060000, Duration: 1, DepartmentID: 2, CompanyID: 3, CallStatus: types.StatusAbandoned, CallOutcome: types.OutcomeEscalated},
		{RowID: 2, CallID: "CALL_000002", AgentID: "AGT_002", CallStartTime: 1706700000000, CallEndTime: 1706700120000, Duration: 2, DepartmentID: 2, CompanyID: 3, CallStatus: types.StatusCompleted, CallOutcome: types.OutcomeFollowUp},
	}
	cfg := &config.Config{AllowedOrigins: []string{"*"}}
	handler := newRouter(cfg, api.NewCallsHandler(fetcher, sample, time.UTC, zerolog.Nop()))

	tests := []struct {
		name         string
		method       string
		target       string
		expectedCode int
		expectedLen  int
	}{
		{"health", http.MethodGet, "/health", http.StatusOK, -1},
		{"sample", http.MethodGet, "/calls_data", http.StatusOK, 2},
		{"filtered", http.MethodGet, "/calls_data_pinot?agent_id=AGT_007", http.StatusOK, 1},
		{"invalid date", http.MethodGet, "/calls_data_pinot?start_date=yesterday", http.StatusBadRequest, -1},
		{"write method", http.MethodPost, "/calls_data", http.StatusMethodNotAllowed, -1},
		{"unknown route", http.MethodGet, "/ws", http.StatusNotFound, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))

			if rec.Code != tt.expectedCode {
				t.Fatalf("expected status %d, got %d", tt.expectedCode, rec.Code)
			}
			if tt.expectedLen < 0 {
				return
			}

			var records []map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
				t.Fatalf("failed to parse response: %v", err)
			}
			if len(records) != tt.expectedLen {
				t.Errorf("expected %d records, got %d", tt.expectedLen, len(records))
			}
		})
	}

	if fetcher.calls != 1 {
		t.Errorf("expected 1 store fetch, got %d", fetcher.calls)
	}
}

func TestMetricsRoute(t *testing.T) {
	cfg := &config.Config{AllowedOrigins: []string{"*"}}
	handler := newRouter(cfg, api.NewCallsHandler(&stubFetcher{}, nil, time.UTC, zerolog.Nop()))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `calls_http_requests_total{path="/health",status="200"}`) {
		t.Error("expected health request in exposed metrics")
	}
}

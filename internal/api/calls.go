package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dennisdiepolder/monti/callanalytics/internal/query"
	"github.com/dennisdiepolder/monti/callanalytics/internal/types"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// RecordFetcher runs a validated filter against the analytics store
type RecordFetcher interface {
	FetchCallRecords(ctx context.Context, f query.Filter) ([]types.CallRecord, error)
}

// CallsHandler serves call records to the front end
type CallsHandler struct {
	fetcher  RecordFetcher
	sample   []types.CallRecord
	location *time.Location
	logger   zerolog.Logger
}

// NewCallsHandler creates a CallsHandler. sample is served as-is by GetSample;
// day boundaries of date filters are computed in loc.
func NewCallsHandler(fetcher RecordFetcher, sample []types.CallRecord, loc *time.Location, logger zerolog.Logger) *CallsHandler {
	if sample == nil {
		sample = []types.CallRecord{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &CallsHandler{
		fetcher:  fetcher,
		sample:   sample,
		location: loc,
		logger:   logger.With().Str("component", "calls_handler").Logger(),
	}
}

// GetSample returns the pre-loaded sample records
// GET /calls_data
func (h *CallsHandler) GetSample(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sample)
}

// GetFiltered queries the analytics store
// GET /calls_data_pinot?start_date=&end_date=&agent_id=&status=&outcome=
func (h *CallsHandler) GetFiltered(w http.ResponseWriter, r *http.Request) {
	filter, err := query.ParseFilter(r.URL.Query(), h.location)
	if err != nil {
		h.logger.Debug().Err(err).Str("query", r.URL.RawQuery).Msg("rejected call filter")
		writeError(w, http.StatusBadRequest, err)
		return
	}

	records, err := h.fetcher.FetchCallRecords(r.Context(), filter)
	if err != nil {
		status := http.StatusInternalServerError
		var verr *query.ValidationError
		if errors.As(err, &verr) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}

	if records == nil {
		records = []types.CallRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

package query

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// DateLayout is the accepted layout of the start_date and end_date parameters
const DateLayout = "2006-01-02"

// Query parameter names accepted by ParseFilter
const (
	ParamStartDate = "start_date"
	ParamEndDate   = "end_date"
	ParamAgentID   = "agent_id"
	ParamStatus    = "status"
	ParamOutcome   = "outcome"
)

// ValidationError reports a malformed filter parameter
type ValidationError struct {
	Param  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Param, e.Value, e.Reason)
}

// Filter holds the optional, request-scoped constraints on a call query.
// Zero values mean "not set".
type Filter struct {
	StartDate *time.Time // inclusive, 00:00:00
	EndDate   *time.Time // inclusive, 23:59:59
	AgentID   string
	Status    string
	Outcome   string
}

// IsEmpty reports whether no constraint is set
func (f Filter) IsEmpty() bool {
	return f.StartDate == nil && f.EndDate == nil && f.AgentID == "" && f.Status == "" && f.Outcome == ""
}

// StartMillis returns the lower bound in epoch milliseconds, or false when unset
func (f Filter) StartMillis() (int64, bool) {
	if f.StartDate == nil {
		return 0, false
	}
	return f.StartDate.UnixMilli(), true
}

// EndMillis returns the upper bound in epoch milliseconds, or false when unset
func (f Filter) EndMillis() (int64, bool) {
	if f.EndDate == nil {
		return 0, false
	}
	return f.EndDate.UnixMilli(), true
}

// ParseFilter validates every parameter before anything is built from them.
// Day boundaries are computed in loc; a nil loc means UTC.
func ParseFilter(values url.Values, loc *time.Location) (Filter, error) {
	if loc == nil {
		loc = time.UTC
	}

	var f Filter

	start, err := parseDay(values, ParamStartDate, loc, 0, 0, 0)
	if err != nil {
		return Filter{}, err
	}
	f.StartDate = start

	end, err := parseDay(values, ParamEndDate, loc, 23, 59, 59)
	if err != nil {
		return Filter{}, err
	}
	f.EndDate = end

	if f.StartDate != nil && f.EndDate != nil && f.EndDate.Before(*f.StartDate) {
		return Filter{}, &ValidationError{
			Param:  ParamEndDate,
			Value:  values.Get(ParamEndDate),
			Reason: "before " + ParamStartDate,
		}
	}

	// Exact-match values are taken verbatim
	f.AgentID = values.Get(ParamAgentID)
	f.Status = values.Get(ParamStatus)
	f.Outcome = values.Get(ParamOutcome)

	return f, nil
}

func parseDay(values url.Values, param string, loc *time.Location, hour, minute, sec int) (*time.Time, error) {
	raw := strings.TrimSpace(values.Get(param))
	if raw == "" {
		return nil, nil
	}

	day, err := time.ParseInLocation(DateLayout, raw, loc)
	if err != nil {
		return nil, &ValidationError{Param: param, Value: raw, Reason: "expected YYYY-MM-DD"}
	}

	t := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, sec, 0, loc)
	return &t, nil
}

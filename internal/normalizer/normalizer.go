// Package normalizer converts call record timestamps to epoch milliseconds
// before they are loaded into the analytics store.
package normalizer

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dennisdiepolder/monti/callanalytics/internal/types"
	"github.com/go-playground/validator/v10"
)

// secondsCeiling is the smallest value that is treated as already being in
// milliseconds when a batch claims to be in seconds (year 5138 in seconds,
// early 1973 in milliseconds). Millisecond input must reach it.
const secondsCeiling = 100_000_000_000

// ErrAlreadyNormalized is returned when a batch marked as seconds holds
// millisecond-sized timestamps.
var ErrAlreadyNormalized = errors.New("timestamps already in milliseconds")

// ErrNotMilliseconds is returned when rows read as milliseconds hold
// seconds-sized timestamps.
var ErrNotMilliseconds = errors.New("timestamps look like seconds, normalize first")

var validate = validator.New()

// FormatError reports a field that could not be converted
type FormatError struct {
	Row   int
	Field string
	Value string
	Err   error
}

func (e *FormatError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("row %d: invalid %s: %v", e.Row, e.Field, e.Err)
	}
	return fmt.Sprintf("row %d: invalid %s %q: %v", e.Row, e.Field, e.Value, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// ToMillis converts a single timestamp expressed in unit to epoch milliseconds
func ToMillis(t float64, unit types.TimeUnit) (int64, error) {
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return 0, fmt.Errorf("not a finite number")
	}
	switch unit {
	case types.UnitMilliseconds:
		if math.Abs(t) < secondsCeiling {
			return 0, ErrNotMilliseconds
		}
		return int64(math.Round(t)), nil
	case types.UnitSeconds:
		if math.Abs(t) >= secondsCeiling {
			return 0, ErrAlreadyNormalized
		}
		return int64(math.Round(t * 1000)), nil
	default:
		return 0, fmt.Errorf("unknown time unit %q", unit)
	}
}

// Normalize returns a copy of batch with both timestamp fields in epoch
// milliseconds. A batch already marked as milliseconds is returned unchanged.
func Normalize(batch types.Batch) (types.Batch, error) {
	out := types.Batch{
		Unit:    types.UnitMilliseconds,
		Records: make([]types.CallRecord, len(batch.Records)),
	}
	copy(out.Records, batch.Records)

	if batch.Unit == types.UnitMilliseconds {
		return out, nil
	}

	for i := range out.Records {
		rec := &out.Records[i]
		start, err := ToMillis(float64(rec.CallStartTime), batch.Unit)
		if err != nil {
			return types.Batch{}, fieldError(i+1, types.ColCallStartTime, strconv.FormatInt(rec.CallStartTime, 10), err)
		}
		end, err := ToMillis(float64(rec.CallEndTime), batch.Unit)
		if err != nil {
			return types.Batch{}, fieldError(i+1, types.ColCallEndTime, strconv.FormatInt(rec.CallEndTime, 10), err)
		}
		rec.CallStartTime = start
		rec.CallEndTime = end

		if err := check(i+1, *rec); err != nil {
			return types.Batch{}, err
		}
	}

	return out, nil
}

// NormalizeRaw parses textual rows whose timestamps are expressed in unit and
// returns a millisecond batch. Non-numeric values fail with a *FormatError.
func NormalizeRaw(rows []types.RawRecord, unit types.TimeUnit) (types.Batch, error) {
	out := types.Batch{
		Unit:    types.UnitMilliseconds,
		Records: make([]types.CallRecord, 0, len(rows)),
	}

	for i, row := range rows {
		line := row.Line
		if line == 0 {
			line = i + 1
		}

		rec, err := parseRow(line, row.Fields, unit)
		if err != nil {
			return types.Batch{}, err
		}
		if err := check(line, rec); err != nil {
			return types.Batch{}, err
		}
		out.Records = append(out.Records, rec)
	}

	return out, nil
}

func parseRow(line int, f map[string]string, unit types.TimeUnit) (types.CallRecord, error) {
	var (
		rec types.CallRecord
		err error
	)

	if rec.RowID, err = strconv.ParseInt(field(f, types.ColRowID), 10, 64); err != nil {
		return rec, fieldError(line, types.ColRowID, field(f, types.ColRowID), err)
	}
	rec.CallID = field(f, types.ColCallID)
	rec.AgentID = field(f, types.ColAgentID)

	if rec.CallStartTime, err = parseTimestamp(field(f, types.ColCallStartTime), unit); err != nil {
		return rec, fieldError(line, types.ColCallStartTime, field(f, types.ColCallStartTime), err)
	}
	if rec.CallEndTime, err = parseTimestamp(field(f, types.ColCallEndTime), unit); err != nil {
		return rec, fieldError(line, types.ColCallEndTime, field(f, types.ColCallEndTime), err)
	}

	if rec.Duration, err = strconv.ParseFloat(field(f, types.ColDuration), 64); err != nil {
		return rec, fieldError(line, types.ColDuration, field(f, types.ColDuration), err)
	}
	if rec.DepartmentID, err = strconv.Atoi(field(f, types.ColDepartmentID)); err != nil {
		return rec, fieldError(line, types.ColDepartmentID, field(f, types.ColDepartmentID), err)
	}
	if rec.CompanyID, err = strconv.Atoi(field(f, types.ColCompanyID)); err != nil {
		return rec, fieldError(line, types.ColCompanyID, field(f, types.ColCompanyID), err)
	}
	rec.CallStatus = types.CallStatus(field(f, types.ColCallStatus))
	rec.CallOutcome = types.CallOutcome(field(f, types.ColCallOutcome))

	return rec, nil
}

func parseTimestamp(s string, unit types.TimeUnit) (int64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.New("not numeric")
	}
	return ToMillis(v, unit)
}

// check enforces the record invariants after conversion
func check(line int, rec types.CallRecord) error {
	if rec.CallEndTime < rec.CallStartTime {
		return &FormatError{
			Row:   line,
			Field: types.ColCallEndTime,
			Value: strconv.FormatInt(rec.CallEndTime, 10),
			Err:   fmt.Errorf("before call_start_time %d", rec.CallStartTime),
		}
	}

	if err := validate.Struct(rec); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &FormatError{
				Row:   line,
				Field: verrs[0].Field(),
				Value: fmt.Sprint(verrs[0].Value()),
				Err:   fmt.Errorf("failed %q check", verrs[0].Tag()),
			}
		}
		return &FormatError{Row: line, Field: "record", Err: err}
	}
	return nil
}

func fieldError(line int, name, value string, err error) error {
	if errors.Is(err, ErrAlreadyNormalized) || errors.Is(err, ErrNotMilliseconds) {
		return fmt.Errorf("row %d %s: %w", line, name, err)
	}
	return &FormatError{Row: line, Field: name, Value: value, Err: err}
}

func field(f map[string]string, name string) string {
	return strings.TrimSpace(f[name])
}

package gateway

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dennisdiepolder/monti/callanalytics/internal/storage"
	"github.com/dennisdiepolder/monti/callanalytics/internal/types"
)

// nullText is how the store renders a missing STRING value
const nullText = "null"

// errNull marks a column value that is the store's null sentinel for its type
var errNull = errors.New("null value")

// number covers decoder number types (goccy/go-json and encoding/json)
type number interface {
	Int64() (int64, error)
	Float64() (float64, error)
	String() string
}

// MapRows converts a result set into call records. A row is dropped as a whole
// when any column holds the null sentinel of its declared type; the number of
// dropped rows is returned alongside the records.
func MapRows(rs *storage.ResultSet) ([]types.CallRecord, int, error) {
	// Pinot omits resultTable when no segment was queried
	if rs == nil || len(rs.Rows) == 0 {
		return []types.CallRecord{}, 0, nil
	}

	index := make(map[string]int, len(rs.Columns))
	for i, name := range rs.Columns {
		index[strings.ToLower(name)] = i
	}
	for _, name := range types.Columns {
		if _, ok := index[name]; !ok {
			return nil, 0, fmt.Errorf("result is missing column %s", name)
		}
	}

	records := make([]types.CallRecord, 0, len(rs.Rows))
	dropped := 0

	for n, row := range rs.Rows {
		if len(row) != len(rs.Columns) {
			return nil, 0, fmt.Errorf("row %d has %d values, expected %d", n, len(row), len(rs.Columns))
		}

		rec, err := mapRow(row, index)
		if errors.Is(err, errNull) {
			dropped++
			continue
		}
		if err != nil {
			return nil, 0, fmt.Errorf("row %d: %w", n, err)
		}
		records = append(records, rec)
	}

	return records, dropped, nil
}

func mapRow(row []any, index map[string]int) (types.CallRecord, error) {
	var rec types.CallRecord

	for _, name := range types.Columns {
		v := row[index[name]]

		switch types.Schema[name] {
		case types.TypeString:
			s, err := stringValue(v)
			if err != nil {
				return rec, fmt.Errorf("%s: %w", name, err)
			}
			setString(&rec, name, s)
		case types.TypeLong, types.TypeInt:
			n, err := intValue(v, types.Schema[name])
			if err != nil {
				return rec, fmt.Errorf("%s: %w", name, err)
			}
			setInt(&rec, name, n)
		case types.TypeDouble:
			f, err := floatValue(v)
			if err != nil {
				return rec, fmt.Errorf("%s: %w", name, err)
			}
			rec.Duration = f
		}
	}

	return rec, nil
}

func setString(rec *types.CallRecord, name, s string) {
	switch name {
	case types.ColCallID:
		rec.CallID = s
	case types.ColAgentID:
		rec.AgentID = s
	case types.ColCallStatus:
		rec.CallStatus = types.CallStatus(s)
	case types.ColCallOutcome:
		rec.CallOutcome = types.CallOutcome(s)
	}
}

func setInt(rec *types.CallRecord, name string, n int64) {
	switch name {
	case types.ColRowID:
		rec.RowID = n
	case types.ColCallStartTime:
		rec.CallStartTime = n
	case types.ColCallEndTime:
		rec.CallEndTime = n
	case types.ColDepartmentID:
		rec.DepartmentID = int(n)
	case types.ColCompanyID:
		rec.CompanyID = int(n)
	}
}

func stringValue(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", errNull
	case string:
		if x == nullText {
			return "", errNull
		}
		return x, nil
	case []byte:
		return stringValue(string(x))
	case number:
		return x.String(), nil
	default:
		return fmt.Sprint(x), nil
	}
}

func intValue(v any, t types.ColumnType) (int64, error) {
	var n int64

	switch x := v.(type) {
	case nil:
		return 0, errNull
	case int64:
		n = x
	case int32:
		n = int64(x)
	case int:
		n = int64(x)
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) || math.IsNaN(x) {
			return 0, fmt.Errorf("not an integer: %v", x)
		}
		n = int64(x)
	case number:
		i, err := x.Int64()
		if err != nil {
			f, ferr := x.Float64()
			if ferr != nil || f != math.Trunc(f) {
				return 0, fmt.Errorf("not an integer: %s", x.String())
			}
			i = int64(f)
		}
		n = i
	case string:
		if x == nullText {
			return 0, errNull
		}
		i, err := strconv.ParseInt(x, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("not an integer: %q", x)
		}
		n = i
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}

	if t == types.TypeInt && n == math.MinInt32 {
		return 0, errNull
	}
	if t == types.TypeLong && n == math.MinInt64 {
		return 0, errNull
	}
	return n, nil
}

func floatValue(v any) (float64, error) {
	var f float64

	switch x := v.(type) {
	case nil:
		return 0, errNull
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int64:
		f = float64(x)
	case int32:
		f = float64(x)
	case int:
		f = float64(x)
	case number:
		v, err := x.Float64()
		if err != nil {
			return 0, fmt.Errorf("not a number: %s", x.String())
		}
		f = v
	case string:
		if x == nullText {
			return 0, errNull
		}
		v, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", x)
		}
		f = v
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}

	if math.IsNaN(f) || math.IsInf(f, -1) {
		return 0, errNull
	}
	return f, nil
}

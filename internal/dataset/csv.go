// Package dataset reads and writes the tabular call record file that is bulk
// loaded into the analytics store.
package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dennisdiepolder/monti/callanalytics/internal/types"
	"github.com/natefinch/atomic"
)

// EncodeCSV writes the header and one line per record
func EncodeCSV(w io.Writer, batch types.Batch) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(types.Columns); err != nil {
		return err
	}
	for _, r := range batch.Records {
		if err := cw.Write([]string{
			strconv.FormatInt(r.RowID, 10),
			r.CallID,
			r.AgentID,
			strconv.FormatInt(r.CallStartTime, 10),
			strconv.FormatInt(r.CallEndTime, 10),
			strconv.FormatFloat(r.Duration, 'f', -1, 64),
			strconv.Itoa(r.DepartmentID),
			strconv.Itoa(r.CompanyID),
			string(r.CallStatus),
			string(r.CallOutcome),
		}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteCSV atomically replaces path with the encoded batch
func WriteCSV(path string, batch types.Batch) error {
	var buf bytes.Buffer
	if err := EncodeCSV(&buf, batch); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadCSV parses a call record file. The header must name every column of
// types.Columns; other columns are ignored.
func ReadCSV(r io.Reader) ([]types.RawRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty file: missing header")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var missing []string
	for _, name := range types.Columns {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("header is missing columns: %s", strings.Join(missing, ", "))
	}

	var rows []types.RawRecord
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		fields := make(map[string]string, len(types.Columns))
		for _, name := range types.Columns {
			if i := index[name]; i < len(rec) {
				fields[name] = rec[i]
			}
		}
		rows = append(rows, types.RawRecord{Line: line, Fields: fields})
	}

	return rows, nil
}

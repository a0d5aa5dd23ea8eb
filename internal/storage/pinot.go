package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/dennisdiepolder/monti/callanalytics/internal/query"
	"github.com/goccy/go-json"
)

// PinotConnector talks to a Pinot broker over its SQL HTTP endpoint
type PinotConnector struct {
	endpoint string
}

// NewPinotConnector creates a connector for brokerURL (e.g. "http://localhost:8099")
func NewPinotConnector(brokerURL, queryPath string) *PinotConnector {
	if !strings.HasPrefix(queryPath, "/") {
		queryPath = "/" + queryPath
	}
	return &PinotConnector{endpoint: strings.TrimRight(brokerURL, "/") + queryPath}
}

func (c *PinotConnector) Name() string { return "pinot" }

// Connect returns a connection with its own transport, so nothing is pooled
// across requests.
func (c *PinotConnector) Connect(_ context.Context) (Conn, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	return &pinotConn{
		endpoint:  c.endpoint,
		transport: transport,
		client:    &http.Client{Transport: transport},
	}, nil
}

type pinotConn struct {
	endpoint  string
	transport *http.Transport
	client    *http.Client
	closeOnce sync.Once
}

type brokerRequest struct {
	SQL string `json:"sql"`
}

type brokerResponse struct {
	ResultTable *struct {
		DataSchema struct {
			ColumnNames     []string `json:"columnNames"`
			ColumnDataTypes []string `json:"columnDataTypes"`
		} `json:"dataSchema"`
		Rows [][]any `json:"rows"`
	} `json:"resultTable"`
	Exceptions []struct {
		ErrorCode int    `json:"errorCode"`
		Message   string `json:"message"`
	} `json:"exceptions"`
}

func (c *pinotConn) Query(ctx context.Context, stmt query.Statement) (*ResultSet, error) {
	sql, err := RenderLiterals(stmt)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(brokerRequest{SQL: sql})
	if err != nil {
		return nil, fmt.Errorf("marshal broker request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create broker request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", c.endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("POST %s returned status %d: %s", c.endpoint, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out brokerResponse
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode broker response: %w", err)
	}

	if len(out.Exceptions) > 0 {
		e := out.Exceptions[0]
		return nil, fmt.Errorf("pinot error %d: %s", e.ErrorCode, e.Message)
	}

	rs := &ResultSet{}
	if out.ResultTable != nil {
		rs.Columns = out.ResultTable.DataSchema.ColumnNames
		rs.Rows = out.ResultTable.Rows
	}
	return rs, nil
}

func (c *pinotConn) Close() error {
	c.closeOnce.Do(c.transport.CloseIdleConnections)
	return nil
}

// RenderLiterals substitutes every "?" placeholder outside quoted text with the
// SQL literal of the matching argument. Pinot's SQL endpoint has no bind
// parameters, so values are quoted here instead of being concatenated by callers.
func RenderLiterals(stmt query.Statement) (string, error) {
	var (
		sb      strings.Builder
		next    int
		inQuote bool
	)

	for i := 0; i < len(stmt.SQL); i++ {
		ch := stmt.SQL[i]
		switch {
		case ch == '\'':
			inQuote = !inQuote
			sb.WriteByte(ch)
		case ch == '?' && !inQuote:
			if next >= len(stmt.Args) {
				return "", fmt.Errorf("statement has more placeholders than arguments (%d)", len(stmt.Args))
			}
			lit, err := literal(stmt.Args[next])
			if err != nil {
				return "", fmt.Errorf("argument %d: %w", next+1, err)
			}
			sb.WriteString(lit)
			next++
		default:
			sb.WriteByte(ch)
		}
	}

	if next != len(stmt.Args) {
		return "", fmt.Errorf("statement uses %d of %d arguments", next, len(stmt.Args))
	}
	return sb.String(), nil
}

func literal(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'", nil
	case int:
		return strconv.Itoa(x), nil
	case int32:
		return strconv.FormatInt(int64(x), 10), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return "", fmt.Errorf("non-finite float %v", x)
		}
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(x), nil
	default:
		return "", fmt.Errorf("unsupported argument type %T", v)
	}
}

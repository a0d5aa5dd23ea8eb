// Package ingest uploads call record files to the Pinot controller.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// BatchConfig is the record reader configuration sent with each file
type BatchConfig map[string]string

// DefaultBatchConfig reads comma separated CSV
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		"inputFormat":                 "csv",
		"recordReader.prop.delimiter": ",",
	}
}

// ControllerClient posts files to the controller's ingestFromFile endpoint
type ControllerClient struct {
	controllerURL string
	table         string
	config        BatchConfig
	httpClient    *http.Client
	logger        zerolog.Logger
}

// NewControllerClient creates a client for controllerURL (e.g. "http://localhost:9000").
// table is the table name with type, e.g. "call_analytics_OFFLINE".
func NewControllerClient(controllerURL, table string, config BatchConfig, logger zerolog.Logger) *ControllerClient {
	if config == nil {
		config = DefaultBatchConfig()
	}
	return &ControllerClient{
		controllerURL: strings.TrimRight(controllerURL, "/"),
		table:         table,
		config:        config,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
		logger: logger.With().Str("component", "ingest").Logger(),
	}
}

// URL returns the fully encoded ingestFromFile URL
func (c *ControllerClient) URL() (string, error) {
	cfg, err := json.Marshal(c.config)
	if err != nil {
		return "", fmt.Errorf("marshal batch config: %w", err)
	}

	q := url.Values{}
	q.Set("tableNameWithType", c.table)
	q.Set("batchConfigMapStr", string(cfg))

	return c.controllerURL + "/ingestFromFile?" + q.Encode(), nil
}

// CurlCommand renders the equivalent curl invocation for path
func (c *ControllerClient) CurlCommand(path string) (string, error) {
	u, err := c.URL()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`curl -X POST -F "file=@%s" -H "Content-Type: multipart/form-data" "%s"`, path, u), nil
}

// IngestFile uploads the file at path as a multipart "file" field
func (c *ControllerClient) IngestFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("finish multipart body: %w", err)
	}

	u, err := c.URL()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, &body)
	if err != nil {
		return fmt.Errorf("create ingest request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", c.controllerURL, err)
	}
	defer resp.Body.Close()

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ingest returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	c.logger.Info().
		Str("table", c.table).
		Str("file", path).
		Str("response", strings.TrimSpace(string(msg))).
		Msg("file ingested")
	return nil
}

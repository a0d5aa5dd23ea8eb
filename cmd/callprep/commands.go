package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dennisdiepolder/monti/callanalytics/internal/callgen"
	"github.com/dennisdiepolder/monti/callanalytics/internal/dataset"
	"github.com/dennisdiepolder/monti/callanalytics/internal/ingest"
	"github.com/dennisdiepolder/monti/callanalytics/internal/normalizer"
	"github.com/dennisdiepolder/monti/callanalytics/internal/storage"
	"github.com/dennisdiepolder/monti/callanalytics/internal/types"
	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"
)

var errFlagRequired = errors.New("missing required flag")

func generateCmd() *command {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	records := fs.IntP("records", "n", 1000, "number of records to generate")
	seed := fs.Int64("seed", 42, "random seed")
	unit := fs.String("unit", "ms", "timestamp unit of the output (s or ms)")
	out := fs.StringP("out", "o", "calls.csv", "output CSV file")

	return &command{
		Flags: fs,
		Usage: "generate [--records n] [--out file]",
		Short: "Generate synthetic call records as CSV",
		Exec: func(_ context.Context, stdout io.Writer, logger zerolog.Logger) error {
			if *records < 0 {
				return fmt.Errorf("--records must not be negative")
			}
			u, err := parseUnit(*unit)
			if err != nil {
				return err
			}

			g, err := callgen.NewGenerator(*seed, nil, callgen.DefaultOptions())
			if err != nil {
				return err
			}
			batch, err := g.Generate(*records, u)
			if err != nil {
				return err
			}
			if err := dataset.WriteCSV(*out, batch); err != nil {
				return err
			}

			logger.Info().Int("records", len(batch.Records)).Str("unit", string(u)).Str("file", *out).Msg("dataset generated")
			fmt.Fprintf(stdout, "wrote %d records to %s\n", len(batch.Records), *out)
			return nil
		},
	}
}

func normalizeCmd() *command {
	fs := flag.NewFlagSet("normalize", flag.ContinueOnError)
	in := fs.StringP("in", "i", "", "input CSV file")
	out := fs.StringP("out", "o", "", "output CSV file")
	from := fs.String("from-unit", "s", "timestamp unit of the input (s or ms)")

	return &command{
		Flags: fs,
		Usage: "normalize --in file --out file",
		Short: "Convert CSV timestamps to epoch milliseconds",
		Exec: func(_ context.Context, stdout io.Writer, logger zerolog.Logger) error {
			if *in == "" || *out == "" {
				return fmt.Errorf("%w: --in and --out", errFlagRequired)
			}
			u, err := parseUnit(*from)
			if err != nil {
				return err
			}

			batch, err := readBatch(*in, u)
			if err != nil {
				return err
			}
			if err := dataset.WriteCSV(*out, batch); err != nil {
				return err
			}

			logger.Info().Int("records", len(batch.Records)).Str("from", string(u)).Str("file", *out).Msg("dataset normalized")
			fmt.Fprintf(stdout, "normalized %d records to %s\n", len(batch.Records), *out)
			return nil
		},
	}
}

func ingestCmd() *command {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	file := fs.StringP("file", "f", "", "CSV file with millisecond timestamps (checked before upload)")
	controller := fs.String("controller", envOr("PINOT_CONTROLLER_URL", "http://localhost:9000"), "Pinot controller base URL")
	table := fs.String("table", "call_analytics_OFFLINE", "table name with type")
	printOnly := fs.Bool("print-only", false, "print the ingest URL and curl command without uploading")

	return &command{
		Flags: fs,
		Usage: "ingest --file file [--print-only]",
		Short: "Upload a CSV file to the Pinot controller",
		Exec: func(ctx context.Context, stdout io.Writer, logger zerolog.Logger) error {
			if *file == "" {
				return fmt.Errorf("%w: --file", errFlagRequired)
			}

			client := ingest.NewControllerClient(*controller, *table, nil, logger)

			if *printOnly {
				u, err := client.URL()
				if err != nil {
					return err
				}
				curl, err := client.CurlCommand(*file)
				if err != nil {
					return err
				}
				fmt.Fprintln(stdout, u)
				fmt.Fprintln(stdout, curl)
				return nil
			}

			// The controller stores values as-is, so only millisecond files go up
			batch, err := readBatch(*file, types.UnitMilliseconds)
			if err != nil {
				return fmt.Errorf("refusing to ingest %s: %w", *file, err)
			}
			logger.Debug().Int("records", len(batch.Records)).Str("file", *file).Msg("ingest file checked")

			if err := client.IngestFile(ctx, *file); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "ingested %s into %s\n", *file, *table)
			return nil
		},
	}
}

func loadDuckDBCmd() *command {
	fs := flag.NewFlagSet("load-duckdb", flag.ContinueOnError)
	file := fs.StringP("file", "f", "", "CSV file to load")
	db := fs.String("db", envOr("DUCKDB_PATH", "calls.duckdb"), "DuckDB database file")
	table := fs.String("table", envOr("PINOT_TABLE", "call_analytics"), "table to load into")
	unit := fs.String("unit", "ms", "timestamp unit of the input (s or ms)")

	return &command{
		Flags: fs,
		Usage: "load-duckdb --file file [--db path]",
		Short: "Load a CSV file into the embedded DuckDB store",
		Exec: func(ctx context.Context, stdout io.Writer, logger zerolog.Logger) error {
			if *file == "" {
				return fmt.Errorf("%w: --file", errFlagRequired)
			}
			u, err := parseUnit(*unit)
			if err != nil {
				return err
			}

			batch, err := readBatch(*file, u)
			if err != nil {
				return err
			}

			store, err := storage.OpenDuckDB(ctx, *db, *table, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.InsertRecords(ctx, batch)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "loaded %d records into %s (%s)\n", n, *table, *db)
			return nil
		},
	}
}

// readBatch reads a CSV file and normalizes it to milliseconds
func readBatch(path string, unit types.TimeUnit) (types.Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.Batch{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := dataset.ReadCSV(f)
	if err != nil {
		return types.Batch{}, fmt.Errorf("%s: %w", path, err)
	}
	return normalizer.NormalizeRaw(rows, unit)
}

func parseUnit(s string) (types.TimeUnit, error) {
	u, ok := types.ParseTimeUnit(s)
	if !ok {
		return "", fmt.Errorf("unknown time unit %q (want s or ms)", s)
	}
	return u, nil
}

func envOr(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

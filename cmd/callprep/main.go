// Command callprep prepares call record datasets and loads them into the
// analytics store.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"
)

// command is one callprep subcommand
type command struct {
	Flags *flag.FlagSet
	Usage string
	Short string
	Exec  func(ctx context.Context, stdout io.Writer, logger zerolog.Logger) error
}

func (c *command) name() string {
	name, _, _ := strings.Cut(c.Usage, " ")
	return name
}

func (c *command) printHelp(w io.Writer) {
	fmt.Fprintln(w, "Usage: callprep", c.Usage)
	fmt.Fprintln(w)
	fmt.Fprintln(w, c.Short)
	if c.Flags.HasFlags() {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Flags:")
		c.Flags.SetOutput(w)
		c.Flags.PrintDefaults()
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// run dispatches args to a subcommand and returns the exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	level := zerolog.InfoLevel
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if l, err := zerolog.ParseLevel(v); err == nil {
			level = l
		}
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()

	commands := []*command{
		generateCmd(),
		normalizeCmd(),
		ingestCmd(),
		loadDuckDBCmd(),
	}

	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage(stdout, commands)
		if len(args) == 0 {
			return 1
		}
		return 0
	}

	var cmd *command
	for _, c := range commands {
		if c.name() == args[0] {
			cmd = c
			break
		}
	}
	if cmd == nil {
		fmt.Fprintf(stderr, "error: unknown command %q\n\n", args[0])
		printUsage(stderr, commands)
		return 1
	}

	cmd.Flags.SetOutput(io.Discard)
	if err := cmd.Flags.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			cmd.printHelp(stdout)
			return 0
		}
		fmt.Fprintln(stderr, "error:", err)
		fmt.Fprintln(stderr)
		cmd.printHelp(stderr)
		return 1
	}
	if extra := cmd.Flags.Args(); len(extra) > 0 {
		fmt.Fprintf(stderr, "error: unexpected arguments %v\n", extra)
		return 1
	}

	if err := cmd.Exec(ctx, stdout, logger); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

func printUsage(w io.Writer, commands []*command) {
	fmt.Fprintln(w, "Usage: callprep <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-38s %s\n", c.Usage, c.Short)
	}
}

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/cmlabs-hris/attendance-summary/internal/domain/report"
	reportService "github.com/cmlabs-hris/attendance-summary/internal/service/report"
	"github.com/spf13/cobra"
)

const diagnosticPrefix = "python-summary-error"

type options struct {
	inputPath string
	pretty    bool
	verbose   bool
}

// execute runs the command and returns the process exit status.
func execute(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if args == nil {
		args = []string{}
	}
	cmd := newRootCommand(stdin, stdout, stderr)
	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", diagnosticPrefix, err)
		return 1
	}
	return 0
}

func newRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "attendance-summary",
		Short: "Summarize attendance records and flag high-hour entries",
		Long: `Reads a JSON payload {"rows": [...], "totals": {...}} from stdin (or --input)
and writes {"summary", "anomalies", "rowCount"} as JSON to stdout.
Blank input is treated as an empty payload.`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummary(opts, stdin, stdout, stderr)
		},
	}

	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	cmd.Flags().StringVarP(&opts.inputPath, "input", "i", "", "read the payload from a file instead of stdin")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "indent the JSON output")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "log debug information to stderr")

	return cmd
}

func runSummary(opts *options, stdin io.Reader, stdout, stderr io.Writer) error {
	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	raw, err := readInput(opts.inputPath, stdin)
	if err != nil {
		return err
	}
	logger.Debug("Payload read", "bytes", len(raw), "source", inputName(opts.inputPath))

	payload, err := report.DecodePayload(raw)
	if err != nil {
		return err
	}

	result := reportService.BuildSummary(payload)
	logger.Debug("Summary built", "row_count", result.RowCount, "anomaly_count", len(result.Anomalies))

	// Encode fully before writing so a failure leaves stdout empty.
	var out []byte
	if opts.pretty {
		out, err = json.MarshalIndent(result, "", "  ")
	} else {
		out, err = json.Marshal(result)
	}
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}

	_, err = io.Copy(stdout, bytes.NewReader(out))
	return err
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func inputName(path string) string {
	if path == "" || path == "-" {
		return "stdin"
	}
	return path
}

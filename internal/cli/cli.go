package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/pipegrid/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("pipegrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
PipeGrid - Splits a training graph into pipeline stages and plans a 1F1B schedule.

Usage:
  pipegrid [options] -graph GRAPH_FILE SPEC_PATH...

Arguments:
  SPEC_PATH
    Path to a single .hcl file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	graphFlag := flagSet.String("graph", "", "Path to the graph file (yaml).")
	gFlag := flagSet.String("g", "", "Path to the graph file (shorthand).")
	outFlag := flagSet.String("out", app.DefaultOutDir, "Directory for sub-graphs and plan.json.")
	batchesFlag := flagSet.Int("batches", 0, "Number of batches. 0 uses the pipeline block.")
	poolFlag := flagSet.Int64("event-pool-size", 0, "Event pool capacity. 0 uses the pipeline block or the default.")
	timelineFlag := flagSet.Bool("timeline", false, "Print the schedule timeline.")
	noColorFlag := flagSet.Bool("no-color", false, "Disable colors in the timeline.")
	simulateFlag := flagSet.Bool("simulate", false, "Execute the plan symbolically after planning.")
	simTimeoutFlag := flagSet.Duration("simulate-timeout", app.DefaultSimulateTimeout, "Upper bound for a simulation.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	graphPath := *graphFlag
	if graphPath == "" {
		graphPath = *gFlag
	}
	specPaths := flagSet.Args()
	slog.Debug("Paths determined.", "graph", graphPath, "specs", specPaths)

	if graphPath == "" && len(specPaths) == 0 {
		slog.Debug("No paths provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}
	if graphPath == "" {
		return nil, false, &ExitError{Code: 2, Message: "missing graph file: pass -graph"}
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	if *simTimeoutFlag <= 0 {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("invalid simulate-timeout %s: must be positive", *simTimeoutFlag)}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		GraphPath:       graphPath,
		SpecPaths:       specPaths,
		OutDir:          *outFlag,
		Batches:         *batchesFlag,
		EventPoolSize:   *poolFlag,
		Timeline:        *timelineFlag,
		NoColor:         *noColorFlag,
		Simulate:        *simulateFlag,
		SimulateTimeout: *simTimeoutFlag,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

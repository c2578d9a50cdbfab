// Package cli translates command-line arguments into an app.Config.
package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/vk/edgeflow/internal/app"
	"github.com/vk/edgeflow/internal/scheduler"
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

// Parse processes command-line arguments. It returns a populated Config, a
// boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("edgeflow", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
EdgeFlow - A level-ordered flow execution engine.

Usage:
  edgeflow [options] [FLOW_PATH]

Arguments:
  FLOW_PATH
    Path to a flow definition file (.hcl, .yaml, or .yml).

Options:
`)
		flagSet.PrintDefaults()
	}

	flowFlag := flagSet.String("flow", "", "Path to the flow definition file.")
	fFlag := flagSet.String("f", "", "Path to the flow definition file (shorthand).")
	strategyFlag := flagSet.String("strategy", "parallel", "Execution strategy. Options: 'sequential', 'parallel', or 'hybrid'.")
	workersFlag := flagSet.Int("workers", 4, "Maximum concurrent nodes per level.")
	onErrorFlag := flagSet.String("on-error", "isolate", "Failure policy. Options: 'fail_fast', 'isolate', or 'retry'.")
	retryAttemptsFlag := flagSet.Int("retry-attempts", 3, "Attempts per node under the retry policy.")
	retryDelayFlag := flagSet.String("retry-delay", "1s", "Initial delay between retry attempts.")
	softLimitFlag := flagSet.String("soft-limit", "", "Cooperative run deadline, e.g. '30s'. Empty is disabled.")
	hardLimitFlag := flagSet.String("hard-limit", "", "Absolute run cutoff, e.g. '1m'. Empty is disabled.")
	metricsPortFlag := flagSet.Int("metrics-port", 0, "Port for the Prometheus metrics server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *flowFlag != "" {
		path = *flowFlag
	} else if *fFlag != "" {
		path = *fFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Flow path determined.", "path", path)

	if path == "" {
		slog.Debug("No flow path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	strategy, err := scheduler.ParseStrategy(strings.ToLower(*strategyFlag))
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	onError, err := scheduler.ParseFailurePolicy(strings.ToLower(*onErrorFlag))
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	retryDelay, err := time.ParseDuration(*retryDelayFlag)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("invalid retry-delay: %v", err)}
	}

	softLimit, err := parseLimit(*softLimitFlag)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("invalid soft-limit: %v", err)}
	}
	hardLimit, err := parseLimit(*hardLimitFlag)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("invalid hard-limit: %v", err)}
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
	slog.Debug("CLI parameter validation complete.")

	config := &app.Config{
		FlowPath:      path,
		Strategy:      strategy,
		MaxWorkers:    *workersFlag,
		OnError:       onError,
		RetryAttempts: *retryAttemptsFlag,
		RetryDelay:    retryDelay,
		SoftLimit:     softLimit,
		HardLimit:     hardLimit,
		MetricsPort:   *metricsPortFlag,
		LogFormat:     logFormat,
		LogLevel:      logLevel,
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

func parseLimit(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

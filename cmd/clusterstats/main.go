// Package main is the entry point for the clusterstats CLI.
//
// clusterstats can be used as a library (SDK) or as a standalone binary
// driven by flags and an optional YAML run file. This CLI provides the
// standalone binary approach.
//
// Usage:
//
//	clusterstats -i servers.txt -f 8 -t 2      # Poll the fleet once
//	clusterstats -c run.yaml --verbose         # Poll using a run file
//	clusterstats validate -c run.yaml          # Validate a run file
//	clusterstats version                       # Show version info
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Exit codes.
const (
	exitFailed  = 1 // run completed but QoS or aggregation failed
	exitInvalid = 2 // bad flags or configuration, nothing polled
)

// exitError carries a process exit code through cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func invalid(err error) error { return &exitError{code: exitInvalid, err: err} }

// newRootCmd builds the command tree. The root command polls the fleet.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "clusterstats",
		Short: "Poll a fleet's status endpoints and aggregate the results",
		Long: `clusterstats polls http://{host}/status on every host of a fleet once,
checks that enough hosts answered (the QoS threshold), and sums a counter
grouped by application and version.

Results are printed as a summary block and written to a CSV file named by
the current epoch milliseconds in the output directory.

Quick start:
  1. List hosts one per line in servers.txt
  2. Run: clusterstats -i servers.txt -o /tmp -f 8

Exit codes:
  0 - QoS met and results written
  1 - QoS not met, or a payload could not be aggregated
  2 - Invalid flags or configuration`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runPoll,
	}

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return invalid(err)
	})
	addPollFlags(root)
	root.AddCommand(newValidateCmd(), newVersionCmd())
	return root
}

// newVersionCmd prints version information.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version, commit hash, and build date of this clusterstats binary.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "clusterstats %s\n", version)
			fmt.Fprintf(out, "  commit: %s\n", commit)
			fmt.Fprintf(out, "  built:  %s\n", date)
		},
	}
}

// Execute runs the root command and exits with the mapped code on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}

	fmt.Fprintln(os.Stderr, "Error:", err)

	var ee *exitError
	if errors.As(err, &ee) {
		os.Exit(ee.code)
	}
	os.Exit(exitFailed)
}

func main() {
	Execute()
}

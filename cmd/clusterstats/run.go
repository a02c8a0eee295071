package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/clusterstats"
	"github.com/jpalmerr/clusterstats/config"
	"github.com/jpalmerr/clusterstats/internal/report"
)

func addPollFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("config", "c", "", "path to a YAML run file")
	f.String("env-file", ".env", "environment file loaded before the run file is read")
	f.StringP("inventory_file", "i", "", "file with one host to query per line")
	f.StringArray("host", nil, "host to query, repeatable")
	f.StringP("output_dir", "o", "", "directory to write the CSV results to (default system temp dir)")
	f.Float64P("qos", "q", config.DefaultQoS, "percentage of hosts that must answer for results to be computed")
	f.BoolP("verbose", "v", false, "log at debug level and list failed queries")
	f.Float64P("timeout", "t", config.DefaultTimeout.Seconds(), "per attempt timeout in seconds")
	f.IntP("threads", "f", config.DefaultWorkers, "max concurrent HTTP connections")
	f.IntP("retries", "r", config.DefaultRetries, "retries per host on connection failure")
	f.Duration("backoff", 0, "initial delay between retries")
	f.BoolP("aggr_success_rate", "s", false, "aggregate Success_Count by Application and Version, replacing the run file's aggregation section")
	f.String("log-file", "", "also write logs to this file, rotated by size")
}

// loadConfig resolves the run configuration: the run file (or defaults),
// then flags given on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	f := cmd.Flags()

	envFile, _ := f.GetString("env-file")
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, err
	}

	cfg := config.Default()
	if path, _ := f.GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if f.Changed("inventory_file") {
		cfg.InventoryFile, _ = f.GetString("inventory_file")
	}
	if f.Changed("host") {
		hosts, _ := f.GetStringArray("host")
		cfg.Hosts = append(cfg.Hosts, hosts...)
	}
	if f.Changed("output_dir") {
		cfg.OutputDir, _ = f.GetString("output_dir")
	}
	if f.Changed("qos") {
		q, _ := f.GetFloat64("qos")
		cfg.QoS = &q
	}
	if f.Changed("timeout") {
		secs, _ := f.GetFloat64("timeout")
		cfg.Timeout = config.Duration(time.Duration(secs * float64(time.Second)))
	}
	if f.Changed("threads") {
		cfg.Workers, _ = f.GetInt("threads")
	}
	if f.Changed("retries") {
		n, _ := f.GetInt("retries")
		cfg.Retries = &n
	}
	if f.Changed("backoff") {
		d, _ := f.GetDuration("backoff")
		cfg.Backoff = config.Duration(d)
	}
	if successRate, _ := f.GetBool("aggr_success_rate"); successRate {
		cfg.Aggregation = config.SuccessRateAggregation()
	}
	if f.Changed("log-file") {
		cfg.Log.File, _ = f.GetString("log-file")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// preflight checks the filesystem before anything is polled.
func preflight(cfg *config.Config) error {
	if cfg.InventoryFile != "" {
		info, err := os.Stat(cfg.InventoryFile)
		if err != nil {
			return fmt.Errorf("inventory file: %w", err)
		}
		if !info.Mode().IsRegular() {
			return fmt.Errorf("inventory file %s is not a regular file", cfg.InventoryFile)
		}
	}

	info, err := os.Stat(cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("output dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("output dir %s is not a directory", cfg.OutputDir)
	}

	probe, err := os.CreateTemp(cfg.OutputDir, ".clusterstats-*")
	if err != nil {
		return fmt.Errorf("output dir %s is not writable: %w", cfg.OutputDir, err)
	}
	_ = probe.Close()
	_ = os.Remove(probe.Name())
	return nil
}

func runPoll(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return invalid(err)
	}
	if err := preflight(cfg); err != nil {
		return invalid(err)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	logger, closeLog := newLogger(cmd.ErrOrStderr(), cfg.Log, verbose)
	defer closeLog()

	opts, err := config.BuildOptions(cfg)
	if err != nil {
		return invalid(err)
	}
	opts = append(opts, clusterstats.WithLogger(logger))

	collector, err := clusterstats.New(opts...)
	if err != nil {
		if errors.Is(err, clusterstats.ErrNoEndpoints) {
			return invalid(fmt.Errorf("no hosts to query: %w", err))
		}
		return invalid(err)
	}

	rep, runErr := collector.Run(cmd.Context())

	summary := report.Summary{Report: rep}
	if runErr == nil {
		path, err := report.WriteCSV(cfg.OutputDir, rep.Table, time.Now())
		if err != nil {
			runErr = fmt.Errorf("failed to write results: %w", err)
		} else {
			summary.OutputFile = path
		}
	}

	var qosErr *clusterstats.QoSUnmetError
	if runErr != nil && !errors.As(runErr, &qosErr) {
		summary.Err = runErr
	}

	if err := report.PrintSummary(cmd.OutOrStdout(), summary, verbose); err != nil {
		logger.Error("failed to print summary", "error", err)
	}

	if runErr != nil {
		return &exitError{code: exitFailed, err: runErr}
	}
	return nil
}

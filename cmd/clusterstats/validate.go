package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/clusterstats/config"
)

// newValidateCmd validates a run file without polling anything.
func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a run file",
		Long: `Validate a clusterstats run file without polling any host.

This command parses the YAML, expands environment variables, validates
all fields and reads the inventory file. It's useful for CI/CD pipelines
or pre-deployment checks.

Exit codes:
  0 - Config is valid
  2 - Config is invalid (error details printed to stderr)

Example:
  clusterstats validate -c run.yaml
  clusterstats validate --config /etc/clusterstats/run.yaml`,
		Args: cobra.NoArgs,
		RunE: runValidate,
	}

	cmd.Flags().StringP("config", "c", "", "path to config file (required)")
	cmd.Flags().String("env-file", ".env", "environment file loaded before the run file is read")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	envFile, _ := cmd.Flags().GetString("env-file")
	if err := config.LoadDotEnv(envFile); err != nil {
		return invalid(err)
	}

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return invalid(err)
	}
	if err := cfg.Validate(); err != nil {
		return invalid(err)
	}

	inventoryHosts := 0
	if cfg.InventoryFile != "" {
		hosts, err := config.ReadInventory(cfg.InventoryFile)
		if err != nil {
			return invalid(err)
		}
		inventoryHosts = len(hosts)
	}
	directHosts := len(cfg.Hosts)
	gridHosts := config.GridHostCount(cfg)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Workers:     %d\n", cfg.Workers)
	fmt.Fprintf(out, "  Timeout:     %s\n", cfg.Timeout.Duration())
	fmt.Fprintf(out, "  Retries:     %d\n", cfg.RetryCount())
	fmt.Fprintf(out, "  QoS:         %g%%\n", cfg.QoSThreshold())
	fmt.Fprintf(out, "  Output dir:  %s\n", cfg.OutputDir)
	fmt.Fprintf(out, "  Hosts:       %d from inventory + %d direct + %d from grids = %d total\n",
		inventoryHosts, directHosts, gridHosts, inventoryHosts+directHosts+gridHosts)

	return nil
}

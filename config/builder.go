package config

import (
	"fmt"

	"github.com/jpalmerr/clusterstats"
)

// BuildHosts collects the hosts of every source in a fixed order: the
// inventory file, then hosts, then each host grid.
func BuildHosts(cfg *Config) ([]string, error) {
	var hosts []string

	if cfg.InventoryFile != "" {
		inv, err := ReadInventory(cfg.InventoryFile)
		if err != nil {
			return nil, err
		}
		hosts = append(hosts, inv...)
	}

	hosts = append(hosts, cfg.Hosts...)

	for i, g := range cfg.HostGrids {
		gridHosts, err := clusterstats.NewHostGrid(
			clusterstats.WithHostTemplate(g.Template),
			clusterstats.WithDimensions(g.Dimensions),
		)
		if err != nil {
			return nil, fmt.Errorf("host_grids[%d]: %w", i, err)
		}
		hosts = append(hosts, gridHosts...)
	}

	return hosts, nil
}

// GridHostCount returns how many hosts the grids expand to, without
// rendering them.
func GridHostCount(cfg *Config) int {
	n := 0
	for _, g := range cfg.HostGrids {
		n += clusterstats.GridSize(g.Dimensions)
	}
	return n
}

// BuildOptions converts the configuration into SDK options, hosts included.
func BuildOptions(cfg *Config) ([]clusterstats.Option, error) {
	hosts, err := BuildHosts(cfg)
	if err != nil {
		return nil, err
	}

	spec, err := cfg.AggregateSpec()
	if err != nil {
		return nil, err
	}

	return []clusterstats.Option{
		clusterstats.WithHosts(hosts...),
		clusterstats.WithWorkers(cfg.Workers),
		clusterstats.WithTimeout(cfg.Timeout.Duration()),
		clusterstats.WithRetries(cfg.RetryCount()),
		clusterstats.WithBackoff(cfg.Backoff.Duration()),
		clusterstats.WithQoSThreshold(cfg.QoSThreshold()),
		clusterstats.WithAggregation(spec),
	}, nil
}

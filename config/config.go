// Package config provides YAML run files for the clusterstats binary.
//
// A run file is an alternative to passing every option on the command line.
// Flags given on the command line override values from the file.
//
// Example configuration:
//
//	inventory_file: /etc/clusterstats/hosts.txt
//	output_dir: /var/lib/clusterstats
//	workers: 16
//	timeout: 2s
//	retries: 2
//	qos: 95
//
//	hosts:
//	  - ${EXTRA_HOST:-canary.example.com:8080}
//
//	host_grids:
//	  - template: "{{.app}}-{{.n}}.prod.internal"
//	    dimensions:
//	      app: [web, cache]
//	      n: ["01", "02", "03"]
//
//	aggregation:
//	  group_by: [Application, Version]
//	  field: Success_Count
//	  operator: sum
//
//	log:
//	  file: /var/log/clusterstats.log
//	  max_size_mb: 10
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"text/template"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jpalmerr/clusterstats"
)

// Defaults applied by [Parse] to keys missing from the file.
const (
	DefaultWorkers = 1
	DefaultTimeout = time.Second
	DefaultRetries = 3
	DefaultQoS     = 99.0
)

// Config is the root configuration structure of a run file.
//
// It maps directly to the YAML file structure. Use [Load] or [Parse] to
// create a Config from YAML.
type Config struct {
	// InventoryFile is a newline-delimited host list, read by [ReadInventory].
	// Supports environment variable substitution.
	InventoryFile string `yaml:"inventory_file"`

	// Hosts are polled in addition to the inventory file.
	// Values support environment variable substitution.
	Hosts []string `yaml:"hosts" validate:"dive,required,host"`

	// HostGrids generate hosts via cartesian product.
	HostGrids []HostGridConfig `yaml:"host_grids" validate:"dive"`

	// OutputDir is where the CSV report is written. Defaults to the system
	// temporary directory.
	OutputDir string `yaml:"output_dir" validate:"required"`

	// Workers is the number of concurrent workers. Defaults to 1.
	Workers int `yaml:"workers" validate:"min=1"`

	// Timeout bounds each HTTP attempt. Defaults to 1s.
	Timeout Duration `yaml:"timeout" validate:"gt=0"`

	// Retries is the number of extra attempts on transport failure.
	// Negative values are treated as 0. Defaults to 3 when absent.
	Retries *int `yaml:"retries"`

	// Backoff is the initial delay between retries. Defaults to 0.
	Backoff Duration `yaml:"backoff" validate:"gte=0"`

	// QoS is the expected success percentage, in (0, 100]. Defaults to 99
	// when absent; an explicit 0 is rejected.
	QoS *float64 `yaml:"qos" validate:"gt=0,lte=100"`

	// Aggregation selects how successful payloads are grouped and summed.
	Aggregation AggregationConfig `yaml:"aggregation"`

	// Log configures an optional rotating log file.
	Log LogConfig `yaml:"log"`
}

// HostGridConfig defines hosts generated from a template.
//
// For example, with dimensions {app: [web, cache], n: [01, 02]} the grid
// expands to 4 hosts.
type HostGridConfig struct {
	// Template is a Go template; dimension keys are available as variables.
	// Supports environment variable substitution.
	Template string `yaml:"template" validate:"required"`

	// Dimensions maps dimension names to their possible values.
	Dimensions map[string][]string `yaml:"dimensions" validate:"required,min=1"`
}

// AggregationConfig mirrors [clusterstats.AggregateSpec].
type AggregationConfig struct {
	// GroupBy defaults to [Application, Version].
	GroupBy []string `yaml:"group_by" validate:"min=1,dive,required"`

	// Field defaults to Success_Count.
	Field string `yaml:"field" validate:"required"`

	// Operator defaults to sum. "+" is accepted as an alias.
	Operator string `yaml:"operator" validate:"required,oneof=sum +"`
}

// LogConfig configures log file rotation. Logs always go to stderr; a file
// is written in addition when File is set.
type LogConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `yaml:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `yaml:"max_age_days" validate:"gte=0"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// QoSThreshold returns the configured QoS percentage, or the default when
// unset.
func (c *Config) QoSThreshold() float64 {
	if c.QoS == nil {
		return DefaultQoS
	}
	return *c.QoS
}

// RetryCount returns the configured retries, normalised to be non-negative.
func (c *Config) RetryCount() int {
	if c.Retries == nil {
		return DefaultRetries
	}
	if *c.Retries < 0 {
		return 0
	}
	return *c.Retries
}

// AggregateSpec converts the aggregation section to the SDK type.
func (c *Config) AggregateSpec() (clusterstats.AggregateSpec, error) {
	op, err := clusterstats.ParseOperator(c.Aggregation.Operator)
	if err != nil {
		return clusterstats.AggregateSpec{}, err
	}
	return clusterstats.AggregateSpec{
		GroupBy:  append([]string(nil), c.Aggregation.GroupBy...),
		Field:    c.Aggregation.Field,
		Operator: op,
	}, nil
}

// Default returns a Config with every default applied and no hosts.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML run file.
//
// Environment variables in the file are expanded before validation.
// Returns an error if the file cannot be read, parsed or validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML run file data.
//
// Environment variables are expanded in inventory_file, hosts, output_dir,
// host grid templates and log.file. Defaults are applied to missing keys
// before the fields are validated. Whether any host source is configured is
// left to [Config.Validate], since command line flags may still add one.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.expandEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.validateFields(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SuccessRateAggregation sums Success_Count by Application and Version.
func SuccessRateAggregation() AggregationConfig {
	def := clusterstats.DefaultAggregateSpec()
	return AggregationConfig{
		GroupBy:  def.GroupBy,
		Field:    def.Field,
		Operator: string(def.Operator),
	}
}

func (c *Config) applyDefaults() {
	if c.OutputDir == "" {
		c.OutputDir = os.TempDir()
	}
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
	if c.Timeout == 0 {
		c.Timeout = Duration(DefaultTimeout)
	}
	if c.QoS == nil {
		q := DefaultQoS
		c.QoS = &q
	}

	def := SuccessRateAggregation()
	if len(c.Aggregation.GroupBy) == 0 {
		c.Aggregation.GroupBy = def.GroupBy
	}
	if c.Aggregation.Field == "" {
		c.Aggregation.Field = def.Field
	}
	if c.Aggregation.Operator == "" {
		c.Aggregation.Operator = def.Operator
	}
}

func (c *Config) expandEnv() error {
	var err error

	if c.InventoryFile, err = expandEnvVars(c.InventoryFile); err != nil {
		return fmt.Errorf("inventory_file: %w", err)
	}
	if c.OutputDir, err = expandEnvVars(c.OutputDir); err != nil {
		return fmt.Errorf("output_dir: %w", err)
	}
	if c.Log.File, err = expandEnvVars(c.Log.File); err != nil {
		return fmt.Errorf("log.file: %w", err)
	}
	for i := range c.Hosts {
		if c.Hosts[i], err = expandEnvVars(c.Hosts[i]); err != nil {
			return fmt.Errorf("hosts[%d]: %w", i, err)
		}
	}
	for i := range c.HostGrids {
		if c.HostGrids[i].Template, err = expandEnvVars(c.HostGrids[i].Template); err != nil {
			return fmt.Errorf("host_grids[%d]: template: %w", i, err)
		}
	}
	return nil
}

// Validate checks field constraints and requires at least one host source.
//
// Whether the inventory file and output directory exist is checked when the
// run starts, not here.
func (c *Config) Validate() error {
	if err := c.validateFields(); err != nil {
		return err
	}
	if c.InventoryFile == "" && len(c.Hosts) == 0 && len(c.HostGrids) == 0 {
		return errors.New("at least one of inventory_file, hosts or host_grids must be set")
	}
	return nil
}

func (c *Config) validateFields() error {
	if err := validateStruct(c); err != nil {
		return err
	}

	for i, g := range c.HostGrids {
		// fail fast before the SDK tries to use an invalid template
		if _, err := template.New("").Parse(g.Template); err != nil {
			return fmt.Errorf("host_grids[%d]: invalid template: %w", i, err)
		}
		for name, values := range g.Dimensions {
			seen := make(map[string]struct{}, len(values))
			for _, v := range values {
				if _, exists := seen[v]; exists {
					return fmt.Errorf("host_grids[%d]: dimension %q has duplicate value %q", i, name, v)
				}
				seen[v] = struct{}{}
			}
		}
	}
	return nil
}

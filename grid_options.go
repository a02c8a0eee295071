package clusterstats

import (
	"errors"
	"fmt"
	"strings"
)

// gridConfig holds configuration during host grid construction.
type gridConfig struct {
	hostTemplate string
	dimensions   map[string][]string
}

// GridOption configures host grid generation.
// GridOption implements the functional options pattern for [NewHostGrid].
type GridOption func(*gridConfig) error

// WithHostTemplate sets the template hosts are generated from.
// Dimension keys are available as template variables.
//
// Example:
//
//	WithHostTemplate("{{.app}}-{{.n}}.{{.dc}}.example.com:8080")
//
// Returns an error if the template string is empty.
func WithHostTemplate(tmpl string) GridOption {
	return func(cfg *gridConfig) error {
		if strings.TrimSpace(tmpl) == "" {
			return errors.New("host template required")
		}
		cfg.hostTemplate = tmpl
		return nil
	}
}

// WithDimensions sets the dimension values for cartesian product expansion.
//
// Example:
//
//	WithDimensions(map[string][]string{
//	    "dc": {"ams", "fra"},
//	    "n":  {"01", "02", "03"},
//	})
//
// Returns an error if the map is empty, any dimension has no values, or any
// value is empty, contains whitespace or a slash.
func WithDimensions(dims map[string][]string) GridOption {
	return func(cfg *gridConfig) error {
		if len(dims) == 0 {
			return errors.New("at least one dimension required")
		}
		for k, vals := range dims {
			if len(vals) == 0 {
				return fmt.Errorf("dimension '%s' has no values", k)
			}
			for i, v := range vals {
				if v == "" {
					return fmt.Errorf("dimension '%s' contains empty value at index %d", k, i)
				}
				if strings.ContainsAny(v, " \t\r\n/") {
					return fmt.Errorf("dimension '%s' value %q is not valid in a host name", k, v)
				}
			}
		}
		cfg.dimensions = dims
		return nil
	}
}

package clusterstats

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"text/template"
)

// NewHostGrid generates host names from a template and dimensions using
// cartesian product expansion.
//
// The host template uses Go's text/template syntax. Missing template keys
// cause an error. Hosts are returned in a deterministic order: dimension keys
// sorted alphabetically, values in their given order, rightmost key varying
// fastest.
//
// Example:
//
//	hosts, err := NewHostGrid(
//	    WithHostTemplate("{{.app}}-{{.n}}.example.com"),
//	    WithDimensions(map[string][]string{
//	        "app": {"web", "cache"},
//	        "n":   {"01", "02"},
//	    }),
//	)
//	// cache-01.example.com, cache-02.example.com, web-01.example.com, web-02.example.com
func NewHostGrid(opts ...GridOption) ([]string, error) {
	cfg := &gridConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.hostTemplate == "" {
		return nil, errors.New("host template required")
	}
	if len(cfg.dimensions) == 0 {
		return nil, errors.New("at least one dimension required")
	}

	tmpl, err := template.New("host").Option("missingkey=error").Parse(cfg.hostTemplate)
	if err != nil {
		return nil, fmt.Errorf("invalid host template: %w", err)
	}

	combinations := cartesianProduct(cfg.dimensions)
	hosts := make([]string, 0, len(combinations))
	for _, combo := range combinations {
		host, err := executeTemplate(tmpl, combo)
		if err != nil {
			return nil, fmt.Errorf("template execution failed for %s: %w", formatCombo(combo), err)
		}
		host = strings.TrimSpace(host)
		if host == "" {
			return nil, fmt.Errorf("template produced an empty host for %s", formatCombo(combo))
		}
		hosts = append(hosts, host)
	}

	return hosts, nil
}

// cartesianProduct generates all combinations of dimension values.
// Keys are sorted alphabetically for deterministic output.
// Values maintain their original slice order.
//
// Example:
//
//	Input:  {"x": ["a","b"], "y": ["1","2"]}
//	Output: [{"x":"a","y":"1"}, {"x":"a","y":"2"}, {"x":"b","y":"1"}, {"x":"b","y":"2"}]
func cartesianProduct(dims map[string][]string) []map[string]string {
	if len(dims) == 0 {
		return nil
	}

	keys := sortedKeys(dims)

	// empty dimensions are also rejected by WithDimensions
	for _, k := range keys {
		if len(dims[k]) == 0 {
			return nil
		}
	}

	total := 1
	for _, k := range keys {
		total *= len(dims[k])
	}

	result := make([]map[string]string, 0, total)

	indices := make([]int, len(keys))
	for {
		combo := make(map[string]string, len(keys))
		for i, k := range keys {
			combo[k] = dims[k][indices[i]]
		}
		result = append(result, combo)

		// increment indices (rightmost first)
		for i := len(keys) - 1; i >= 0; i-- {
			indices[i]++
			if indices[i] < len(dims[keys[i]]) {
				break
			}
			indices[i] = 0
			if i == 0 {
				return result
			}
		}
	}
}

// GridSize returns the number of hosts a set of dimensions expands to.
func GridSize(dims map[string][]string) int {
	if len(dims) == 0 {
		return 0
	}
	size := 1
	for _, vals := range dims {
		size *= len(vals)
	}
	return size
}

// executeTemplate renders the template with the given data.
func executeTemplate(tmpl *template.Template, data map[string]string) (string, error) {
	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// formatCombo renders a combination as "k1=v1,k2=v2" with sorted keys.
func formatCombo(combo map[string]string) string {
	keys := make([]string, 0, len(combo))
	for k := range combo {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + combo[k]
	}
	return strings.Join(parts, ",")
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

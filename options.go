package clusterstats

import (
	"errors"
	"log/slog"
	"time"
)

// collectorConfig holds mutable state during Collector construction.
type collectorConfig struct {
	endpoints   []Endpoint
	workers     int
	timeout     time.Duration
	retries     int
	backoff     time.Duration
	qos         float64
	aggregation AggregateSpec
	logger      *slog.Logger
	callbacks   []func(Outcome)
}

// Option is a function that configures a [Collector] during construction.
//
// Options return an error if validation fails; [New] stops at the first
// failing option.
type Option func(*collectorConfig) error

// WithHosts adds hosts to the fleet. Each host is polled at
// http://{host}/status. Duplicates are kept and polled independently.
//
// Can be called multiple times.
//
// Example:
//
//	c, err := clusterstats.New(
//	    clusterstats.WithHosts("web-01:8080", "web-02:8080"),
//	)
func WithHosts(hosts ...string) Option {
	return func(cfg *collectorConfig) error {
		cfg.endpoints = append(cfg.endpoints, BuildEndpoints(hosts)...)
		return nil
	}
}

// WithEndpoints adds already resolved endpoints to the fleet.
func WithEndpoints(endpoints ...Endpoint) Option {
	return func(cfg *collectorConfig) error {
		cfg.endpoints = append(cfg.endpoints, endpoints...)
		return nil
	}
}

// WithHostGrid adds the hosts generated by [NewHostGrid].
//
// Example:
//
//	c, err := clusterstats.New(
//	    clusterstats.WithHostGrid(
//	        clusterstats.WithHostTemplate("{{.app}}-{{.n}}.prod.internal"),
//	        clusterstats.WithDimensions(map[string][]string{
//	            "app": {"web", "cache"},
//	            "n":   {"01", "02", "03"},
//	        }),
//	    ),
//	)
func WithHostGrid(opts ...GridOption) Option {
	return func(cfg *collectorConfig) error {
		hosts, err := NewHostGrid(opts...)
		if err != nil {
			return err
		}
		cfg.endpoints = append(cfg.endpoints, BuildEndpoints(hosts)...)
		return nil
	}
}

// WithWorkers sets the number of concurrent workers.
//
// The pool never runs more workers than there are hosts. Defaults to 1.
//
// Returns an error if n is less than 1.
func WithWorkers(n int) Option {
	return func(cfg *collectorConfig) error {
		if n < 1 {
			return errors.New("workers must be at least 1")
		}
		cfg.workers = n
		return nil
	}
}

// WithTimeout sets the timeout of each HTTP attempt, covering connect,
// headers and body. Defaults to 1 second.
//
// Returns an error if the duration is zero or negative.
func WithTimeout(d time.Duration) Option {
	return func(cfg *collectorConfig) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		cfg.timeout = d
		return nil
	}
}

// WithRetries sets how many extra attempts are made after a transport
// failure. A non-2xx status or an unreadable payload is never retried.
// Negative values are treated as 0. Defaults to 3.
func WithRetries(n int) Option {
	return func(cfg *collectorConfig) error {
		if n < 0 {
			n = 0
		}
		cfg.retries = n
		return nil
	}
}

// WithBackoff sets the initial delay between retries. The delay doubles on
// each retry and is capped at one second. Defaults to 0 (retry immediately).
//
// Returns an error if the duration is negative.
func WithBackoff(d time.Duration) Option {
	return func(cfg *collectorConfig) error {
		if d < 0 {
			return errors.New("backoff cannot be negative")
		}
		cfg.backoff = d
		return nil
	}
}

// WithQoSThreshold sets the minimum success percentage required for the run
// to pass. Defaults to 99.
//
// Returns an error unless 0 < q <= 100.
func WithQoSThreshold(q float64) Option {
	return func(cfg *collectorConfig) error {
		if err := ValidateQoSThreshold(q); err != nil {
			return err
		}
		cfg.qos = q
		return nil
	}
}

// WithAggregation sets how successful payloads are grouped and reduced.
// Defaults to [DefaultAggregateSpec].
//
// It is validated immediately, so an unsupported operator is reported
// by [New] rather than after polling.
func WithAggregation(spec AggregateSpec) Option {
	return func(cfg *collectorConfig) error {
		op, err := ParseOperator(string(spec.Operator))
		if err != nil {
			return err
		}
		spec.Operator = op
		if err := spec.Validate(); err != nil {
			return err
		}
		cfg.aggregation = spec
		return nil
	}
}

// WithLogger sets a custom [slog.Logger]. If not specified, [slog.Default]
// is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *collectorConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithResultCallback registers a function called once per polled endpoint.
//
// Callbacks run after polling has finished and before the QoS gate, from a
// single goroutine, in input order. Multiple callbacks execute in
// registration order. Panics within callbacks are recovered and logged.
//
// Example:
//
//	c, err := clusterstats.New(
//	    clusterstats.WithHosts(hosts...),
//	    clusterstats.WithResultCallback(func(o clusterstats.Outcome) {
//	        if !o.Succeeded() {
//	            log.Printf("%s: %v", o.Endpoint.Host(), o.Failure)
//	        }
//	    }),
//	)
//
// Nil callbacks are silently ignored.
func WithResultCallback(cb func(Outcome)) Option {
	return func(cfg *collectorConfig) error {
		if cb == nil {
			return nil
		}
		cfg.callbacks = append(cfg.callbacks, cb)
		return nil
	}
}

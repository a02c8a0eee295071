package clusterstats

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/clusterstats/internal/poller"
)

const (
	defaultWorkers      = 1
	defaultTimeout      = time.Second
	defaultRetries      = 3
	defaultQoSThreshold = 99.0
)

// Collector polls a fixed fleet once per [Collector.Run], gates the result
// on QoS and aggregates the successful payloads.
//
// A Collector is created using [New] with functional options. It holds no
// state between runs and may be run repeatedly.
type Collector struct {
	endpoints   []Endpoint
	workers     int
	timeout     time.Duration
	retries     int
	backoff     time.Duration
	qos         float64
	aggregation AggregateSpec
	logger      *slog.Logger
	callbacks   []func(Outcome)

	// fetcher overrides the HTTP client in tests.
	fetcher poller.Fetcher
}

// New creates a [Collector] with the given options.
//
// At least one host must be configured via [WithHosts], [WithEndpoints] or
// [WithHostGrid]. Other options have defaults:
//   - Workers: 1
//   - Timeout: 1 second per attempt
//   - Retries: 3
//   - QoS threshold: 99%
//   - Aggregation: [DefaultAggregateSpec]
//
// Returns an error if no host is configured or if any option is invalid.
func New(opts ...Option) (*Collector, error) {
	cfg := &collectorConfig{
		workers:     defaultWorkers,
		timeout:     defaultTimeout,
		retries:     defaultRetries,
		qos:         defaultQoSThreshold,
		aggregation: DefaultAggregateSpec(),
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if len(cfg.endpoints) == 0 {
		return nil, ErrNoEndpoints
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Collector{
		endpoints:   cfg.endpoints,
		workers:     cfg.workers,
		timeout:     cfg.timeout,
		retries:     cfg.retries,
		backoff:     cfg.backoff,
		qos:         cfg.qos,
		aggregation: cfg.aggregation,
		logger:      logger,
		callbacks:   cfg.callbacks,
	}, nil
}

// Run polls every endpoint once and returns the resulting [Report].
//
// Run blocks until every endpoint has an outcome. Individual endpoint
// failures are recorded in the report, not returned. Run returns:
//   - a report with a table and a nil error when the QoS gate passes
//   - a report without a table and a [*QoSUnmetError] when it does not
//   - a report without a table and an error wrapping [*MalformedPayloadError]
//     or [*UnsupportedOperatorError] when aggregation fails
//
// The report is never nil, so callers can always show counts and QoS.
//
// Cancelling ctx makes the remaining fetches fail fast; every endpoint
// still gets an outcome.
func (c *Collector) Run(ctx context.Context) (*Report, error) {
	started := time.Now()
	runID := uuid.NewString()
	logger := c.logger.With("run_id", runID)

	logger.Info("poll starting",
		"endpoint_count", len(c.endpoints),
		"workers", c.workers,
		"timeout", c.timeout.String(),
		"retries", c.retries,
	)

	fetcher := c.fetcher
	if fetcher == nil {
		client := poller.NewClient(c.backoff)
		defer client.Close()
		fetcher = client
	}

	results := poller.PollAll(ctx, c.toPollerEndpoints(), poller.Options{
		Workers:    c.workers,
		Timeout:    c.timeout,
		MaxRetries: c.retries,
	}, fetcher, logger)

	rs := c.toResultSet(results)
	c.invokeCallbacks(rs)

	report := &Report{
		RunID:     runID,
		StartedAt: started,
		Outcomes:  rs,
	}

	qos, err := Evaluate(rs, c.qos)
	if err != nil {
		report.Duration = time.Since(started)
		return report, err
	}
	report.QoS = qos

	logger.Info("poll finished",
		"total", qos.Total,
		"succeeded", qos.Succeeded,
		"qos", qos.Ratio,
		"threshold", qos.Threshold,
		"passed", qos.Passed,
		"duration_ms", time.Since(started).Milliseconds(),
	)

	if !qos.Passed {
		report.Duration = time.Since(started)
		return report, &QoSUnmetError{QoS: qos}
	}

	table, err := Aggregate(rs.Sorted().Payloads(), c.aggregation)
	report.Duration = time.Since(started)
	if err != nil {
		return report, fmt.Errorf("aggregation failed: %w", err)
	}
	report.Table = table

	return report, nil
}

// toPollerEndpoints converts endpoints to the poller format.
func (c *Collector) toPollerEndpoints() []poller.EndpointInfo {
	result := make([]poller.EndpointInfo, len(c.endpoints))
	for i, ep := range c.endpoints {
		result[i] = poller.EndpointInfo{Index: i, URL: ep.url}
	}
	return result
}

// toResultSet converts poller results to public outcomes, keeping
// completion order.
func (c *Collector) toResultSet(results []poller.Result) ResultSet {
	rs := make(ResultSet, len(results))
	for i, r := range results {
		o := Outcome{
			Endpoint:   c.endpoints[r.Index],
			Attempts:   r.Attempts,
			StatusCode: r.StatusCode,
			Latency:    r.Latency,
			CheckedAt:  r.CheckedAt,
			index:      r.Index,
		}
		if r.Succeeded() {
			o.Payload = copyPayload(r.Payload)
		} else {
			o.Failure = &Failure{Kind: FailureKind(r.Kind), Reason: r.Err.Error()}
		}
		rs[i] = o
	}
	return rs
}

func (c *Collector) invokeCallbacks(rs ResultSet) {
	if len(c.callbacks) == 0 {
		return
	}
	for _, o := range rs.Sorted() {
		for _, cb := range c.callbacks {
			invokeCallbackSafe(cb, o, c.logger)
		}
	}
}

// Endpoints returns a copy of the configured endpoints.
func (c *Collector) Endpoints() []Endpoint {
	cp := make([]Endpoint, len(c.endpoints))
	copy(cp, c.endpoints)
	return cp
}

// Workers returns the configured worker count.
func (c *Collector) Workers() int {
	return c.workers
}

// Timeout returns the per-attempt timeout.
func (c *Collector) Timeout() time.Duration {
	return c.timeout
}

// Retries returns the number of transport retries.
func (c *Collector) Retries() int {
	return c.retries
}

// QoSThreshold returns the expected success percentage.
func (c *Collector) QoSThreshold() float64 {
	return c.qos
}

// Aggregation returns the aggregation spec.
func (c *Collector) Aggregation() AggregateSpec {
	spec := c.aggregation
	spec.GroupBy = append([]string(nil), spec.GroupBy...)
	return spec
}

// invokeCallbackSafe calls a result callback with panic recovery.
// Panics are logged but do not propagate.
func invokeCallbackSafe(cb func(Outcome), o Outcome, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("result callback panicked",
				"panic", r,
				"url", o.Endpoint.URL(),
			)
		}
	}()
	o.Payload = copyPayload(o.Payload)
	cb(o)
}

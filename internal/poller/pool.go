package poller

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EndpointInfo is a single endpoint to poll.
//
// This is the poller-internal representation of an endpoint, decoupled from
// the main clusterstats.Endpoint type to avoid circular dependencies.
type EndpointInfo struct {
	// Index is the position of the endpoint in the caller's input.
	Index int

	// URL is the target URL to poll.
	URL string
}

// Fetcher performs a single status fetch. [Client] is the production
// implementation.
type Fetcher interface {
	Fetch(ctx context.Context, url string, timeout time.Duration, maxRetries int) Result
}

// Options configures a [PollAll] run.
type Options struct {
	// Workers is the requested pool size. Clamped to [1, len(endpoints)].
	Workers int

	// Timeout bounds each HTTP attempt.
	Timeout time.Duration

	// MaxRetries is the number of extra attempts on transport failure.
	MaxRetries int
}

// collector is the shared, append-only result collection. The lock is held
// only for the duration of one append.
type collector struct {
	mu      sync.Mutex
	results []Result
}

func (c *collector) add(r Result) {
	c.mu.Lock()
	c.results = append(c.results, r)
	c.mu.Unlock()
}

// PollAll polls every endpoint exactly once using a bounded worker pool and
// blocks until all of them have produced a [Result].
//
// Workers share a single queue and each takes the next unclaimed endpoint, so
// slow endpoints do not hold up the rest of the batch. A failed fetch is an
// ordinary result and never stops other workers. Results are returned in
// completion order; callers must not rely on it.
//
// Cancelling ctx does not drop endpoints: remaining fetches fail fast with the
// context error and are still recorded.
func PollAll(ctx context.Context, endpoints []EndpointInfo, opts Options, fetcher Fetcher, logger *slog.Logger) []Result {
	if len(endpoints) == 0 {
		return []Result{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	workers := clampWorkers(opts.Workers, len(endpoints))

	queue := make(chan EndpointInfo, len(endpoints))
	for _, ep := range endpoints {
		queue <- ep
	}
	close(queue)

	col := &collector{results: make([]Result, 0, len(endpoints))}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for ep := range queue {
				result := safeFetch(ctx, fetcher, ep, opts, logger)
				col.add(result)
				logResult(logger, worker, result)
			}
		}(i)
	}
	wg.Wait()

	return col.results
}

// clampWorkers never spawns more workers than there is work, nor fewer than one.
func clampWorkers(requested, jobs int) int {
	if requested < 1 {
		requested = 1
	}
	if requested > jobs {
		requested = jobs
	}
	return requested
}

// safeFetch calls the fetcher with panic recovery.
// If the fetcher panics, it logs the full stack trace with a correlation ID
// and returns a panic failure so the endpoint still yields one result.
func safeFetch(ctx context.Context, fetcher Fetcher, ep EndpointInfo, opts Options, logger *slog.Logger) (result Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			stack := debug.Stack()

			logger.Error("fetch panic",
				"correlation_id", correlationID,
				"url", ep.URL,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(stack),
			)

			result = Result{
				Index:     ep.Index,
				URL:       ep.URL,
				Kind:      FailurePanic,
				Err:       fmt.Errorf("fetch panic (correlation_id: %s)", correlationID),
				Latency:   time.Since(start),
				CheckedAt: time.Now(),
			}
		}
	}()

	result = fetcher.Fetch(ctx, ep.URL, opts.Timeout, opts.MaxRetries)
	result.Index = ep.Index
	result.URL = ep.URL
	return result
}

// logResult logs a poll outcome (DEBUG level for success to reduce noise).
func logResult(logger *slog.Logger, worker int, r Result) {
	attrs := []any{
		"url", r.URL,
		"worker", worker,
		"attempts", r.Attempts,
		"status_code", r.StatusCode,
		"latency_ms", r.Latency.Milliseconds(),
	}
	if r.Err != nil {
		logger.Warn("poll failed", append(attrs, "kind", string(r.Kind), "error", r.Err.Error())...)
		return
	}
	logger.Debug("poll completed", attrs...)
}

package poller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/sethvargo/go-retry"
)

const maxResponseBodySize = 1 << 20 // 1MB

// connection pooling limits to prevent resource exhaustion when polling many hosts
const (
	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 10
	defaultMaxConnsPerHost     = 10
	defaultIdleConnTimeout     = 60 * time.Second
)

// maxBackoff caps the exponential delay between transport retries.
const maxBackoff = time.Second

// FailureKind classifies why polling an endpoint did not yield a payload.
type FailureKind string

const (
	// FailureTransport covers connection refused, DNS errors, timeouts, resets
	// and requests that could not be built at all.
	FailureTransport FailureKind = "transport"

	// FailureHTTPStatus means the server answered with a non-2xx status.
	FailureHTTPStatus FailureKind = "http_status"

	// FailurePayloadDecode means a 2xx body was not a JSON object.
	FailurePayloadDecode FailureKind = "payload_decode"

	// FailurePanic means the fetch itself panicked and was recovered.
	FailurePanic FailureKind = "panic"
)

// StatusError is returned for responses outside the 2xx range.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status: %s", e.Status)
}

// DecodeError is returned when a 2xx body cannot be decoded as a JSON object.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("invalid status payload: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// errBuildRequest marks request construction failures, which are never retried.
var errBuildRequest = errors.New("failed to create request")

// Result holds the outcome of polling a single endpoint.
//
// Exactly one of Payload and Err is set. Kind is empty on success.
type Result struct {
	// Index is the position of the endpoint in the polled slice.
	Index int

	// URL is the target URL that was polled.
	URL string

	// Payload is the decoded JSON object on success.
	Payload map[string]any

	// Kind classifies the failure. Empty on success.
	Kind FailureKind

	// Err describes the failure. nil on success.
	Err error

	// StatusCode is the last HTTP status code received.
	// Zero if no response was ever received.
	StatusCode int

	// Attempts is the number of HTTP attempts made, including retries.
	Attempts int

	// Latency is the total time spent, retries and backoff included.
	Latency time.Duration

	// CheckedAt is the timestamp when polling finished.
	CheckedAt time.Time
}

// Succeeded reports whether the result carries a payload.
func (r Result) Succeeded() bool {
	return r.Err == nil
}

// Client is an HTTP client wrapper for polling status endpoints.
//
// Client applies timeouts per attempt via context rather than a global client
// timeout, and retries transport failures only. Response bodies are limited to
// 1MB. A Client is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	backoff    time.Duration
}

// NewClient creates a new polling [Client].
//
// backoff is the initial delay between transport retries; it doubles on each
// retry up to one second. Zero retries immediately.
//
// The transport comes from go-cleanhttp so that no global state from
// http.DefaultTransport is shared, with pooling limits:
//   - MaxIdleConns: 100 total idle connections
//   - MaxIdleConnsPerHost: 10 idle connections per host
//   - MaxConnsPerHost: 10 concurrent connections per host
//   - IdleConnTimeout: 60 seconds before closing idle connections
func NewClient(backoff time.Duration) *Client {
	transport := cleanhttp.DefaultPooledTransport()
	transport.MaxIdleConns = defaultMaxIdleConns
	transport.MaxIdleConnsPerHost = defaultMaxIdleConnsPerHost
	transport.MaxConnsPerHost = defaultMaxConnsPerHost
	transport.IdleConnTimeout = defaultIdleConnTimeout

	if backoff < 0 {
		backoff = 0
	}

	return &Client{
		// no default timeout - we use per-attempt timeouts via context
		httpClient: &http.Client{Transport: transport},
		backoff:    backoff,
	}
}

// Fetch issues a GET to url and classifies the outcome.
//
// Each attempt is bounded by timeout, covering connect, headers and body.
// Transport failures are retried up to maxRetries more times; a response with
// any status ends the retry loop. Fetch always returns a Result; errors are
// captured in the Err field rather than returned separately.
func (c *Client) Fetch(ctx context.Context, url string, timeout time.Duration, maxRetries int) Result {
	start := time.Now()
	result := Result{URL: url}

	if maxRetries < 0 {
		maxRetries = 0
	}

	var (
		status     string
		statusCode int
		body       []byte
	)
	err := retry.Do(ctx, retry.WithMaxRetries(uint64(maxRetries), c.newBackoff()), func(ctx context.Context) error {
		result.Attempts++
		resp, err := c.attempt(ctx, url, timeout)
		if err != nil {
			if errors.Is(err, errBuildRequest) {
				return err
			}
			return retry.RetryableError(err)
		}
		status, statusCode, body = resp.status, resp.statusCode, resp.body
		return nil
	})

	result.StatusCode = statusCode
	result.Latency = time.Since(start)
	result.CheckedAt = time.Now()

	if err != nil {
		result.Kind = FailureTransport
		result.Err = err
		return result
	}

	if statusCode < 200 || statusCode > 299 {
		result.Kind = FailureHTTPStatus
		result.Err = &StatusError{StatusCode: statusCode, Status: status}
		return result
	}

	payload, err := decodePayload(body)
	if err != nil {
		result.Kind = FailurePayloadDecode
		result.Err = err
		return result
	}
	result.Payload = payload
	return result
}

type response struct {
	status     string
	statusCode int
	body       []byte
}

// attempt performs one bounded GET and reads the (size limited) body.
func (c *Client) attempt(ctx context.Context, url string, timeout time.Duration) (response, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return response{}, fmt.Errorf("%w: %w", errBuildRequest, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return response{}, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return response{}, fmt.Errorf("failed to read response body: %w", err)
	}

	return response{status: resp.Status, statusCode: resp.StatusCode, body: body}, nil
}

func (c *Client) newBackoff() retry.Backoff {
	if c.backoff == 0 {
		return retry.BackoffFunc(func() (time.Duration, bool) {
			return 0, false
		})
	}
	return retry.WithCappedDuration(maxBackoff, retry.NewExponential(c.backoff))
}

// decodePayload parses body as a single JSON object, keeping numbers exact.
func decodePayload(body []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if dec.More() {
		return nil, &DecodeError{Err: errors.New("unexpected data after JSON value")}
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &DecodeError{Err: fmt.Errorf("payload is %s, want object", jsonKind(v))}
	}
	return obj, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Close closes all idle connections in the client's connection pool.
//
// Safe to call multiple times. After Close, the client remains usable but
// new connections will be established as needed.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}

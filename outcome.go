package clusterstats

import (
	"fmt"
	"slices"
	"time"
)

// FailureKind classifies why an endpoint did not yield a payload.
//
// FailureKind is a string type so that it logs and serialises as a readable
// value.
type FailureKind string

const (
	// FailureTransport covers connection errors, DNS failures, timeouts and
	// resets that persisted through every retry.
	FailureTransport FailureKind = "transport"

	// FailureHTTPStatus indicates the host answered with a non-2xx status.
	FailureHTTPStatus FailureKind = "http_status"

	// FailurePayloadDecode indicates a 2xx body that was not a JSON object.
	FailurePayloadDecode FailureKind = "payload_decode"

	// FailurePanic indicates the fetch panicked. The reason carries a
	// correlation ID matching the logged stack trace.
	FailurePanic FailureKind = "panic"
)

// String returns the string representation of the kind.
func (k FailureKind) String() string {
	return string(k)
}

// Failure describes why an endpoint failed.
type Failure struct {
	Kind   FailureKind
	Reason string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Reason)
}

// Payload is a decoded status document. Numbers are kept as json.Number so
// that large counters survive without precision loss.
type Payload map[string]any

// Outcome is the result of polling a single endpoint. Exactly one of Payload
// and Failure is set.
//
// Outcomes handed to callers are copies; mutating one does not affect the
// [Report] it came from.
type Outcome struct {
	// Endpoint is the polled endpoint.
	Endpoint Endpoint

	// Payload is the decoded body on success, nil on failure.
	Payload Payload

	// Failure is the failure reason, nil on success.
	Failure *Failure

	// Attempts is the number of HTTP attempts made, retries included.
	Attempts int

	// StatusCode is the last HTTP status code received, zero if none.
	StatusCode int

	// Latency is the total time spent on the endpoint, backoff included.
	Latency time.Duration

	// CheckedAt is when polling the endpoint finished.
	CheckedAt time.Time

	// index is the endpoint's position in the input list.
	index int
}

// Succeeded reports whether the outcome carries a payload.
func (o Outcome) Succeeded() bool {
	return o.Failure == nil
}

// ResultSet holds one [Outcome] per polled endpoint.
//
// The order of a ResultSet returned by the poller is completion order and is
// not meaningful; use [ResultSet.Sorted] for input order.
type ResultSet []Outcome

// Successes returns the outcomes that carry a payload.
func (rs ResultSet) Successes() []Outcome {
	var out []Outcome
	for _, o := range rs {
		if o.Succeeded() {
			out = append(out, o)
		}
	}
	return out
}

// Failures returns the failed outcomes.
func (rs ResultSet) Failures() []Outcome {
	var out []Outcome
	for _, o := range rs {
		if !o.Succeeded() {
			out = append(out, o)
		}
	}
	return out
}

// Payloads returns the payloads of all successful outcomes.
func (rs ResultSet) Payloads() []Payload {
	var out []Payload
	for _, o := range rs {
		if o.Succeeded() {
			out = append(out, o.Payload)
		}
	}
	return out
}

// Sorted returns a copy of the set ordered by input position.
func (rs ResultSet) Sorted() ResultSet {
	cp := slices.Clone(rs)
	slices.SortStableFunc(cp, func(a, b Outcome) int {
		return a.index - b.index
	})
	return cp
}

// copyPayload returns a shallow copy of the payload, or nil if p is nil.
func copyPayload(p map[string]any) Payload {
	if p == nil {
		return nil
	}
	cp := make(Payload, len(p))
	for k, v := range p {
		cp[k] = v
	}
	return cp
}

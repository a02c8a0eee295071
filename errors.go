package clusterstats

import (
	"errors"
	"fmt"
)

var (
	// ErrNoEndpoints is returned by [New] when no host is configured.
	ErrNoEndpoints = errors.New("at least one host is required")

	// ErrEmptyResultSet is returned when QoS is computed over zero endpoints.
	ErrEmptyResultSet = errors.New("cannot compute QoS over an empty result set")

	// ErrQoSUnmet is wrapped by [QoSUnmetError].
	ErrQoSUnmet = errors.New("QoS threshold not met")

	// ErrMalformedPayload is wrapped by [MalformedPayloadError].
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrUnsupportedOperator is wrapped by [UnsupportedOperatorError].
	ErrUnsupportedOperator = errors.New("unsupported aggregate operator")
)

// QoSUnmetError is returned by [Collector.Run] when the success ratio is
// below the threshold. Aggregation is skipped.
type QoSUnmetError struct {
	QoS QoSReport
}

func (e *QoSUnmetError) Error() string {
	return fmt.Sprintf("QoS threshold not met: actual %.2f%%, expected %.2f%% (%d of %d succeeded)",
		e.QoS.Ratio, e.QoS.Threshold, e.QoS.Succeeded, e.QoS.Total)
}

func (e *QoSUnmetError) Unwrap() error { return ErrQoSUnmet }

// MalformedPayloadError reports a successful payload that cannot be
// aggregated: a missing field, or a value of the wrong type.
type MalformedPayloadError struct {
	// Index is the position of the payload in the aggregated slice.
	Index int

	// Field is the offending field name.
	Field string

	// Reason describes what is wrong with the field.
	Reason string
}

func (e *MalformedPayloadError) Error() string {
	return fmt.Sprintf("malformed payload %d: field %q %s", e.Index, e.Field, e.Reason)
}

func (e *MalformedPayloadError) Unwrap() error { return ErrMalformedPayload }

// UnsupportedOperatorError reports an aggregate operator other than sum.
type UnsupportedOperatorError struct {
	Operator string
}

func (e *UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("unsupported aggregate operator %q (supported: %q)", e.Operator, OperatorSum)
}

func (e *UnsupportedOperatorError) Unwrap() error { return ErrUnsupportedOperator }

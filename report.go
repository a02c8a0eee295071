package clusterstats

import "time"

// Report is everything one [Collector.Run] produced.
//
// QoS is always set unless the result set was empty. Table is nil whenever
// the run failed: QoS below threshold, or a malformed payload.
type Report struct {
	// RunID identifies the run in logs.
	RunID string

	// StartedAt is when polling began.
	StartedAt time.Time

	// Duration is the wall time of the run.
	Duration time.Duration

	// QoS is the gate verdict.
	QoS QoSReport

	// Table is the aggregation, nil on failure.
	Table *Table

	// Outcomes holds one outcome per endpoint, in completion order.
	Outcomes ResultSet
}

// Passed reports whether the QoS gate passed and a table was produced.
func (r *Report) Passed() bool {
	return r != nil && r.QoS.Passed && r.Table != nil
}

// Failures returns the failed outcomes in input order.
func (r *Report) Failures() []Outcome {
	if r == nil {
		return nil
	}
	return r.Outcomes.Sorted().Failures()
}

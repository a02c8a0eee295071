package clusterstats

import (
	"fmt"
	"math"
)

// QoSReport is the verdict of the QoS gate over one result set.
//
// QoSReport is a value type computed once by [Evaluate]; it is never updated.
type QoSReport struct {
	// Total is the number of polled endpoints.
	Total int

	// Succeeded is the number of endpoints that returned a payload.
	Succeeded int

	// Failed is Total minus Succeeded.
	Failed int

	// Ratio is the success percentage, 100 * Succeeded / Total.
	Ratio float64

	// Threshold is the expected percentage.
	Threshold float64

	// Passed reports whether Ratio >= Threshold.
	Passed bool
}

// Verdict returns "OK" for a passing report and "FAILED" otherwise.
func (q QoSReport) Verdict() string {
	if q.Passed {
		return "OK"
	}
	return "FAILED"
}

// CalcQoS returns the success percentage of succeeded out of total.
//
// Returns [ErrEmptyResultSet] if total is zero.
func CalcQoS(total, succeeded int) (float64, error) {
	if total <= 0 {
		return 0, ErrEmptyResultSet
	}
	return 100 * float64(succeeded) / float64(total), nil
}

// Evaluate computes the QoS of rs and compares it against threshold.
//
// A ratio exactly equal to the threshold passes. rs is only read.
func Evaluate(rs ResultSet, threshold float64) (QoSReport, error) {
	succeeded := 0
	for _, o := range rs {
		if o.Succeeded() {
			succeeded++
		}
	}

	ratio, err := CalcQoS(len(rs), succeeded)
	if err != nil {
		return QoSReport{}, err
	}

	return QoSReport{
		Total:     len(rs),
		Succeeded: succeeded,
		Failed:    len(rs) - succeeded,
		Ratio:     ratio,
		Threshold: threshold,
		Passed:    ratio >= threshold,
	}, nil
}

// ValidateQoSThreshold reports whether q is a usable threshold, 0 < q <= 100.
func ValidateQoSThreshold(q float64) error {
	if math.IsNaN(q) || q <= 0 || q > 100 {
		return fmt.Errorf("QoS threshold must be in (0, 100], got %v", q)
	}
	return nil
}

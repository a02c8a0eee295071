package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/jpalmerr/clusterstats"
)

const separatorWidth = 80

// Summary is what the console block is rendered from.
type Summary struct {
	// Report is the run result. QoS and Outcomes are always shown.
	Report *clusterstats.Report

	// OutputFile is the CSV path, empty if none was written.
	OutputFile string

	// Err is a run error other than an unmet QoS, such as a malformed payload.
	Err error
}

// PrintSummary writes the console summary of a run:
//
//	--------------------------------------------------------------------------------
//	Status: OK
//	Total # of queries:  5
//	Successful queries:  4
//	Expected QoS:        60%
//	Actual QoS:          80%
//	Results:
//	Application  Version  Success_Count
//	Cache1       2.1.0    7
//	Output File: /tmp/1700000000000.csv
//	--------------------------------------------------------------------------------
//
// Failed queries are listed after the block only when verbose is set.
func PrintSummary(w io.Writer, s Summary, verbose bool) error {
	sw := &stickyWriter{w: w}
	sep := strings.Repeat("-", separatorWidth)

	fmt.Fprintln(sw, sep)

	q := s.Report.QoS
	status := q.Verdict()
	if s.Err != nil {
		status = "FAILED"
	}
	fmt.Fprintf(sw, "Status: %s\n", status)

	tw := tabwriter.NewWriter(sw, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Total # of queries:\t%d\n", q.Total)
	fmt.Fprintf(tw, "Successful queries:\t%d\n", q.Succeeded)
	fmt.Fprintf(tw, "Expected QoS:\t%s%%\n", strconv.FormatFloat(q.Threshold, 'f', -1, 64))
	fmt.Fprintf(tw, "Actual QoS:\t%s%%\n", formatRatio(q.Ratio, q.Threshold))
	_ = tw.Flush()

	if s.Err != nil {
		fmt.Fprintf(sw, "Error: %v\n", s.Err)
	}

	if table := s.Report.Table; table != nil {
		fmt.Fprintln(sw, "Results:")
		tw = tabwriter.NewWriter(sw, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(append(append([]string(nil), table.GroupBy...), table.Field), "\t"))
		for _, row := range table.Rows {
			fmt.Fprintln(tw, strings.Join(append(append([]string(nil), row.Key...), row.Value.String()), "\t"))
		}
		_ = tw.Flush()
	}

	if s.OutputFile != "" {
		fmt.Fprintf(sw, "Output File: %s\n", s.OutputFile)
	}

	fmt.Fprintln(sw, sep)

	if verbose {
		fmt.Fprintln(sw, "Failed Queries:")
		for _, o := range s.Report.Failures() {
			fmt.Fprintf(sw, "  %s  %s\n", o.Endpoint.URL(), o.Failure.Error())
		}
		fmt.Fprintln(sw, sep)
	}

	return sw.err
}

// formatPercent prints whole percentages without decimals and others with
// up to two.
func formatPercent(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// formatRatio is formatPercent unless rounding would put the shown ratio on
// the other side of, or exactly on, the threshold. Then the full value is
// printed so a failed gate never reads as 100% against 100%.
func formatRatio(ratio, threshold float64) string {
	s := formatPercent(ratio)
	shown, err := strconv.ParseFloat(s, 64)
	if err != nil || (shown < threshold) != (ratio < threshold) || (shown == threshold && ratio != threshold) {
		return strconv.FormatFloat(ratio, 'f', -1, 64)
	}
	return s
}

// stickyWriter remembers the first write error so that printing can proceed
// unchecked and report once.
type stickyWriter struct {
	w   io.Writer
	err error
}

func (s *stickyWriter) Write(p []byte) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	n, err := s.w.Write(p)
	s.err = err
	return n, err
}

// Package clusterstats takes a single-shot status snapshot of a fleet of hosts.
//
// Every host is polled once at http://<host>/status by a bounded worker pool.
// Individual failures are tolerated and recorded. The success ratio (QoS) is
// then gated against a threshold, and when the gate passes the successful
// payloads are grouped and summed into a table.
//
// # Quick Start
//
//	c, err := clusterstats.New(
//	    clusterstats.WithHosts("web-01.example.com", "web-02.example.com"),
//	    clusterstats.WithWorkers(8),
//	    clusterstats.WithQoSThreshold(95),
//	)
//	if err != nil {
//	    return err
//	}
//
//	report, err := c.Run(ctx)
//	var unmet *clusterstats.QoSUnmetError
//	switch {
//	case errors.As(err, &unmet):
//	    // report.QoS holds the computed and expected values, report.Table is nil
//	case err != nil:
//	    return err
//	}
//	for _, row := range report.Table.Rows {
//	    fmt.Println(row.Key, row.Value)
//	}
//
// # Configuration
//
// Collectors are configured with functional options. Defaults match the
// command line tool: one worker, a one second timeout per attempt, three
// transport retries, a 99% QoS threshold and the aggregation
// (Application, Version) summing Success_Count.
//
//	c, err := clusterstats.New(
//	    clusterstats.WithHosts(hosts...),
//	    clusterstats.WithTimeout(2*time.Second),
//	    clusterstats.WithRetries(1),
//	    clusterstats.WithAggregation(clusterstats.AggregateSpec{
//	        GroupBy:  []string{"Application"},
//	        Field:    "Request_Count",
//	        Operator: clusterstats.OperatorSum,
//	    }),
//	)
//
// Hosts can also be generated from a template with [NewHostGrid].
//
// # Architecture
//
//   - internal/poller: HTTP fetch with retries and the bounded worker pool
//   - internal/report: CSV output and the console summary
//   - config: YAML run files for the clusterstats binary
//
// The internal packages are not part of the public API and may change
// without notice.
package clusterstats

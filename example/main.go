package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/clusterstats"
	"github.com/jpalmerr/clusterstats/internal/report"
)

func main() {
	// start mock fleet (see mock_server.go)
	hosts, stop, err := StartMockFleet([]mockNode{
		{app: "Webapp1", version: "1.0.0", mode: "ok"},
		{app: "Webapp1", version: "1.0.0", mode: "ok"},
		{app: "Webapp1", version: "1.0.1", mode: "ok"},
		{app: "Cache1", version: "2.1.0", mode: "ok"},
		{app: "Cache1", version: "2.1.0", mode: "slow"},
		{app: "Cache1", version: "2.1.0", mode: "error"},
		{app: "Webapp1", version: "1.0.0", mode: "garbage"},
	})
	if err != nil {
		slog.Error("failed to start mock fleet", "error", err)
		os.Exit(1)
	}
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	// 4 of 7 nodes answer, so a 50% threshold passes
	c, err := clusterstats.New(
		clusterstats.WithHosts(hosts...),
		clusterstats.WithWorkers(4),
		clusterstats.WithTimeout(500*time.Millisecond),
		clusterstats.WithRetries(1),
		clusterstats.WithBackoff(50*time.Millisecond),
		clusterstats.WithQoSThreshold(50),
		clusterstats.WithLogger(logger),
		clusterstats.WithResultCallback(func(o clusterstats.Outcome) {
			if !o.Succeeded() {
				logger.Info("host failed", "host", o.Endpoint.Host(), "failure", o.Failure.Error())
			}
		}),
	)
	if err != nil {
		slog.Error("failed to create collector", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rep, runErr := c.Run(ctx)

	summary := report.Summary{Report: rep}
	var qosErr *clusterstats.QoSUnmetError
	if runErr != nil && !errors.As(runErr, &qosErr) {
		summary.Err = runErr
	}
	if err := report.PrintSummary(os.Stdout, summary, true); err != nil {
		slog.Error("failed to print summary", "error", err)
	}

	if runErr != nil {
		os.Exit(1)
	}
}

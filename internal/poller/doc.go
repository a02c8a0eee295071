// Package poller provides the concurrent HTTP polling engine for clusterstats.
//
// This package is internal to clusterstats and handles the single-shot polling
// of host status endpoints. It implements a bounded worker pool that drains a
// shared work queue, collecting exactly one [Result] per endpoint.
//
// The main components are:
//
//   - [Client]: HTTP client wrapper with per-attempt timeout, transport retries and size limits
//   - [PollAll]: Bounded worker pool that polls every endpoint once and joins
//   - [Result]: Outcome of polling a single endpoint
//   - [EndpointInfo]: An endpoint to poll, tagged with its input position
//
// Users of the clusterstats library should not need to interact with this
// package directly. Configuration is done through the main clusterstats package.
package poller

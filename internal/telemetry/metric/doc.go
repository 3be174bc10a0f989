// Package metric provides Prometheus metrics for SecDesk.
//
// Registry owns a private prometheus.Registry holding:
//
//   - HTTP request counters and latency histograms
//   - admission decisions per policy and outcome
//   - rate limiter window and lock gauges (via Collector)
//   - Go runtime and process collectors
//
// Storage engines register their own gauges on Registry.Prometheus().
// Metrics are exposed at /metrics through Registry.Handler.
package metric

// Package metrics exports per-run counters in the Prometheus text format.
//
// casetally is a batch tool, so metrics are written to a textfile that a
// node exporter textfile collector can pick up, rather than served over HTTP.
package metrics

// Package prometheus exposes the engine's counters in Prometheus text
// exposition format without depending on a Prometheus client library.
package prometheus

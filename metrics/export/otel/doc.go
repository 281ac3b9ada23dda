// Package otel bridges the engine's counters into an OpenTelemetry meter
// via observable instruments, so collection cost is paid only when a
// reader actually scrapes.
package otel

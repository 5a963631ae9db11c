// Package otel provides OpenTelemetry integration for warden cache metrics.
//
// # Overview
//
// This package implements the warden.MetricsCollector interface using
// OpenTelemetry, giving percentile-aware latency histograms and
// counters without imposing OTEL as a dependency of the core warden
// module. Applications that don't need metrics collection don't pay for
// the OTEL dependency tree.
//
// # Metrics Exposed
//
// Histograms:
//   - warden_get_latency_ns
//   - warden_set_latency_ns
//   - warden_delete_latency_ns
//   - warden_transaction_latency_ns
//
// Counters:
//   - warden_get_hits_total / warden_get_misses_total
//   - warden_evictions_total
//   - warden_expirations_total
//   - warden_hook_faults_total (labeled by hook module)
//   - warden_transactions_total / warden_transactions_failed_total
//
// # Thread Safety
//
// All methods are safe for concurrent use; the underlying OTEL
// instruments are themselves lock-free.
package otel

// Package otel provides OpenTelemetry integration for warden cache metrics.
//
// This package implements the warden.MetricsCollector interface using
// OpenTelemetry, enabling percentile-aware latency histograms and
// counters for every event the engine emits: gets, sets, deletes,
// evictions, expirations, hook faults, and transactions.
//
// # Usage
//
//	import (
//	    "github.com/wardenkv/warden"
//	    wardenotel "github.com/wardenkv/warden/otel"
//	    "go.opentelemetry.io/otel/exporters/prometheus"
//	    "go.opentelemetry.io/otel/sdk/metric"
//	)
//
//	exporter, _ := prometheus.New()
//	provider := metric.NewMeterProvider(metric.WithReader(exporter))
//	collector, _ := wardenotel.NewOTelMetricsCollector(provider)
//
//	cfg := warden.DefaultConfig("sessions")
//	cfg.MetricsCollector = collector
//	cache, _ := warden.New(cfg)
//
// # Metrics Exposed
//
//   - warden_get_latency_ns / warden_set_latency_ns / warden_delete_latency_ns
//   - warden_transaction_latency_ns
//   - warden_get_hits_total / warden_get_misses_total
//   - warden_evictions_total / warden_expirations_total
//   - warden_hook_faults_total
//   - warden_transactions_total / warden_transactions_failed_total
package otel

import (
	"context"
	"errors"

	"github.com/wardenkv/warden"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetricsCollector implements warden.MetricsCollector using
// OpenTelemetry. Safe for concurrent use; the underlying OTEL
// instruments are thread-safe.
type OTelMetricsCollector struct {
	getLatency    metric.Int64Histogram
	setLatency    metric.Int64Histogram
	deleteLatency metric.Int64Histogram
	txLatency     metric.Int64Histogram

	hits   metric.Int64Counter
	misses metric.Int64Counter

	evictions   metric.Int64Counter
	expirations metric.Int64Counter
	hookFaults  metric.Int64Counter

	transactions       metric.Int64Counter
	transactionsFailed metric.Int64Counter
}

// Options configures OTelMetricsCollector.
type Options struct {
	// MeterName is the name of the OpenTelemetry meter.
	// Default: "github.com/wardenkv/warden"
	MeterName string
}

// Option is a functional option for configuring OTelMetricsCollector.
type Option func(*Options)

// WithMeterName sets a custom meter name, useful when running several
// cache instances under one OTEL provider.
func WithMeterName(name string) Option {
	return func(o *Options) { o.MeterName = name }
}

// NewOTelMetricsCollector creates every instrument this collector needs
// from provider. Returns an error if provider is nil or any instrument
// fails to register.
func NewOTelMetricsCollector(provider metric.MeterProvider, opts ...Option) (*OTelMetricsCollector, error) {
	if provider == nil {
		return nil, errors.New("meter provider cannot be nil")
	}

	options := Options{MeterName: "github.com/wardenkv/warden"}
	for _, opt := range opts {
		opt(&options)
	}

	meter := provider.Meter(options.MeterName)
	c := &OTelMetricsCollector{}

	var err error
	if c.getLatency, err = meter.Int64Histogram("warden_get_latency_ns",
		metric.WithDescription("Latency of Get operations in nanoseconds"), metric.WithUnit("ns")); err != nil {
		return nil, err
	}
	if c.setLatency, err = meter.Int64Histogram("warden_set_latency_ns",
		metric.WithDescription("Latency of Set operations in nanoseconds"), metric.WithUnit("ns")); err != nil {
		return nil, err
	}
	if c.deleteLatency, err = meter.Int64Histogram("warden_delete_latency_ns",
		metric.WithDescription("Latency of Delete operations in nanoseconds"), metric.WithUnit("ns")); err != nil {
		return nil, err
	}
	if c.txLatency, err = meter.Int64Histogram("warden_transaction_latency_ns",
		metric.WithDescription("Latency of Transaction operations in nanoseconds"), metric.WithUnit("ns")); err != nil {
		return nil, err
	}
	if c.hits, err = meter.Int64Counter("warden_get_hits_total",
		metric.WithDescription("Total number of cache hits")); err != nil {
		return nil, err
	}
	if c.misses, err = meter.Int64Counter("warden_get_misses_total",
		metric.WithDescription("Total number of cache misses")); err != nil {
		return nil, err
	}
	if c.evictions, err = meter.Int64Counter("warden_evictions_total",
		metric.WithDescription("Total number of policy-driven evictions")); err != nil {
		return nil, err
	}
	if c.expirations, err = meter.Int64Counter("warden_expirations_total",
		metric.WithDescription("Total number of TTL-based expirations")); err != nil {
		return nil, err
	}
	if c.hookFaults, err = meter.Int64Counter("warden_hook_faults_total",
		metric.WithDescription("Total number of hook timeouts or panics")); err != nil {
		return nil, err
	}
	if c.transactions, err = meter.Int64Counter("warden_transactions_total",
		metric.WithDescription("Total number of transactions executed")); err != nil {
		return nil, err
	}
	if c.transactionsFailed, err = meter.Int64Counter("warden_transactions_failed_total",
		metric.WithDescription("Total number of transactions that returned an error")); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *OTelMetricsCollector) RecordGet(latencyNs int64, hit bool) {
	ctx := context.Background()
	c.getLatency.Record(ctx, latencyNs)
	if hit {
		c.hits.Add(ctx, 1)
	} else {
		c.misses.Add(ctx, 1)
	}
}

func (c *OTelMetricsCollector) RecordSet(latencyNs int64) {
	c.setLatency.Record(context.Background(), latencyNs)
}

func (c *OTelMetricsCollector) RecordDelete(latencyNs int64) {
	c.deleteLatency.Record(context.Background(), latencyNs)
}

func (c *OTelMetricsCollector) RecordEviction() {
	c.evictions.Add(context.Background(), 1)
}

func (c *OTelMetricsCollector) RecordExpiration() {
	c.expirations.Add(context.Background(), 1)
}

func (c *OTelMetricsCollector) RecordHookFault(hookName string) {
	c.hookFaults.Add(context.Background(), 1, metric.WithAttributes(attribute.String("hook", hookName)))
}

func (c *OTelMetricsCollector) RecordTransaction(latencyNs int64, ok bool) {
	ctx := context.Background()
	c.txLatency.Record(ctx, latencyNs)
	c.transactions.Add(ctx, 1)
	if !ok {
		c.transactionsFailed.Add(ctx, 1)
	}
}

var _ warden.MetricsCollector = (*OTelMetricsCollector)(nil)

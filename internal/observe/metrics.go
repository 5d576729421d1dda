// Package observe provides observability primitives for voxify: OpenTelemetry
// metrics with a Prometheus exporter bridge and an optional /metrics endpoint.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A package-level
// default [Metrics] instance ([DefaultMetrics]) is provided for convenience;
// tests should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all voxify metrics.
const meterName = "github.com/voxtools/voxify"

// Metrics holds all OpenTelemetry metric instruments for the application.
// The underlying OTel types handle their own synchronisation.
type Metrics struct {
	// RequestDuration tracks end-to-end latency of generative API calls,
	// including retries. Use with attribute.String("op", ...).
	RequestDuration metric.Float64Histogram

	// Requests counts generative API calls. Use with attributes:
	//   attribute.String("op", ...), attribute.String("status", ...)
	Requests metric.Int64Counter

	// Retries counts backoff waits performed by the request executor.
	// Use with attribute.String("op", ...).
	Retries metric.Int64Counter

	// AudioSeconds accumulates seconds of synthesized audio produced.
	AudioSeconds metric.Float64Counter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// remote generative-model latencies.
var latencyBuckets = []float64{
	0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.RequestDuration, err = m.Float64Histogram("voxify.request.duration",
		metric.WithDescription("Latency of generative API calls by operation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Requests, err = m.Int64Counter("voxify.requests",
		metric.WithDescription("Total generative API calls by operation and status."),
	); err != nil {
		return nil, err
	}
	if met.Retries, err = m.Int64Counter("voxify.retries",
		metric.WithDescription("Total backoff waits performed by the request executor."),
	); err != nil {
		return nil, err
	}
	if met.AudioSeconds, err = m.Float64Counter("voxify.audio.seconds",
		metric.WithDescription("Seconds of synthesized audio produced."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Package telemetry exposes generation metrics through OpenTelemetry with a
// Prometheus exporter.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/book-expert/logger"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

const (
	meterName        = "github.com/book-expert/voice-studio"
	attrServiceName  = "service.name"
	attrOutcome      = "outcome"
	attrStyle        = "style"
	metricGenerated  = "studio.generations"
	metricDuration   = "studio.generation.duration"
	metricAudioBytes = "studio.audio.bytes"
)

// Generation outcomes.
const (
	OutcomeSuccess    = "success"
	OutcomeMissingKey = "missing_api_key"
	OutcomeService    = "service_error"
	OutcomeNoAudio    = "no_audio"
	OutcomeRequest    = "request_error"
	OutcomeInternal   = "internal_error"
)

// Provider owns the meter provider and the scrape handler.
type Provider struct {
	meterProvider *sdkmetric.MeterProvider
	handler       http.Handler
}

// Setup builds a meter provider backed by a private Prometheus registry.
func Setup(serviceName string, log *logger.Logger) (*Provider, error) {
	registry := prom.NewRegistry()

	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize prometheus exporter: %w", err)
	}

	res := resource.NewSchemaless(attribute.String(attrServiceName, serviceName))

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)

	log.Info("Telemetry initialized: exporter=prometheus service=%s", serviceName)

	return &Provider{
		meterProvider: provider,
		handler:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}, nil
}

// Meter returns the studio meter.
func (p *Provider) Meter() metric.Meter {
	return p.meterProvider.Meter(meterName)
}

// Handler serves the Prometheus text format.
func (p *Provider) Handler() http.Handler {
	return p.handler
}

// Shutdown flushes and stops the meter provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.meterProvider.Shutdown(ctx)
}

// Metrics records generation outcomes.
type Metrics struct {
	generations metric.Int64Counter
	duration    metric.Float64Histogram
	audioBytes  metric.Int64Counter
}

// NewMetrics registers the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	generations, genErr := meter.Int64Counter(metricGenerated,
		metric.WithDescription("Generations attempted, by outcome"))
	duration, durErr := meter.Float64Histogram(metricDuration,
		metric.WithDescription("Wall time of one generation"), metric.WithUnit("s"))
	audioBytes, bytesErr := meter.Int64Counter(metricAudioBytes,
		metric.WithDescription("Bytes of playable audio produced"), metric.WithUnit("By"))

	err := errors.Join(genErr, durErr, bytesErr)
	if err != nil {
		return nil, fmt.Errorf("failed to create instruments: %w", err)
	}

	return &Metrics{generations: generations, duration: duration, audioBytes: audioBytes}, nil
}

// NoopMetrics discards everything.
func NoopMetrics() *Metrics {
	metrics, _ := NewMetrics(noop.NewMeterProvider().Meter(meterName))

	return metrics
}

// RecordGeneration records one finished generation.
func (m *Metrics) RecordGeneration(ctx context.Context, outcome, style string, elapsed time.Duration, audioBytes int) {
	attrs := metric.WithAttributes(
		attribute.String(attrOutcome, outcome),
		attribute.String(attrStyle, style),
	)

	m.generations.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)

	if audioBytes > 0 {
		m.audioBytes.Add(ctx, int64(audioBytes), metric.WithAttributes(attribute.String(attrStyle, style)))
	}
}

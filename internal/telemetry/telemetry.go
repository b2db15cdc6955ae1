// Package telemetry provides Prometheus metrics and OpenTelemetry tracing for
// classification runs. Metrics live in a per-provider registry so they can be
// written to a textfile after a batch run or served over HTTP.
package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "prayerbook"

// Metrics holds all prayerbook Prometheus metrics.
type Metrics struct {
	PassDuration      *prometheus.HistogramVec
	PrayersClassified *prometheus.CounterVec
	BucketSize        *prometheus.GaugeVec
	RemainderSize     *prometheus.GaugeVec
	LeafSize          *prometheus.GaugeVec
	Uncategorized     prometheus.Gauge
	RunsTotal         prometheus.Counter
}

// Provider wraps telemetry providers.
type Provider struct {
	Tracer   trace.Tracer
	Metrics  *Metrics
	registry *prometheus.Registry
}

// NewProvider initializes telemetry with a fresh Prometheus registry.
func NewProvider() *Provider {
	reg := prometheus.NewRegistry()
	return &Provider{
		Tracer:   otel.Tracer(serviceName),
		Metrics:  initMetrics(promauto.With(reg)),
		registry: reg,
	}
}

func initMetrics(f promauto.Factory) *Metrics {
	return &Metrics{
		PassDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "prayerbook_pass_duration_seconds",
			Help:    "Time spent in one classification pass",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"rule_set"}),
		PrayersClassified: f.NewCounterVec(prometheus.CounterOpts{
			Name: "prayerbook_prayers_classified_total",
			Help: "Prayers that entered a classification pass",
		}, []string{"rule_set"}),
		BucketSize: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "prayerbook_bucket_size",
			Help: "Prayers assigned to a category by the last pass of a rule set",
		}, []string{"rule_set", "category"}),
		RemainderSize: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "prayerbook_remainder_size",
			Help: "Prayers left unmatched by the last pass of a rule set",
		}, []string{"rule_set"}),
		LeafSize: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "prayerbook_leaf_size",
			Help: "Prayers in each leaf of the final category tree",
		}, []string{"path"}),
		Uncategorized: f.NewGauge(prometheus.GaugeOpts{
			Name: "prayerbook_uncategorized",
			Help: "Prayers left uncategorized after every pass",
		}),
		RunsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "prayerbook_runs_total",
			Help: "Completed pipeline runs",
		}),
	}
}

// Registry exposes the gatherer backing this provider.
func (p *Provider) Registry() *prometheus.Registry {
	return p.registry
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the current metrics in the node-exporter textfile format.
func (p *Provider) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, p.registry); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}

// PassCount is one bucket size reported by a pass.
type PassCount struct {
	Label string
	Count int
}

// RecordPass records the duration and outcome of one pass. Safe on a nil provider.
func (p *Provider) RecordPass(ruleSet string, duration time.Duration, buckets []PassCount, remainder int) {
	if p == nil {
		return
	}
	total := remainder
	for _, b := range buckets {
		p.Metrics.BucketSize.WithLabelValues(ruleSet, b.Label).Set(float64(b.Count))
		total += b.Count
	}
	p.Metrics.PassDuration.WithLabelValues(ruleSet).Observe(duration.Seconds())
	p.Metrics.PrayersClassified.WithLabelValues(ruleSet).Add(float64(total))
	p.Metrics.RemainderSize.WithLabelValues(ruleSet).Set(float64(remainder))
}

// RecordRun records the leaf sizes of a finished tree. Safe on a nil provider.
func (p *Provider) RecordRun(leaves []PassCount, uncategorized int) {
	if p == nil {
		return
	}
	for _, leaf := range leaves {
		p.Metrics.LeafSize.WithLabelValues(leaf.Label).Set(float64(leaf.Count))
	}
	p.Metrics.Uncategorized.Set(float64(uncategorized))
	p.Metrics.RunsTotal.Inc()
}

// StartSpan starts a new trace span. The caller ends it with span.End().
// A nil provider returns a non-recording span.
//
//nolint:spancheck // Caller is responsible for ending the span
func (p *Provider) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if p == nil {
		return ctx, trace.SpanFromContext(context.Background())
	}
	return p.Tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

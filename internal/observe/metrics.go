// Package observe holds the OpenTelemetry metric instruments for keyterm
// generation and refresh, plus an optional Prometheus /metrics endpoint.
//
// Tests should build their own [Metrics] with [NewMetrics] and a
// ManualReader-backed provider instead of using [DefaultMetrics].
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/leonardotrapani/livekeyterms"

// Metric names.
const (
	NameGenerationDuration = "livekeyterms.generation.duration"
	NameGenerationRequests = "livekeyterms.generation.requests"
	NameRefreshTriggered   = "livekeyterms.refresh.triggered"
	NameKeytermUpdates     = "livekeyterms.keyterms.updates"
	NameRefreshFailed      = "livekeyterms.refresh.failed"
	NameRefreshDiscarded   = "livekeyterms.refresh.discarded"
	NameTurns              = "livekeyterms.turns"
	NameActiveSessions     = "livekeyterms.active_sessions"
)

// Metrics holds every instrument. The OTel types are safe for concurrent use.
type Metrics struct {
	// GenerationDuration tracks chat-completion latency. Attributes: provider, status.
	GenerationDuration metric.Float64Histogram

	// GenerationRequests counts chat-completion calls. Attributes: provider, status.
	GenerationRequests metric.Int64Counter

	// RefreshTriggered counts threshold crossings.
	RefreshTriggered metric.Int64Counter

	// KeytermUpdates counts lists pushed to a live session. Attribute: source
	// (fallback, initial, refresh).
	KeytermUpdates metric.Int64Counter

	// RefreshFailed counts generations whose result was not applied. Attributes: kind, reason.
	RefreshFailed metric.Int64Counter

	// RefreshDiscarded counts results that arrived after their session ended.
	RefreshDiscarded metric.Int64Counter

	// Turns counts transcription turns. Attribute: kind (partial, final, formatted).
	Turns metric.Int64Counter

	// ActiveSessions tracks live streaming sessions. Attribute: boosted.
	ActiveSessions metric.Int64UpDownCounter
}

// generationBuckets are in seconds; keyterm generations routinely take several.
var generationBuckets = []float64{
	0.25, 0.5, 1, 2, 4, 8, 15, 30, 60,
}

func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.GenerationDuration, err = m.Float64Histogram(NameGenerationDuration,
		metric.WithDescription("Latency of keyterm generation requests."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(generationBuckets...),
	); err != nil {
		return nil, err
	}
	if met.GenerationRequests, err = m.Int64Counter(NameGenerationRequests,
		metric.WithDescription("Keyterm generation requests by provider and status."),
	); err != nil {
		return nil, err
	}
	if met.RefreshTriggered, err = m.Int64Counter(NameRefreshTriggered,
		metric.WithDescription("Refreshes triggered by the word-count threshold."),
	); err != nil {
		return nil, err
	}
	if met.KeytermUpdates, err = m.Int64Counter(NameKeytermUpdates,
		metric.WithDescription("Keyterm lists applied to live sessions by source."),
	); err != nil {
		return nil, err
	}
	if met.RefreshFailed, err = m.Int64Counter(NameRefreshFailed,
		metric.WithDescription("Generations whose output was not applied."),
	); err != nil {
		return nil, err
	}
	if met.RefreshDiscarded, err = m.Int64Counter(NameRefreshDiscarded,
		metric.WithDescription("Generation results discarded because the session ended."),
	); err != nil {
		return nil, err
	}
	if met.Turns, err = m.Int64Counter(NameTurns,
		metric.WithDescription("Transcription turns received by kind."),
	); err != nil {
		return nil, err
	}
	if met.ActiveSessions, err = m.Int64UpDownCounter(NameActiveSessions,
		metric.WithDescription("Live streaming sessions."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the process-wide instance built on the global meter
// provider. Call InitProvider first if the metrics should be exported.
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

func (m *Metrics) RecordGeneration(ctx context.Context, provider, status string, d time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("status", status),
	)
	m.GenerationDuration.Record(ctx, d.Seconds(), attrs)
	m.GenerationRequests.Add(ctx, 1, attrs)
}

func (m *Metrics) RecordKeytermUpdate(ctx context.Context, source string) {
	m.KeytermUpdates.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}

func (m *Metrics) RecordRefreshFailed(ctx context.Context, kind, reason string) {
	m.RefreshFailed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("reason", reason),
	))
}

func (m *Metrics) RecordTurn(ctx context.Context, kind string) {
	m.Turns.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

func (m *Metrics) SessionStarted(ctx context.Context, boosted bool) {
	m.ActiveSessions.Add(ctx, 1, metric.WithAttributes(attribute.Bool("boosted", boosted)))
}

func (m *Metrics) SessionEnded(ctx context.Context, boosted bool) {
	m.ActiveSessions.Add(ctx, -1, metric.WithAttributes(attribute.Bool("boosted", boosted)))
}

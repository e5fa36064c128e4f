package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/MokkshKapur/Ai-powered-GD-Room"

// Metrics groups the discussion instruments. A nil *Metrics records nothing.
type Metrics struct {
	sessions metric.Int64UpDownCounter
	turns    metric.Int64Counter
	backend  metric.Float64Histogram
	messages metric.Int64Counter
}

// NewMetrics creates instruments on meter, or on the global provider when
// meter is nil.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = otel.Meter(instrumentationName)
	}
	sessions, err := meter.Int64UpDownCounter("gd.sessions.active",
		metric.WithDescription("Discussion sessions currently connected"))
	if err != nil {
		return nil, err
	}
	turns, err := meter.Int64Counter("gd.turns",
		metric.WithDescription("Turns appended to discussion ledgers"))
	if err != nil {
		return nil, err
	}
	backend, err := meter.Float64Histogram("gd.backend.duration",
		metric.WithDescription("Latency of generation, transcription and synthesis calls"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	messages, err := meter.Int64Counter("gd.client.messages",
		metric.WithDescription("Client messages received, by decoded type"))
	if err != nil {
		return nil, err
	}
	return &Metrics{sessions: sessions, turns: turns, backend: backend, messages: messages}, nil
}

func (m *Metrics) SessionStarted(ctx context.Context) {
	if m == nil {
		return
	}
	m.sessions.Add(ctx, 1)
}

func (m *Metrics) SessionEnded(ctx context.Context) {
	if m == nil {
		return
	}
	m.sessions.Add(ctx, -1)
}

func (m *Metrics) TurnAppended(ctx context.Context, role string) {
	if m == nil {
		return
	}
	m.turns.Add(ctx, 1, metric.WithAttributes(attribute.String("role", role)))
}

// BackendCall records one call to backend ("generate", "transcribe", "synthesize").
func (m *Metrics) BackendCall(ctx context.Context, backend string, elapsed time.Duration, ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "degraded"
	}
	m.backend.Record(ctx, float64(elapsed)/float64(time.Millisecond), metric.WithAttributes(
		attribute.String("backend", backend),
		attribute.String("outcome", outcome),
	))
}

func (m *Metrics) ClientMessage(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.messages.Add(ctx, 1, metric.WithAttributes(attribute.String("type", kind)))
}

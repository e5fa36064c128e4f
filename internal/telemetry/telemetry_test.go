package telemetry

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/MokkshKapur/Ai-powered-GD-Room/internal/config"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestMetrics_Record(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("new metrics: %v", err)
	}
	ctx := context.Background()
	m.SessionStarted(ctx)
	m.TurnAppended(ctx, "agent")
	m.TurnAppended(ctx, "agent")
	m.BackendCall(ctx, "generate", 120*time.Millisecond, true)
	m.ClientMessage(ctx, "audio_chunk")

	got := collect(t, reader)
	turns, ok := got["gd.turns"].Data.(metricdata.Sum[int64])
	if !ok || len(turns.DataPoints) != 1 || turns.DataPoints[0].Value != 2 {
		t.Fatalf("unexpected gd.turns %+v", got["gd.turns"])
	}
	sessions, ok := got["gd.sessions.active"].Data.(metricdata.Sum[int64])
	if !ok || sessions.DataPoints[0].Value != 1 {
		t.Fatalf("unexpected gd.sessions.active %+v", got["gd.sessions.active"])
	}
	hist, ok := got["gd.backend.duration"].Data.(metricdata.Histogram[float64])
	if !ok || hist.DataPoints[0].Count != 1 {
		t.Fatalf("unexpected gd.backend.duration %+v", got["gd.backend.duration"])
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.SessionStarted(ctx)
	m.SessionEnded(ctx)
	m.TurnAppended(ctx, "user")
	m.BackendCall(ctx, "synthesize", time.Millisecond, false)
	m.ClientMessage(ctx, "malformed")
}

func TestSetup_ServesMetrics(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	shutdown, handler, err := Setup(context.Background(), config.Default(), logger)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	m, err := NewMetrics(nil)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	m.TurnAppended(context.Background(), "moderator")

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

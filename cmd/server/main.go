package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/MokkshKapur/Ai-powered-GD-Room/internal/agent"
	"github.com/MokkshKapur/Ai-powered-GD-Room/internal/config"
	"github.com/MokkshKapur/Ai-powered-GD-Room/internal/events"
	httpserver "github.com/MokkshKapur/Ai-powered-GD-Room/internal/httpserver"
	"github.com/MokkshKapur/Ai-powered-GD-Room/internal/llm"
	"github.com/MokkshKapur/Ai-powered-GD-Room/internal/telemetry"
	"github.com/MokkshKapur/Ai-powered-GD-Room/internal/transcript"
	"github.com/MokkshKapur/Ai-powered-GD-Room/internal/transport"
	"github.com/MokkshKapur/Ai-powered-GD-Room/internal/tts"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", os.Getenv("GD_CONFIG"), "Path to YAML configuration file (optional)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := newLogger(cfg.Telemetry)
	for _, w := range cfg.Warnings() {
		logger.Warn("configuration incomplete", slog.String("detail", w))
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func newLogger(cfg config.TelemetryConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.LogFormat, "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	shutdownTelemetry, metricsHandler, err := telemetry.Setup(ctx, cfg, logger)
	if err != nil {
		return err
	}
	metrics, err := telemetry.NewMetrics(nil)
	if err != nil {
		return err
	}

	backends, closeBackends, err := buildBackends(ctx, cfg, logger)
	if err != nil {
		return err
	}
	backends.Metrics = metrics

	participants, err := cfg.Discussion.Roster()
	if err != nil {
		return err
	}

	tracker := transport.NewTracker()
	srv := httpserver.New(httpserver.Options{
		Logger:     logger,
		Discussion: transport.NewHandler(cfg, participants, backends, tracker, logger),
		Metrics:    metricsHandler,
		Sessions:   tracker.Count,
	})

	server := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           srv.Router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in background
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("address", cfg.HTTP.Address), slog.String("discussion", "/ws/gd"))
		serverErrors <- server.ListenAndServe()
	}()
	srv.SetReady(true)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var serveErr error
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
	case sig := <-sigChan:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	}
	srv.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", slog.String("error", err.Error()))
		_ = server.Close()
	}
	// Shutdown does not track hijacked websocket connections.
	if n := tracker.CancelAll(); n > 0 {
		logger.Info("closing live sessions", slog.Int("sessions", n))
	}
	if !tracker.Wait(shutdownCtx) {
		logger.Warn("sessions still running at shutdown deadline", slog.Int("sessions", tracker.Count()))
	}

	closeBackends()
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
	}
	return serveErr
}

// buildBackends creates the process-wide handles every session borrows.
func buildBackends(ctx context.Context, cfg config.Config, logger *slog.Logger) (agent.Backends, func(), error) {
	generator, err := llm.New(cfg.LLM)
	if err != nil {
		return agent.Backends{}, nil, err
	}
	responder := llm.NewResponder(generator, cfg.Discussion.ContextWindow, logger)
	responder.Timeout = cfg.LLM.Timeout()

	transcriber, err := transcript.New(cfg.STT, logger)
	if err != nil {
		return agent.Backends{}, nil, err
	}
	synthesizer, err := tts.New(cfg.TTS, logger)
	if err != nil {
		return agent.Backends{}, nil, err
	}

	publisher, closeEvents := buildPublisher(ctx, cfg.Events, logger)
	backends := agent.Backends{
		Responder:   responder,
		Transcriber: transcriber,
		Synthesizer: synthesizer,
		Publisher:   publisher,
	}
	logger.Info("backends ready",
		slog.String("llm", cfg.LLM.Mode),
		slog.String("stt", cfg.STT.Mode),
		slog.String("tts", cfg.TTS.Mode),
		slog.Bool("events", cfg.Events.Enabled))
	return backends, closeEvents, nil
}

// buildPublisher never fails startup: turn events are best effort.
func buildPublisher(ctx context.Context, cfg config.EventsConfig, logger *slog.Logger) (events.Publisher, func()) {
	if !cfg.Enabled {
		return events.Nop{}, func() {}
	}
	var embedded *events.EmbeddedServer
	if cfg.Embedded {
		var err error
		embedded, err = events.StartEmbedded(cfg.EmbeddedPort, logger)
		if err != nil {
			logger.Warn("embedded NATS unavailable, turn events disabled", slog.String("error", err.Error()))
			return events.Nop{}, func() {}
		}
		cfg.Servers = []string{embedded.URL()}
	}
	pub, err := events.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Warn("NATS unavailable, turn events disabled", slog.String("error", err.Error()))
		embedded.Shutdown()
		return events.Nop{}, func() {}
	}
	return pub, func() {
		pub.Close()
		embedded.Shutdown()
	}
}

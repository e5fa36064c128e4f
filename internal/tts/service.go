// Package tts turns agent text into browser-playable audio.
package tts

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MokkshKapur/Ai-powered-GD-Room/internal/config"
)

// Synthesizer produces encoded audio (an mp3 or wav container) for text.
// Implementations must be safe for concurrent use by multiple sessions.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, lang string) (audio []byte, format string, err error)
}

// Speech is a base64-encoded audio payload ready for the transport.
type Speech struct {
	Audio  string
	Format string
}

// Empty reports whether there is nothing to play.
func (s Speech) Empty() bool { return s.Audio == "" }

// Service never returns an error: failures yield empty Speech.
type Service struct {
	synth   Synthesizer
	timeout time.Duration
	logger  *slog.Logger
}

func NewService(synth Synthesizer, timeout time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{synth: synth, timeout: timeout, logger: logger.With(slog.String("component", "tts"))}
}

// New wires the synthesizer selected by cfg.Mode.
func New(cfg config.TTSConfig, logger *slog.Logger) (*Service, error) {
	var synth Synthesizer
	switch cfg.Mode {
	case "elevenlabs":
		e := NewElevenLabsClient(cfg.ElevenLabsKey, cfg.ElevenLabsVoiceID)
		if cfg.ElevenLabsModel != "" {
			e.Model = cfg.ElevenLabsModel
		}
		if cfg.ElevenLabsOutputFormat != "" {
			e.OutputFormat = cfg.ElevenLabsOutputFormat
		}
		synth = e
	case "deepgram":
		synth = NewDeepgramClient(cfg.DeepgramKey, cfg.DeepgramModel, cfg.DeepgramSampleRate)
	case "mock":
		synth = NewMockSynthesizer()
	default:
		return nil, fmt.Errorf("unsupported tts mode %q", cfg.Mode)
	}
	return NewService(synth, cfg.Timeout(), logger), nil
}

// Synthesize returns base64 audio for text. Blank text returns empty Speech
// without calling the backend.
func (s *Service) Synthesize(ctx context.Context, text, lang string) Speech {
	if strings.TrimSpace(text) == "" {
		return Speech{}
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	audio, format, err := s.synth.Synthesize(ctx, text, lang)
	if err != nil {
		s.logger.Warn("synthesis failed", slog.Int("chars", len(text)), slog.String("error", err.Error()))
		return Speech{}
	}
	if len(audio) == 0 {
		s.logger.Warn("synthesis returned no audio", slog.Int("chars", len(text)))
		return Speech{}
	}
	return Speech{Audio: base64.StdEncoding.EncodeToString(audio), Format: format}
}

// Package transcript turns a finished user utterance into text.
package transcript

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MokkshKapur/Ai-powered-GD-Room/internal/config"
)

// Fixed results returned in place of errors.
const (
	NoInput       = "No audio input detected."
	FormatError   = "Error converting audio format"
	NoSpeech      = "No speech detected."
	NotUnderstood = "Sorry, I couldn't understand the audio."
)

// IsSentinel reports whether text is one of the fixed placeholder results.
func IsSentinel(text string) bool {
	switch strings.TrimSpace(text) {
	case NoInput, FormatError, NoSpeech, NotUnderstood:
		return true
	}
	return false
}

// Waveform is canonical mono 16 kHz 16-bit little-endian PCM.
type Waveform struct {
	PCM        []byte
	SampleRate int
	Channels   int
}

// Duration of the waveform.
func (w Waveform) Duration() time.Duration {
	if w.SampleRate <= 0 || w.Channels <= 0 {
		return 0
	}
	samples := len(w.PCM) / 2 / w.Channels
	return time.Duration(samples) * time.Second / time.Duration(w.SampleRate)
}

// Converter normalises arbitrary container/codec bytes into a Waveform.
type Converter interface {
	Convert(ctx context.Context, audio []byte) (Waveform, error)
}

// Recognizer turns a Waveform into text. Implementations must be safe for
// concurrent use by multiple sessions.
type Recognizer interface {
	Recognize(ctx context.Context, w Waveform) (string, error)
}

// Service converts then recognises. It never returns an error.
type Service struct {
	converter  Converter
	recognizer Recognizer
	timeout    time.Duration
	logger     *slog.Logger
}

func NewService(conv Converter, rec Recognizer, timeout time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		converter:  conv,
		recognizer: rec,
		timeout:    timeout,
		logger:     logger.With(slog.String("component", "transcript")),
	}
}

// New wires the converter and the recognizer selected by cfg.Mode.
func New(cfg config.STTConfig, logger *slog.Logger) (*Service, error) {
	conv, err := NewFFmpegConverter(cfg.FFmpegCommand, logger)
	if err != nil {
		return nil, err
	}
	var rec Recognizer
	switch cfg.Mode {
	case "assemblyai":
		rec = NewAssemblyAIRecognizer(cfg.AssemblyAIKey, cfg.AssemblyAIURL, logger)
	case "exec":
		rec, err = NewExecRecognizer(cfg.Command, cfg.ModelPath, cfg.Language, logger)
		if err != nil {
			return nil, err
		}
	case "mock":
		rec = NewMockRecognizer("")
	default:
		return nil, fmt.Errorf("unsupported stt mode %q", cfg.Mode)
	}
	return NewService(conv, rec, cfg.Timeout(), logger), nil
}

// Transcribe returns recognised text or one of the sentinels. A nil or empty
// audio slice returns NoInput without touching any backend.
func (s *Service) Transcribe(ctx context.Context, audio []byte) string {
	if len(audio) == 0 {
		return NoInput
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	w, err := s.converter.Convert(ctx, audio)
	if err != nil {
		s.logger.Warn("audio conversion failed", slog.Int("bytes", len(audio)), slog.String("error", err.Error()))
		return FormatError
	}

	text, err := s.recognizer.Recognize(ctx, w)
	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, context.Canceled) {
			level = slog.LevelInfo
		}
		s.logger.Log(ctx, level, "recognition failed", slog.Duration("audio", w.Duration()), slog.String("error", err.Error()))
		return NotUnderstood
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return NoSpeech
	}
	return text
}

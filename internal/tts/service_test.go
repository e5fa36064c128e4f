package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/MokkshKapur/Ai-powered-GD-Room/internal/config"
)

type fakeSynth struct {
	calls int32
	audio []byte
	err   error
}

func (f *fakeSynth) Synthesize(ctx context.Context, text, lang string) ([]byte, string, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.audio, "mp3", f.err
}

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestSynthesize_EmptyTextSkipsBackend(t *testing.T) {
	f := &fakeSynth{audio: []byte("x")}
	s := NewService(f, 0, discardLogger())
	for _, text := range []string{"", "   "} {
		if sp := s.Synthesize(context.Background(), text, "en"); !sp.Empty() {
			t.Fatalf("expected empty speech for %q", text)
		}
	}
	if f.calls != 0 {
		t.Fatalf("expected zero backend calls, got %d", f.calls)
	}
}

func TestSynthesize_FailureIsEmpty(t *testing.T) {
	f := &fakeSynth{err: errors.New("429 too many requests")}
	s := NewService(f, 0, discardLogger())
	if sp := s.Synthesize(context.Background(), "hello", "en"); !sp.Empty() {
		t.Fatalf("expected empty speech on failure")
	}
	if f.calls != 1 {
		t.Fatalf("expected one backend call, got %d", f.calls)
	}
}

func TestSynthesize_EncodesBase64(t *testing.T) {
	f := &fakeSynth{audio: []byte{0xff, 0xfb, 0x90, 0x00}}
	s := NewService(f, 0, discardLogger())
	sp := s.Synthesize(context.Background(), "hello", "en")
	raw, err := base64.StdEncoding.DecodeString(sp.Audio)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(raw, f.audio) || sp.Format != "mp3" {
		t.Fatalf("unexpected speech %+v", sp)
	}
}

func TestElevenLabs_Success(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("xi-api-key") != "key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Path != "/v1/text-to-speech/voice-1" || r.URL.Query().Get("output_format") != "mp3_44100_128" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3fake-mp3"))
	}))
	defer srv.Close()

	e := NewElevenLabsClient("key", "voice-1")
	e.BaseURL = srv.URL
	audio, format, err := e.Synthesize(context.Background(), "Hello there", "en")
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if string(audio) != "ID3fake-mp3" || format != "mp3" {
		t.Fatalf("unexpected result %q %s", audio, format)
	}
	if body["text"] != "Hello there" || body["language_code"] != "en" {
		t.Fatalf("unexpected request body %v", body)
	}
}

func TestElevenLabs_Failures(t *testing.T) {
	if _, _, err := NewElevenLabsClient("", "v").Synthesize(context.Background(), "hi", "en"); err == nil {
		t.Fatalf("expected error with missing key")
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"detail":"quota"}`))
	}))
	defer srv.Close()
	e := NewElevenLabsClient("key", "v")
	e.BaseURL = srv.URL
	if _, _, err := e.Synthesize(context.Background(), "hi", "en"); err == nil {
		t.Fatalf("expected status error")
	}
}

func TestMockSynthesizer_ProducesWAV(t *testing.T) {
	audio, format, err := NewMockSynthesizer().Synthesize(context.Background(), "hi", "en")
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if format != "wav" || !bytes.HasPrefix(audio, []byte("RIFF")) {
		t.Fatalf("unexpected mock output format=%s", format)
	}
}

func TestNew_Modes(t *testing.T) {
	cfg := config.Default().TTS
	for _, mode := range []string{"elevenlabs", "deepgram", "mock"} {
		cfg.Mode = mode
		if _, err := New(cfg, discardLogger()); err != nil {
			t.Fatalf("mode %s: %v", mode, err)
		}
	}
	cfg.Mode = "gtts"
	if _, err := New(cfg, discardLogger()); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

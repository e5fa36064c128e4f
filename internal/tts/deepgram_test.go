package tts

import (
	"context"
	"testing"
	"time"
)

// Without an API key Synthesize must fail fast and never dial.
func TestDeepgram_Synthesize_NoKey(t *testing.T) {
	d := NewDeepgramClient("", "", 0)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	start := time.Now()
	if _, _, err := d.Synthesize(ctx, "hello", "en"); err == nil {
		t.Fatalf("expected error when api key missing")
	}
	if time.Since(start) > 50*time.Millisecond {
		t.Fatalf("missing key should fail without network activity")
	}
}

func TestNewDeepgramClient_Defaults(t *testing.T) {
	d := NewDeepgramClient("k", "", 0)
	if d.model != "aura-2-thalia-en" || d.sampleRate != 24000 {
		t.Fatalf("unexpected defaults %+v", d)
	}
}

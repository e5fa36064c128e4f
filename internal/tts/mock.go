package tts

import (
	"context"

	"github.com/MokkshKapur/Ai-powered-GD-Room/internal/pcm"
)

const mockSampleRate = 16000

type mockSynthesizer struct{}

// NewMockSynthesizer returns short silent WAV clips.
func NewMockSynthesizer() Synthesizer { return mockSynthesizer{} }

func (mockSynthesizer) Synthesize(ctx context.Context, text, lang string) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	// 200 ms of silence
	silence := make([]byte, mockSampleRate/5*2)
	audio, err := pcm.EncodeWAV(silence, mockSampleRate, 1)
	if err != nil {
		return nil, "", err
	}
	return audio, "wav", nil
}

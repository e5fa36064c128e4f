package transcript

import (
	"context"
	"fmt"
)

type mockRecognizer struct {
	text string
}

// NewMockRecognizer returns text for every call, or a description of the
// waveform when text is empty.
func NewMockRecognizer(text string) Recognizer { return mockRecognizer{text: text} }

func (m mockRecognizer) Recognize(ctx context.Context, w Waveform) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.text != "" {
		return m.text, nil
	}
	return fmt.Sprintf("[mock transcript %s]", w.Duration()), nil
}

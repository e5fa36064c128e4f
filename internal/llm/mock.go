package llm

import (
	"context"
	"strings"
	"time"
)

type mockBackend struct{}

// NewMockBackend returns a backend that echoes the persona line of the prompt.
func NewMockBackend() Backend { return mockBackend{} }

func (mockBackend) Generate(ctx context.Context, prompt string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(20 * time.Millisecond):
	}
	first, _, _ := strings.Cut(strings.TrimSpace(prompt), "\n")
	return "[mock reply: " + first + "]", nil
}

// Package llm produces agent replies from a pluggable text-generation backend.
package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/MokkshKapur/Ai-powered-GD-Room/internal/config"
)

// Backend turns a prompt into a reply. Implementations must be safe for
// concurrent use by multiple sessions.
type Backend interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// New selects the backend named by cfg.Mode.
func New(cfg config.LLMConfig) (Backend, error) {
	switch cfg.Mode {
	case "gemini":
		return NewGeminiClient(cfg.GeminiKey, cfg.GeminiModel, cfg.MaxTokens, cfg.Temperature), nil
	case "cerebras":
		c := NewCerebrasClient(cfg.CerebrasKey, cfg.CerebrasModel)
		if cfg.CerebrasEndpoint != "" {
			c.Endpoint = cfg.CerebrasEndpoint
		}
		c.MaxTokens = cfg.MaxTokens
		c.Temperature = cfg.Temperature
		c.HTTPClient = &http.Client{Timeout: cfg.Timeout()}
		return c, nil
	case "mock":
		return NewMockBackend(), nil
	default:
		return nil, fmt.Errorf("unsupported llm mode %q", cfg.Mode)
	}
}

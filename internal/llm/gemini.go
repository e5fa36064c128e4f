package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"
)

// GeminiClient generates replies with the Gemini API. The underlying client is
// created on first use and shared by every session afterwards.
type GeminiClient struct {
	apiKey      string
	model       string
	maxTokens   int
	temperature float64

	once    sync.Once
	client  *genai.Client
	initErr error
}

func NewGeminiClient(apiKey, model string, maxTokens int, temperature float64) *GeminiClient {
	return &GeminiClient{apiKey: apiKey, model: model, maxTokens: maxTokens, temperature: temperature}
}

func (g *GeminiClient) init(ctx context.Context) (*genai.Client, error) {
	g.once.Do(func() {
		if g.apiKey == "" {
			g.initErr = errors.New("gemini api key missing")
			return
		}
		// The client keeps no per-call state, so it is created without the
		// caller's deadline.
		g.client, g.initErr = genai.NewClient(context.WithoutCancel(ctx), &genai.ClientConfig{
			APIKey:  g.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
	})
	return g.client, g.initErr
}

func (g *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	client, err := g.init(ctx)
	if err != nil {
		return "", err
	}
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(g.temperature)),
	}
	if g.maxTokens > 0 {
		cfg.MaxOutputTokens = int32(g.maxTokens)
	}
	resp, err := client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("gemini: empty response")
	}
	return text, nil
}

package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const elevenLabsBaseURL = "https://api.elevenlabs.io"

// ElevenLabsClient calls the ElevenLabs text-to-speech HTTP API and returns a
// complete mp3 file.
type ElevenLabsClient struct {
	HTTPClient   *http.Client
	BaseURL      string
	APIKey       string
	VoiceID      string
	Model        string
	OutputFormat string
}

func NewElevenLabsClient(apiKey, voiceID string) *ElevenLabsClient {
	return &ElevenLabsClient{
		HTTPClient:   &http.Client{},
		BaseURL:      elevenLabsBaseURL,
		APIKey:       apiKey,
		VoiceID:      voiceID,
		Model:        "eleven_flash_v2_5",
		OutputFormat: "mp3_44100_128",
	}
}

func (e *ElevenLabsClient) Synthesize(ctx context.Context, text, lang string) ([]byte, string, error) {
	if e.APIKey == "" || e.VoiceID == "" {
		return nil, "", fmt.Errorf("elevenlabs: api key or voice id missing")
	}
	u, err := url.Parse(e.BaseURL)
	if err != nil {
		return nil, "", fmt.Errorf("elevenlabs: base url: %w", err)
	}
	u.Path = "/v1/text-to-speech/" + url.PathEscape(e.VoiceID)
	q := u.Query()
	q.Set("output_format", e.OutputFormat)
	u.RawQuery = q.Encode()

	body := map[string]any{
		"model_id": e.Model,
		"text":     text,
		"voice_settings": map[string]any{
			"stability":         0.4,
			"similarity_boost":  0.7,
			"style":             0.0,
			"use_speaker_boost": true,
		},
	}
	if lang != "" {
		body["language_code"] = lang
	}
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, "", fmt.Errorf("elevenlabs: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(buf))
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("xi-api-key", e.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("elevenlabs http error: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, "", fmt.Errorf("elevenlabs http status=%d body=%s", resp.StatusCode, string(b))
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("elevenlabs http read error: %w", err)
	}
	return audio, containerOf(e.OutputFormat), nil
}

// containerOf maps an ElevenLabs output_format such as mp3_44100_128 to its
// container name.
func containerOf(outputFormat string) string {
	prefix, _, _ := strings.Cut(outputFormat, "_")
	return prefix
}

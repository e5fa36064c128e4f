package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const defaultAssemblyAIURL = "wss://streaming.assemblyai.com/v3/ws"

// chunkDuration is how much audio goes into each binary frame.
const chunkDuration = 100 * time.Millisecond

// AssemblyAIRecognizer sends one finished utterance through the AssemblyAI
// streaming API and collects every turn it reports.
type AssemblyAIRecognizer struct {
	apiKey string
	url    string
	dialer websocket.Dialer
	logger *slog.Logger
}

// AssemblyAI message types
type BeginMessage struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	ExpiresAt int64  `json:"expires_at"`
}

type TurnMessage struct {
	Type          string `json:"type"`
	TurnOrder     int    `json:"turn_order"`
	Transcript    string `json:"transcript"`
	EndOfTurn     bool   `json:"end_of_turn"`
	TurnFormatted bool   `json:"turn_is_formatted"`
}

type TerminationMessage struct {
	Type                   string  `json:"type"`
	AudioDurationSeconds   float64 `json:"audio_duration_seconds"`
	SessionDurationSeconds float64 `json:"session_duration_seconds"`
}

type ErrorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func NewAssemblyAIRecognizer(apiKey, wsURL string, logger *slog.Logger) *AssemblyAIRecognizer {
	if wsURL == "" {
		wsURL = defaultAssemblyAIURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AssemblyAIRecognizer{
		apiKey: apiKey,
		url:    wsURL,
		dialer: websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		logger: logger.With(slog.String("component", "assemblyai")),
	}
}

func (a *AssemblyAIRecognizer) Recognize(ctx context.Context, w Waveform) (string, error) {
	if a.apiKey == "" {
		return "", errors.New("assemblyai api key is empty")
	}
	params := url.Values{}
	params.Set("sample_rate", strconv.Itoa(w.SampleRate))
	params.Set("encoding", "pcm_s16le")
	params.Set("format_turns", "true")
	headers := http.Header{"Authorization": {a.apiKey}}

	conn, resp, err := a.dialer.DialContext(ctx, a.url+"?"+params.Encode(), headers)
	if err != nil {
		if resp != nil {
			return "", fmt.Errorf("connect to assemblyai: status %d: %w", resp.StatusCode, err)
		}
		return "", fmt.Errorf("connect to assemblyai: %w", err)
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	done := make(chan error, 1)
	turns := map[int]string{}
	go func() { done <- a.readTurns(conn, turns) }()

	frame := w.SampleRate * w.Channels * 2 * int(chunkDuration/time.Millisecond) / 1000
	if frame <= 0 {
		frame = 3200
	}
	for off := 0; off < len(w.PCM); off += frame {
		end := min(off+frame, len(w.PCM))
		if err := conn.WriteMessage(websocket.BinaryMessage, w.PCM[off:end]); err != nil {
			return "", fmt.Errorf("send audio: %w", err)
		}
	}
	if err := conn.WriteJSON(map[string]string{"type": "Terminate"}); err != nil {
		return "", fmt.Errorf("send terminate: %w", err)
	}

	select {
	case err := <-done:
		if err != nil {
			return "", err
		}
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return joinTurns(turns), nil
}

// readTurns records the latest transcript per turn until Termination.
func (a *AssemblyAIRecognizer) readTurns(conn *websocket.Conn, turns map[int]string) error {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read assemblyai message: %w", err)
		}
		var base struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(message, &base); err != nil {
			a.logger.Debug("skipping unparseable message", slog.String("error", err.Error()))
			continue
		}
		switch base.Type {
		case "Begin":
			var msg BeginMessage
			if err := json.Unmarshal(message, &msg); err == nil {
				a.logger.Debug("session began", slog.String("id", msg.ID))
			}
		case "Turn":
			var msg TurnMessage
			if err := json.Unmarshal(message, &msg); err != nil {
				continue
			}
			if strings.TrimSpace(msg.Transcript) != "" {
				turns[msg.TurnOrder] = msg.Transcript
			}
		case "Termination":
			var msg TerminationMessage
			if err := json.Unmarshal(message, &msg); err == nil {
				a.logger.Debug("session terminated", slog.Float64("audio_seconds", msg.AudioDurationSeconds))
			}
			return nil
		case "Error":
			var msg ErrorMessage
			_ = json.Unmarshal(message, &msg)
			return fmt.Errorf("assemblyai error: %s", msg.Error)
		default:
			a.logger.Debug("unknown message type", slog.String("type", base.Type))
		}
	}
}

func joinTurns(turns map[int]string) string {
	orders := make([]int, 0, len(turns))
	for k := range turns {
		orders = append(orders, k)
	}
	sort.Ints(orders)
	parts := make([]string, 0, len(orders))
	for _, k := range orders {
		parts = append(parts, strings.TrimSpace(turns[k]))
	}
	return strings.Join(parts, " ")
}

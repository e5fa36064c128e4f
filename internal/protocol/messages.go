// Package protocol defines the JSON messages exchanged on the discussion socket.
package protocol

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Control actions.
const (
	ActionStartRecording = "start_recording"
	ActionStopRecording  = "stop_recording"
	ActionForceStop      = "force_stop"
	ActionEndTurn        = "end_turn"
	ActionForceConclude  = "force_conclude"
)

// Message types.
const (
	TypeControl         = "control"
	TypeTranscript      = "transcript"
	TypeAudioChunk      = "audio_chunk"
	TypeSilenceDetected = "silence_detected"
)

// SpokenTurn carries one synthesized utterance. Audio is empty when
// synthesis failed.
type SpokenTurn struct {
	Sender string `json:"sender"`
	Audio  string `json:"audio"`
	Format string `json:"format,omitempty"`
}

// Control tells the client to start or stop capturing.
type Control struct {
	Type   string `json:"type"`
	Action string `json:"action"`
}

func NewControl(action string) Control { return Control{Type: TypeControl, Action: action} }

// Transcript echoes recognised user speech back to the client.
type Transcript struct {
	Type   string `json:"type"`
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

func NewTranscript(sender, text string) Transcript {
	return Transcript{Type: TypeTranscript, Sender: sender, Text: text}
}

// Frame is one inbound websocket message before interpretation.
type Frame struct {
	Binary bool
	Data   []byte
}

// Event is a decoded client message.
type Event interface {
	Kind() string
}

// AudioChunk is the latest recorded audio; Raw is set for binary frames.
type AudioChunk struct {
	Data []byte
	Raw  bool
}

// EndTurn is the client's explicit end-of-turn signal.
type EndTurn struct{}

// SilenceDetected reports client-measured silence in seconds.
type SilenceDetected struct {
	Duration float64
}

// ForceConclude asks the moderator to wrap the discussion up.
type ForceConclude struct{}

func (AudioChunk) Kind() string      { return TypeAudioChunk }
func (EndTurn) Kind() string         { return ActionEndTurn }
func (SilenceDetected) Kind() string { return TypeSilenceDetected }
func (ForceConclude) Kind() string   { return ActionForceConclude }

var (
	ErrMalformed   = errors.New("malformed client message")
	ErrUnknownType = errors.New("unrecognized client message")
)

type envelope struct {
	Type     string  `json:"type"`
	Action   string  `json:"action"`
	Data     *string `json:"data"`
	Duration float64 `json:"duration"`
}

// Decode interprets a client frame. Errors wrap ErrMalformed or ErrUnknownType.
func Decode(f Frame) (Event, error) {
	if f.Binary {
		if len(f.Data) == 0 {
			return nil, fmt.Errorf("%w: empty binary frame", ErrMalformed)
		}
		return AudioChunk{Data: append([]byte(nil), f.Data...), Raw: true}, nil
	}

	var env envelope
	if err := json.Unmarshal(f.Data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	switch env.Type {
	case TypeAudioChunk:
		if env.Data == nil {
			return nil, fmt.Errorf("%w: audio_chunk without data", ErrMalformed)
		}
		audio, err := decodeAudio(*env.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return AudioChunk{Data: audio}, nil
	case TypeControl:
		switch env.Action {
		case ActionEndTurn:
			return EndTurn{}, nil
		case ActionForceConclude:
			return ForceConclude{}, nil
		}
		return nil, fmt.Errorf("%w: control action %q", ErrUnknownType, env.Action)
	case TypeSilenceDetected:
		return SilenceDetected{Duration: env.Duration}, nil
	case "":
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	}
	return nil, fmt.Errorf("%w: type %q", ErrUnknownType, env.Type)
}

// decodeAudio accepts plain base64 or a data URL.
func decodeAudio(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		if _, payload, ok := strings.Cut(s, ","); ok {
			s = payload
		}
	}
	return base64.StdEncoding.DecodeString(s)
}

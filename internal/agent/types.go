package agent

import (
	"context"
	"errors"

	"github.com/MokkshKapur/Ai-powered-GD-Room/internal/events"
	"github.com/MokkshKapur/Ai-powered-GD-Room/internal/protocol"
	"github.com/MokkshKapur/Ai-powered-GD-Room/internal/roster"
	"github.com/MokkshKapur/Ai-powered-GD-Room/internal/telemetry"
	"github.com/MokkshKapur/Ai-powered-GD-Room/internal/tts"
)

// ErrTransportClosed wraps every send failure and disconnect.
var ErrTransportClosed = errors.New("transport closed")

// Transport is the session's view of one client connection.
// Frames is closed and Done is closed once the connection is gone.
type Transport interface {
	Send(ctx context.Context, msg any) error
	Frames() <-chan protocol.Frame
	Done() <-chan struct{}
}

// Responder generates an agent reply. Failures come back as placeholder
// text with ok=false.
type Responder interface {
	Respond(ctx context.Context, p roster.Participant, topic string, lines []string) (reply string, ok bool)
}

// Transcriber turns one user utterance into text or a sentinel message.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) string
}

// Synthesizer renders text as transport-ready speech. Failures return
// empty speech.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, lang string) tts.Speech
}

// Backends are the process-wide handles a session borrows. Publisher and
// Metrics are optional.
type Backends struct {
	Responder   Responder
	Transcriber Transcriber
	Synthesizer Synthesizer
	Publisher   events.Publisher
	Metrics     *telemetry.Metrics
}

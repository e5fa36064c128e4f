package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MokkshKapur/Ai-powered-GD-Room/internal/roster"
)

// DefaultWindow is how many context lines are handed to the backend.
const DefaultWindow = 6

const promptTemplate = "You are %s, a %s.\n" +
	"You are participating in a group discussion on the topic:\n" +
	"\"%s\"\n\n" +
	"Based on this recent conversation:\n" +
	"%s\n\n" +
	"Respond thoughtfully in 2-3 sentences."

// BuildPrompt renders the instruction for one agent turn from at most window
// trailing context lines.
func BuildPrompt(p roster.Participant, topic string, lines []string, window int) string {
	if window > 0 && len(lines) > window {
		lines = lines[len(lines)-window:]
	}
	return fmt.Sprintf(promptTemplate, p.Name, p.Persona, topic, strings.Join(lines, "\n"))
}

// Placeholder is the reply spoken in place of a failed generation.
func Placeholder(err error) string {
	return fmt.Sprintf("(Error generating response: %v)", err)
}

// Responder wraps a Backend so that failures become conversation content.
type Responder struct {
	// Timeout bounds a single generation. Zero leaves it to ctx.
	Timeout time.Duration

	backend Backend
	window  int
	logger  *slog.Logger
}

func NewResponder(backend Backend, window int, logger *slog.Logger) *Responder {
	if window <= 0 {
		window = DefaultWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Responder{backend: backend, window: window, logger: logger.With(slog.String("component", "llm"))}
}

// Respond makes one backend attempt. It never returns an error: failures and
// empty replies come back as placeholder text, with ok set to false.
func (r *Responder) Respond(ctx context.Context, p roster.Participant, topic string, lines []string) (reply string, ok bool) {
	prompt := BuildPrompt(p, topic, lines, r.window)
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	text, err := r.backend.Generate(ctx, prompt)
	if err == nil && strings.TrimSpace(text) == "" {
		err = fmt.Errorf("empty reply")
	}
	if err != nil {
		r.logger.Warn("generation failed", slog.String("agent", p.Name), slog.String("error", err.Error()))
		return Placeholder(err), false
	}
	return strings.TrimSpace(text), true
}

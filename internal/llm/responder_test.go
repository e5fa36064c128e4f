package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MokkshKapur/Ai-powered-GD-Room/internal/config"
	"github.com/MokkshKapur/Ai-powered-GD-Room/internal/roster"
)

type fakeBackend struct {
	reply  string
	err    error
	calls  int32
	prompt string
}

func (f *fakeBackend) Generate(ctx context.Context, prompt string) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	f.prompt = prompt
	return f.reply, f.err
}

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

var riya = roster.Participant{Name: "Riya", Role: roster.RoleAgent, Persona: "Optimistic tech enthusiast"}

func TestBuildPrompt_UsesLastSixLines(t *testing.T) {
	var lines []string
	for i := 0; i < 9; i++ {
		lines = append(lines, fmt.Sprintf("S%d: line %d", i, i))
	}
	p := BuildPrompt(riya, "Is AI a threat to human jobs?", lines, DefaultWindow)
	if strings.Contains(p, "S2: line 2") {
		t.Fatalf("prompt should drop lines outside the window:\n%s", p)
	}
	if !strings.Contains(p, "S3: line 3\nS4: line 4") || !strings.Contains(p, "S8: line 8") {
		t.Fatalf("prompt missing window lines:\n%s", p)
	}
	if !strings.HasPrefix(p, "You are Riya, a Optimistic tech enthusiast.\n") {
		t.Fatalf("unexpected persona line:\n%s", p)
	}
	if !strings.Contains(p, "\"Is AI a threat to human jobs?\"") {
		t.Fatalf("topic not quoted:\n%s", p)
	}
	if !strings.HasSuffix(p, "Respond thoughtfully in 2-3 sentences.") {
		t.Fatalf("unexpected instruction tail:\n%s", p)
	}
}

func TestRespond_Success(t *testing.T) {
	b := &fakeBackend{reply: " Automation creates new roles. "}
	r := NewResponder(b, 0, discardLogger())
	reply, ok := r.Respond(context.Background(), riya, "topic", []string{"Moderator: welcome"})
	if !ok || reply != "Automation creates new roles." {
		t.Fatalf("unexpected reply %q ok=%v", reply, ok)
	}
	if !strings.Contains(b.prompt, "Moderator: welcome") {
		t.Fatalf("context not passed to backend")
	}
}

func TestRespond_FailureBecomesPlaceholder(t *testing.T) {
	b := &fakeBackend{err: errors.New("quota exceeded")}
	r := NewResponder(b, 6, discardLogger())
	reply, ok := r.Respond(context.Background(), riya, "topic", nil)
	if ok {
		t.Fatalf("expected ok=false")
	}
	if reply != "(Error generating response: quota exceeded)" {
		t.Fatalf("unexpected placeholder %q", reply)
	}
	if atomic.LoadInt32(&b.calls) != 1 {
		t.Fatalf("expected exactly one backend call, got %d", b.calls)
	}
}

func TestRespond_EmptyReplyIsFailure(t *testing.T) {
	r := NewResponder(&fakeBackend{reply: "   "}, 6, discardLogger())
	reply, ok := r.Respond(context.Background(), riya, "topic", nil)
	if ok || !strings.HasPrefix(reply, "(Error generating response:") {
		t.Fatalf("unexpected reply %q ok=%v", reply, ok)
	}
}

func TestRespond_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewResponder(NewMockBackend(), 6, discardLogger())
	reply, ok := r.Respond(ctx, riya, "topic", nil)
	if ok || !strings.Contains(reply, context.Canceled.Error()) {
		t.Fatalf("unexpected reply %q", reply)
	}
}

func TestRespond_Timeout(t *testing.T) {
	r := NewResponder(NewMockBackend(), 6, discardLogger())
	r.Timeout = time.Millisecond
	reply, ok := r.Respond(context.Background(), riya, "topic", nil)
	if ok || !strings.Contains(reply, context.DeadlineExceeded.Error()) {
		t.Fatalf("unexpected reply %q", reply)
	}
}

func TestNew_Modes(t *testing.T) {
	for _, mode := range []string{"gemini", "cerebras", "mock"} {
		cfg := config.Default().LLM
		cfg.Mode = mode
		if _, err := New(cfg); err != nil {
			t.Fatalf("mode %s: %v", mode, err)
		}
	}
	cfg := config.Default().LLM
	cfg.Mode = "nope"
	if _, err := New(cfg); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestGemini_NoKey(t *testing.T) {
	g := NewGeminiClient("", "gemini-2.0-flash", 64, 0.7)
	if _, err := g.Generate(context.Background(), "hi"); err == nil {
		t.Fatalf("expected error with missing key")
	}
}

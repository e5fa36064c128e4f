// Package agent runs one group discussion over a client connection: the
// scripted opening, user turns and agent rounds.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/MokkshKapur/Ai-powered-GD-Room/internal/events"
	"github.com/MokkshKapur/Ai-powered-GD-Room/internal/ledger"
	"github.com/MokkshKapur/Ai-powered-GD-Room/internal/protocol"
	"github.com/MokkshKapur/Ai-powered-GD-Room/internal/roster"
	"github.com/MokkshKapur/Ai-powered-GD-Room/internal/transcript"
)

// DefaultSilenceThreshold is the client-reported silence that ends a user turn.
const DefaultSilenceThreshold = 500 * time.Millisecond

// Options configure a single session. Zero pacing disables the delay
// between spoken turns.
type Options struct {
	ID               string
	Topic            string
	Username         string
	Language         string
	Roster           roster.Roster
	SilenceThreshold time.Duration
	PacingPerChar    time.Duration
	PacingBase       time.Duration
}

// Session owns the ledger and phase of one discussion. Run drives it; the
// accessors are safe to call from other goroutines.
type Session struct {
	opts      Options
	transport Transport
	backends  Backends
	ledger    *ledger.Ledger
	logger    *slog.Logger
	tracer    trace.Tracer

	phase   atomic.Int32
	pending []byte
}

// NewSession fills unset options from the built-in defaults.
func NewSession(opts Options, t Transport, b Backends, logger *slog.Logger) *Session {
	if opts.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			id = uuid.New()
		}
		opts.ID = id.String()
	}
	if strings.TrimSpace(opts.Topic) == "" {
		opts.Topic = roster.DefaultTopic
	}
	if strings.TrimSpace(opts.Username) == "" {
		opts.Username = roster.DefaultUsername
	}
	if opts.Language == "" {
		opts.Language = roster.DefaultLanguage
	}
	if len(opts.Roster.Agents()) == 0 {
		opts.Roster = roster.Default()
	}
	if opts.SilenceThreshold <= 0 {
		opts.SilenceThreshold = DefaultSilenceThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		opts:      opts,
		transport: t,
		backends:  b,
		ledger:    ledger.New(),
		logger:    logger.With(slog.String("component", "session"), slog.String("session_id", opts.ID)),
		tracer:    otel.Tracer("github.com/MokkshKapur/Ai-powered-GD-Room/internal/agent"),
	}
	s.phase.Store(int32(PhaseInit))
	return s
}

func (s *Session) ID() string { return s.opts.ID }

func (s *Session) Phase() Phase { return Phase(s.phase.Load()) }

// Turns returns a snapshot of the ledger.
func (s *Session) Turns() []ledger.Turn { return s.ledger.Turns() }

// PacingDelay is how long to wait after speaking text: per rune plus base.
func PacingDelay(text string, perChar, base time.Duration) time.Duration {
	return time.Duration(utf8.RuneCountInString(text))*perChar + base
}

// Run plays the discussion until the client disconnects, a send fails, the
// discussion is concluded or ctx is canceled. A concluded discussion
// returns nil; transport failures wrap ErrTransportClosed.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer s.phase.Store(int32(PhaseClosed))

	go func() {
		select {
		case <-s.transport.Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	s.backends.Metrics.SessionStarted(ctx)
	defer s.backends.Metrics.SessionEnded(context.WithoutCancel(ctx))
	s.logger.Info("session started", slog.String("topic", s.opts.Topic), slog.String("username", s.opts.Username))

	err := s.run(ctx)
	switch {
	case err == nil:
		s.logger.Info("session concluded", slog.Int("turns", s.ledger.Len()))
	case errors.Is(err, ErrTransportClosed):
		s.logger.Info("session closed", slog.String("reason", err.Error()), slog.String("phase", s.Phase().String()))
	default:
		s.logger.Info("session stopped", slog.String("reason", err.Error()), slog.String("phase", s.Phase().String()))
	}
	return err
}

func (s *Session) run(ctx context.Context) error {
	if err := s.scriptedRound(ctx); err != nil {
		return err
	}
	if err := s.openUserTurn(ctx); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return s.stopCause(ctx)
		case f, ok := <-s.transport.Frames():
			if !ok {
				return ErrTransportClosed
			}
			done, err := s.handleFrame(ctx, f)
			if err != nil || done {
				return err
			}
		}
	}
}

func (s *Session) scriptedRound(ctx context.Context) error {
	s.transition(PhaseScriptedRound)
	ctx, span := s.tracer.Start(ctx, "gd.scripted_round")
	defer span.End()

	mod := s.opts.Roster.Moderator()
	intro := roster.Intro(s.opts.Topic)
	if err := s.say(ctx, mod.Name, intro); err != nil {
		return err
	}
	s.appendTurn(ctx, mod, intro)
	if err := s.pace(ctx, intro); err != nil {
		return err
	}
	return s.agentTurns(ctx)
}

func (s *Session) agentTurns(ctx context.Context) error {
	for _, p := range s.opts.Roster.Agents() {
		if err := ctx.Err(); err != nil {
			return s.stopCause(ctx)
		}
		if err := s.agentTurn(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) agentTurn(ctx context.Context, p roster.Participant) error {
	lines := s.ledger.RenderContext(s.opts.Username)

	start := time.Now()
	genCtx, span := s.tracer.Start(ctx, "gd.generate", trace.WithAttributes(attribute.String("gd.agent", p.Name)))
	reply, ok := s.backends.Responder.Respond(genCtx, p, s.opts.Topic, lines)
	span.End()
	s.backends.Metrics.BackendCall(ctx, "generate", time.Since(start), ok)

	if ctx.Err() != nil {
		return s.stopCause(ctx)
	}
	s.appendTurn(ctx, p, reply)
	if err := s.say(ctx, p.Name, reply); err != nil {
		return err
	}
	return s.pace(ctx, reply)
}

// say synthesizes text and sends it as one spoken turn. Empty audio is
// still sent so the client sees every turn.
func (s *Session) say(ctx context.Context, sender, text string) error {
	start := time.Now()
	synthCtx, span := s.tracer.Start(ctx, "gd.synthesize", trace.WithAttributes(attribute.String("gd.speaker", sender)))
	speech := s.backends.Synthesizer.Synthesize(synthCtx, text, s.opts.Language)
	span.End()
	s.backends.Metrics.BackendCall(ctx, "synthesize", time.Since(start), !speech.Empty())

	return s.send(ctx, protocol.SpokenTurn{Sender: sender, Audio: speech.Audio, Format: speech.Format})
}

func (s *Session) pace(ctx context.Context, text string) error {
	d := PacingDelay(text, s.opts.PacingPerChar, s.opts.PacingBase)
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return s.stopCause(ctx)
	case <-timer.C:
		return nil
	}
}

func (s *Session) openUserTurn(ctx context.Context) error {
	s.transition(PhaseAwaitingUser)
	s.pending = nil
	return s.send(ctx, protocol.NewControl(protocol.ActionStartRecording))
}

// handleFrame applies one client frame. done reports a concluded discussion.
func (s *Session) handleFrame(ctx context.Context, f protocol.Frame) (done bool, err error) {
	ev, err := protocol.Decode(f)
	if err != nil {
		kind := "malformed"
		if errors.Is(err, protocol.ErrUnknownType) {
			kind = "unknown"
		}
		s.backends.Metrics.ClientMessage(ctx, kind)
		s.logger.Warn("ignoring client message", slog.String("error", err.Error()))
		return false, nil
	}
	s.backends.Metrics.ClientMessage(ctx, ev.Kind())

	if phase := s.Phase(); phase != PhaseAwaitingUser {
		s.logger.Debug("ignoring client message outside user turn",
			slog.String("type", ev.Kind()), slog.String("phase", phase.String()))
		return false, nil
	}

	switch e := ev.(type) {
	case protocol.AudioChunk:
		// Only the latest chunk is kept.
		s.pending = e.Data
	case protocol.EndTurn:
		return false, s.finalizeUserTurn(ctx)
	case protocol.SilenceDetected:
		if time.Duration(e.Duration*float64(time.Second)) < s.opts.SilenceThreshold {
			return false, nil
		}
		return false, s.finalizeUserTurn(ctx)
	case protocol.ForceConclude:
		return true, s.conclude(ctx)
	}
	return false, nil
}

func (s *Session) finalizeUserTurn(ctx context.Context) error {
	s.transition(PhaseFinalizingUserTurn)
	if err := s.send(ctx, protocol.NewControl(protocol.ActionStopRecording)); err != nil {
		return err
	}

	audio := s.pending
	s.pending = nil
	if len(audio) == 0 {
		s.logger.Debug("user turn ended without audio")
		return s.openUserTurn(ctx)
	}

	start := time.Now()
	sttCtx, span := s.tracer.Start(ctx, "gd.transcribe", trace.WithAttributes(attribute.Int("gd.audio_bytes", len(audio))))
	text := strings.TrimSpace(s.backends.Transcriber.Transcribe(sttCtx, audio))
	span.End()
	heard := text != "" && !transcript.IsSentinel(text)
	s.backends.Metrics.BackendCall(ctx, "transcribe", time.Since(start), heard)

	if ctx.Err() != nil {
		return s.stopCause(ctx)
	}
	if !heard {
		s.logger.Info("user turn produced no text", slog.String("result", text))
		return s.openUserTurn(ctx)
	}

	user := roster.Participant{Name: s.opts.Username, Role: roster.RoleUser}
	s.appendTurn(ctx, user, text)
	if err := s.send(ctx, protocol.NewTranscript(user.Name, text)); err != nil {
		return err
	}

	s.transition(PhaseAgentRound)
	roundCtx, span := s.tracer.Start(ctx, "gd.agent_round")
	err := s.agentTurns(roundCtx)
	span.End()
	if err != nil {
		return err
	}
	return s.openUserTurn(ctx)
}

func (s *Session) conclude(ctx context.Context) error {
	s.transition(PhaseConcluding)
	if err := s.send(ctx, protocol.NewControl(protocol.ActionForceStop)); err != nil {
		return err
	}
	mod := s.opts.Roster.Moderator()
	text := roster.Conclusion(s.opts.Topic)
	s.appendTurn(ctx, mod, text)
	if err := s.say(ctx, mod.Name, text); err != nil {
		return err
	}
	return s.pace(ctx, text)
}

func (s *Session) appendTurn(ctx context.Context, p roster.Participant, text string) {
	idx := s.ledger.Append(p.Name, text)
	s.backends.Metrics.TurnAppended(ctx, string(p.Role))
	if s.backends.Publisher == nil {
		return
	}
	turn, _ := s.ledger.Last()
	err := s.backends.Publisher.Publish(ctx, events.Turn{
		SessionID: s.opts.ID,
		Index:     idx,
		Speaker:   p.Name,
		Role:      string(p.Role),
		Text:      text,
		At:        turn.At,
	})
	if err != nil {
		s.logger.Warn("publish turn failed", slog.Int("index", idx), slog.String("error", err.Error()))
	}
}

func (s *Session) send(ctx context.Context, msg any) error {
	if ctx.Err() != nil {
		return s.stopCause(ctx)
	}
	if err := s.transport.Send(ctx, msg); err != nil {
		return fmt.Errorf("%w: %v", ErrTransportClosed, err)
	}
	return nil
}

// stopCause reports why ctx ended: a gone client or the caller.
func (s *Session) stopCause(ctx context.Context) error {
	select {
	case <-s.transport.Done():
		return ErrTransportClosed
	default:
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return ErrTransportClosed
}

func (s *Session) transition(to Phase) {
	from := s.Phase()
	if !CanTransition(from, to) {
		s.logger.Error("illegal phase transition", slog.String("from", from.String()), slog.String("to", to.String()))
		return
	}
	s.phase.Store(int32(to))
	s.logger.Debug("phase", slog.String("from", from.String()), slog.String("to", to.String()))
}

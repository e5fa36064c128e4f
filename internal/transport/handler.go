package transport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/MokkshKapur/Ai-powered-GD-Room/internal/agent"
	"github.com/MokkshKapur/Ai-powered-GD-Room/internal/config"
	"github.com/MokkshKapur/Ai-powered-GD-Room/internal/roster"
)

const (
	maxTopicLen    = 200
	maxUsernameLen = 64
)

// Handler upgrades requests to WebSocket and runs one discussion per
// connection.
type Handler struct {
	cfg      config.Config
	roster   roster.Roster
	backends agent.Backends
	tracker  *Tracker
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewHandler(cfg config.Config, r roster.Roster, b agent.Backends, tracker *Tracker, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		cfg:      cfg,
		roster:   r,
		backends: b,
		tracker:  tracker,
		logger:   logger.With(slog.String("component", "transport")),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  65536,
		WriteBufferSize: 65536,
		CheckOrigin:     h.originAllowed,
	}
	return h
}

func (h *Handler) originAllowed(r *http.Request) bool {
	allowed := h.cfg.Transport.AllowedOrigins
	if len(allowed) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range allowed {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.String("remote", r.RemoteAddr), slog.String("error", err.Error()))
		return
	}

	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	opts := h.sessionOptions(id.String(), r.URL.Query())
	logger := h.logger.With(slog.String("session_id", opts.ID))

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()
	unregister := h.tracker.Register(opts.ID, cancel)
	defer unregister()

	conn := NewConn(ws, h.cfg.Transport, logger)
	conn.Start(ctx)
	logger.Info("client connected", slog.String("remote", r.RemoteAddr))

	session := agent.NewSession(opts, conn, h.backends, h.logger)
	err = session.Run(ctx)
	switch {
	case err == nil:
		conn.Close(websocket.CloseNormalClosure, "discussion concluded")
	case errors.Is(err, context.Canceled):
		conn.Close(websocket.CloseGoingAway, "server shutting down")
	default:
		conn.Close(websocket.CloseNormalClosure, "")
	}
	logger.Info("client disconnected", slog.Int("turns", len(session.Turns())))
}

// sessionOptions applies the topic and username query parameters over the
// configured defaults.
func (h *Handler) sessionOptions(id string, q url.Values) agent.Options {
	d := h.cfg.Discussion
	opts := agent.Options{
		ID:               id,
		Topic:            d.Topic,
		Username:         d.Username,
		Language:         d.Language,
		Roster:           h.roster,
		SilenceThreshold: d.SilenceThreshold(),
		PacingPerChar:    h.cfg.Pacing.PerChar(),
		PacingBase:       h.cfg.Pacing.Base(),
	}
	if topic := bounded(q.Get("topic"), maxTopicLen); topic != "" {
		opts.Topic = topic
	}
	if name := bounded(q.Get("username"), maxUsernameLen); name != "" {
		if h.roster.Has(name) {
			h.logger.Warn("username collides with roster, keeping default", slog.String("username", name))
		} else {
			opts.Username = name
		}
	}
	return opts
}

func bounded(s string, max int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:max]))
}

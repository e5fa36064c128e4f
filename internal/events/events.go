// Package events publishes ledger turns to NATS so other services can follow
// a discussion as it happens.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/MokkshKapur/Ai-powered-GD-Room/internal/config"
)

// Turn is the payload published for every appended ledger turn.
type Turn struct {
	SessionID string    `json:"session_id"`
	Index     int       `json:"index"`
	Speaker   string    `json:"speaker"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	At        time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, turn Turn) error
	Close()
}

// Nop discards every turn.
type Nop struct{}

func (Nop) Publish(context.Context, Turn) error { return nil }
func (Nop) Close()                              {}

// NATSPublisher writes turns to <prefix>.<session_id>.
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
	log    *slog.Logger
}

func Connect(ctx context.Context, cfg config.EventsConfig, log *slog.Logger) (*NATSPublisher, error) {
	if len(cfg.Servers) == 0 {
		return nil, errors.New("no NATS servers configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	options := []nats.Option{
		nats.Name("gd-room"),
		nats.Timeout(cfg.ConnectTimeout()),
	}
	if cfg.Token != "" {
		options = append(options, nats.Token(cfg.Token))
	}

	url := strings.Join(cfg.Servers, ",")
	conn, err := nats.Connect(url, options...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	log.Info("connected to NATS", slog.String("servers", url))

	prefix := strings.TrimSuffix(strings.TrimSpace(cfg.SubjectPrefix), ".")
	if prefix == "" {
		prefix = "gd.turns"
	}
	return &NATSPublisher{conn: conn, prefix: prefix, log: log}, nil
}

// Subject returns the subject turns of sessionID are published on.
func (p *NATSPublisher) Subject(sessionID string) string {
	return p.prefix + "." + sessionID
}

func (p *NATSPublisher) Publish(ctx context.Context, turn Turn) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(turn)
	if err != nil {
		return err
	}
	return p.conn.Publish(p.Subject(turn.SessionID), data)
}

func (p *NATSPublisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	p.log.Info("closing NATS connection")
	_ = p.conn.Drain()
	p.conn.Close()
}

func (p *NATSPublisher) Healthy() bool {
	return p != nil && p.conn != nil && p.conn.Status() == nats.CONNECTED
}

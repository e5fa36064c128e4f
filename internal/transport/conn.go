// Package transport carries discussion sessions over WebSocket connections.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MokkshKapur/Ai-powered-GD-Room/internal/config"
	"github.com/MokkshKapur/Ai-powered-GD-Room/internal/protocol"
)

var ErrClosed = errors.New("connection closed")

const frameBuffer = 32

// Conn adapts a websocket connection to agent.Transport. One goroutine reads
// frames; writes are serialized.
type Conn struct {
	ws     *websocket.Conn
	cfg    config.TransportConfig
	logger *slog.Logger

	frames chan protocol.Frame
	done   chan struct{}
	once   sync.Once

	writeMu sync.Mutex
}

func NewConn(ws *websocket.Conn, cfg config.TransportConfig, logger *slog.Logger) *Conn {
	if cfg.WriteTimeoutMS <= 0 {
		cfg.WriteTimeoutMS = 10000
	}
	if cfg.ReadLimitBytes > 0 {
		ws.SetReadLimit(cfg.ReadLimitBytes)
	}
	return &Conn{
		ws:     ws,
		cfg:    cfg,
		logger: logger,
		frames: make(chan protocol.Frame, frameBuffer),
		done:   make(chan struct{}),
	}
}

// Start launches the read and keepalive loops. They stop when the peer goes
// away, a write fails, Close is called or ctx ends.
func (c *Conn) Start(ctx context.Context) {
	go c.readLoop()
	go c.keepalive(ctx)
}

func (c *Conn) Frames() <-chan protocol.Frame { return c.frames }

func (c *Conn) Done() <-chan struct{} { return c.done }

// Send writes msg as one JSON text frame.
func (c *Conn) Send(ctx context.Context, msg any) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	deadline := time.Now().Add(c.cfg.WriteTimeout())
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = c.ws.SetWriteDeadline(deadline)
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		c.shutdown()
		return err
	}
	return nil
}

// Close sends a close frame with code and reason and releases the socket.
func (c *Conn) Close(code int, reason string) {
	deadline := time.Now().Add(time.Second)
	_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	c.shutdown()
	_ = c.ws.Close()
}

func (c *Conn) shutdown() {
	c.once.Do(func() { close(c.done) })
}

func (c *Conn) readTimeout() time.Duration {
	if c.cfg.PingIntervalMS <= 0 {
		return 0
	}
	return 2 * c.cfg.PingInterval()
}

func (c *Conn) readLoop() {
	defer c.shutdown()
	defer close(c.frames)

	if timeout := c.readTimeout(); timeout > 0 {
		c.ws.SetPongHandler(func(string) error {
			return c.ws.SetReadDeadline(time.Now().Add(timeout))
		})
	}
	for {
		if timeout := c.readTimeout(); timeout > 0 {
			_ = c.ws.SetReadDeadline(time.Now().Add(timeout))
		}
		mt, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				c.logger.Info("websocket read ended", slog.String("error", err.Error()))
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}
		select {
		case c.frames <- protocol.Frame{Binary: mt == websocket.BinaryMessage, Data: data}:
		case <-c.done:
			return
		}
	}
}

func (c *Conn) keepalive(ctx context.Context) {
	if c.cfg.PingIntervalMS <= 0 {
		return
	}
	ticker := time.NewTicker(c.cfg.PingInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(c.cfg.WriteTimeout())
			if err := c.ws.WriteControl(websocket.PingMessage, []byte("ping"), deadline); err != nil {
				c.logger.Debug("ping failed", slog.String("error", err.Error()))
				c.shutdown()
				return
			}
		}
	}
}

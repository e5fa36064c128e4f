package httpserver

import (
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/labstack/echo/v4"
)

// Options are the handlers mounted by New. Nil handlers are not mounted.
type Options struct {
	Logger     *slog.Logger
	Discussion http.Handler
	Metrics    http.Handler
	// Sessions reports live discussions on /readyz.
	Sessions func() int
}

// Server bundles HTTP router and readiness state.
type Server struct {
	Router http.Handler
	ready  atomic.Bool
}

// New constructs the HTTP server with routes. It starts not ready.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{}
	e := newRouter(logger.With(slog.String("component", "http")))

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/readyz", func(c echo.Context) error {
		sessions := 0
		if opts.Sessions != nil {
			sessions = opts.Sessions()
		}
		if !s.ready.Load() {
			return c.JSON(http.StatusServiceUnavailable, map[string]any{"status": "not_ready", "sessions": sessions})
		}
		return c.JSON(http.StatusOK, map[string]any{"status": "ready", "sessions": sessions})
	})
	if opts.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(opts.Metrics))
	}
	if opts.Discussion != nil {
		e.GET("/ws/gd", echo.WrapHandler(opts.Discussion))
	}

	s.Router = e
	return s
}

// SetReady flips the /readyz answer.
func (s *Server) SetReady(ready bool) { s.ready.Store(ready) }

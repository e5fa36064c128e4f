package httpserver

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestServer() *Server {
	return New(Options{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Discussion: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
			_, _ = w.Write([]byte(r.URL.Query().Get("topic")))
		}),
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("gd_turns_total 3\n"))
		}),
		Sessions: func() int { return 2 },
	})
}

func serve(srv *Server, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	srv.Router.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestServer_Healthz(t *testing.T) {
	w := serve(newTestServer(), http.MethodGet, "/healthz")
	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("expected 200 ok, got %d %q", w.Code, w.Body.String())
	}
}

func TestServer_Readyz(t *testing.T) {
	srv := newTestServer()
	if w := serve(srv, http.MethodGet, "/readyz"); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before ready, got %d", w.Code)
	}

	srv.SetReady(true)
	w := serve(srv, http.MethodGet, "/readyz")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Status   string `json:"status"`
		Sessions int    `json:"sessions"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ready" || body.Sessions != 2 {
		t.Fatalf("unexpected body %+v", body)
	}

	srv.SetReady(false)
	if w := serve(srv, http.MethodGet, "/readyz"); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 after shutdown began, got %d", w.Code)
	}
}

func TestServer_MountsHandlers(t *testing.T) {
	srv := newTestServer()
	if w := serve(srv, http.MethodGet, "/metrics"); !strings.Contains(w.Body.String(), "gd_turns_total") {
		t.Fatalf("metrics handler not mounted: %q", w.Body.String())
	}
	w := serve(srv, http.MethodGet, "/ws/gd?topic=Remote+work")
	if w.Code != http.StatusTeapot || w.Body.String() != "Remote work" {
		t.Fatalf("discussion handler not mounted: %d %q", w.Code, w.Body.String())
	}
}

func TestServer_DiscussionRequiresGet(t *testing.T) {
	if w := serve(newTestServer(), http.MethodPost, "/ws/gd"); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}

func TestServer_UnmountedMetrics(t *testing.T) {
	srv := New(Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	if w := serve(srv, http.MethodGet, "/metrics"); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

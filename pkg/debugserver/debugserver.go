// Package debugserver is the optional local HTTP surface for humans:
// health, version, buffer occupancy and Prometheus metrics. It speaks
// no MCP and is off unless an address is configured.
package debugserver

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/probeops/pagetap/pkg/capture"
	"github.com/probeops/pagetap/pkg/errmodel"
	"github.com/probeops/pagetap/pkg/metrics"
	"github.com/probeops/pagetap/pkg/session"
)

// Server serves the debug endpoints on a local listener.
type Server struct {
	sess    *session.State
	version string
	httpSrv *http.Server
}

// New builds a debug server for the given session.
func New(sess *session.State, version string) *Server {
	s := &Server{sess: sess, version: version}
	metrics.Init()

	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/version", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"version":    version,
			"session_id": sess.ID,
		})
	})

	r.Get("/status", s.handleStatus)

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	s.httpSrv = &http.Server{
		Handler:           otelhttp.NewHandler(r, "debugserver"),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// statusResponse is the /status payload.
type statusResponse struct {
	SessionID string          `json:"session_id"`
	UptimeSec int64           `json:"uptime_sec"`
	Buffers   capture.Stats   `json:"buffers"`
	Page      *pageStatus     `json:"page,omitempty"`
	PageError *errmodel.Error `json:"page_error,omitempty"`
}

type pageStatus struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		SessionID: s.sess.ID,
		UptimeSec: int64(time.Since(s.sess.StartedAt).Seconds()),
		Buffers:   s.sess.Store.Stats(),
	}

	// Page info is best effort; a wedged browser should not take the
	// status endpoint down with it.
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	if info, err := s.sess.Page.PageInfo(ctx); err == nil {
		resp.Page = &pageStatus{URL: info.URL, Title: info.Title}
	} else {
		resp.PageError = errmodel.Browser("page_info_failed", err.Error(), nil)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Start listens on addr and serves in the background. It returns the
// bound address so callers can pass addr ":0" in tests.
func (s *Server) Start(addr string) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", err
	}
	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.sess.Logger.Error("debug server failed", "error", err)
		}
	}()
	return ln.Addr().String(), nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

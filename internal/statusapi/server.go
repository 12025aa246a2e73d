// Package statusapi exposes the ambient HTTP surface every routectl run
// carries: Prometheus metrics and a health check. No session cookies,
// no SPA, no per-route role table — there is no concept of multiple
// logged-in operators in a one-shot CLI.
package statusapi

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/routectl/routectl/internal/events"
)

// Server serves /metrics and /healthz for as long as a routectl run
// takes, so an external scraper can observe RunStageDuration and the
// event counters for that run.
type Server struct {
	listen     string
	authToken  string
	collector  *events.Collector
	logger     *slog.Logger
	httpServer *http.Server
	startTime  time.Time
}

// ServerOption configures optional Server fields.
type ServerOption func(*Server)

// WithAuthToken gates /metrics and /healthz behind a bearer token.
// Empty (the default) leaves both endpoints open.
func WithAuthToken(token string) ServerOption {
	return func(s *Server) { s.authToken = token }
}

// WithCollector attaches an events.Collector so /healthz can report
// per-event-type counts for the current run.
func WithCollector(c *events.Collector) ServerOption {
	return func(s *Server) { s.collector = c }
}

// NewServer returns a Server bound to listen (host:port).
func NewServer(listen string, logger *slog.Logger, opts ...ServerOption) *Server {
	s := &Server{
		listen:    listen,
		logger:    logger,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// requireAuth gates next behind the configured bearer token. With no
// token configured, every request passes through.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	if s.authToken == "" {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get("Authorization")
		if got != "Bearer "+s.authToken {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprintln(w, `{"error":"unauthorized"}`)
			return
		}
		next(w, r)
	}
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.Handle("GET /metrics", s.requireAuth(promhttp.Handler().ServeHTTP))
	mux.HandleFunc("GET /healthz", s.requireAuth(s.handleHealth))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"uptime_seconds":%.0f`, time.Since(s.startTime).Seconds())
	if s.collector != nil {
		fmt.Fprint(w, `,"event_counts":{`)
		first := true
		for t, n := range s.collector.Counts() {
			if !first {
				fmt.Fprint(w, ",")
			}
			first = false
			fmt.Fprintf(w, "%q:%d", string(t), n)
		}
		fmt.Fprint(w, "}")
	}
	fmt.Fprint(w, "}")
}

// Listen binds the server's listener without serving yet, so callers
// can detect a port conflict before committing to background serve.
func (s *Server) Listen() (net.Listener, error) {
	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpServer = &http.Server{
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	ln, err := net.Listen("tcp", s.listen)
	if err != nil {
		return nil, fmt.Errorf("binding status API to %s: %w", s.listen, err)
	}
	s.logger.Info("status API listening", "address", ln.Addr().String())
	return ln, nil
}

// Serve accepts connections on ln. Blocks until Stop is called.
func (s *Server) Serve(ln net.Listener) error {
	if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("status API: %w", err)
	}
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

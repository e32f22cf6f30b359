// Package server exposes the orchestrator over HTTP. The adapter is
// deliberately thin: it decodes the request, calls ProcessRequest and
// writes the structured response as JSON. Success and partial outcomes
// are both 200; the is_partial field tells them apart.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/discoverymesh/discoverymesh/logging"
	"github.com/discoverymesh/discoverymesh/orchestrator"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Options configures a Server.
type Options struct {
	// Logger receives request diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
	// ShutdownTimeout bounds graceful shutdown. Defaults to 10s.
	ShutdownTimeout time.Duration
}

// Server is the HTTP front end.
type Server struct {
	orc    *orchestrator.Orchestrator
	opts   Options
	router chi.Router
}

// discoverRequest is the JSON request body for POST /v1/discover.
type discoverRequest struct {
	Text    string         `json:"text"`
	UserID  string         `json:"user_id"`
	Context map[string]any `json:"context,omitempty"`
}

// New creates a Server over an orchestrator.
func New(orc *orchestrator.Orchestrator, optFns ...func(o *Options)) *Server {
	opts := Options{
		Logger:          logging.NoOpLogger{},
		ShutdownTimeout: 10 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Server{orc: orc, opts: opts}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Post("/v1/discover", s.handleDiscover)
	s.router = r
	return s
}

// Handler returns the HTTP handler for mounting or testing.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.opts.Logger.Info("http server listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	var req discoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"errors":  []string{"malformed request body: " + err.Error()},
		})
		return
	}

	resp := s.orc.ProcessRequest(r.Context(), orchestrator.Request{
		Text:    req.Text,
		UserID:  req.UserID,
		Context: req.Context,
	})

	s.opts.Logger.Info("request served",
		"user_id", req.UserID, "success", resp.Success,
		"is_partial", resp.IsPartial, "products", len(resp.Products),
		"duration_ms", resp.ExecutionTimeMS)
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

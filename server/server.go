// Package server exposes the brief processor over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/KamdynS/designrelay/brief"
	"github.com/KamdynS/designrelay/llm"
)

// Processor produces the event sequence for one request.
type Processor interface {
	Process(ctx context.Context, req brief.Request) iter.Seq[brief.Event]
}

// Server provides the relay's HTTP API.
type Server struct {
	proc       Processor
	config     Config
	log        zerolog.Logger
	handler    http.Handler
	httpServer *http.Server
}

// Config holds server configuration.
type Config struct {
	Port                int
	ReadTimeout         time.Duration
	IdleTimeout         time.Duration
	MaxRequestBodyBytes int64
	// Metrics, when set, is served on GET /metrics.
	Metrics http.Handler
	Logger  zerolog.Logger
}

// New creates the server. Streams run as long as the upstream model does, so
// no write timeout is applied.
func New(p Processor, cfg Config) (*Server, error) {
	if p == nil {
		return nil, fmt.Errorf("processor is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 3000
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 120 * time.Second
	}
	if cfg.MaxRequestBodyBytes == 0 {
		cfg.MaxRequestBodyBytes = 1 << 20
	}

	s := &Server{
		proc:   p,
		config: cfg,
		log:    cfg.Logger.With().Str("component", "server").Logger(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/gen-image", s.handleGenImage)
	if cfg.Metrics != nil {
		mux.Handle("/metrics", cfg.Metrics)
	}
	s.handler = withCORS(mux)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.handler,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
	return s, nil
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.handler }

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.log.Info().Int("port", s.config.Port).Msg("starting relay server")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Stop gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info().Msg("stopping relay server")
	return s.httpServer.Shutdown(ctx)
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// withCORS allows any origin and answers preflight requests directly.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleGenImage handles POST /api/gen-image
func (s *Server) handleGenImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.sendError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	format := r.URL.Query().Get("format")
	enc, err := newEncoder(format, w)
	if err != nil {
		s.sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxRequestBodyBytes)
	var req brief.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.sendError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validateRequest(req); err != nil {
		s.sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	n := 0
	for ev := range s.proc.Process(r.Context(), req) {
		if err := enc.Encode(ev); err != nil {
			s.log.Warn().Err(err).Int("events", n).Msg("client write failed, stopping run")
			return
		}
		n++
	}
	if err := enc.Close(); err != nil {
		s.log.Warn().Err(err).Msg("finish response failed")
		return
	}
	s.log.Debug().Str("format", enc.Format()).Int("events", n).Dur("latency", time.Since(start)).Msg("request finished")
}

func validateRequest(req brief.Request) error {
	if req.Context.Prompt == "" && len(req.Messages) == 0 {
		return errors.New("context.prompt or messages is required")
	}
	for i, m := range req.Messages {
		switch m.Role {
		case llm.RoleUser, llm.RoleAssistant, llm.RoleSystem:
		default:
			return fmt.Errorf("messages[%d]: unsupported role %q", i, m.Role)
		}
	}
	return nil
}

// sendJSON sends a JSON response
func (s *Server) sendJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (s *Server) sendError(w http.ResponseWriter, status int, message string) {
	s.sendJSON(w, status, ErrorResponse{Error: message})
}

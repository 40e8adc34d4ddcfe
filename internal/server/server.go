package server

import (
	"claudebridge/config"
	"claudebridge/internal/claude"
	"claudebridge/internal/models"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Server exposes the Claude CLI over HTTP.
type Server struct {
	invoker      claude.Invoker
	maxBodyBytes int64
	router       *mux.Router
	handler      http.Handler
}

// New creates a Server that runs prompts through invoker.
func New(invoker claude.Invoker, cfg config.ServerConfig) *Server {
	s := &Server{
		invoker:      invoker,
		maxBodyBytes: cfg.MaxBodyBytes,
		router:       mux.NewRouter(),
	}
	s.routes()
	// Wrapped outside the router so 404 and 405 responses go through the middleware as well.
	s.handler = requestIDMiddleware(loggingMiddleware(recoveryMiddleware(corsMiddleware(s.router))))
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/claude", s.claudeHandler).Methods(http.MethodPost)
	s.router.HandleFunc("/health", healthCheckHandler).Methods(http.MethodGet)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) claudeHandler(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r)

	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	var req models.ClaudeRequest
	dec := json.NewDecoder(r.Body)
	err := dec.Decode(&req)
	if err == nil && dec.More() {
		err = errors.New("unexpected data after the JSON object")
	}
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, models.ErrorResponse{
				Detail: fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit),
			})
			return
		}
		log.Warnf("Rejecting malformed request body: %v", err)
		writeJSON(w, http.StatusUnprocessableEntity, models.ErrorResponse{
			Detail: fmt.Sprintf("invalid request body: %v", err),
		})
		return
	}
	if req.Prompt == "" {
		writeJSON(w, http.StatusUnprocessableEntity, models.ErrorResponse{Detail: "'prompt' is required"})
		return
	}
	if req.Model != "" {
		log.Debugf("Ignoring model override '%s'", req.Model)
	}

	// The client going away does not cancel the run; only the CLI timeout does.
	ctx := context.WithoutCancel(r.Context())
	res := s.invoker.Invoke(ctx, claude.Invocation{
		Prompt:      req.Prompt,
		ProjectPath: req.ProjectPath,
		Model:       req.Model,
	})

	resp := BuildResponse(res)
	log.WithFields(logrus.Fields{
		"work_dir":  res.WorkDir,
		"exit_code": res.ExitCode,
		"timed_out": res.TimedOut,
		"success":   resp.Success,
	}).Info("Claude request completed")

	writeJSON(w, http.StatusOK, resp)
}

// BuildResponse maps a process outcome to the response contract. Output on
// stderr with nothing on stdout is a failure; otherwise stderr rides along
// as a non-fatal error.
func BuildResponse(res claude.Result) models.ClaudeResponse {
	if res.Stderr != "" && res.Stdout == "" {
		return models.ClaudeResponse{Success: false, Output: "", Error: res.Stderr}
	}
	return models.ClaudeResponse{Success: true, Output: res.Stdout, Error: res.Stderr}
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{Status: "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Warnf("Failed to write response: %v", err)
	}
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully, waiting at most shutdownTimeout for in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.Infof("Starting server on %s...", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logrus.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

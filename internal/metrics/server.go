// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package metrics serves the shell's Prometheus metrics and a health probe
// reporting the supervised backend's state.
package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/atlas-assistant/atlas/internal/lifecycle"
	atlaslog "github.com/atlas-assistant/atlas/internal/log"
	pkgerrors "github.com/atlas-assistant/atlas/pkg/errors"
)

// ErrServerClosed is returned by Shutdown after the server has stopped.
var ErrServerClosed = errors.New("metrics server closed")

// BackendState reports the supervised backend. *lifecycle.Supervisor
// implements it.
type BackendState interface {
	State() lifecycle.State
	PID() (int, bool)
	SessionID() string
}

// Config configures the metrics server.
type Config struct {
	// Addr is the listen address, e.g. "127.0.0.1:9464". Port 0 picks a free port.
	Addr string

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration

	// Backend is reported by /health. Optional.
	Backend BackendState

	Logger *slog.Logger
}

// Server exposes /metrics and /health over HTTP.
type Server struct {
	config     Config
	logger     *slog.Logger
	httpServer *http.Server

	mu       sync.Mutex
	listener net.Listener
	closed   bool
}

// HealthResponse is the body of /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Backend   string `json:"backend"`
	PID       int    `json:"pid,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// NewServer creates a metrics server. It does not listen until Start.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}

	s := &Server{
		config: cfg,
		logger: atlaslog.WithComponent(logger, "metrics"),
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", s.handleHealth)

	s.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
	return s
}

// Start binds the listen address and serves in the background. It returns
// the bound address, which differs from Config.Addr when port 0 was used.
func (s *Server) Start(ctx context.Context) (string, error) {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.config.Addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	addr := listener.Addr().String()
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server error", atlaslog.Error(err))
		}
	}()

	s.logger.Info("metrics server started", slog.String("addr", addr))
	return addr, nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown stops the server, waiting up to the configured timeout for
// in-flight scrapes.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrServerClosed
	}
	s.closed = true
	s.mu.Unlock()

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return &pkgerrors.TimeoutError{
				Operation: "metrics server shutdown",
				Duration:  s.config.ShutdownTimeout,
				Cause:     err,
			}
		}
		return fmt.Errorf("metrics server shutdown: %w", err)
	}

	s.logger.Debug("metrics server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Backend: "unknown"}
	httpStatus := http.StatusOK

	if b := s.config.Backend; b != nil {
		state := b.State()
		resp.Backend = state.String()
		resp.SessionID = b.SessionID()
		if pid, ok := b.PID(); ok {
			resp.PID = pid
		}
		if state != lifecycle.StateRunning {
			resp.Status = "degraded"
			httpStatus = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Debug("failed to write health response", atlaslog.Error(err))
	}
}

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


// Package shell hosts the desktop shell's lifecycle: it dispatches the
// startup hook once, waits for an exit trigger, then dispatches the
// exit-requested and exit hooks in that order.
package shell

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	atlaslog "github.com/atlas-assistant/atlas/internal/log"
)

// ErrAlreadyRan is returned when Run is called more than once.
var ErrAlreadyRan = errors.New("shell: Run called more than once")

// Hooks receives the shell's lifecycle events.
type Hooks interface {
	// OnStartup runs once before the shell starts waiting. A returned
	// error aborts the shell after the exit hooks have run.
	OnStartup(ctx context.Context) error

	// OnExitRequested runs when the shell has been asked to exit.
	OnExitRequested(ctx context.Context)

	// OnExit runs last, immediately before Run returns.
	OnExit(ctx context.Context)
}

// Config configures a Shell.
type Config struct {
	Logger *slog.Logger

	// Signals trigger an exit. Defaults to SIGINT and SIGTERM.
	Signals []os.Signal
}

// Shell runs hooks through one startup and exit cycle.
type Shell struct {
	hooks   Hooks
	logger  *slog.Logger
	signals []os.Signal

	ran      atomic.Bool
	exitCh   chan struct{}
	exitOnce sync.Once
}

// New creates a shell dispatching to hooks.
func New(hooks Hooks, cfg Config) *Shell {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	signals := cfg.Signals
	if len(signals) == 0 {
		signals = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	return &Shell{
		hooks:   hooks,
		logger:  atlaslog.WithComponent(logger, "shell"),
		signals: signals,
		exitCh:  make(chan struct{}),
	}
}

// Run dispatches OnStartup, blocks until a signal arrives, ctx is cancelled
// or RequestExit is called, then dispatches OnExitRequested and OnExit.
// The exit hooks receive a context that outlives ctx's cancellation.
func (s *Shell) Run(ctx context.Context) error {
	if !s.ran.CompareAndSwap(false, true) {
		return ErrAlreadyRan
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, s.signals...)
	defer signal.Stop(sigCh)

	exitCtx := context.WithoutCancel(ctx)

	if err := s.hooks.OnStartup(ctx); err != nil {
		s.logger.Error("startup hook failed", atlaslog.Error(err))
		s.exit(exitCtx)
		return fmt.Errorf("startup failed: %w", err)
	}
	s.logger.Debug("shell started")

	select {
	case sig := <-sigCh:
		s.logger.Info("exit requested", slog.String("trigger", "signal"), slog.String("signal", sig.String()))
	case <-ctx.Done():
		s.logger.Info("exit requested", slog.String("trigger", "context"))
	case <-s.exitCh:
		s.logger.Info("exit requested", slog.String("trigger", "request"))
	}

	s.exit(exitCtx)
	return nil
}

// RequestExit asks a running shell to exit. It is safe to call from any
// goroutine, any number of times, before or during Run.
func (s *Shell) RequestExit() {
	s.exitOnce.Do(func() { close(s.exitCh) })
}

func (s *Shell) exit(ctx context.Context) {
	s.hooks.OnExitRequested(ctx)
	s.hooks.OnExit(ctx)
	s.logger.Debug("shell exited")
}

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

package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	atlaslog "github.com/atlas-assistant/atlas/internal/log"
)

var (
	// ErrAlreadyRunning is returned by Start while a backend handle is held.
	ErrAlreadyRunning = errors.New("backend already running")

	// ErrTerminated is returned by Start after the supervisor has shut down.
	ErrTerminated = errors.New("supervisor already shut down")

	// ErrSupervisorPoisoned is returned after a panic escaped a critical
	// section. The supervisor's state can no longer be trusted.
	ErrSupervisorPoisoned = errors.New("supervisor state poisoned by an earlier panic")
)

// State is the supervisor's lifecycle state.
type State int

const (
	// StateEmpty means no backend handle is held.
	StateEmpty State = iota
	// StateRunning means a backend was spawned and its handle is held.
	StateRunning
	// StateTerminated means shutdown has run. It is final.
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateRunning:
		return "running"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// SupervisorConfig wires the supervisor's collaborators.
type SupervisorConfig struct {
	Resolver *Resolver
	Selector *Selector
	Launcher *Launcher

	// PIDFile is optional. When set the backend PID is recorded while it runs.
	PIDFile *PIDFileManager

	// Events is optional. When set lifecycle events are appended to it.
	Events *LifecycleLogger

	Logger *slog.Logger

	// SessionID tags logs and events. A random UUID is used when empty.
	SessionID string
}

// Supervisor owns the backend handle between the host's startup and exit
// hooks. All access to the handle is serialized by one mutex.
type Supervisor struct {
	resolver *Resolver
	selector *Selector
	launcher *Launcher
	pidFile  *PIDFileManager
	events   *LifecycleLogger
	logger   *slog.Logger
	session  string

	mu         sync.Mutex
	handle     *BackendHandle
	state      State
	poisoned   bool
	pidWritten bool
}

// NewSupervisor creates a supervisor in StateEmpty.
func NewSupervisor(cfg SupervisorConfig) *Supervisor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	session := cfg.SessionID
	if session == "" {
		session = uuid.New().String()
	}
	logger = atlaslog.WithSession(atlaslog.WithComponent(logger, "supervisor"), session)

	resolver := cfg.Resolver
	if resolver == nil {
		resolver = NewResolver(DefaultEntryPoint, DefaultLayouts(), logger)
	}
	selector := cfg.Selector
	if selector == nil {
		selector = NewSelector(DefaultInvocations())
	}
	launcher := cfg.Launcher
	if launcher == nil {
		launcher = NewLauncher(DefaultEntryPoint)
	}

	return &Supervisor{
		resolver: resolver,
		selector: selector,
		launcher: launcher,
		pidFile:  cfg.PIDFile,
		events:   cfg.Events.WithSession(session),
		logger:   logger,
		session:  session,
	}
}

// SessionID returns the ID tagging this supervisor's logs and events.
func (s *Supervisor) SessionID() string {
	return s.session
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// PID returns the backend PID while one is running.
func (s *Supervisor) PID() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == nil {
		return 0, false
	}
	return s.handle.PID(), true
}

// Start resolves the backend directory, selects an interpreter, spawns the
// backend and stores its handle. The lock is held for the whole sequence so a
// concurrent Shutdown never sees a half-started backend.
//
// A spawn failure is returned as *LaunchError and leaves the supervisor in
// StateEmpty. The supervisor never retries on its own.
func (s *Supervisor) Start(ctx context.Context) error {
	return s.locked(func() error {
		switch s.state {
		case StateRunning:
			return ErrAlreadyRunning
		case StateTerminated:
			return ErrTerminated
		}

		s.reapOrphan()

		atlaslog.Trace(s.logger, "resolving backend directory", atlaslog.Int("candidates", len(s.resolver.Layouts)))
		res := s.resolver.Resolve()
		if !res.Found {
			s.logEvent(s.events.LogResolveMiss(res.Tried))
		}

		inv := s.selector.Select(ctx)
		s.logger.Debug("interpreter selected", slog.String(atlaslog.InterpreterKey, inv.String()))

		h, err := s.launcher.Spawn(res.Dir, inv)
		if err != nil {
			s.logEvent(s.events.LogSpawnFailure(inv, res.Dir, err))
			return err
		}

		s.handle = h
		s.state = StateRunning
		setRunning(true)

		s.logger.Info("backend started",
			atlaslog.PID(h.PID()),
			slog.String(atlaslog.InterpreterKey, inv.String()),
			slog.String(atlaslog.WorkdirKey, h.Dir()))
		s.logEvent(s.events.LogSpawn(h))
		s.writePIDFile(h.PID())
		return nil
	})
}

// Shutdown takes the handle out of the supervisor and kills the backend.
// It is idempotent: once the handle has been taken, later calls do nothing.
// The kill is best-effort; its failure is logged, not returned.
//
// A poisoned supervisor still kills a backend it holds, then reports
// ErrSupervisorPoisoned.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	h, poisoned := s.take()
	if h != nil {
		s.kill(h)
	}
	if poisoned {
		return ErrSupervisorPoisoned
	}
	return nil
}

// take empties the cell and marks the supervisor terminated. It ignores
// poisoning so a held backend can always be reclaimed.
func (s *Supervisor) take() (*BackendHandle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.handle
	s.handle = nil
	s.state = StateTerminated
	return h, s.poisoned
}

func (s *Supervisor) kill(h *BackendHandle) {

	setRunning(false)
	killErr := h.Kill()
	uptime := time.Since(h.Started())
	if killErr != nil {
		s.logger.Warn("failed to kill backend", atlaslog.PID(h.PID()), atlaslog.Error(killErr))
	} else {
		s.logger.Info("backend killed", atlaslog.PID(h.PID()), slog.Duration("uptime", uptime))
	}
	s.logEvent(s.events.LogTerminate(h.PID(), uptime, killErr))
	s.removePIDFile()
}

// OnStartup is the host's startup hook. A launch failure is logged and
// swallowed so the shell keeps running without a backend.
func (s *Supervisor) OnStartup(ctx context.Context) error {
	err := s.Start(ctx)
	var launchErr *LaunchError
	if errors.As(err, &launchErr) {
		s.logger.Error("backend unavailable", atlaslog.Error(launchErr))
		return nil
	}
	if err != nil {
		s.logger.Error("backend startup hook failed", atlaslog.Error(err))
	}
	return err
}

// OnExitRequested is the host's exit-requested hook.
func (s *Supervisor) OnExitRequested(ctx context.Context) {
	s.onExit(ctx, "exit_requested")
}

// OnExit is the host's exit hook.
func (s *Supervisor) OnExit(ctx context.Context) {
	s.onExit(ctx, "exit")
}

func (s *Supervisor) onExit(ctx context.Context, event string) {
	if err := s.Shutdown(ctx); err != nil {
		s.logger.Error("backend shutdown failed", slog.String(atlaslog.EventKey, event), atlaslog.Error(err))
	}
}

// locked runs fn under the mutex. A panic inside fn poisons the supervisor
// before it propagates, and every later call fails with ErrSupervisorPoisoned.
func (s *Supervisor) locked(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.poisoned {
		return ErrSupervisorPoisoned
	}

	defer func() {
		if r := recover(); r != nil {
			s.poisoned = true
			panic(r)
		}
	}()
	return fn()
}

// reapOrphan kills a backend left running by a shell that crashed. Only
// unlocked PID files are considered; a locked one belongs to a live shell.
func (s *Supervisor) reapOrphan() {
	if s.pidFile == nil || !s.pidFile.Exists() || s.pidFile.IsLocked() {
		return
	}

	pid, err := KillOrphan(s.pidFile, s.launcher.EntryPoint)
	switch {
	case err == nil:
		s.logger.Warn("killed orphaned backend from previous session", atlaslog.PID(pid))
		s.logEvent(s.events.LogOrphanKilled(pid))
	case errors.Is(err, ErrProcessNotRunning), errors.Is(err, ErrNotBackendProcess):
		s.logger.Debug("removed stale backend PID file", atlaslog.PID(pid), atlaslog.Error(err))
	default:
		s.logger.Warn("failed to clean up stale backend PID file", atlaslog.Error(err))
	}
}

func (s *Supervisor) writePIDFile(pid int) {
	if s.pidFile == nil {
		return
	}
	if err := s.pidFile.Create(pid); err != nil {
		s.logger.Warn("failed to write backend PID file",
			slog.String("path", s.pidFile.Path()), atlaslog.Error(err))
		return
	}
	s.pidWritten = true
}

// removePIDFile removes the PID file only if this supervisor created it.
func (s *Supervisor) removePIDFile() {
	if s.pidFile == nil || !s.pidWritten {
		return
	}
	s.pidWritten = false
	if err := s.pidFile.Remove(); err != nil {
		s.logger.Warn("failed to remove backend PID file",
			slog.String("path", s.pidFile.Path()), atlaslog.Error(err))
	}
}

func (s *Supervisor) logEvent(err error) {
	if err != nil {
		s.logger.Warn("failed to write lifecycle event", atlaslog.Error(err))
	}
}

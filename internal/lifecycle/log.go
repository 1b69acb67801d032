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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	pkgerrors "github.com/atlas-assistant/atlas/pkg/errors"
)

// Lifecycle event names.
const (
	EventSpawn        = "spawn"
	EventSpawnFailure = "spawn_failure"
	EventResolveMiss  = "resolve_miss"
	EventTerminate    = "terminate"
	EventOrphanKilled = "orphan_killed"
)

// LifecycleEvent is one line of the backend lifecycle log.
type LifecycleEvent struct {
	Timestamp   time.Time `json:"timestamp"`
	Event       string    `json:"event"`
	SessionID   string    `json:"session_id,omitempty"`
	PID         int       `json:"pid,omitempty"`
	Interpreter string    `json:"interpreter,omitempty"`
	Workdir     string    `json:"workdir,omitempty"`
	Candidates  []string  `json:"candidates,omitempty"`
	Success     bool      `json:"success"`
	Message     string    `json:"message,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// LifecycleLogger appends backend lifecycle events to a JSON-lines file.
// A nil *LifecycleLogger discards every event.
type LifecycleLogger struct {
	logPath   string
	sessionID string
	mu        sync.Mutex
}

// NewLifecycleLogger creates a new lifecycle logger.
func NewLifecycleLogger(logPath string) *LifecycleLogger {
	return &LifecycleLogger{
		logPath: logPath,
	}
}

// WithSession tags every subsequent event with the given session ID.
func (l *LifecycleLogger) WithSession(sessionID string) *LifecycleLogger {
	if l == nil {
		return nil
	}
	l.sessionID = sessionID
	return l
}

// LogSpawn logs a successful backend spawn.
func (l *LifecycleLogger) LogSpawn(h *BackendHandle) error {
	return l.writeEvent(LifecycleEvent{
		Event:       EventSpawn,
		PID:         h.PID(),
		Interpreter: h.Invocation().String(),
		Workdir:     h.Dir(),
		Success:     true,
		Message:     "Backend started",
	})
}

// LogSpawnFailure logs a failed backend spawn.
func (l *LifecycleLogger) LogSpawnFailure(inv Invocation, workdir string, err error) error {
	return l.writeEvent(LifecycleEvent{
		Event:       EventSpawnFailure,
		Interpreter: inv.String(),
		Workdir:     workdir,
		Success:     false,
		Message:     "Backend failed to start",
		Error:       err.Error(),
	})
}

// LogResolveMiss logs that no candidate directory contained the marker.
func (l *LifecycleLogger) LogResolveMiss(tried []string) error {
	return l.writeEvent(LifecycleEvent{
		Event:      EventResolveMiss,
		Candidates: tried,
		Success:    false,
		Message:    "Backend directory not found, using the shell's working directory",
	})
}

// LogTerminate logs the kill issued at shutdown.
func (l *LifecycleLogger) LogTerminate(pid int, uptime time.Duration, err error) error {
	event := LifecycleEvent{
		Event:   EventTerminate,
		PID:     pid,
		Success: err == nil,
		Message: fmt.Sprintf("Backend killed (uptime: %v)", uptime.Round(time.Millisecond)),
	}
	if err != nil {
		event.Error = err.Error()
	}
	return l.writeEvent(event)
}

// LogOrphanKilled logs that a backend left behind by a crashed shell was killed.
func (l *LifecycleLogger) LogOrphanKilled(pid int) error {
	return l.writeEvent(LifecycleEvent{
		Event:   EventOrphanKilled,
		PID:     pid,
		Success: true,
		Message: "Orphaned backend from a previous session killed",
	})
}

// writeEvent appends a lifecycle event to the log file.
func (l *LifecycleLogger) writeEvent(event LifecycleEvent) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	event.Timestamp = time.Now()
	event.SessionID = l.sessionID

	logDir := filepath.Dir(l.logPath)
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return pkgerrors.Wrapf(err, "failed to create log directory %s", logDir)
	}

	f, err := os.OpenFile(l.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to open lifecycle log")
	}
	defer f.Close()

	data, err := json.Marshal(event)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to marshal %s event", event.Event)
	}

	if _, err := f.Write(append(data, '\n')); err != nil {
		return pkgerrors.Wrap(err, "failed to write event")
	}

	return nil
}

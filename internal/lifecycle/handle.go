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
	"errors"
	"os"
	"os/exec"
	"sync"
	"time"

	pkgerrors "github.com/atlas-assistant/atlas/pkg/errors"
)

// BackendHandle references a running backend process.
// It is created by Launcher.Spawn and consumed by Kill.
type BackendHandle struct {
	cmd     *exec.Cmd
	pid     int
	inv     Invocation
	dir     string
	started time.Time

	killOnce sync.Once
	killErr  error
}

// PID returns the OS process ID.
func (h *BackendHandle) PID() int {
	return h.pid
}

// Invocation returns the interpreter invocation the backend was started with.
func (h *BackendHandle) Invocation() Invocation {
	return h.inv
}

// Dir returns the backend's working directory, empty if inherited.
func (h *BackendHandle) Dir() string {
	return h.dir
}

// Started returns when the process was created.
func (h *BackendHandle) Started() time.Time {
	return h.started
}

// Kill forcefully terminates the process and reaps it.
// Only the first call signals the process; later calls return its result.
func (h *BackendHandle) Kill() error {
	h.killOnce.Do(func() {
		err := h.cmd.Process.Kill()
		if err != nil && !errors.Is(err, os.ErrProcessDone) {
			recordKill(false)
			h.killErr = pkgerrors.Wrapf(err, "failed to kill backend %d", h.pid)
			return
		}
		recordKill(true)

		// Reap so the process leaves the process table. The exit status is
		// always "killed" here and carries no information.
		_ = h.cmd.Wait()
	})
	return h.killErr
}

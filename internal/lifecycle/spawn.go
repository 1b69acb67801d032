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
	"fmt"
	"os"
	"os/exec"
	"time"

	pkgerrors "github.com/atlas-assistant/atlas/pkg/errors"
)

// DefaultEntryPoint is the positional argument passed to the interpreter.
const DefaultEntryPoint = "main.py"

// LaunchError is returned when the backend process could not be created.
type LaunchError struct {
	Invocation Invocation
	Dir        string
	Err        error
}

var (
	_ pkgerrors.UserVisibleError = (*LaunchError)(nil)
	_ pkgerrors.ErrorClassifier  = (*LaunchError)(nil)
)

func (e *LaunchError) Error() string {
	dir := e.Dir
	if dir == "" {
		dir = "<inherited>"
	}
	return fmt.Sprintf("failed to start backend %q in %s: %v", e.Invocation.String(), dir, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// IsUserVisible implements pkgerrors.UserVisibleError.
func (e *LaunchError) IsUserVisible() bool { return true }

// UserMessage implements pkgerrors.UserVisibleError.
func (e *LaunchError) UserMessage() string {
	return "The assistant backend could not be started."
}

// Suggestion implements pkgerrors.UserVisibleError.
func (e *LaunchError) Suggestion() string {
	return fmt.Sprintf("Check that %q is installed and on PATH.", e.Invocation.Program)
}

// ErrorType implements pkgerrors.ErrorClassifier.
func (e *LaunchError) ErrorType() string { return "launch" }

// IsRetryable implements pkgerrors.ErrorClassifier.
func (e *LaunchError) IsRetryable() bool { return false }

// Launcher starts the backend process.
type Launcher struct {
	// EntryPoint is passed to the interpreter as its only positional argument.
	EntryPoint string

	// Env is the child's environment. Nil inherits the shell's environment.
	Env []string
}

// NewLauncher creates a launcher for the given entry point.
func NewLauncher(entryPoint string) *Launcher {
	if entryPoint == "" {
		entryPoint = DefaultEntryPoint
	}
	return &Launcher{EntryPoint: entryPoint}
}

// Spawn starts inv with the entry point and returns as soon as the OS has
// created the process. It does not wait for the backend to become ready.
//
// The child:
//   - has stdin, stdout and stderr connected to the null device
//   - runs in workdir, or in the shell's working directory when workdir is empty
//   - never gets a console window (Windows) or a controlling terminal (Unix)
func (l *Launcher) Spawn(workdir string, inv Invocation) (*BackendHandle, error) {
	if inv.Program == "" {
		recordSpawn(false)
		return nil, &LaunchError{Invocation: inv, Dir: workdir, Err: exec.ErrNotFound}
	}

	argv := inv.Command(l.EntryPoint)
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = l.Env
	cmd.Dir = workdir

	// nil streams are wired to os.DevNull by os/exec
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	setLaunchAttrs(cmd)

	if err := cmd.Start(); err != nil {
		recordSpawn(false)
		return nil, &LaunchError{Invocation: inv, Dir: workdir, Err: err}
	}
	recordSpawn(true)

	return &BackendHandle{
		cmd:     cmd,
		pid:     cmd.Process.Pid,
		inv:     inv,
		dir:     workdir,
		started: time.Now(),
	}, nil
}

// KillPID forcefully kills an arbitrary process by PID.
// Used for orphaned backends found through a stale PID file.
func KillPID(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to find process %d", pid)
	}
	if err := proc.Kill(); err != nil {
		return pkgerrors.Wrapf(err, "failed to kill process %d", pid)
	}
	return nil
}

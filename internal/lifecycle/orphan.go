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
	pkgerrors "github.com/atlas-assistant/atlas/pkg/errors"
)

// KillOrphan kills the backend recorded in a stale PID file and removes the
// file. It returns the PID that was killed.
//
// The PID is only signalled if the process is still alive and its command
// line names entryPoint. ErrProcessNotRunning and ErrNotBackendProcess report
// the cases where the file was removed without killing anything.
func KillOrphan(pf *PIDFileManager, entryPoint string) (int, error) {
	pid, err := pf.Read()
	if err != nil {
		_ = pf.Remove()
		return 0, pkgerrors.Wrapf(err, "stale PID file %s", pf.Path())
	}

	if !IsProcessRunning(pid) {
		_ = pf.Remove()
		return pid, ErrProcessNotRunning
	}
	if !IsBackendProcess(pid, entryPoint) {
		_ = pf.Remove()
		return pid, ErrNotBackendProcess
	}

	if err := KillPID(pid); err != nil {
		return pid, err
	}
	return pid, pkgerrors.Wrap(pf.Remove(), "removing PID file")
}

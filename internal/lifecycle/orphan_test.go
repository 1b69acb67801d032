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
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"
	"time"
)

func writeStalePIDFile(t *testing.T, pid int) *PIDFileManager {
	t.Helper()
	path := filepath.Join(t.TempDir(), "backend.pid")
	if err := os.WriteFile(path, []byte(strconv.Itoa(pid)+"\n"), 0600); err != nil {
		t.Fatalf("Failed to write PID file: %v", err)
	}
	return NewPIDFileManager(path)
}

func TestKillOrphan(t *testing.T) {
	t.Run("dead PID only removes the file", func(t *testing.T) {
		pf := writeStalePIDFile(t, 999999)

		_, err := KillOrphan(pf, "main.py")
		if !errors.Is(err, ErrProcessNotRunning) {
			t.Errorf("KillOrphan() error = %v, want ErrProcessNotRunning", err)
		}
		if pf.Exists() {
			t.Error("stale PID file was not removed")
		}
	})

	t.Run("unrelated process is left alone", func(t *testing.T) {
		pf := writeStalePIDFile(t, os.Getpid())

		_, err := KillOrphan(pf, "main.py")
		if !errors.Is(err, ErrNotBackendProcess) {
			t.Errorf("KillOrphan() error = %v, want ErrNotBackendProcess", err)
		}
		if pf.Exists() {
			t.Error("stale PID file was not removed")
		}
	})

	t.Run("garbage PID file is removed", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "backend.pid")
		if err := os.WriteFile(path, []byte("garbage"), 0600); err != nil {
			t.Fatalf("Failed to write PID file: %v", err)
		}
		pf := NewPIDFileManager(path)

		_, err := KillOrphan(pf, "main.py")
		if !errors.Is(err, ErrInvalidPID) {
			t.Errorf("KillOrphan() error = %v, want ErrInvalidPID", err)
		}
		if want := "stale PID file " + path + ": "; !strings.HasPrefix(err.Error(), want) {
			t.Errorf("KillOrphan() error = %q, want prefix %q", err, want)
		}
		if pf.Exists() {
			t.Error("garbage PID file was not removed")
		}
	})

	t.Run("orphaned backend is killed", func(t *testing.T) {
		requireSpawn(t)
		if runtime.GOOS != "linux" && runtime.GOOS != "darwin" {
			t.Skip("command line not readable on this platform")
		}

		h, err := (&Launcher{EntryPoint: testEntryPoint}).Spawn(backendDir(t), shInvocation)
		skipOnSpawnError(t, err)
		if err != nil {
			t.Fatalf("Spawn() error = %v", err)
		}
		exited := make(chan struct{})
		go func() {
			_ = h.cmd.Wait()
			close(exited)
		}()

		pf := writeStalePIDFile(t, h.PID())
		pid, err := KillOrphan(pf, testEntryPoint)
		if err != nil {
			t.Fatalf("KillOrphan() error = %v", err)
		}
		if pid != h.PID() {
			t.Errorf("KillOrphan() pid = %d, want %d", pid, h.PID())
		}

		select {
		case <-exited:
		case <-time.After(5 * time.Second):
			t.Fatal("orphaned backend still running")
		}
		if pf.Exists() {
			t.Error("PID file was not removed")
		}
	})
}

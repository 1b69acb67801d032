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
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	pkgerrors "github.com/atlas-assistant/atlas/pkg/errors"
)

var (
	// ErrPIDFileExists is returned when trying to create a PID file that already exists.
	ErrPIDFileExists = errors.New("PID file already exists")

	// ErrPIDFileLocked is returned when another process holds the PID file lock.
	ErrPIDFileLocked = errors.New("PID file is locked by another process")

	// ErrInvalidPID is returned when the PID file contains invalid data.
	ErrInvalidPID = errors.New("invalid PID in file")

	// ErrUnsafeDirectory is returned when the PID file parent is world-writable.
	ErrUnsafeDirectory = errors.New("PID file directory is world-writable")
)

// PIDFileManager records the backend's PID on disk.
//
// The shell holds an exclusive lock on the file for as long as the backend
// runs. A PID file that exists but is not locked was left behind by a shell
// that crashed without killing its backend.
type PIDFileManager struct {
	path     string
	lockFile *os.File
}

// NewPIDFileManager creates a new PID file manager for the given path.
func NewPIDFileManager(path string) *PIDFileManager {
	return &PIDFileManager{
		path: path,
	}
}

// Path returns the PID file location.
func (m *PIDFileManager) Path() string {
	return m.path
}

// Create writes the given PID to the file and locks it.
// It creates the parent directory if needed and sets restrictive permissions.
// Returns ErrPIDFileExists if the file already exists.
func (m *PIDFileManager) Create(pid int) error {
	parentDir := filepath.Dir(m.path)
	if err := m.verifyDirectorySafety(parentDir); err != nil {
		return pkgerrors.Wrap(err, "unsafe PID file location")
	}

	if err := os.MkdirAll(parentDir, 0700); err != nil {
		return pkgerrors.Wrapf(err, "failed to create PID file directory %s", parentDir)
	}

	// O_EXCL refuses to follow a planted symlink or clobber a live file
	f, err := os.OpenFile(m.path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		if os.IsExist(err) {
			return ErrPIDFileExists
		}
		return pkgerrors.Wrap(err, "failed to create PID file")
	}

	if err := lockFile(f); err != nil {
		f.Close()
		os.Remove(m.path)
		return err
	}

	if _, err := fmt.Fprintf(f, "%d\n", pid); err != nil {
		unlockFile(f)
		f.Close()
		os.Remove(m.path)
		return pkgerrors.Wrap(err, "failed to write PID")
	}

	if err := f.Sync(); err != nil {
		unlockFile(f)
		f.Close()
		os.Remove(m.path)
		return pkgerrors.Wrap(err, "failed to sync PID file")
	}

	// Keep file open to maintain lock
	m.lockFile = f
	return nil
}

// Read reads the PID from the file.
// Returns ErrInvalidPID if the file contains non-numeric data.
func (m *PIDFileManager) Read() (int, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, err
		}
		return 0, pkgerrors.Wrap(err, "failed to read PID file")
	}

	pidStr := strings.TrimSpace(string(data))
	pid, err := strconv.Atoi(pidStr)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidPID, pidStr)
	}

	if pid <= 0 {
		return 0, fmt.Errorf("%w: PID must be positive, got %d", ErrInvalidPID, pid)
	}

	return pid, nil
}

// Remove deletes the PID file and releases the lock.
func (m *PIDFileManager) Remove() error {
	if m.lockFile != nil {
		unlockFile(m.lockFile)
		m.lockFile.Close()
		m.lockFile = nil
	}

	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		return pkgerrors.Wrap(err, "failed to remove PID file")
	}

	return nil
}

// Exists returns true if the PID file exists.
func (m *PIDFileManager) Exists() bool {
	_, err := os.Stat(m.path)
	return err == nil
}

// IsLocked reports whether a live process holds the PID file lock.
// A PID file that exists but is not locked is stale.
func (m *PIDFileManager) IsLocked() bool {
	if m.lockFile != nil {
		return true
	}

	f, err := os.OpenFile(m.path, os.O_RDWR, 0)
	if err != nil {
		return false
	}
	defer f.Close()

	if err := lockFile(f); err != nil {
		return errors.Is(err, ErrPIDFileLocked)
	}
	unlockFile(f)
	return false
}

// verifyDirectorySafety checks that the directory is not world-writable.
func (m *PIDFileManager) verifyDirectorySafety(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return pkgerrors.Wrapf(err, "failed to stat directory %s", dir)
	}

	mode := info.Mode()
	if mode&0002 != 0 {
		return fmt.Errorf("%w: %s has mode %04o", ErrUnsafeDirectory, dir, mode&os.ModePerm)
	}

	return nil
}

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
	"log/slog"
	"os"
	"path/filepath"

	atlaslog "github.com/atlas-assistant/atlas/internal/log"
)

// CandidateLayout is one place the backend may live, relative to the
// directory containing the running executable.
type CandidateLayout struct {
	// Name identifies the layout in diagnostics (e.g. "production").
	Name string

	// Path is slash-separated and relative to the executable's directory.
	Path string
}

// DefaultLayouts returns the packaged layout followed by the development layout.
//
// Packaged builds ship the backend as a resource next to the executable.
// Development builds run from src-tauri/target/debug, two levels below the
// repository's backend tree.
func DefaultLayouts() []CandidateLayout {
	return []CandidateLayout{
		{Name: "production", Path: "backend/src"},
		{Name: "development", Path: "../../backend/src"},
	}
}

// Resolution is the outcome of a backend directory lookup.
type Resolution struct {
	// Dir is the accepted backend directory. Empty when Found is false.
	Dir string

	// Layout is the name of the layout that matched.
	Layout string

	// Found reports whether any candidate contained the marker file.
	Found bool

	// Tried lists every candidate directory that was checked, in order.
	Tried []string
}

// Resolver locates the backend directory by probing candidate layouts.
type Resolver struct {
	// Executable returns the path of the running executable.
	// Defaults to os.Executable.
	Executable func() (string, error)

	Layouts []CandidateLayout

	// Marker is the file whose presence accepts a candidate directory.
	Marker string

	Logger *slog.Logger
}

// NewResolver creates a resolver for the given marker file and layouts.
func NewResolver(marker string, layouts []CandidateLayout, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		Executable: os.Executable,
		Layouts:    layouts,
		Marker:     marker,
		Logger:     logger,
	}
}

// Resolve returns the first candidate directory containing the marker file.
// A miss is not an error: the returned Resolution has Found set to false and
// a warning naming every tried candidate is logged.
func (r *Resolver) Resolve() Resolution {
	exe, err := r.executable()
	if err != nil {
		recordResolve(false)
		r.Logger.Warn("backend not found: cannot locate executable", atlaslog.Error(err))
		return Resolution{}
	}
	exeDir := filepath.Dir(exe)

	res := Resolution{Tried: make([]string, 0, len(r.Layouts))}
	for _, layout := range r.Layouts {
		dir := filepath.Join(exeDir, filepath.FromSlash(layout.Path))
		res.Tried = append(res.Tried, dir)

		if markerExists(dir, r.Marker) {
			res.Dir = dir
			res.Layout = layout.Name
			res.Found = true
			recordResolve(true)
			return res
		}
	}

	recordResolve(false)
	r.Logger.Warn("backend not found",
		slog.Any("candidates", res.Tried),
		slog.String("marker", r.Marker))
	return res
}

// ResolveBackendDir returns the backend directory and whether one was found.
func (r *Resolver) ResolveBackendDir() (string, bool) {
	res := r.Resolve()
	return res.Dir, res.Found
}

func (r *Resolver) executable() (string, error) {
	if r.Executable != nil {
		return r.Executable()
	}
	return os.Executable()
}

// markerExists reports whether dir/marker exists. The file is never read.
func markerExists(dir, marker string) bool {
	_, err := os.Stat(filepath.Join(dir, marker))
	return err == nil
}

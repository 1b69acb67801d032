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
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// layoutTree builds <root>/app/bin as the executable directory and returns
// the executable path plus the production and development candidate dirs.
func layoutTree(t *testing.T) (exe, prod, dev string) {
	t.Helper()
	root := t.TempDir()
	binDir := filepath.Join(root, "app", "bin")
	require.NoError(t, os.MkdirAll(binDir, 0755))

	exe = filepath.Join(binDir, "atlas")
	prod = filepath.Join(binDir, "backend", "src")
	dev = filepath.Join(root, "backend", "src")
	return exe, prod, dev
}

func placeMarker(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.py"), nil, 0644))
}

func newTestResolver(exe string, buf *bytes.Buffer) *Resolver {
	r := NewResolver("main.py", DefaultLayouts(), slog.New(slog.NewTextHandler(buf, nil)))
	r.Executable = func() (string, error) { return exe, nil }
	return r
}

func TestResolver_Resolve(t *testing.T) {
	t.Run("prefers production when both layouts match", func(t *testing.T) {
		exe, prod, dev := layoutTree(t)
		placeMarker(t, prod)
		placeMarker(t, dev)

		res := newTestResolver(exe, &bytes.Buffer{}).Resolve()

		require.True(t, res.Found)
		assert.Equal(t, prod, res.Dir)
		assert.Equal(t, "production", res.Layout)
		assert.Equal(t, []string{prod}, res.Tried)
	})

	t.Run("falls back to the development layout", func(t *testing.T) {
		exe, prod, dev := layoutTree(t)
		placeMarker(t, dev)

		res := newTestResolver(exe, &bytes.Buffer{}).Resolve()

		require.True(t, res.Found)
		assert.Equal(t, dev, res.Dir)
		assert.Equal(t, "development", res.Layout)
		assert.Equal(t, []string{prod, dev}, res.Tried)
	})

	t.Run("priority follows layout order", func(t *testing.T) {
		exe, prod, dev := layoutTree(t)
		placeMarker(t, prod)
		placeMarker(t, dev)

		r := newTestResolver(exe, &bytes.Buffer{})
		layouts := DefaultLayouts()
		r.Layouts = []CandidateLayout{layouts[1], layouts[0]}

		res := r.Resolve()
		require.True(t, res.Found)
		assert.Equal(t, dev, res.Dir)
	})

	t.Run("directory without marker is rejected", func(t *testing.T) {
		exe, prod, _ := layoutTree(t)
		require.NoError(t, os.MkdirAll(prod, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(prod, "other.py"), nil, 0644))

		res := newTestResolver(exe, &bytes.Buffer{}).Resolve()
		assert.False(t, res.Found)
	})

	t.Run("miss reports every candidate", func(t *testing.T) {
		exe, prod, dev := layoutTree(t)
		var buf bytes.Buffer

		res := newTestResolver(exe, &buf).Resolve()

		assert.False(t, res.Found)
		assert.Empty(t, res.Dir)
		assert.Equal(t, []string{prod, dev}, res.Tried)

		out := buf.String()
		assert.Contains(t, out, "backend not found")
		assert.Contains(t, out, prod)
		assert.Contains(t, out, dev)
	})

	t.Run("unknown executable location is a miss", func(t *testing.T) {
		var buf bytes.Buffer
		r := newTestResolver("", &buf)
		r.Executable = func() (string, error) { return "", errors.New("no exe") }

		res := r.Resolve()

		assert.False(t, res.Found)
		assert.Contains(t, buf.String(), "no exe")
	})
}

func TestResolver_ResolveBackendDir(t *testing.T) {
	exe, prod, _ := layoutTree(t)
	placeMarker(t, prod)

	dir, ok := newTestResolver(exe, &bytes.Buffer{}).ResolveBackendDir()
	assert.True(t, ok)
	assert.Equal(t, prod, dir)
}

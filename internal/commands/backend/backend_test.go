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


package backend

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas-assistant/atlas/internal/commands/shared"
	"github.com/atlas-assistant/atlas/internal/lifecycle"
	pkgerrors "github.com/atlas-assistant/atlas/pkg/errors"
)

// setupEnv points config and state at temp directories.
func setupEnv(t *testing.T) string {
	t.Helper()
	state := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_STATE_HOME", state)
	for _, key := range []string{"ATLAS_BACKEND_ENTRY", "ATLAS_PID_FILE", "ATLAS_EVENT_LOG", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(key, "")
	}
	shared.SetConfigPathForTest("")
	shared.SetColorEnabled(false)
	return filepath.Join(state, "atlas")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	rootCmd := &cobra.Command{Use: "atlas", SilenceUsage: true, SilenceErrors: true}
	shared.RegisterPersistentFlags(rootCmd.PersistentFlags())
	t.Cleanup(func() { shared.SetJSONForTest(false) })
	rootCmd.AddCommand(NewCommand())

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestLocate_Found(t *testing.T) {
	setupEnv(t)
	root := t.TempDir()
	backendDir := filepath.Join(root, "backend", "src")
	require.NoError(t, os.MkdirAll(backendDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(backendDir, "main.py"), nil, 0644))

	out, err := execute(t, "backend", "locate", "--exe", filepath.Join(root, "atlas"))
	require.NoError(t, err)
	assert.Equal(t, backendDir, strings.TrimSpace(out))
}

func TestLocate_NotFound(t *testing.T) {
	setupEnv(t)
	root := t.TempDir()

	_, err := execute(t, "backend", "locate", "--exe", filepath.Join(root, "atlas"))
	require.Error(t, err)
	assert.Equal(t, shared.ExitBackendNotFound, shared.ExitCode(err))

	var nf *pkgerrors.NotFoundError
	require.ErrorAs(t, err, &nf)
	require.Len(t, nf.Searched, 2)
	assert.Equal(t, filepath.Join(root, "backend", "src"), nf.Searched[0])
}

func TestLocate_JSON(t *testing.T) {
	setupEnv(t)
	root := t.TempDir()

	out, err := execute(t, "backend", "locate", "--json", "--exe", filepath.Join(root, "atlas"))
	require.Error(t, err)

	var result LocateResult
	require.NoError(t, json.Unmarshal([]byte(out), &result), out)
	assert.False(t, result.Success)
	assert.Equal(t, "main.py", result.Marker)
	assert.Len(t, result.Tried, 2)
	assert.Empty(t, result.Dir)
}

func TestParseCandidates(t *testing.T) {
	invs, err := parseCandidates([]string{"py -3.12", "  python  "})
	require.NoError(t, err)
	assert.Equal(t, []lifecycle.Invocation{
		{Program: "py", Args: []string{"-3.12"}},
		{Program: "python", Args: []string{}},
	}, invs)

	_, err = parseCandidates([]string{"python", "   "})
	var verr *pkgerrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "candidate", verr.Field)
}

func TestInterpreter(t *testing.T) {
	setupEnv(t)
	if runtime.GOOS == "windows" {
		t.Skip("probe candidates are unix programs")
	}

	t.Run("first working candidate wins", func(t *testing.T) {
		out, err := execute(t, "backend", "interpreter", "--candidate", "/nonexistent/python3.12", "--candidate", "true", "--candidate", "python")
		require.NoError(t, err)
		assert.Equal(t, "true", strings.TrimSpace(out))
	})

	t.Run("last candidate is the fallback", func(t *testing.T) {
		out, err := execute(t, "backend", "interpreter", "--json", "--candidate", "/nonexistent/py -3.12", "--candidate", "fallback-python")
		require.NoError(t, err)

		var result InterpreterResult
		require.NoError(t, json.Unmarshal([]byte(out), &result), out)
		assert.Equal(t, "fallback-python", result.Program)
		assert.Equal(t, []string{"fallback-python", "main.py"}, result.Command)
	})
}

func TestStatus_NoPIDFile(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "backend", "status")
	require.Error(t, err)
	assert.Equal(t, shared.ExitBackendNotRunning, shared.ExitCode(err))
	assert.Contains(t, out, "[STOPPED] no PID file")
}

func TestStatus_UnrelatedProcess(t *testing.T) {
	stateDir := setupEnv(t)
	require.NoError(t, os.MkdirAll(stateDir, 0700))
	pidFile := filepath.Join(stateDir, "backend.pid")
	require.NoError(t, os.WriteFile(pidFile, []byte(strconv.Itoa(os.Getpid())+"\n"), 0600))

	out, err := execute(t, "backend", "status", "--json")
	require.Error(t, err)

	var st Status
	require.NoError(t, json.Unmarshal([]byte(out), &st), out)
	assert.Equal(t, os.Getpid(), st.PID)
	assert.True(t, st.Running)
	assert.False(t, st.Backend)
	assert.False(t, st.Owned)
	assert.Equal(t, pidFile, st.PIDFile)
}

func TestStatus_RunningBackend(t *testing.T) {
	if os.Getenv("SKIP_SPAWN_TESTS") != "" || runtime.GOOS == "windows" {
		t.Skip("Skipping spawn tests")
	}
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" {
		t.Skip("command line not readable on this platform")
	}
	stateDir := setupEnv(t)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.py"), []byte("while true; do sleep 1; done\n"), 0644))
	h, err := lifecycle.NewLauncher("main.py").Spawn(dir, lifecycle.Invocation{Program: "sh"})
	if err != nil && strings.Contains(err.Error(), "operation not permitted") {
		t.Skipf("spawn not permitted: %v", err)
	}
	require.NoError(t, err)
	defer h.Kill()

	pf := lifecycle.NewPIDFileManager(filepath.Join(stateDir, "backend.pid"))
	require.NoError(t, pf.Create(h.PID()))
	defer pf.Remove()

	out, err := execute(t, "backend", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "[RUNNING]")
	assert.Contains(t, out, strconv.Itoa(h.PID()))
}

func TestBackendCommand(t *testing.T) {
	cmd := NewCommand()
	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"locate", "interpreter", "status"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

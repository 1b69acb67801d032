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
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// testEntryPoint is the fake backend script run by "sh" in spawn tests.
const testEntryPoint = "backend.sh"

// backendScript records its working directory and then idles until killed.
const backendScript = `pwd > cwd.txt
while true; do sleep 1; done
`

// skipOnSpawnError checks if an error is a spawn permission error and skips if so.
// Some environments (sandboxed test runners, containers) block fork/exec.
func skipOnSpawnError(t *testing.T, err error) {
	t.Helper()
	if err != nil && strings.Contains(err.Error(), "operation not permitted") {
		t.Skipf("Skipping: spawn not permitted in this environment: %v", err)
	}
}

// requireSpawn skips tests that start real backend processes.
func requireSpawn(t *testing.T) {
	t.Helper()
	if os.Getenv("SKIP_SPAWN_TESTS") != "" {
		t.Skip("Skipping spawn tests (SKIP_SPAWN_TESTS is set)")
	}
	if runtime.GOOS == "windows" {
		t.Skip("Skipping spawn tests: backend script needs sh")
	}
}

// backendDir creates a directory holding the fake backend script.
func backendDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, testEntryPoint), []byte(backendScript), 0644); err != nil {
		t.Fatalf("failed to write backend script: %v", err)
	}
	return dir
}

// shInvocation runs the entry point with sh.
var shInvocation = Invocation{Program: "sh"}

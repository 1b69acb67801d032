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


package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestWriteConfig(t *testing.T) {
	isolateEnv(t)
	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Backend.EntryPoint = "server.py"
	cfg.Metrics.Addr = "127.0.0.1:9464"

	if err := WriteConfig(cfg, configPath); err != nil {
		t.Fatalf("WriteConfig failed: %v", err)
	}

	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("Failed to stat config file: %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("Expected file permissions 0600, got %o", info.Mode().Perm())
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load written config: %v", err)
	}
	if loaded.Backend.EntryPoint != "server.py" {
		t.Errorf("entry point not preserved: %q", loaded.Backend.EntryPoint)
	}
	if loaded.Metrics.Addr != "127.0.0.1:9464" {
		t.Errorf("metrics addr not preserved: %q", loaded.Metrics.Addr)
	}
	if len(loaded.Backend.Interpreters) != 3 {
		t.Errorf("interpreters not preserved: %+v", loaded.Backend.Interpreters)
	}
}

func TestWriteConfig_Overwrite(t *testing.T) {
	isolateEnv(t)
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	first := Default()
	first.Log.Level = "debug"
	if err := WriteConfig(first, configPath); err != nil {
		t.Fatalf("first write failed: %v", err)
	}

	second := Default()
	second.Log.Level = "error"
	if err := WriteConfig(second, configPath); err != nil {
		t.Fatalf("second write failed: %v", err)
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Log.Level != "error" {
		t.Errorf("expected overwritten level 'error', got %q", loaded.Log.Level)
	}

	entries, err := os.ReadDir(filepath.Dir(configPath))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}

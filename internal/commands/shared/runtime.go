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


package shared

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/atlas-assistant/atlas/internal/config"
	atlaslog "github.com/atlas-assistant/atlas/internal/log"
)

// LoadConfig loads the configuration named by --config. Without the flag the
// default XDG location is used and a missing file means defaults.
func LoadConfig() (*config.Config, error) {
	if path := GetConfigPath(); path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, NewConfigError("failed to load configuration", err)
		}
		return cfg, nil
	}

	path, err := config.ConfigPath()
	if err != nil {
		return nil, NewConfigError("failed to determine config path", err)
	}
	cfg, err := config.LoadOptional(path)
	if err != nil {
		return nil, NewConfigError("failed to load configuration", err)
	}
	return cfg, nil
}

// NewLogger builds the process logger from cfg and the global flags.
// --verbose and --quiet override the configured level; ATLAS_DEBUG and
// ATLAS_LOG_LEVEL override both.
func NewLogger(cfg *config.Config, out io.Writer) *slog.Logger {
	lc := &atlaslog.Config{
		Level:     cfg.Log.Level,
		Format:    atlaslog.Format(cfg.Log.Format),
		Output:    out,
		AddSource: cfg.Log.AddSource,
	}

	switch {
	case GetVerbose():
		lc.Level = "debug"
	case GetQuiet():
		lc.Level = "error"
	}

	if os.Getenv("ATLAS_DEBUG") != "" || os.Getenv("ATLAS_LOG_LEVEL") != "" {
		env := atlaslog.FromEnv()
		lc.Level = env.Level
		lc.AddSource = lc.AddSource || env.AddSource
	}

	return atlaslog.New(lc)
}

// Println writes a line to w unless --quiet is set.
func Println(w io.Writer, a ...interface{}) {
	if GetQuiet() {
		return
	}
	fmt.Fprintln(w, a...)
}

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


package main

import (
	"github.com/atlas-assistant/atlas/internal/cli"
	"github.com/atlas-assistant/atlas/internal/commands/backend"
	"github.com/atlas-assistant/atlas/internal/commands/completion"
	"github.com/atlas-assistant/atlas/internal/commands/config"
	"github.com/atlas-assistant/atlas/internal/commands/run"
	versioncmd "github.com/atlas-assistant/atlas/internal/commands/version"
)

// Version information (injected via ldflags at build time)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	cli.SetVersion(version, commit, buildDate)

	rootCmd := cli.NewRootCommand()

	// Shell
	rootCmd.AddCommand(run.NewCommand())

	// Backend inspection
	rootCmd.AddCommand(backend.NewCommand())

	// Configuration
	rootCmd.AddCommand(config.NewConfigCommand())

	// Shell completion
	rootCmd.AddCommand(completion.NewCommand())

	// Version command
	rootCmd.AddCommand(versioncmd.NewVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		cli.HandleExitError(err)
	}
}

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


package cli

import (
	"github.com/spf13/cobra"

	"github.com/atlas-assistant/atlas/internal/commands/shared"
)

// SetVersion sets the version information (called from main)
func SetVersion(v, c, b string) {
	shared.SetVersion(v, c, b)
}

// NewRootCommand creates the root Cobra command for atlas
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "atlas",
		Short: "ATLAS desktop shell",
		Long: `atlas is the desktop shell of the ATLAS assistant. It owns the
assistant's backend process: it finds the backend next to the executable,
picks a Python interpreter, starts the backend headless and kills it when
the shell exits.

Run 'atlas run' to start the shell.
Run 'atlas backend locate' to see where the backend is looked for.`,
		SilenceUsage:  true, // Don't show usage on errors
		SilenceErrors: true, // We handle errors ourselves for proper exit codes
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if shared.GetJSON() {
				shared.SetColorEnabled(false)
			}
		},
	}

	shared.RegisterPersistentFlags(cmd.PersistentFlags())

	return cmd
}

// GetVersion returns version information
func GetVersion() (string, string, string) {
	return shared.GetVersion()
}

// HandleExitError handles exit errors with proper exit codes
func HandleExitError(err error) {
	shared.HandleExitError(err)
}

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


// Package backend implements the "atlas backend" commands, which inspect
// how the shell would find, launch and track the backend process.
package backend

import (
	"github.com/spf13/cobra"
)

// NewCommand creates the backend command with subcommands
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backend",
		Short: "Inspect the assistant backend",
		Long: `Inspect how atlas finds, launches and tracks the backend process.

Subcommands:
  locate      - Show the resolved backend directory
  interpreter - Show the interpreter that would be used
  status      - Show whether a backend is running`,
	}

	cmd.AddCommand(newLocateCommand())
	cmd.AddCommand(newInterpreterCommand())
	cmd.AddCommand(newStatusCommand())

	return cmd
}

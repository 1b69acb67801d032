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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/atlas-assistant/atlas/internal/commands/shared"
	pkgerrors "github.com/atlas-assistant/atlas/pkg/errors"
)

// LocateResult is the JSON output of "backend locate"
type LocateResult struct {
	shared.JSONResponse
	Dir    string   `json:"dir,omitempty"`
	Layout string   `json:"layout,omitempty"`
	Marker string   `json:"marker"`
	Tried  []string `json:"tried"`
}

func newLocateCommand() *cobra.Command {
	var exe string
	cmd := &cobra.Command{
		Use:   "locate",
		Short: "Show the resolved backend directory",
		Long: `Resolve the backend directory the way 'atlas run' does and print it.

Candidate layouts are checked in order relative to the executable's
directory. When none contains the marker file every tried path is listed
and the command exits with code 3.`,
		Example: `  # Where would the backend be found for this binary?
  atlas backend locate

  # Check a packaged build without running it
  atlas backend locate --exe /opt/atlas/atlas`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocate(cmd, exe)
		},
	}
	cmd.Flags().StringVar(&exe, "exe", "", "Resolve relative to this executable instead of atlas itself")
	return cmd
}

func runLocate(cmd *cobra.Command, exe string) error {
	cfg, err := shared.LoadConfig()
	if err != nil {
		return err
	}
	logger := shared.NewLogger(cfg, cmd.ErrOrStderr())

	resolver := cfg.Backend.Resolver(logger)
	if exe != "" {
		resolver.Executable = func() (string, error) { return exe, nil }
	}
	res := resolver.Resolve()

	var resErr error
	if !res.Found {
		resErr = shared.NewBackendNotFoundError("backend directory not found", &pkgerrors.NotFoundError{
			Resource: "backend directory",
			ID:       resolver.Marker,
			Searched: res.Tried,
		})
	}

	out := cmd.OutOrStdout()
	if shared.GetJSON() {
		result := LocateResult{
			JSONResponse: shared.NewJSONResponse("backend locate", res.Found),
			Dir:          res.Dir,
			Layout:       res.Layout,
			Marker:       resolver.Marker,
			Tried:        res.Tried,
		}
		if err := shared.EmitJSON(out, result); err != nil {
			return err
		}
		return resErr
	}

	if resErr != nil {
		return resErr
	}
	fmt.Fprintln(out, res.Dir)
	if shared.GetVerbose() {
		fmt.Fprintf(out, "%s %s\n", shared.RenderLabel("layout:"), res.Layout)
	}
	return nil
}

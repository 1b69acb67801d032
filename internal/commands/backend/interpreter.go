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
	"strings"

	"github.com/spf13/cobra"

	"github.com/atlas-assistant/atlas/internal/commands/completion"
	"github.com/atlas-assistant/atlas/internal/commands/shared"
	"github.com/atlas-assistant/atlas/internal/lifecycle"
	pkgerrors "github.com/atlas-assistant/atlas/pkg/errors"
)

// InterpreterResult is the JSON output of "backend interpreter"
type InterpreterResult struct {
	shared.JSONResponse
	Program string   `json:"program"`
	Args    []string `json:"args"`
	Command []string `json:"command"`
}

func newInterpreterCommand() *cobra.Command {
	var candidates []string
	cmd := &cobra.Command{
		Use:   "interpreter",
		Short: "Show the interpreter that would be used",
		Long: `Probe the configured interpreter candidates the way 'atlas run' does
and print the one that would launch the backend.

Every candidate except the last is run with the probe arguments; the first
that exits successfully wins. The last candidate is used without probing.`,
		Example: `  atlas backend interpreter
  atlas backend interpreter --candidate "python3 -u" --candidate python`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInterpreter(cmd, candidates)
		},
	}
	cmd.Flags().StringArrayVar(&candidates, "candidate", nil, "Interpreter invocation to try, in order (repeatable, overrides config)")
	_ = cmd.RegisterFlagCompletionFunc("candidate", completion.CompleteInterpreters)
	return cmd
}

// parseCandidates splits each "program arg..." string into an invocation.
func parseCandidates(raw []string) ([]lifecycle.Invocation, error) {
	invs := make([]lifecycle.Invocation, 0, len(raw))
	for i, s := range raw {
		fields := strings.Fields(s)
		if len(fields) == 0 {
			return nil, &pkgerrors.ValidationError{
				Field:      "candidate",
				Message:    fmt.Sprintf("candidate %d is empty", i+1),
				Suggestion: `Pass a program and its arguments, e.g. --candidate "py -3.12"`,
			}
		}
		invs = append(invs, lifecycle.Invocation{Program: fields[0], Args: fields[1:]})
	}
	return invs, nil
}

func runInterpreter(cmd *cobra.Command, raw []string) error {
	cfg, err := shared.LoadConfig()
	if err != nil {
		return err
	}

	selector := cfg.Backend.Selector()
	if len(raw) > 0 {
		invs, err := parseCandidates(raw)
		if err != nil {
			return err
		}
		selector.Candidates = invs
	}

	inv := selector.Select(cmd.Context())
	argv := inv.Command(cfg.Backend.EntryPoint)

	out := cmd.OutOrStdout()
	if shared.GetJSON() {
		return shared.EmitJSON(out, InterpreterResult{
			JSONResponse: shared.NewJSONResponse("backend interpreter", true),
			Program:      inv.Program,
			Args:         append([]string{}, inv.Args...),
			Command:      argv,
		})
	}

	fmt.Fprintln(out, inv.String())
	if shared.GetVerbose() {
		fmt.Fprintf(out, "%s %s\n", shared.RenderLabel("command:"), strings.Join(argv, " "))
	}
	return nil
}

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
	"context"
	"os/exec"
	"strings"
)

// DefaultProbeArgs are appended to a candidate invocation to test it.
var DefaultProbeArgs = []string{"--version"}

// fallbackProgram is used when a selector has no candidates at all.
const fallbackProgram = "python"

// Invocation is a launcher program plus the arguments that precede the
// entry point, e.g. {"py", ["-3.12"]}.
type Invocation struct {
	Program string
	Args    []string
}

// Command returns the full argv for this invocation followed by extra.
func (i Invocation) Command(extra ...string) []string {
	argv := make([]string, 0, 1+len(i.Args)+len(extra))
	argv = append(argv, i.Program)
	argv = append(argv, i.Args...)
	return append(argv, extra...)
}

func (i Invocation) String() string {
	return strings.Join(i.Command(), " ")
}

// DefaultInvocations returns the interpreter candidates, most specific first.
// The final entry is the unconditional fallback.
func DefaultInvocations() []Invocation {
	return []Invocation{
		{Program: "py", Args: []string{"-3.12"}},
		{Program: "python3.12"},
		{Program: "python"},
	}
}

// ProbeFunc reports whether inv is runnable. A nil error means success.
type ProbeFunc func(ctx context.Context, inv Invocation, probeArgs []string) error

// ExecProbe runs the invocation with probeArgs and waits for it to exit.
// Output is discarded and no console window is created.
func ExecProbe(ctx context.Context, inv Invocation, probeArgs []string) error {
	argv := inv.Command(probeArgs...)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	setLaunchAttrs(cmd)
	return cmd.Run()
}

// Selector picks the first runnable interpreter from an ordered list.
type Selector struct {
	Candidates []Invocation
	ProbeArgs  []string
	Probe      ProbeFunc
}

// NewSelector creates a selector that probes candidates with ExecProbe.
func NewSelector(candidates []Invocation) *Selector {
	return &Selector{
		Candidates: candidates,
		ProbeArgs:  DefaultProbeArgs,
		Probe:      ExecProbe,
	}
}

// Select returns the first non-terminal candidate whose probe succeeds, or
// the last candidate unprobed. It never fails.
//
// Probes are not cached: every call spawns one short-lived process per
// candidate tried. Probe failures are counted, not logged.
func (s *Selector) Select(ctx context.Context) Invocation {
	if len(s.Candidates) == 0 {
		return Invocation{Program: fallbackProgram}
	}

	probe := s.Probe
	if probe == nil {
		probe = ExecProbe
	}

	last := len(s.Candidates) - 1
	for _, inv := range s.Candidates[:last] {
		if err := probe(ctx, inv, s.ProbeArgs); err != nil {
			recordProbe(inv.Program, false)
			continue
		}
		recordProbe(inv.Program, true)
		return inv
	}

	return s.Candidates[last]
}

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
	"log/slog"

	"github.com/atlas-assistant/atlas/internal/lifecycle"
)

// CandidateLayouts converts the configured layouts.
func (b BackendConfig) CandidateLayouts() []lifecycle.CandidateLayout {
	layouts := make([]lifecycle.CandidateLayout, len(b.Layouts))
	for i, l := range b.Layouts {
		layouts[i] = lifecycle.CandidateLayout{Name: l.Name, Path: l.Path}
	}
	return layouts
}

// Invocations converts the configured interpreter candidates.
func (b BackendConfig) Invocations() []lifecycle.Invocation {
	invs := make([]lifecycle.Invocation, len(b.Interpreters))
	for i, inv := range b.Interpreters {
		invs[i] = lifecycle.Invocation{Program: inv.Program, Args: append([]string(nil), inv.Args...)}
	}
	return invs
}

// Resolver builds the backend directory resolver.
func (b BackendConfig) Resolver(logger *slog.Logger) *lifecycle.Resolver {
	return lifecycle.NewResolver(b.Marker, b.CandidateLayouts(), logger)
}

// Selector builds the interpreter selector.
func (b BackendConfig) Selector() *lifecycle.Selector {
	s := lifecycle.NewSelector(b.Invocations())
	s.ProbeArgs = b.ProbeArgs
	return s
}

// SupervisorConfig wires a supervisor from the backend section.
func (b BackendConfig) SupervisorConfig(logger *slog.Logger) lifecycle.SupervisorConfig {
	return lifecycle.SupervisorConfig{
		Resolver: b.Resolver(logger),
		Selector: b.Selector(),
		Launcher: lifecycle.NewLauncher(b.EntryPoint),
		PIDFile:  lifecycle.NewPIDFileManager(b.PIDFile),
		Events:   lifecycle.NewLifecycleLogger(b.EventLog),
		Logger:   logger,
	}
}

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

/*
Package lifecycle supervises the ATLAS backend process.

The shell owns exactly one backend: an interpreter running the backend
entry point (main.py). This package finds the backend directory, picks an
interpreter, launches the backend headless, and kills it exactly once when
the shell exits.

# Path Resolution

Candidate layouts are probed in priority order. The packaged layout
(backend next to the executable) wins over the development layout:

	resolver := lifecycle.NewResolver("main.py", lifecycle.DefaultLayouts(), logger)
	res := resolver.Resolve()
	if !res.Found {
	    // launch with the shell's own working directory
	}

# Interpreter Selection

Each candidate but the last is probed with --version. The last candidate is
accepted without probing, so selection never fails:

	selector := lifecycle.NewSelector(lifecycle.DefaultInvocations())
	inv := selector.Select(ctx)

# Launching

	launcher := lifecycle.NewLauncher("main.py")
	handle, err := launcher.Spawn(res.Dir, inv)
	if err != nil {
	    var launchErr *lifecycle.LaunchError
	    // non-fatal, log and continue without a backend
	}

# Supervision

The Supervisor holds the handle behind a mutex and is handed to the host's
startup and exit hooks:

	sup := lifecycle.NewSupervisor(lifecycle.SupervisorConfig{...})
	_ = sup.OnStartup(ctx)
	...
	sup.OnExitRequested(ctx)
	sup.OnExit(ctx) // no-op, the backend was already killed

# PID File and Event Log

An optional PID file records the running backend so a later shell can kill
an orphan left behind by a crash. An optional JSON-lines event log records
spawn and termination events for audit.
*/
package lifecycle

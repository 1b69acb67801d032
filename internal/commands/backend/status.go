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
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/atlas-assistant/atlas/internal/commands/shared"
	"github.com/atlas-assistant/atlas/internal/lifecycle"
)

// Status is the JSON output of "backend status"
type Status struct {
	shared.JSONResponse
	PIDFile string `json:"pid_file"`
	PID     int    `json:"pid,omitempty"`
	Running bool   `json:"running"`
	Backend bool   `json:"backend"`
	Owned   bool   `json:"owned"`
	Command string `json:"command,omitempty"`
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a backend is running",
		Long: `Read the backend PID file and report whether the recorded process is
alive, whether it is running the backend entry point, and whether a live
shell still holds the file. A backend running without an owning shell is an
orphan; the next 'atlas run' kills it.

Exits with code 4 when no backend is running.`,
		Args: cobra.NoArgs,
		RunE: runStatus,
	}
}

func collectStatus(pidFile, entryPoint string) (Status, error) {
	st := Status{PIDFile: pidFile}
	pf := lifecycle.NewPIDFileManager(pidFile)

	pid, err := pf.Read()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return st, nil
		}
		return st, err
	}
	st.PID = pid
	st.Owned = pf.IsLocked()

	info, err := lifecycle.GetProcessInfo(pid)
	if err != nil {
		return st, err
	}
	st.Running = info.Running
	st.Command = info.Command
	st.Backend = lifecycle.IsBackendProcess(pid, entryPoint)
	return st, nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := shared.LoadConfig()
	if err != nil {
		return err
	}

	st, err := collectStatus(cfg.Backend.PIDFile, cfg.Backend.EntryPoint)
	if err != nil {
		return fmt.Errorf("failed to read backend status: %w", err)
	}

	var statusErr error
	if !st.Running || !st.Backend {
		statusErr = shared.NewBackendNotRunningError("no backend running", nil)
	}

	out := cmd.OutOrStdout()
	if shared.GetJSON() {
		st.JSONResponse = shared.NewJSONResponse("backend status", statusErr == nil)
		if err := shared.EmitJSON(out, st); err != nil {
			return err
		}
		return statusErr
	}

	printStatus(out, st)
	return statusErr
}

func printStatus(w io.Writer, st Status) {
	fmt.Fprintln(w, shared.RenderHeader("Backend"))

	switch {
	case st.PID == 0:
		fmt.Fprintf(w, "  %s no PID file\n", shared.RenderStatus(false, "STOPPED"))
	case !st.Running:
		fmt.Fprintf(w, "  %s stale PID file, process %d has exited\n", shared.RenderStatus(false, "STOPPED"), st.PID)
	case !st.Backend:
		fmt.Fprintf(w, "  %s PID %d belongs to another program\n", shared.RenderStatus(false, "STOPPED"), st.PID)
	case !st.Owned:
		fmt.Fprintf(w, "  %s\n", shared.RenderWarn(fmt.Sprintf("orphaned backend (PID %d), no shell owns it", st.PID)))
	default:
		fmt.Fprintf(w, "  %s\n", shared.RenderStatus(true, "RUNNING"))
	}

	fmt.Fprintf(w, "  %s %s\n", shared.RenderLabel("pid file:"), st.PIDFile)
	if st.PID != 0 {
		fmt.Fprintf(w, "  %s %d\n", shared.RenderLabel("pid:     "), st.PID)
	}
	if st.Command != "" {
		fmt.Fprintf(w, "  %s %s\n", shared.RenderLabel("command: "), st.Command)
	}
}

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


// Package run implements "atlas run": the shell's host loop supervising
// the backend process.
package run

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/atlas-assistant/atlas/internal/commands/shared"
	"github.com/atlas-assistant/atlas/internal/config"
	"github.com/atlas-assistant/atlas/internal/lifecycle"
	atlaslog "github.com/atlas-assistant/atlas/internal/log"
	"github.com/atlas-assistant/atlas/internal/metrics"
	"github.com/atlas-assistant/atlas/internal/shell"
)

// Run command flags
type options struct {
	metricsAddr string
	noPIDFile   bool
	noEventLog  bool
}

// NewCommand creates the run command
func NewCommand() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the shell and supervise the backend",
		Long: `Start the ATLAS shell. The backend is launched once at startup and
killed when the shell exits (SIGINT or SIGTERM).

A backend that fails to launch is logged and the shell keeps running
without it. A backend left behind by a shell that crashed is killed
before the new one starts.`,
		Example: `  # Run the shell
  atlas run

  # Expose Prometheus metrics and /health
  atlas run --metrics-addr 127.0.0.1:9464`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve /metrics and /health on this address (overrides config)")
	cmd.Flags().BoolVar(&opts.noPIDFile, "no-pid-file", false, "Do not record the backend PID (disables orphan cleanup)")
	cmd.Flags().BoolVar(&opts.noEventLog, "no-event-log", false, "Do not write the lifecycle event log")

	return cmd
}

func runShell(cmd *cobra.Command, opts options) error {
	cfg, err := shared.LoadConfig()
	if err != nil {
		return err
	}
	if opts.metricsAddr != "" {
		cfg.Metrics.Addr = opts.metricsAddr
	}

	logger := shared.NewLogger(cfg, cmd.ErrOrStderr())
	v, _, _ := shared.GetVersion()
	logger.Info("atlas starting", slog.String("version", v))

	sup := lifecycle.NewSupervisor(supervisorConfig(cfg, opts, logger))
	logger = atlaslog.WithSession(logger, sup.SessionID())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var srv *metrics.Server
	if cfg.Metrics.Addr != "" {
		srv = metrics.NewServer(metrics.Config{
			Addr:            cfg.Metrics.Addr,
			ShutdownTimeout: cfg.Metrics.ShutdownTimeout,
			Backend:         sup,
			Logger:          logger,
		})
		if _, err := srv.Start(ctx); err != nil {
			return err
		}
	}

	runErr := shell.New(sup, shell.Config{Logger: logger}).Run(ctx)

	if srv != nil {
		if err := srv.Shutdown(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, metrics.ErrServerClosed) {
			logger.Warn("metrics server shutdown failed", atlaslog.Error(err))
		}
	}

	if runErr != nil {
		return runErr
	}
	logger.Info("atlas stopped")
	return nil
}

func supervisorConfig(cfg *config.Config, opts options, logger *slog.Logger) lifecycle.SupervisorConfig {
	sc := cfg.Backend.SupervisorConfig(logger)
	if opts.noPIDFile {
		sc.PIDFile = nil
	}
	if opts.noEventLog {
		sc.Events = nil
	}
	return sc
}

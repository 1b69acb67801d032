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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultSuccess = "success"
	resultFailure = "failure"
)

var (
	// backendSpawns tracks backend process creation attempts
	backendSpawns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlas_backend_spawns_total",
			Help: "Total backend spawn attempts by result",
		},
		[]string{"result"},
	)

	// backendKills tracks kill signals issued to backend processes
	backendKills = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlas_backend_kills_total",
			Help: "Total kill signals issued to the backend by result",
		},
		[]string{"result"},
	)

	// interpreterProbes tracks interpreter liveness probes
	interpreterProbes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlas_interpreter_probes_total",
			Help: "Total interpreter probes by program and result",
		},
		[]string{"program", "result"},
	)

	// backendResolutions tracks backend directory lookups
	backendResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlas_backend_resolutions_total",
			Help: "Total backend directory lookups by result",
		},
		[]string{"result"},
	)

	// backendRunning is 1 while the supervisor holds a backend handle
	backendRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "atlas_backend_running",
			Help: "Whether the supervisor currently holds a running backend",
		},
	)
)

func resultLabel(ok bool) string {
	if ok {
		return resultSuccess
	}
	return resultFailure
}

// recordSpawn increments the spawn counter
func recordSpawn(ok bool) {
	backendSpawns.WithLabelValues(resultLabel(ok)).Inc()
}

// recordKill increments the kill counter
func recordKill(ok bool) {
	backendKills.WithLabelValues(resultLabel(ok)).Inc()
}

// recordProbe increments the probe counter
func recordProbe(program string, ok bool) {
	interpreterProbes.WithLabelValues(program, resultLabel(ok)).Inc()
}

// recordResolve increments the resolution counter
func recordResolve(found bool) {
	backendResolutions.WithLabelValues(resultLabel(found)).Inc()
}

// setRunning updates the running gauge
func setRunning(running bool) {
	if running {
		backendRunning.Set(1)
		return
	}
	backendRunning.Set(0)
}

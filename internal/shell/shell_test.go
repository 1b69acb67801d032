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


package shell

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	atlaslog "github.com/atlas-assistant/atlas/internal/log"
)

// recordingHooks records hook calls in order.
type recordingHooks struct {
	mu         sync.Mutex
	calls      []string
	startupErr error
	started    chan struct{}
	exitCtxErr error
}

func newRecordingHooks() *recordingHooks {
	return &recordingHooks{started: make(chan struct{})}
}

func (h *recordingHooks) record(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, name)
}

func (h *recordingHooks) OnStartup(ctx context.Context) error {
	h.record("startup")
	close(h.started)
	return h.startupErr
}

func (h *recordingHooks) OnExitRequested(ctx context.Context) {
	h.record("exit_requested")
	h.mu.Lock()
	h.exitCtxErr = ctx.Err()
	h.mu.Unlock()
}

func (h *recordingHooks) OnExit(ctx context.Context) {
	h.record("exit")
}

func (h *recordingHooks) Calls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.calls...)
}

func runAsync(s *Shell, ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	return done
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("shell did not exit")
		return nil
	}
}

func TestShell_ContextCancel(t *testing.T) {
	hooks := newRecordingHooks()
	s := New(hooks, Config{Logger: atlaslog.Discard()})

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(s, ctx)

	<-hooks.started
	cancel()

	require.NoError(t, waitDone(t, done))
	assert.Equal(t, []string{"startup", "exit_requested", "exit"}, hooks.Calls())
	assert.NoError(t, hooks.exitCtxErr, "exit hooks must get an uncancelled context")
}

func TestShell_RequestExit(t *testing.T) {
	hooks := newRecordingHooks()
	s := New(hooks, Config{Logger: atlaslog.Discard()})

	done := runAsync(s, context.Background())
	<-hooks.started

	s.RequestExit()
	s.RequestExit()

	require.NoError(t, waitDone(t, done))
	assert.Equal(t, []string{"startup", "exit_requested", "exit"}, hooks.Calls())
}

func TestShell_RequestExitBeforeRun(t *testing.T) {
	hooks := newRecordingHooks()
	s := New(hooks, Config{Logger: atlaslog.Discard()})

	s.RequestExit()
	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, []string{"startup", "exit_requested", "exit"}, hooks.Calls())
}

func TestShell_RunsOnce(t *testing.T) {
	hooks := newRecordingHooks()
	s := New(hooks, Config{Logger: atlaslog.Discard()})

	s.RequestExit()
	require.NoError(t, s.Run(context.Background()))
	assert.ErrorIs(t, s.Run(context.Background()), ErrAlreadyRan)
	assert.Equal(t, []string{"startup", "exit_requested", "exit"}, hooks.Calls())
}

func TestShell_StartupError(t *testing.T) {
	hooks := newRecordingHooks()
	hooks.startupErr = errors.New("poisoned")
	s := New(hooks, Config{Logger: atlaslog.Discard()})

	err := s.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, hooks.startupErr)
	assert.Equal(t, []string{"startup", "exit_requested", "exit"}, hooks.Calls())
}

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

package errors_test

import (
	"errors"
	"os"
	"testing"

	atlaserrors "github.com/atlas-assistant/atlas/pkg/errors"
)

func TestWrap(t *testing.T) {
	t.Run("wraps error with context", func(t *testing.T) {
		original := errors.New("original error")
		wrapped := atlaserrors.Wrap(original, "additional context")

		if wrapped == nil {
			t.Fatal("Wrap should not return nil for non-nil error")
		}
		if got := wrapped.Error(); got != "additional context: original error" {
			t.Errorf("unexpected message: %s", got)
		}
		if errors.Unwrap(wrapped) != original {
			t.Error("Unwrap should return original error")
		}
	})

	t.Run("returns nil for nil error", func(t *testing.T) {
		if wrapped := atlaserrors.Wrap(nil, "context"); wrapped != nil {
			t.Errorf("Wrap(nil, _) should return nil, got: %v", wrapped)
		}
	})
}

func TestWrapf(t *testing.T) {
	wrapped := atlaserrors.Wrapf(os.ErrNotExist, "stale PID file %s", "/run/atlas/backend.pid")

	if got := wrapped.Error(); got != "stale PID file /run/atlas/backend.pid: file does not exist" {
		t.Errorf("unexpected message: %s", got)
	}
	if !errors.Is(wrapped, os.ErrNotExist) {
		t.Error("wrapped error should match os.ErrNotExist")
	}
	if atlaserrors.Wrapf(nil, "context %d", 1) != nil {
		t.Error("Wrapf(nil, ...) should return nil")
	}
}

func TestWrap_PreservesTypedErrors(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		match func(error) bool
	}{
		{
			name: "ValidationError",
			err:  &atlaserrors.ValidationError{Field: "candidate"},
			match: func(err error) bool {
				var target *atlaserrors.ValidationError
				return errors.As(err, &target) && target.Field == "candidate"
			},
		},
		{
			name: "NotFoundError",
			err:  &atlaserrors.NotFoundError{Resource: "backend directory"},
			match: func(err error) bool {
				var target *atlaserrors.NotFoundError
				return errors.As(err, &target) && target.Resource == "backend directory"
			},
		},
		{
			name: "ConfigError",
			err:  &atlaserrors.ConfigError{Key: "log.level"},
			match: func(err error) bool {
				var target *atlaserrors.ConfigError
				return errors.As(err, &target) && target.Key == "log.level"
			},
		},
		{
			name: "TimeoutError",
			err:  &atlaserrors.TimeoutError{Operation: "probe"},
			match: func(err error) bool {
				var target *atlaserrors.TimeoutError
				return errors.As(err, &target) && target.Operation == "probe"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.match(atlaserrors.Wrap(tt.err, "wrapper")) {
				t.Errorf("errors.As should extract %s from chain", tt.name)
			}
		})
	}
}

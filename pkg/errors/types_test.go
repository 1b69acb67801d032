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
	"strings"
	"testing"
	"time"

	atlaserrors "github.com/atlas-assistant/atlas/pkg/errors"
)

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *atlaserrors.ValidationError
		wantMsg string
	}{
		{
			name:    "with field",
			err:     &atlaserrors.ValidationError{Field: "candidate", Message: "program is empty"},
			wantMsg: "validation failed on candidate: program is empty",
		},
		{
			name:    "without field",
			err:     &atlaserrors.ValidationError{Message: "invalid format"},
			wantMsg: "validation failed: invalid format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestNotFoundError(t *testing.T) {
	tests := []struct {
		name           string
		err            *atlaserrors.NotFoundError
		wantMsg        string
		wantSuggestion string
	}{
		{
			name:    "resource only",
			err:     &atlaserrors.NotFoundError{Resource: "PID file"},
			wantMsg: "PID file not found",
		},
		{
			name:    "with id",
			err:     &atlaserrors.NotFoundError{Resource: "process", ID: "4242"},
			wantMsg: "process not found: 4242",
		},
		{
			name:           "with searched locations",
			err:            &atlaserrors.NotFoundError{Resource: "backend directory", Searched: []string{"/a", "/b"}},
			wantMsg:        "backend directory not found (searched /a, /b)",
			wantSuggestion: "Looked in:\n  /a\n  /b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Suggestion(); got != tt.wantSuggestion {
				t.Errorf("Suggestion() = %q, want %q", got, tt.wantSuggestion)
			}
		})
	}

	var uv atlaserrors.UserVisibleError = &atlaserrors.NotFoundError{Resource: "backend directory"}
	if !uv.IsUserVisible() {
		t.Error("NotFoundError should be user visible")
	}
	if uv.UserMessage() != "The backend directory could not be found." {
		t.Errorf("unexpected user message: %q", uv.UserMessage())
	}
}

func TestConfigError(t *testing.T) {
	tests := []struct {
		name    string
		err     *atlaserrors.ConfigError
		wantMsg string
	}{
		{
			name:    "with key",
			err:     &atlaserrors.ConfigError{Key: "log.level", Reason: "unknown level"},
			wantMsg: "config error at log.level: unknown level",
		},
		{
			name:    "without key",
			err:     &atlaserrors.ConfigError{Reason: "empty file"},
			wantMsg: "config error: empty file",
		},
		{
			name:    "with cause",
			err:     &atlaserrors.ConfigError{Key: "config_file", Reason: "failed to parse", Cause: errors.New("yaml: line 3")},
			wantMsg: "config error at config_file: failed to parse: yaml: line 3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
		})
	}

	cause := errors.New("permission denied")
	err := &atlaserrors.ConfigError{Key: "config_file", Reason: "unreadable", Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("ConfigError should unwrap to its cause")
	}
	if !strings.Contains(err.Suggestion(), "atlas config path") {
		t.Errorf("unexpected suggestion: %q", err.Suggestion())
	}
}

func TestTimeoutError(t *testing.T) {
	cause := errors.New("context deadline exceeded")
	err := &atlaserrors.TimeoutError{
		Operation: "metrics server shutdown",
		Duration:  5 * time.Second,
		Cause:     cause,
	}

	if got := err.Error(); got != "metrics server shutdown timed out after 5s" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, cause) {
		t.Error("TimeoutError should unwrap to its cause")
	}

	var classifier atlaserrors.ErrorClassifier = err
	if classifier.ErrorType() != "timeout" || !classifier.IsRetryable() {
		t.Error("TimeoutError should classify as a retryable timeout")
	}
}

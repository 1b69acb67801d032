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


package shared

// Error codes for structured JSON output
const (
	// Configuration errors (E200-E299)
	ErrorCodeInvalidConfig = "E202" // Invalid configuration

	// Resource errors (E400-E499)
	ErrorCodeNotFound        = "E401" // Resource not found
	ErrorCodeInternal        = "E402" // Internal error
	ErrorCodeNotRunning      = "E404" // Process not running
	ErrorCodeExecutionFailed = "E403" // Execution failed
)

// ErrorCodeFor maps an exit code to its JSON error code.
func ErrorCodeFor(exitCode int) string {
	switch exitCode {
	case ExitConfigError:
		return ErrorCodeInvalidConfig
	case ExitBackendNotFound:
		return ErrorCodeNotFound
	case ExitBackendNotRunning:
		return ErrorCodeNotRunning
	case ExitFailure:
		return ErrorCodeExecutionFailed
	default:
		return ErrorCodeInternal
	}
}

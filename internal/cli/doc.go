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
Package cli provides the root command and shared configuration for the atlas CLI.

This package creates the main Cobra command tree and handles global concerns like
version information, persistent flags, and error handling. Individual commands
are implemented in the internal/commands subpackages.

# Command Tree

	atlas
	├── run                   Run the shell and supervise the backend
	├── backend
	│   ├── locate            Show the resolved backend directory
	│   ├── interpreter       Show the interpreter that would be used
	│   └── status            Show whether a backend is running
	├── config
	│   ├── show              Display the effective configuration
	│   ├── path              Show the config file location
	│   └── init              Write a default config file
	└── version               Show version

# Global Flags

	--verbose, -v   Enable debug logging
	--quiet, -q     Only log errors
	--json          Output in JSON format
	--config        Config file path

# Exit Codes

	0  success
	1  general failure
	2  configuration error
	3  backend directory not found
	4  backend not running
*/
package cli

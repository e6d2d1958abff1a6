// Copyright 2025 Best Day Labs.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package options defines the command-line flags for the proofcapture CLI.
package options

import (
	"github.com/spf13/cobra"

	"github.com/BestDayLabs/ProofCapture-CLI/pkg/logging"
)

// EnvPrefix is the prefix for environment variables that configure the CLI.
const EnvPrefix = "PROOFCAPTURE"

// Interface is implemented by every option struct that binds flags.
type Interface interface {
	// AddFlags registers this option set's flags on the command.
	AddFlags(cmd *cobra.Command)
}

// RootOptions are the global flags shared by all subcommands.
type RootOptions struct {
	// OutputFile redirects report output to a file instead of stdout.
	OutputFile string
	// LogLevel sets the minimum diagnostic level (debug, info, warn, error, silent).
	LogLevel string
	// LogFormat sets the diagnostic output format (text, json).
	LogFormat string
}

// ValidLogLevels lists the accepted log level strings.
var ValidLogLevels = []string{"debug", "info", "warn", "error", "silent"}

// ValidLogFormats lists the accepted log format strings.
var ValidLogFormats = []string{"text", "json"}

var _ Interface = (*RootOptions)(nil)

// AddFlags registers the global flags on the root command.
func (o *RootOptions) AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&o.OutputFile, "output-file", "",
		"write report output to a file")
	_ = cmd.MarkFlagFilename("output-file", "txt", "json", "log")

	cmd.PersistentFlags().StringVar(&o.LogLevel, "log-level", "info",
		"set the minimum log level (debug, info, warn, error, silent)")

	cmd.PersistentFlags().StringVar(&o.LogFormat, "log-format", "text",
		"set the log output format (text, json)")
}

// GetLogLevel returns the effective diagnostic level.
func (o *RootOptions) GetLogLevel() logging.LogLevel {
	return logging.ParseLogLevel(o.LogLevel)
}

// GetLogFormat returns the effective diagnostic format.
func (o *RootOptions) GetLogFormat() logging.LogFormat {
	return logging.ParseLogFormat(o.LogFormat)
}

// NewLogger creates a logger from the root options.
func (o *RootOptions) NewLogger() logging.Logger {
	return logging.NewLoggerAt(o.GetLogLevel(), o.GetLogFormat())
}

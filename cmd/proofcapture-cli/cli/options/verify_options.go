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

package options

import "github.com/spf13/cobra"

// ReportFormats lists the accepted verify report formats.
var ReportFormats = []string{"text", "json"}

// VerifyOptions are the flags of the verify subcommand.
type VerifyOptions struct {
	// Password decrypts sealed bundles. An interactive prompt is used when
	// this is empty and the input is sealed.
	Password string
	// Format selects the report format (text, json).
	Format string
	// Verbose adds detail to the text report and enables debug logging.
	Verbose bool
	// ExtractDir writes the decrypted audio of a sealed bundle into the
	// given directory after successful verification.
	ExtractDir string
}

var _ Interface = (*VerifyOptions)(nil)

// AddFlags registers the verify flags on the command.
func (o *VerifyOptions) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.Password, "password", "p", "",
		"password for sealed bundles (prompts if not provided)")

	cmd.Flags().StringVarP(&o.Format, "format", "f", "text",
		"report format (text, json)")

	cmd.Flags().BoolVarP(&o.Verbose, "verbose", "v", false,
		"show verbose output")

	cmd.Flags().StringVarP(&o.ExtractDir, "extract", "e", "",
		"extract the audio of a sealed bundle into DIR")
	_ = cmd.MarkFlagDirname("extract")
}

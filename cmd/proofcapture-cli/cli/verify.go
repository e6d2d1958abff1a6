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

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/BestDayLabs/ProofCapture-CLI/cmd/proofcapture-cli/cli/options"
	"github.com/BestDayLabs/ProofCapture-CLI/cmd/proofcapture-cli/cli/report"
	"github.com/BestDayLabs/ProofCapture-CLI/pkg/bundle"
	"github.com/BestDayLabs/ProofCapture-CLI/pkg/logging"
	"github.com/BestDayLabs/ProofCapture-CLI/pkg/verify"
)

// Verify creates the verify subcommand.
func Verify() *cobra.Command {
	o := &options.VerifyOptions{}

	long := `Verify a ProofAudio recording.

PATH is either a standard proof bundle (a directory holding the audio file
and manifest.json, or the manifest file itself with the audio alongside it)
or a sealed .proofaudio file.

Sealed bundles are password protected. Pass the password via --password or
enter it at the prompt. With --extract DIR, the decrypted audio of a sealed
bundle is written into DIR after verification succeeds.

The report goes to stdout as text, or as JSON with --format json. The exit
code is 0 on success and a distinct non-zero code per failure class, so
scripts can branch on the result without parsing output.`

	cmd := &cobra.Command{
		Use:   "verify [OPTIONS] PATH",
		Short: "Verify a ProofAudio recording.",
		Long:  long,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newVerifyLogger(o)
			result, err := runVerify(cmd, o, args[0], log)
			if err != nil {
				renderError(cmd, o, err)
				return err
			}

			if o.Format == "json" {
				return report.WriteJSON(cmd.OutOrStdout(), result)
			}
			report.WriteText(cmd.OutOrStdout(), result, o.Verbose)
			return nil
		},
	}

	o.AddFlags(cmd)
	return cmd
}

// newVerifyLogger derives the command logger, letting --verbose force debug
// level without touching the global log flags.
func newVerifyLogger(o *options.VerifyOptions) logging.Logger {
	if o.Verbose && ro.GetLogLevel() > logging.LevelDebug {
		return logging.NewLoggerAt(logging.LevelDebug, ro.GetLogFormat())
	}
	return ro.NewLogger()
}

func runVerify(cmd *cobra.Command, o *options.VerifyOptions, path string, log logging.Logger) (*verify.Result, error) {
	ctx := cmd.Context()
	pipeline := verify.NewPipeline(log)

	if !bundle.IsSealedPath(path) {
		if o.ExtractDir != "" {
			fmt.Fprintln(cmd.ErrOrStderr(), "Note: --extract only applies to sealed .proofaudio files.")
			fmt.Fprintln(cmd.ErrOrStderr(), "      Standard bundles already contain the audio file.")
		}

		rec, err := bundle.ReadRecording(path)
		if err != nil {
			return nil, err
		}
		log.Debug("standard bundle: audio=%s manifest=%s", rec.AudioPath, rec.ManifestPath)
		return pipeline.Recording(ctx, rec.AudioData, rec.ManifestData)
	}

	password := o.Password
	if password == "" {
		var err error
		password, err = promptPassword(cmd.ErrOrStderr())
		if err != nil {
			return nil, verify.NewError(verify.KindIO, err)
		}
	}

	data, err := bundle.ReadSealed(path)
	if err != nil {
		return nil, err
	}

	if o.ExtractDir == "" {
		return pipeline.Sealed(ctx, data, password)
	}

	extracted, err := pipeline.SealedExtract(ctx, data, password)
	if err != nil {
		return nil, err
	}
	audioPath, err := writeExtractedAudio(o.ExtractDir, extracted)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Audio extracted to: %s\n", audioPath)
	return &extracted.Result, nil
}

// writeExtractedAudio persists the decrypted audio under its original
// filename, creating the target directory if needed.
func writeExtractedAudio(dir string, extracted *verify.ExtractResult) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", verify.NewError(verify.KindIO, err)
	}

	// The filename comes from the encrypted payload; keep only its base so
	// a crafted bundle cannot write outside the target directory.
	name := filepath.Base(extracted.AudioFilename)
	if name == "." || name == string(filepath.Separator) {
		name = "recording.m4a"
	}
	audioPath := filepath.Join(dir, name)
	if err := os.WriteFile(audioPath, extracted.AudioData, 0o644); err != nil {
		return "", verify.NewError(verify.KindIO, err)
	}
	return audioPath, nil
}

// promptPassword reads the password without echo when stdin is a terminal,
// and falls back to a plain line read so piped input works.
func promptPassword(prompt io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(prompt, "Password: ")
		password, err := term.ReadPassword(fd)
		fmt.Fprintln(prompt)
		if err != nil {
			return "", err
		}
		return string(password), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// renderError writes the failure report. Text goes to stderr so a parseable
// stdout stays clean; JSON goes to stdout where tooling expects it.
func renderError(cmd *cobra.Command, o *options.VerifyOptions, err error) {
	var verr *verify.Error
	if !errors.As(err, &verr) {
		verr = verify.NewError(verify.KindUnknown, err)
	}

	if o.Format == "json" {
		_ = report.WriteErrorJSON(cmd.OutOrStdout(), verr)
		return
	}
	report.WriteErrorText(cmd.ErrOrStderr(), verr)
}

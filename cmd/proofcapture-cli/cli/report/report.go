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

// Package report renders verification outcomes for people and for machines.
//
// The text report is opinionated about what a lay reader needs: the verdict,
// the trust level, and an explicit list of what verification does NOT prove.
// The JSON report is stable and camelCased for downstream tooling.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/BestDayLabs/ProofCapture-CLI/pkg/manifest"
	"github.com/BestDayLabs/ProofCapture-CLI/pkg/verify"
)

const (
	ansiReset = "\x1b[0m"
	ansiBold  = "\x1b[1m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
)

// stationaryVarianceCeiling separates "Stationary" from "In motion" in the
// text report. Display-only; never part of trust classification.
const stationaryVarianceCeiling = 0.01

// WriteText renders a successful verification as a human-readable summary.
func WriteText(w io.Writer, result *verify.Result, verbose bool) {
	m := result.Manifest
	level := result.TrustLevel

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%sPROOFAUDIO VERIFICATION SUMMARY%s\n", ansiBold, ansiReset)
	fmt.Fprintln(w, "===============================")
	fmt.Fprintf(w, "Status:      %s%sVERIFIED%s\n", ansiBold, ansiGreen, ansiReset)
	fmt.Fprintf(w, "Trust Level: %s%s (%s)%s\n", level.ColorCode(), level.DisplayName(), level.Label(), ansiReset)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%sRECORDING DETAILS%s\n", ansiBold, ansiReset)
	fmt.Fprintln(w, "-----------------")
	fmt.Fprintf(w, "Captured:    %s\n", m.CaptureStart)
	fmt.Fprintf(w, "Duration:    %.1fs\n", m.DurationSeconds)
	fmt.Fprintf(w, "Format:      %s\n", strings.ToUpper(m.AudioFormat))
	fmt.Fprintf(w, "Size:        %d bytes\n", m.AudioSizeBytes)
	if verbose {
		fmt.Fprintf(w, "Audio Hash:  %s\n", m.AudioHash)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%sCRYPTOGRAPHIC IDENTITY%s\n", ansiBold, ansiReset)
	fmt.Fprintln(w, "----------------------")
	fmt.Fprintf(w, "Device Key:  %s...\n", truncate(m.DeviceKeyID, 20))
	fmt.Fprintf(w, "App:         %s v%s\n", m.AppBundleID, m.AppVersion)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%sTRUST VECTORS%s\n", ansiBold, ansiReset)
	fmt.Fprintln(w, "-------------")
	writeTrustVectors(w, m.TrustVectors)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%sLIMITATIONS%s\n", ansiBold, ansiReset)
	fmt.Fprintln(w, "-----------")
	fmt.Fprintln(w, "This verification proves capture integrity, NOT:")
	fmt.Fprintln(w, "- Who is speaking")
	fmt.Fprintln(w, "- That statements are true")
	fmt.Fprintln(w, "- Legal consent to record")
	fmt.Fprintln(w, "- Absence of AI-generated audio")
	fmt.Fprintln(w)
}

func writeTrustVectors(w io.Writer, vectors manifest.TrustVectors) {
	if loc := vectors.Location; loc != nil {
		fmt.Fprintf(w, "Location:    %.3f, %.3f -> %.3f, %.3f (+/- %.0fm)\n",
			loc.Start.Lat, loc.Start.Lon, loc.End.Lat, loc.End.Lon, loc.Start.Accuracy)
	} else {
		fmt.Fprintln(w, "Location:    Not captured")
	}

	if motion := vectors.Motion; motion != nil {
		state := "In motion"
		if motion.AccelerationVariance < stationaryVarianceCeiling {
			state = "Stationary"
		}
		fmt.Fprintf(w, "Motion:      %s (variance: %.4f)\n", state, motion.AccelerationVariance)
	} else {
		fmt.Fprintln(w, "Motion:      Not captured")
	}

	if cont := vectors.Continuity; cont != nil {
		status := "Interrupted"
		if cont.Uninterrupted {
			status = "Uninterrupted"
		}
		fmt.Fprintf(w, "Continuity:  %s\n", status)
	} else {
		fmt.Fprintln(w, "Continuity:  Not tracked")
	}

	if clock := vectors.Clock; clock != nil {
		fmt.Fprintf(w, "Clock:       %s\n", clock.TimeZone)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// jsonReport is the machine-readable success report.
type jsonReport struct {
	Status          string            `json:"status"`
	TrustLevel      string            `json:"trustLevel"`
	TrustLevelLabel string            `json:"trustLevelLabel"`
	Recording       jsonRecording     `json:"recording"`
	Identity        jsonIdentity      `json:"identity"`
	TrustVectors    *jsonTrustVectors `json:"trustVectors"`
}

type jsonRecording struct {
	CaptureStart    string  `json:"captureStart"`
	CaptureEnd      string  `json:"captureEnd"`
	DurationSeconds float64 `json:"durationSeconds"`
	AudioFormat     string  `json:"audioFormat"`
	AudioSizeBytes  int64   `json:"audioSizeBytes"`
	AudioHash       string  `json:"audioHash"`
}

type jsonIdentity struct {
	DeviceKeyID string `json:"deviceKeyId"`
	AppBundleID string `json:"appBundleId"`
	AppVersion  string `json:"appVersion"`
}

type jsonTrustVectors struct {
	Location   *jsonLocation   `json:"location"`
	Motion     *jsonMotion     `json:"motion"`
	Continuity *jsonContinuity `json:"continuity"`
	Clock      *jsonClock      `json:"clock"`
}

type jsonLocation struct {
	StartLat      float64 `json:"startLat"`
	StartLon      float64 `json:"startLon"`
	StartAccuracy float64 `json:"startAccuracy"`
	EndLat        float64 `json:"endLat"`
	EndLon        float64 `json:"endLon"`
	EndAccuracy   float64 `json:"endAccuracy"`
}

type jsonMotion struct {
	AccelerationVariance float64 `json:"accelerationVariance"`
	SampleCount          int     `json:"sampleCount"`
}

type jsonContinuity struct {
	Uninterrupted bool `json:"uninterrupted"`
}

type jsonClock struct {
	TimeZone string `json:"timeZone"`
}

// WriteJSON renders a successful verification as pretty-printed JSON.
func WriteJSON(w io.Writer, result *verify.Result) error {
	m := result.Manifest

	r := jsonReport{
		Status:          "verified",
		TrustLevel:      result.TrustLevel.DisplayName(),
		TrustLevelLabel: result.TrustLevel.Label(),
		Recording: jsonRecording{
			CaptureStart:    m.CaptureStart,
			CaptureEnd:      m.CaptureEnd,
			DurationSeconds: m.DurationSeconds,
			AudioFormat:     m.AudioFormat,
			AudioSizeBytes:  m.AudioSizeBytes,
			AudioHash:       m.AudioHash,
		},
		Identity: jsonIdentity{
			DeviceKeyID: m.DeviceKeyID,
			AppBundleID: m.AppBundleID,
			AppVersion:  m.AppVersion,
		},
		TrustVectors: &jsonTrustVectors{},
	}

	if loc := m.TrustVectors.Location; loc != nil {
		r.TrustVectors.Location = &jsonLocation{
			StartLat:      loc.Start.Lat,
			StartLon:      loc.Start.Lon,
			StartAccuracy: loc.Start.Accuracy,
			EndLat:        loc.End.Lat,
			EndLon:        loc.End.Lon,
			EndAccuracy:   loc.End.Accuracy,
		}
	}
	if motion := m.TrustVectors.Motion; motion != nil {
		r.TrustVectors.Motion = &jsonMotion{
			AccelerationVariance: motion.AccelerationVariance,
			SampleCount:          motion.SampleCount,
		}
	}
	if cont := m.TrustVectors.Continuity; cont != nil {
		r.TrustVectors.Continuity = &jsonContinuity{Uninterrupted: cont.Uninterrupted}
	}
	if clock := m.TrustVectors.Clock; clock != nil {
		r.TrustVectors.Clock = &jsonClock{TimeZone: clock.TimeZone}
	}

	return writeIndented(w, r)
}

// WriteErrorText renders a failed verification as a human-readable summary.
func WriteErrorText(w io.Writer, err *verify.Error) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%sPROOFAUDIO VERIFICATION SUMMARY%s\n", ansiBold, ansiReset)
	fmt.Fprintln(w, "===============================")
	fmt.Fprintf(w, "Status:      %s%sFAILED%s\n", ansiBold, ansiRed, ansiReset)
	fmt.Fprintf(w, "Error:       %s\n", err.Message())
	fmt.Fprintln(w)

	switch err.Kind {
	case verify.KindHashMismatch:
		fmt.Fprintln(w, "The audio file does not match the cryptographic hash")
		fmt.Fprintln(w, "recorded at capture time. This recording cannot be")
		fmt.Fprintln(w, "verified as authentic.")
		fmt.Fprintln(w)
	case verify.KindSignatureInvalid:
		fmt.Fprintln(w, "The digital signature is invalid. The manifest may have")
		fmt.Fprintln(w, "been tampered with or was not created by ProofAudio.")
		fmt.Fprintln(w)
	case verify.KindDecryptionFailed:
		fmt.Fprintln(w, "Could not decrypt the sealed proof. Please check your")
		fmt.Fprintln(w, "password and try again.")
		fmt.Fprintln(w)
	}
}

// jsonErrorReport is the machine-readable failure report.
type jsonErrorReport struct {
	Status    string `json:"status"`
	Error     string `json:"error"`
	ErrorKind string `json:"errorKind"`
	ExitCode  int    `json:"exitCode"`
}

// WriteErrorJSON renders a failed verification as pretty-printed JSON.
func WriteErrorJSON(w io.Writer, err *verify.Error) error {
	return writeIndented(w, jsonErrorReport{
		Status:    "failed",
		Error:     err.Message(),
		ErrorKind: err.Kind.String(),
		ExitCode:  err.ExitCode(),
	})
}

func writeIndented(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

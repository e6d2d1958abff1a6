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

// Package manifest defines the typed representation of the signed metadata
// record produced by the capture device.
//
// A manifest is parsed once from untrusted bytes and treated as immutable
// afterwards. It is used for business logic only (field access, trust
// classification, reporting); signature verification always re-canonicalizes
// the original bytes via pkg/canonical, never this model's serialization.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
)

// CurrentSchemaVersion is the highest manifest schema version this
// implementation understands. Higher versions are rejected rather than
// parsed best-effort.
const CurrentSchemaVersion = 1

// ErrMalformed indicates the manifest bytes are not valid JSON or do not
// carry the required fields with the required types.
var ErrMalformed = errors.New("manifest malformed")

// SchemaUnsupportedError indicates the manifest declares a schema version
// newer than CurrentSchemaVersion.
type SchemaUnsupportedError struct {
	Version int
}

func (e *SchemaUnsupportedError) Error() string {
	return fmt.Sprintf("manifest schema version %d is not supported", e.Version)
}

// SignedAudioManifest is the signed record describing a capture event.
//
// Every field except TrustVectors' absence semantics and Signature
// participates in the canonical hash; Signature never does.
type SignedAudioManifest struct {
	SchemaVersion   int          `json:"schemaVersion"`
	AudioHash       string       `json:"audioHash"`
	AudioFormat     string       `json:"audioFormat"`
	AudioSizeBytes  int64        `json:"audioSizeBytes"`
	CaptureStart    string       `json:"captureStart"`
	CaptureEnd      string       `json:"captureEnd"`
	DurationSeconds float64      `json:"durationSeconds"`
	AppVersion      string       `json:"appVersion"`
	AppBundleID     string       `json:"appBundleId"`
	DeviceKeyID     string       `json:"deviceKeyId"`
	PublicKey       string       `json:"publicKey"`
	TrustVectors    TrustVectors `json:"trustVectors"`
	Signature       string       `json:"signature"`
}

// TrustVectors groups the optional contextual evidence attached to a
// manifest. Each vector is independently optional; a nil vector means the
// feature was not captured on-device, which is distinct from a vector that
// is present but empty.
type TrustVectors struct {
	Location   *LocationVector   `json:"location,omitempty"`
	Motion     *MotionVector     `json:"motion,omitempty"`
	Continuity *ContinuityVector `json:"continuity,omitempty"`
	Clock      *ClockVector      `json:"clock,omitempty"`
}

// LocationVector records where the capture started and ended.
type LocationVector struct {
	Start LocationSnapshot `json:"start"`
	End   LocationSnapshot `json:"end"`
}

// LocationSnapshot is a position fix at a point in time.
type LocationSnapshot struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Accuracy float64 `json:"accuracy"`
}

// MotionVector summarizes device motion during capture.
type MotionVector struct {
	AccelerationVariance float64 `json:"accelerationVariance"`
	RotationVariance     float64 `json:"rotationVariance"`
	Duration             float64 `json:"duration"`
	SampleCount          int     `json:"sampleCount"`
}

// ContinuityVector records whether the capture ran uninterrupted and, if
// not, the ordered interruption events.
type ContinuityVector struct {
	Uninterrupted      bool                `json:"uninterrupted"`
	InterruptionEvents []InterruptionEvent `json:"interruptionEvents"`
}

// InterruptionEvent is a single break in the recording.
type InterruptionEvent struct {
	Timestamp string `json:"timestamp"`
	Reason    string `json:"reason"`
}

// ClockVector cross-checks wall-clock time against the monotonic clock.
// Purely informational; it never affects the trust level.
type ClockVector struct {
	WallClockStart string  `json:"wallClockStart"`
	WallClockEnd   string  `json:"wallClockEnd"`
	MonotonicDelta float64 `json:"monotonicDelta"`
	TimeZone       string  `json:"timeZone"`
}

// rawManifest mirrors SignedAudioManifest with pointer fields so missing
// required members can be told apart from zero values. encoding/json leaves
// absent members nil and errors on type mismatches, which together give the
// strict parse the wire format requires. Unknown members are ignored.
type rawManifest struct {
	SchemaVersion   *int          `json:"schemaVersion"`
	AudioHash       *string       `json:"audioHash"`
	AudioFormat     *string       `json:"audioFormat"`
	AudioSizeBytes  *int64        `json:"audioSizeBytes"`
	CaptureStart    *string       `json:"captureStart"`
	CaptureEnd      *string       `json:"captureEnd"`
	DurationSeconds *float64      `json:"durationSeconds"`
	AppVersion      *string       `json:"appVersion"`
	AppBundleID     *string       `json:"appBundleId"`
	DeviceKeyID     *string       `json:"deviceKeyId"`
	PublicKey       *string       `json:"publicKey"`
	TrustVectors    *TrustVectors `json:"trustVectors"`
	Signature       *string       `json:"signature"`
}

// Parse strictly deserializes manifest bytes into the typed model.
// Any structural or type mismatch fails with ErrMalformed.
func Parse(data []byte) (*SignedAudioManifest, error) {
	var raw rawManifest
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	missing := func(field string) error {
		return fmt.Errorf("%w: missing required field %q", ErrMalformed, field)
	}
	switch {
	case raw.SchemaVersion == nil:
		return nil, missing("schemaVersion")
	case raw.AudioHash == nil:
		return nil, missing("audioHash")
	case raw.AudioFormat == nil:
		return nil, missing("audioFormat")
	case raw.AudioSizeBytes == nil:
		return nil, missing("audioSizeBytes")
	case raw.CaptureStart == nil:
		return nil, missing("captureStart")
	case raw.CaptureEnd == nil:
		return nil, missing("captureEnd")
	case raw.DurationSeconds == nil:
		return nil, missing("durationSeconds")
	case raw.AppVersion == nil:
		return nil, missing("appVersion")
	case raw.AppBundleID == nil:
		return nil, missing("appBundleId")
	case raw.DeviceKeyID == nil:
		return nil, missing("deviceKeyId")
	case raw.PublicKey == nil:
		return nil, missing("publicKey")
	case raw.TrustVectors == nil:
		return nil, missing("trustVectors")
	case raw.Signature == nil:
		return nil, missing("signature")
	}

	return &SignedAudioManifest{
		SchemaVersion:   *raw.SchemaVersion,
		AudioHash:       *raw.AudioHash,
		AudioFormat:     *raw.AudioFormat,
		AudioSizeBytes:  *raw.AudioSizeBytes,
		CaptureStart:    *raw.CaptureStart,
		CaptureEnd:      *raw.CaptureEnd,
		DurationSeconds: *raw.DurationSeconds,
		AppVersion:      *raw.AppVersion,
		AppBundleID:     *raw.AppBundleID,
		DeviceKeyID:     *raw.DeviceKeyID,
		PublicKey:       *raw.PublicKey,
		TrustVectors:    *raw.TrustVectors,
		Signature:       *raw.Signature,
	}, nil
}

// ValidateSchema rejects manifests whose schema version exceeds
// CurrentSchemaVersion. Versions at or below the ceiling are accepted
// without per-version branching.
func (m *SignedAudioManifest) ValidateSchema() error {
	if m.SchemaVersion > CurrentSchemaVersion {
		return &SchemaUnsupportedError{Version: m.SchemaVersion}
	}
	return nil
}

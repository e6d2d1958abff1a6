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

package manifest

import (
	"errors"
	"strings"
	"testing"
)

const minimalManifest = `{
	"schemaVersion": 1,
	"audioHash": "LPJNul+wow4m6DsqxbninhsWHlwfp0JecwQzYpOLmCQ=",
	"audioFormat": "aac",
	"audioSizeBytes": 524288,
	"captureStart": "2024-06-01T10:00:00Z",
	"captureEnd": "2024-06-01T10:01:00Z",
	"durationSeconds": 60.0,
	"appVersion": "1.0.0",
	"appBundleId": "com.bestdaylabs.proofaudio",
	"deviceKeyId": "device-key-0001",
	"publicKey": "cHVi",
	"trustVectors": {},
	"signature": "c2ln"
}`

func TestParse_Minimal(t *testing.T) {
	m, err := Parse([]byte(minimalManifest))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if m.SchemaVersion != 1 {
		t.Errorf("SchemaVersion = %d, want 1", m.SchemaVersion)
	}
	if m.AppBundleID != "com.bestdaylabs.proofaudio" {
		t.Errorf("AppBundleID = %q, want com.bestdaylabs.proofaudio", m.AppBundleID)
	}
	if m.AudioSizeBytes != 524288 {
		t.Errorf("AudioSizeBytes = %d, want 524288", m.AudioSizeBytes)
	}
	if m.DurationSeconds != 60.0 {
		t.Errorf("DurationSeconds = %v, want 60.0", m.DurationSeconds)
	}

	tv := m.TrustVectors
	if tv.Location != nil || tv.Motion != nil || tv.Continuity != nil || tv.Clock != nil {
		t.Errorf("empty trustVectors parsed with non-nil vectors: %+v", tv)
	}
}

func TestParse_FullTrustVectors(t *testing.T) {
	full := `{
		"schemaVersion": 1,
		"audioHash": "aGFzaA==",
		"audioFormat": "aac",
		"audioSizeBytes": 1024,
		"captureStart": "2024-06-01T10:00:00Z",
		"captureEnd": "2024-06-01T10:01:00Z",
		"durationSeconds": 60,
		"appVersion": "1.0.0",
		"appBundleId": "com.bestdaylabs.proofaudio",
		"deviceKeyId": "device-key-0001",
		"publicKey": "cHVi",
		"trustVectors": {
			"location": {
				"start": {"lat": 37.775, "lon": -122.418, "accuracy": 65.0},
				"end": {"lat": 37.776, "lon": -122.419, "accuracy": 10.0}
			},
			"motion": {
				"accelerationVariance": 0.001,
				"rotationVariance": 0.002,
				"duration": 60.0,
				"sampleCount": 600
			},
			"continuity": {
				"uninterrupted": false,
				"interruptionEvents": [
					{"timestamp": "2024-06-01T10:00:30Z", "reason": "phone_call"}
				]
			},
			"clock": {
				"wallClockStart": "2024-06-01T10:00:00Z",
				"wallClockEnd": "2024-06-01T10:01:00Z",
				"monotonicDelta": 60.01,
				"timeZone": "America/Los_Angeles"
			}
		},
		"signature": "c2ln"
	}`

	m, err := Parse([]byte(full))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	loc := m.TrustVectors.Location
	if loc == nil {
		t.Fatalf("Location = nil, want present")
	}
	if loc.Start.Lat != 37.775 || loc.Start.Lon != -122.418 {
		t.Errorf("Location.Start = %+v, want lat 37.775 lon -122.418", loc.Start)
	}

	motion := m.TrustVectors.Motion
	if motion == nil || motion.SampleCount != 600 {
		t.Errorf("Motion = %+v, want sampleCount 600", motion)
	}

	cont := m.TrustVectors.Continuity
	if cont == nil {
		t.Fatalf("Continuity = nil, want present")
	}
	if cont.Uninterrupted {
		t.Errorf("Continuity.Uninterrupted = true, want false")
	}
	if len(cont.InterruptionEvents) != 1 || cont.InterruptionEvents[0].Reason != "phone_call" {
		t.Errorf("InterruptionEvents = %+v, want one phone_call event", cont.InterruptionEvents)
	}

	clock := m.TrustVectors.Clock
	if clock == nil || clock.TimeZone != "America/Los_Angeles" {
		t.Errorf("Clock = %+v, want timeZone America/Los_Angeles", clock)
	}
}

func TestParse_UnknownFieldsIgnored(t *testing.T) {
	withExtra := strings.Replace(minimalManifest, `"schemaVersion": 1,`,
		`"schemaVersion": 1, "futureField": {"nested": true},`, 1)

	if _, err := Parse([]byte(withExtra)); err != nil {
		t.Errorf("Parse() with unknown field error = %v, want nil", err)
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "not JSON", input: `not json at all`},
		{name: "empty", input: ``},
		{name: "JSON array", input: `[1,2,3]`},
		{name: "missing audioHash", input: strings.Replace(minimalManifest, `"audioHash"`, `"renamedHash"`, 1)},
		{name: "missing signature", input: strings.Replace(minimalManifest, `"signature"`, `"sig"`, 1)},
		{name: "missing trustVectors", input: strings.Replace(minimalManifest, `"trustVectors"`, `"vectors"`, 1)},
		{name: "wrong type for schemaVersion", input: strings.Replace(minimalManifest, `"schemaVersion": 1`, `"schemaVersion": "1"`, 1)},
		{name: "wrong type for trustVectors", input: strings.Replace(minimalManifest, `"trustVectors": {}`, `"trustVectors": []`, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.input)); !errors.Is(err, ErrMalformed) {
				t.Errorf("Parse() error = %v, want ErrMalformed", err)
			}
		})
	}
}

func TestValidateSchema(t *testing.T) {
	tests := []struct {
		name        string
		version     int
		wantErr     bool
		wantVersion int
	}{
		{name: "current version", version: 1},
		{name: "version zero", version: 0},
		{name: "negative version", version: -1},
		{name: "next version", version: 2, wantErr: true, wantVersion: 2},
		{name: "far future", version: 99, wantErr: true, wantVersion: 99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &SignedAudioManifest{SchemaVersion: tt.version}
			err := m.ValidateSchema()

			if !tt.wantErr {
				if err != nil {
					t.Errorf("ValidateSchema() error = %v, want nil", err)
				}
				return
			}

			var schemaErr *SchemaUnsupportedError
			if !errors.As(err, &schemaErr) {
				t.Fatalf("ValidateSchema() error = %v, want *SchemaUnsupportedError", err)
			}
			if schemaErr.Version != tt.wantVersion {
				t.Errorf("SchemaUnsupportedError.Version = %d, want %d", schemaErr.Version, tt.wantVersion)
			}
		})
	}
}

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

// Package trust classifies a verified recording into one of three ordered
// trust levels based on which contextual trust vectors its manifest carries.
//
// Classification is a pure function of vector presence and the continuity
// state. It is recomputed on every verification and never cached apart from
// its manifest.
package trust

import "github.com/BestDayLabs/ProofCapture-CLI/pkg/manifest"

// Level is the A/B/C trust classification of a verified capture.
// LevelA is the highest.
type Level int

const (
	// LevelA: fully verified continuous capture. Location and motion context
	// are present and continuity reports no interruptions.
	LevelA Level = iota

	// LevelB: verified capture with location and motion context, but either
	// continuity was not tracked or the recording was interrupted.
	LevelB

	// LevelC: basic verified capture. Hash and signature check out but
	// contextual evidence is incomplete.
	LevelC
)

// DisplayName returns the short name shown in reports.
func (l Level) DisplayName() string {
	switch l {
	case LevelA:
		return "Level A"
	case LevelB:
		return "Level B"
	default:
		return "Level C"
	}
}

// Label returns the one-line description of the level.
func (l Level) Label() string {
	switch l {
	case LevelA:
		return "Verified Continuous Capture"
	case LevelB:
		return "Verified Capture + Context"
	default:
		return "Verified Capture"
	}
}

// Explanation returns the long-form meaning of the level.
func (l Level) Explanation() string {
	switch l {
	case LevelA:
		return "This recording was captured continuously without interruption, with full context."
	case LevelB:
		return "This recording was captured by ProofCapture with location and motion context."
	default:
		return "This recording was captured by ProofCapture and has not been modified."
	}
}

// ColorCode returns the ANSI escape used to render the level in terminals.
func (l Level) ColorCode() string {
	switch l {
	case LevelA:
		return "\x1b[32m" // green
	case LevelB:
		return "\x1b[34m" // blue
	default:
		return "\x1b[33m" // yellow
	}
}

// Classify computes the trust level for a set of trust vectors.
//
// Ordered rules, first match wins:
//   - LevelA: location and motion present, continuity present and uninterrupted
//   - LevelB: location and motion present
//   - LevelC: otherwise
//
// An absent continuity vector and a present-but-interrupted one both degrade
// to B/C; there is no separate level for the distinction. The clock vector
// never affects the result.
func Classify(vectors manifest.TrustVectors) Level {
	hasLocation := vectors.Location != nil
	hasMotion := vectors.Motion != nil
	uninterrupted := vectors.Continuity != nil && vectors.Continuity.Uninterrupted

	switch {
	case hasLocation && hasMotion && uninterrupted:
		return LevelA
	case hasLocation && hasMotion:
		return LevelB
	default:
		return LevelC
	}
}

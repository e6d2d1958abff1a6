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

package verify

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes verification failures. The set is closed: every
// failure the pipeline or its collaborators can produce maps to exactly one
// kind, and each kind maps to a distinct process exit code.
type ErrorKind int

const (
	// KindUnknown indicates an unclassified error.
	KindUnknown ErrorKind = iota

	// KindHashMismatch indicates the audio bytes do not match the manifest's
	// recorded hash: the audio was modified after capture.
	KindHashMismatch

	// KindSignatureInvalid indicates the manifest signature did not verify,
	// or the embedded key or signature could not be decoded.
	KindSignatureInvalid

	// KindManifestMalformed indicates the manifest bytes are not a valid
	// signed manifest.
	KindManifestMalformed

	// KindSchemaUnsupported indicates the manifest schema version is newer
	// than this implementation understands.
	KindSchemaUnsupported

	// KindAudioFileMissing indicates the audio file could not be found.
	KindAudioFileMissing

	// KindAudioFileCorrupt indicates the audio file exists but is unreadable.
	KindAudioFileCorrupt

	// KindDecryptionFailed indicates a sealed bundle could not be decrypted:
	// wrong password or unsupported key-derivation algorithm.
	KindDecryptionFailed

	// KindBundleCorrupted indicates a sealed bundle is structurally broken:
	// malformed container, truncated ciphertext, or plaintext that is not
	// valid JSON after decryption.
	KindBundleCorrupted

	// KindUnsupportedBundleVersion indicates the sealed bundle version is
	// newer than this implementation understands.
	KindUnsupportedBundleVersion

	// KindIO indicates a passthrough I/O error from a collaborator.
	KindIO
)

// String returns the name of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindHashMismatch:
		return "HashMismatch"
	case KindSignatureInvalid:
		return "SignatureInvalid"
	case KindManifestMalformed:
		return "ManifestMalformed"
	case KindSchemaUnsupported:
		return "SchemaUnsupported"
	case KindAudioFileMissing:
		return "AudioFileMissing"
	case KindAudioFileCorrupt:
		return "AudioFileCorrupt"
	case KindDecryptionFailed:
		return "DecryptionFailed"
	case KindBundleCorrupted:
		return "BundleCorrupted"
	case KindUnsupportedBundleVersion:
		return "UnsupportedBundleVersion"
	case KindIO:
		return "IOError"
	default:
		return "UnknownError"
	}
}

// ExitCode returns the process exit code the CLI uses for this kind.
func (k ErrorKind) ExitCode() int {
	switch k {
	case KindHashMismatch:
		return 1
	case KindSignatureInvalid:
		return 2
	case KindManifestMalformed:
		return 3
	case KindSchemaUnsupported:
		return 4
	case KindAudioFileMissing:
		return 5
	case KindAudioFileCorrupt:
		return 6
	case KindDecryptionFailed:
		return 7
	case KindBundleCorrupted:
		return 8
	case KindUnsupportedBundleVersion:
		return 9
	case KindIO:
		return 10
	default:
		return 10
	}
}

// Error is a structured verification failure.
//
// Kind drives programmatic handling (exit codes, report wording); Version is
// set for the versioned kinds (KindSchemaUnsupported and
// KindUnsupportedBundleVersion); Cause carries the underlying error for
// chain unwrapping.
type Error struct {
	Kind    ErrorKind
	Version int
	Cause   error
}

// Message returns the user-facing one-line description of the failure.
func (e *Error) Message() string {
	switch e.Kind {
	case KindHashMismatch:
		return "Audio has been modified since capture"
	case KindSignatureInvalid:
		return "Signature verification failed"
	case KindManifestMalformed:
		return "Invalid proof file"
	case KindSchemaUnsupported:
		return fmt.Sprintf("Proof format version %d is not supported", e.Version)
	case KindAudioFileMissing:
		return "Audio file not found"
	case KindAudioFileCorrupt:
		return "Audio file is corrupted"
	case KindDecryptionFailed:
		return "Could not decrypt. Check your password"
	case KindBundleCorrupted:
		return "This file has been modified and cannot be opened"
	case KindUnsupportedBundleVersion:
		return "This sealed proof requires a newer app version"
	case KindIO:
		return "I/O error"
	default:
		return "Verification failed"
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message(), e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message())
}

// Unwrap returns the underlying cause for error chain unwrapping.
func (e *Error) Unwrap() error {
	return e.Cause
}

// ExitCode returns the process exit code for this error. It satisfies the
// ExitCoder interface the CLI binary checks before exiting.
func (e *Error) ExitCode() int {
	return e.Kind.ExitCode()
}

// NewError creates a structured verification error.
func NewError(kind ErrorKind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}

// NewVersionError creates a structured verification error for the versioned
// kinds, carrying the offending version.
func NewVersionError(kind ErrorKind, version int, cause error) *Error {
	return &Error{Kind: kind, Version: version, Cause: cause}
}

// IsKind reports whether err is (or wraps) a verification Error of the given
// kind.
func IsKind(err error, kind ErrorKind) bool {
	var verr *Error
	if errors.As(err, &verr) {
		return verr.Kind == kind
	}
	return false
}

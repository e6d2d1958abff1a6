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

// Package sealed parses and decrypts password-protected .proofaudio
// containers into their recording and manifest.
//
// A sealed bundle is JSON carrying a PBKDF2 salt and iteration count plus an
// AES-256-GCM combined payload. The outer nonce field is informational only;
// the authoritative nonce is the first 12 bytes of the combined payload.
// The password and the derived key live only for the duration of a single
// Decrypt call.
package sealed

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/BestDayLabs/ProofCapture-CLI/internal/crypto"
)

// CurrentBundleVersion is the highest sealed-bundle version this
// implementation understands. Newer versions are rejected, never parsed
// best-effort.
const CurrentBundleVersion = 1

// kdfPBKDF2 is the only supported key-derivation algorithm tag. Any other
// tag, including recognized-but-unimplemented ones such as "argon2id",
// fails decryption outright.
const kdfPBKDF2 = "pbkdf2"

var (
	// ErrBundleCorrupted indicates a structurally broken container:
	// malformed JSON, invalid base64 fields, truncated ciphertext, or a
	// decrypted plaintext that is not the expected payload shape.
	ErrBundleCorrupted = errors.New("sealed bundle corrupted")

	// ErrDecryptionFailed indicates the payload could not be decrypted,
	// most likely a wrong password, or the bundle uses an unsupported
	// key-derivation algorithm.
	ErrDecryptionFailed = errors.New("sealed bundle decryption failed")
)

// UnsupportedVersionError indicates the bundle declares a version newer than
// CurrentBundleVersion.
type UnsupportedVersionError struct {
	Version int
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("sealed bundle version %d is not supported", e.Version)
}

// Bundle is the outer structure of a sealed .proofaudio container.
type Bundle struct {
	Version          int           `json:"version"`
	Salt             string        `json:"salt"`
	Nonce            string        `json:"nonce"` // informational, unused by decryption
	KDFAlgorithm     string        `json:"kdfAlgorithm"`
	KDFParameters    KDFParameters `json:"kdfParameters"`
	EncryptedPayload string        `json:"encryptedPayload"`
	CreatedAt        string        `json:"createdAt"`
}

// KDFParameters carries the key-derivation inputs recorded at sealing time.
// MemoryCostKB and Parallelism are reserved for algorithms other than PBKDF2
// and are ignored by this implementation.
type KDFParameters struct {
	Iterations   int `json:"iterations"`
	MemoryCostKB int `json:"memoryCostKB"`
	Parallelism  int `json:"parallelism"`
}

// Payload is the plaintext recovered from a sealed bundle. The audio and
// manifest fields are themselves base64 and need a further decode before use.
type Payload struct {
	AudioData     string `json:"audioData"`
	ManifestData  string `json:"manifestData"`
	AudioFilename string `json:"audioFilename"`
}

// AudioBytes decodes the base64 audio data.
func (p *Payload) AudioBytes() ([]byte, error) {
	data, err := crypto.DecodeBase64(p.AudioData)
	if err != nil {
		return nil, fmt.Errorf("%w: audio data: %v", ErrBundleCorrupted, err)
	}
	return data, nil
}

// ManifestBytes decodes the base64 manifest JSON.
func (p *Payload) ManifestBytes() ([]byte, error) {
	data, err := crypto.DecodeBase64(p.ManifestData)
	if err != nil {
		return nil, fmt.Errorf("%w: manifest data: %v", ErrBundleCorrupted, err)
	}
	return data, nil
}

// rawBundle mirrors Bundle with pointer fields for the strict parse.
type rawBundle struct {
	Version          *int              `json:"version"`
	Salt             *string           `json:"salt"`
	Nonce            *string           `json:"nonce"`
	KDFAlgorithm     *string           `json:"kdfAlgorithm"`
	KDFParameters    *rawKDFParameters `json:"kdfParameters"`
	EncryptedPayload *string           `json:"encryptedPayload"`
	CreatedAt        *string           `json:"createdAt"`
}

// rawKDFParameters mirrors KDFParameters with pointer fields. The sealer
// always writes all three members, so a missing one marks a broken container
// rather than a default of zero iterations.
type rawKDFParameters struct {
	Iterations   *int `json:"iterations"`
	MemoryCostKB *int `json:"memoryCostKB"`
	Parallelism  *int `json:"parallelism"`
}

// rawPayload mirrors Payload with pointer fields. All three members must be
// present; empty strings are legal (zero-byte base64 decodes to zero bytes).
type rawPayload struct {
	AudioData     *string `json:"audioData"`
	ManifestData  *string `json:"manifestData"`
	AudioFilename *string `json:"audioFilename"`
}

// Parse strictly deserializes sealed-bundle bytes. Malformed structure
// fails with ErrBundleCorrupted.
func Parse(data []byte) (*Bundle, error) {
	var raw rawBundle
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBundleCorrupted, err)
	}

	if raw.Version == nil || raw.Salt == nil || raw.Nonce == nil ||
		raw.KDFAlgorithm == nil || raw.KDFParameters == nil ||
		raw.EncryptedPayload == nil || raw.CreatedAt == nil {
		return nil, fmt.Errorf("%w: missing required field", ErrBundleCorrupted)
	}
	kdf := raw.KDFParameters
	if kdf.Iterations == nil || kdf.MemoryCostKB == nil || kdf.Parallelism == nil {
		return nil, fmt.Errorf("%w: missing required field in kdfParameters", ErrBundleCorrupted)
	}

	return &Bundle{
		Version:      *raw.Version,
		Salt:         *raw.Salt,
		Nonce:        *raw.Nonce,
		KDFAlgorithm: *raw.KDFAlgorithm,
		KDFParameters: KDFParameters{
			Iterations:   *kdf.Iterations,
			MemoryCostKB: *kdf.MemoryCostKB,
			Parallelism:  *kdf.Parallelism,
		},
		EncryptedPayload: *raw.EncryptedPayload,
		CreatedAt:        *raw.CreatedAt,
	}, nil
}

// ValidateVersion rejects bundles whose version exceeds CurrentBundleVersion.
func (b *Bundle) ValidateVersion() error {
	if b.Version > CurrentBundleVersion {
		return &UnsupportedVersionError{Version: b.Version}
	}
	return nil
}

// Decrypt recovers the payload using the provided password.
//
// The version ceiling and KDF algorithm are checked first, then the key is
// derived with the bundle's recorded iteration count and the combined
// payload is opened. ErrDecryptionFailed and ErrBundleCorrupted stay
// distinct so callers can tell "wrong password" from "broken file".
func (b *Bundle) Decrypt(password string) (*Payload, error) {
	if err := b.ValidateVersion(); err != nil {
		return nil, err
	}

	if b.KDFAlgorithm != kdfPBKDF2 {
		return nil, fmt.Errorf("%w: unsupported KDF algorithm %q", ErrDecryptionFailed, b.KDFAlgorithm)
	}

	salt, err := crypto.DecodeBase64(b.Salt)
	if err != nil {
		return nil, fmt.Errorf("%w: salt: %v", ErrBundleCorrupted, err)
	}

	key := crypto.DeriveKey(password, salt, b.KDFParameters.Iterations)

	combined, err := crypto.DecodeBase64(b.EncryptedPayload)
	if err != nil {
		return nil, fmt.Errorf("%w: encrypted payload: %v", ErrBundleCorrupted, err)
	}

	plaintext, err := crypto.DecryptCombined(key, combined)
	switch {
	case errors.Is(err, crypto.ErrCiphertextTruncated):
		return nil, fmt.Errorf("%w: %v", ErrBundleCorrupted, err)
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	var raw rawPayload
	if err := json.Unmarshal(plaintext, &raw); err != nil {
		return nil, fmt.Errorf("%w: payload is not valid JSON: %v", ErrBundleCorrupted, err)
	}
	if raw.AudioData == nil || raw.ManifestData == nil || raw.AudioFilename == nil {
		return nil, fmt.Errorf("%w: payload is missing a required field", ErrBundleCorrupted)
	}

	return &Payload{
		AudioData:     *raw.AudioData,
		ManifestData:  *raw.ManifestData,
		AudioFilename: *raw.AudioFilename,
	}, nil
}

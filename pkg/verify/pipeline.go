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

// Package verify orchestrates the end-to-end accept/reject decision for
// ProofCapture recordings.
//
// The pipeline runs a fixed, short sequence of CPU-bound steps and
// short-circuits at the first failure; no step retries or degrades to a
// partial result. Calls are independent and hold no cross-call state, so
// verifications may run concurrently without coordination.
package verify

import (
	"context"
	"errors"

	"github.com/BestDayLabs/ProofCapture-CLI/internal/crypto"
	"github.com/BestDayLabs/ProofCapture-CLI/pkg/canonical"
	"github.com/BestDayLabs/ProofCapture-CLI/pkg/logging"
	"github.com/BestDayLabs/ProofCapture-CLI/pkg/manifest"
	"github.com/BestDayLabs/ProofCapture-CLI/pkg/sealed"
	"github.com/BestDayLabs/ProofCapture-CLI/pkg/tracing"
	"github.com/BestDayLabs/ProofCapture-CLI/pkg/trust"
)

// Result is the outcome of a successful verification. Partially-verified
// results are never constructed; verification is all-or-nothing.
type Result struct {
	Manifest   *manifest.SignedAudioManifest
	TrustLevel trust.Level
}

// ExtractResult is the outcome of a successful sealed-bundle verification,
// additionally carrying the decrypted audio for the extract workflow.
type ExtractResult struct {
	Result
	AudioData     []byte
	AudioFilename string
}

// Pipeline runs verifications with an attached logger. The zero value is
// not usable; construct with NewPipeline.
type Pipeline struct {
	log logging.Logger
}

// NewPipeline creates a verification pipeline. A nil logger falls back to
// the default info-level logger.
func NewPipeline(log logging.Logger) *Pipeline {
	return &Pipeline{log: logging.EnsureLogger(log)}
}

// Recording verifies raw audio bytes against raw manifest bytes. This is
// the single place where the accept/reject decision is made; the sealed
// path funnels into it after decryption.
func (p *Pipeline) Recording(ctx context.Context, audioBytes, manifestBytes []byte) (*Result, error) {
	var result *Result
	err := tracing.Run(ctx, "verify.recording", map[string]interface{}{
		"audio_size": len(audioBytes),
	}, func(ctx context.Context) error {
		var err error
		result, err = p.verifyRecording(audioBytes, manifestBytes)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (p *Pipeline) verifyRecording(audioBytes, manifestBytes []byte) (*Result, error) {
	// Step 1: parse the manifest into the typed model.
	m, err := manifest.Parse(manifestBytes)
	if err != nil {
		return nil, NewError(KindManifestMalformed, err)
	}
	p.log.Debug("manifest parsed: schema=%d app=%s/%s", m.SchemaVersion, m.AppBundleID, m.AppVersion)

	// Step 2: reject schema versions newer than we understand before any
	// cryptographic work.
	if err := m.ValidateSchema(); err != nil {
		var schemaErr *manifest.SchemaUnsupportedError
		if errors.As(err, &schemaErr) {
			return nil, NewVersionError(KindSchemaUnsupported, schemaErr.Version, err)
		}
		return nil, NewError(KindSchemaUnsupported, err)
	}

	// Step 3: bind the manifest to this exact audio content. Runs before
	// signature verification so audio tampering gets the more specific error.
	computed := crypto.SHA256Base64(audioBytes)
	if computed != m.AudioHash {
		p.log.Debug("audio hash mismatch: computed=%s recorded=%s", computed, m.AudioHash)
		return nil, NewError(KindHashMismatch, nil)
	}
	p.log.Debug("audio hash verified (%d bytes)", len(audioBytes))

	// Step 4: decode and parse the embedded device public key.
	keyBytes, err := crypto.DecodeBase64(m.PublicKey)
	if err != nil {
		return nil, NewError(KindSignatureInvalid, err)
	}
	publicKey, err := crypto.ParsePublicKey(keyBytes)
	if err != nil {
		return nil, NewError(KindSignatureInvalid, err)
	}

	// Step 5: the signed digest is computed from the original manifest
	// bytes, never from the typed model's serialization.
	digest, err := canonical.Digest(manifestBytes)
	if err != nil {
		return nil, NewError(KindManifestMalformed, err)
	}

	// Steps 6-7: decode the raw r||s signature and verify it over the digest.
	sigBytes, err := crypto.DecodeBase64(m.Signature)
	if err != nil {
		return nil, NewError(KindSignatureInvalid, err)
	}
	signature, err := crypto.ParseSignature(sigBytes)
	if err != nil {
		return nil, NewError(KindSignatureInvalid, err)
	}
	if !crypto.VerifyDigest(publicKey, digest, signature) {
		p.log.Debug("signature rejected for device key %s", m.DeviceKeyID)
		return nil, NewError(KindSignatureInvalid, nil)
	}
	p.log.Debug("signature verified for device key %s", m.DeviceKeyID)

	// Step 8: classify trust from the manifest's vectors.
	level := trust.Classify(m.TrustVectors)
	p.log.Debug("trust level: %s", level.DisplayName())

	return &Result{Manifest: m, TrustLevel: level}, nil
}

// Sealed decrypts a sealed bundle with the password and verifies the
// recovered recording. The decrypted audio is discarded; use SealedExtract
// to keep it.
func (p *Pipeline) Sealed(ctx context.Context, bundleBytes []byte, password string) (*Result, error) {
	extract, err := p.SealedExtract(ctx, bundleBytes, password)
	if err != nil {
		return nil, err
	}
	return &extract.Result, nil
}

// SealedExtract decrypts a sealed bundle, verifies the recovered recording,
// and returns the decrypted audio alongside the verification result so the
// caller can persist it.
func (p *Pipeline) SealedExtract(ctx context.Context, bundleBytes []byte, password string) (*ExtractResult, error) {
	var result *ExtractResult
	err := tracing.Run(ctx, "verify.sealed", map[string]interface{}{
		"bundle_size": len(bundleBytes),
	}, func(ctx context.Context) error {
		audioBytes, manifestBytes, filename, err := p.openSealed(bundleBytes, password)
		if err != nil {
			return err
		}

		verification, err := p.Recording(ctx, audioBytes, manifestBytes)
		if err != nil {
			return err
		}

		result = &ExtractResult{
			Result:        *verification,
			AudioData:     audioBytes,
			AudioFilename: filename,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// openSealed parses and decrypts the sealed container into the audio and
// manifest byte pair that enters the shared verification path.
func (p *Pipeline) openSealed(bundleBytes []byte, password string) (audio, manifestBytes []byte, filename string, err error) {
	b, err := sealed.Parse(bundleBytes)
	if err != nil {
		return nil, nil, "", classifySealedError(err)
	}
	p.log.Debug("sealed bundle parsed: version=%d kdf=%s iterations=%d",
		b.Version, b.KDFAlgorithm, b.KDFParameters.Iterations)

	payload, err := b.Decrypt(password)
	if err != nil {
		return nil, nil, "", classifySealedError(err)
	}
	p.log.Debug("sealed bundle decrypted: %s", payload.AudioFilename)

	audio, err = payload.AudioBytes()
	if err != nil {
		return nil, nil, "", classifySealedError(err)
	}
	manifestBytes, err = payload.ManifestBytes()
	if err != nil {
		return nil, nil, "", classifySealedError(err)
	}
	return audio, manifestBytes, payload.AudioFilename, nil
}

// classifySealedError maps the sealed package's errors onto the closed
// taxonomy, preserving the wrong-password/broken-file distinction.
func classifySealedError(err error) error {
	var versionErr *sealed.UnsupportedVersionError
	switch {
	case errors.As(err, &versionErr):
		return NewVersionError(KindUnsupportedBundleVersion, versionErr.Version, err)
	case errors.Is(err, sealed.ErrDecryptionFailed):
		return NewError(KindDecryptionFailed, err)
	case errors.Is(err, sealed.ErrBundleCorrupted):
		return NewError(KindBundleCorrupted, err)
	default:
		return NewError(KindBundleCorrupted, err)
	}
}

// Recording verifies raw audio and manifest bytes with the default pipeline.
func Recording(ctx context.Context, audioBytes, manifestBytes []byte) (*Result, error) {
	return NewPipeline(nil).Recording(ctx, audioBytes, manifestBytes)
}

// Sealed verifies a sealed bundle with the default pipeline.
func Sealed(ctx context.Context, bundleBytes []byte, password string) (*Result, error) {
	return NewPipeline(nil).Sealed(ctx, bundleBytes, password)
}

// SealedExtract verifies a sealed bundle with the default pipeline and
// returns the decrypted audio alongside the result.
func SealedExtract(ctx context.Context, bundleBytes []byte, password string) (*ExtractResult, error) {
	return NewPipeline(nil).SealedExtract(ctx, bundleBytes, password)
}

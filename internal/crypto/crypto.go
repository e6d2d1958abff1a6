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

// Package crypto implements the cryptographic primitives used to verify
// ProofCapture recordings: SHA-256 hashing, P-256 ECDSA verification,
// AES-256-GCM decryption, and PBKDF2 key derivation.
//
// These primitives must match the device-side CryptoKit implementation
// bit for bit. Public keys arrive as raw x||y coordinates (64 bytes, no
// SEC1 prefix) and signatures as raw r||s (64 bytes, no DER wrapping).
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"math/big"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// KeySize is the AES-256 key length produced by DeriveKey.
	KeySize = 32

	// NonceSize is the AES-GCM nonce length in the combined layout.
	NonceSize = 12

	// TagSize is the AES-GCM authentication tag length in the combined layout.
	TagSize = 16

	// rawPointSize is the length of a raw P-256 public key (x||y) or
	// signature (r||s).
	rawPointSize = 64
)

var (
	// ErrInvalidPublicKey indicates the raw public key bytes have the wrong
	// length or do not describe a point on the P-256 curve.
	ErrInvalidPublicKey = errors.New("invalid P-256 public key encoding")

	// ErrInvalidSignature indicates the raw signature bytes have the wrong
	// length or carry an out-of-range scalar.
	ErrInvalidSignature = errors.New("invalid ECDSA signature encoding")

	// ErrCiphertextTruncated indicates the combined ciphertext is shorter
	// than nonce + tag, the minimum for an empty plaintext.
	ErrCiphertextTruncated = errors.New("combined ciphertext truncated")

	// ErrAuthenticationFailed indicates AES-GCM authentication failed,
	// either because the key is wrong or the ciphertext was tampered with.
	ErrAuthenticationFailed = errors.New("ciphertext authentication failed")
)

// SHA256 computes the SHA-256 digest of data and returns the raw 32 bytes.
func SHA256(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

// SHA256Base64 computes the SHA-256 digest of data and returns it as a
// standard base64 string, the encoding used for audioHash in manifests.
func SHA256Base64(data []byte) string {
	return base64.StdEncoding.EncodeToString(SHA256(data))
}

// Signature holds the two scalars of a parsed ECDSA signature.
type Signature struct {
	R, S *big.Int
}

// ParsePublicKey parses a raw 64-byte P-256 public key (x||y coordinates).
//
// The device exports keys without the SEC1 uncompressed-point marker, so the
// 0x04 prefix is restored before validating that the point lies on the curve.
func ParsePublicKey(raw []byte) (*ecdsa.PublicKey, error) {
	if len(raw) != rawPointSize {
		return nil, ErrInvalidPublicKey
	}

	sec1 := make([]byte, 0, rawPointSize+1)
	sec1 = append(sec1, 0x04)
	sec1 = append(sec1, raw...)

	// ecdh rejects points that are not on the curve, including the identity.
	if _, err := ecdh.P256().NewPublicKey(sec1); err != nil {
		return nil, ErrInvalidPublicKey
	}

	return &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(raw[:32]),
		Y:     new(big.Int).SetBytes(raw[32:]),
	}, nil
}

// ParseSignature parses a raw 64-byte ECDSA signature (r||s, 32 bytes each,
// big-endian). Each scalar must be in [1, n-1] for curve order n.
func ParseSignature(raw []byte) (*Signature, error) {
	if len(raw) != rawPointSize {
		return nil, ErrInvalidSignature
	}

	r := new(big.Int).SetBytes(raw[:32])
	s := new(big.Int).SetBytes(raw[32:])

	n := elliptic.P256().Params().N
	if r.Sign() == 0 || s.Sign() == 0 || r.Cmp(n) >= 0 || s.Cmp(n) >= 0 {
		return nil, ErrInvalidSignature
	}

	return &Signature{R: r, S: s}, nil
}

// VerifyDigest verifies an ECDSA signature over a precomputed 32-byte digest.
// The digest is the signed message itself; it is not hashed again here.
func VerifyDigest(pub *ecdsa.PublicKey, digest []byte, sig *Signature) bool {
	if pub == nil || sig == nil {
		return false
	}
	return ecdsa.Verify(pub, digest, sig.R, sig.S)
}

// DeriveKey derives a 32-byte AES-256 key from a password using
// PBKDF2-HMAC-SHA256. The operational iteration count on the device side
// is 600,000; the caller supplies whatever the sealed bundle recorded.
func DeriveKey(password string, salt []byte, iterations int) []byte {
	return pbkdf2.Key([]byte(password), salt, iterations, KeySize, sha256.New)
}

// DecryptCombined decrypts an AES-256-GCM combined payload laid out as
// nonce(12) || ciphertext || tag(16).
//
// Returns ErrCiphertextTruncated when combined cannot even hold an empty
// plaintext, and ErrAuthenticationFailed when the key is wrong or the
// payload was modified. Callers rely on the distinction to report
// "corrupted file" versus "wrong password".
func DecryptCombined(key, combined []byte) ([]byte, error) {
	if len(combined) < NonceSize+TagSize {
		return nil, ErrCiphertextTruncated
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, combined[:NonceSize], combined[NonceSize:], nil)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	return plaintext, nil
}

// DecodeBase64 decodes a standard base64 string.
func DecodeBase64(encoded string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(encoded)
}

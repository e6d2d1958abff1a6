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

package sealed

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"

	"github.com/BestDayLabs/ProofCapture-CLI/internal/crypto"
)

// Low iteration count keeps tests fast; the production value is 600000.
const testIterations = 1000

// sealBundle builds a sealed bundle around plaintext the way the device
// does: PBKDF2 key from password+salt, AES-256-GCM combined payload.
func sealBundle(t *testing.T, password string, plaintext []byte) []byte {
	t.Helper()

	salt := make([]byte, 32)
	if _, err := rand.Read(salt); err != nil {
		t.Fatalf("rand.Read() error = %v", err)
	}

	key := crypto.DeriveKey(password, salt, testIterations)
	block, err := aes.NewCipher(key)
	if err != nil {
		t.Fatalf("NewCipher() error = %v", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		t.Fatalf("NewGCM() error = %v", err)
	}

	nonce := make([]byte, crypto.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		t.Fatalf("rand.Read() error = %v", err)
	}
	combined := gcm.Seal(nonce, nonce, plaintext, nil)

	bundle := map[string]interface{}{
		"version":      1,
		"salt":         base64.StdEncoding.EncodeToString(salt),
		"nonce":        base64.StdEncoding.EncodeToString(nonce),
		"kdfAlgorithm": "pbkdf2",
		"kdfParameters": map[string]int{
			"iterations":   testIterations,
			"memoryCostKB": 0,
			"parallelism":  1,
		},
		"encryptedPayload": base64.StdEncoding.EncodeToString(combined),
		"createdAt":        "2024-06-01T10:00:00Z",
	}

	data, err := json.Marshal(bundle)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	return data
}

func payloadJSON(t *testing.T, audio, manifestJSON []byte, filename string) []byte {
	t.Helper()
	data, err := json.Marshal(Payload{
		AudioData:     base64.StdEncoding.EncodeToString(audio),
		ManifestData:  base64.StdEncoding.EncodeToString(manifestJSON),
		AudioFilename: filename,
	})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	return data
}

func TestParse_Structure(t *testing.T) {
	input := `{
		"version": 1,
		"salt": "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA=",
		"nonce": "AAAAAAAAAAAAAAAA",
		"kdfAlgorithm": "pbkdf2",
		"kdfParameters": {"iterations": 600000, "memoryCostKB": 0, "parallelism": 1},
		"encryptedPayload": "dGVzdA==",
		"createdAt": "2024-01-01T00:00:00Z"
	}`

	b, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if b.Version != 1 {
		t.Errorf("Version = %d, want 1", b.Version)
	}
	if b.KDFAlgorithm != "pbkdf2" {
		t.Errorf("KDFAlgorithm = %q, want pbkdf2", b.KDFAlgorithm)
	}
	if b.KDFParameters.Iterations != 600000 {
		t.Errorf("Iterations = %d, want 600000", b.KDFParameters.Iterations)
	}
}

func TestParse_MemoryCostKeyAlias(t *testing.T) {
	// Some sealers emit memoryCostKb instead of memoryCostKB.
	input := `{
		"version": 1,
		"salt": "AA==",
		"nonce": "AA==",
		"kdfAlgorithm": "pbkdf2",
		"kdfParameters": {"iterations": 1, "memoryCostKb": 64, "parallelism": 1},
		"encryptedPayload": "AA==",
		"createdAt": "2024-01-01T00:00:00Z"
	}`

	b, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if b.KDFParameters.MemoryCostKB != 64 {
		t.Errorf("MemoryCostKB = %d, want 64", b.KDFParameters.MemoryCostKB)
	}
}

func TestParse_Corrupted(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "not JSON", input: `garbage`},
		{name: "empty", input: ``},
		{name: "missing encryptedPayload", input: `{"version":1,"salt":"AA==","nonce":"AA==","kdfAlgorithm":"pbkdf2","kdfParameters":{"iterations":1,"memoryCostKB":0,"parallelism":1},"createdAt":"2024-01-01T00:00:00Z"}`},
		{name: "wrong version type", input: `{"version":"1","salt":"AA==","nonce":"AA==","kdfAlgorithm":"pbkdf2","kdfParameters":{"iterations":1,"memoryCostKB":0,"parallelism":1},"encryptedPayload":"AA==","createdAt":"x"}`},
		{name: "missing kdf iterations", input: `{"version":1,"salt":"AA==","nonce":"AA==","kdfAlgorithm":"pbkdf2","kdfParameters":{"memoryCostKB":0,"parallelism":1},"encryptedPayload":"AA==","createdAt":"2024-01-01T00:00:00Z"}`},
		{name: "missing kdf parallelism", input: `{"version":1,"salt":"AA==","nonce":"AA==","kdfAlgorithm":"pbkdf2","kdfParameters":{"iterations":1,"memoryCostKB":0},"encryptedPayload":"AA==","createdAt":"2024-01-01T00:00:00Z"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.input)); !errors.Is(err, ErrBundleCorrupted) {
				t.Errorf("Parse() error = %v, want ErrBundleCorrupted", err)
			}
		})
	}
}

func TestParse_MissingIterations(t *testing.T) {
	// A bundle sealed at a real iteration count but stripped of the
	// iterations field must be rejected at parse time. Defaulting to zero
	// iterations would derive the wrong key and misreport a correct
	// password as a decryption failure.
	plaintext := payloadJSON(t, []byte("audio"), []byte(`{}`), "recording.m4a")
	data := sealBundle(t, "password", plaintext)

	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	delete(doc["kdfParameters"].(map[string]interface{}), "iterations")
	stripped, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	if _, err := Parse(stripped); !errors.Is(err, ErrBundleCorrupted) {
		t.Errorf("Parse() error = %v, want ErrBundleCorrupted", err)
	}
}

func TestValidateVersion(t *testing.T) {
	if err := (&Bundle{Version: 1}).ValidateVersion(); err != nil {
		t.Errorf("ValidateVersion(1) error = %v, want nil", err)
	}
	if err := (&Bundle{Version: 0}).ValidateVersion(); err != nil {
		t.Errorf("ValidateVersion(0) error = %v, want nil", err)
	}

	err := (&Bundle{Version: 99}).ValidateVersion()
	var versionErr *UnsupportedVersionError
	if !errors.As(err, &versionErr) {
		t.Fatalf("ValidateVersion(99) error = %v, want *UnsupportedVersionError", err)
	}
	if versionErr.Version != 99 {
		t.Errorf("UnsupportedVersionError.Version = %d, want 99", versionErr.Version)
	}
}

func TestDecrypt_RoundTrip(t *testing.T) {
	audio := []byte("pretend this is AAC audio")
	manifestJSON := []byte(`{"schemaVersion":1}`)
	plaintext := payloadJSON(t, audio, manifestJSON, "recording.m4a")

	data := sealBundle(t, "test-password-123", plaintext)
	b, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	payload, err := b.Decrypt("test-password-123")
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if payload.AudioFilename != "recording.m4a" {
		t.Errorf("AudioFilename = %q, want recording.m4a", payload.AudioFilename)
	}

	gotAudio, err := payload.AudioBytes()
	if err != nil {
		t.Fatalf("AudioBytes() error = %v", err)
	}
	if string(gotAudio) != string(audio) {
		t.Errorf("AudioBytes() = %q, want %q", gotAudio, audio)
	}

	gotManifest, err := payload.ManifestBytes()
	if err != nil {
		t.Fatalf("ManifestBytes() error = %v", err)
	}
	if string(gotManifest) != string(manifestJSON) {
		t.Errorf("ManifestBytes() = %q, want %q", gotManifest, manifestJSON)
	}
}

func TestDecrypt_WrongPassword(t *testing.T) {
	plaintext := payloadJSON(t, []byte("audio"), []byte(`{}`), "recording.m4a")
	b, err := Parse(sealBundle(t, "right-password", plaintext))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if _, err := b.Decrypt("wrong-password"); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("Decrypt() error = %v, want ErrDecryptionFailed", err)
	}
	if _, err := b.Decrypt(""); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("Decrypt() with empty password error = %v, want ErrDecryptionFailed", err)
	}
}

func TestDecrypt_UnsupportedKDF(t *testing.T) {
	plaintext := payloadJSON(t, []byte("audio"), []byte(`{}`), "recording.m4a")
	b, err := Parse(sealBundle(t, "password", plaintext))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	// argon2id is recognized by the format but not implemented; no partial
	// support is offered.
	b.KDFAlgorithm = "argon2id"
	if _, err := b.Decrypt("password"); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("Decrypt() error = %v, want ErrDecryptionFailed", err)
	}
}

func TestDecrypt_UnsupportedVersion(t *testing.T) {
	plaintext := payloadJSON(t, []byte("audio"), []byte(`{}`), "recording.m4a")
	b, err := Parse(sealBundle(t, "password", plaintext))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	b.Version = CurrentBundleVersion + 1
	var versionErr *UnsupportedVersionError
	if _, err := b.Decrypt("password"); !errors.As(err, &versionErr) {
		t.Errorf("Decrypt() error = %v, want *UnsupportedVersionError", err)
	}
}

func TestDecrypt_TruncatedCiphertext(t *testing.T) {
	plaintext := payloadJSON(t, []byte("audio"), []byte(`{}`), "recording.m4a")
	b, err := Parse(sealBundle(t, "password", plaintext))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	// Below the 28-byte minimum of nonce + tag.
	b.EncryptedPayload = base64.StdEncoding.EncodeToString(make([]byte, 20))
	if _, err := b.Decrypt("password"); !errors.Is(err, ErrBundleCorrupted) {
		t.Errorf("Decrypt() error = %v, want ErrBundleCorrupted", err)
	}
}

func TestDecrypt_InvalidBase64Fields(t *testing.T) {
	plaintext := payloadJSON(t, []byte("audio"), []byte(`{}`), "recording.m4a")

	t.Run("salt", func(t *testing.T) {
		b, err := Parse(sealBundle(t, "password", plaintext))
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		b.Salt = "!!!not-base64!!!"
		if _, err := b.Decrypt("password"); !errors.Is(err, ErrBundleCorrupted) {
			t.Errorf("Decrypt() error = %v, want ErrBundleCorrupted", err)
		}
	})

	t.Run("encryptedPayload", func(t *testing.T) {
		b, err := Parse(sealBundle(t, "password", plaintext))
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		b.EncryptedPayload = "!!!not-base64!!!"
		if _, err := b.Decrypt("password"); !errors.Is(err, ErrBundleCorrupted) {
			t.Errorf("Decrypt() error = %v, want ErrBundleCorrupted", err)
		}
	})
}

func TestDecrypt_PlaintextNotJSON(t *testing.T) {
	b, err := Parse(sealBundle(t, "password", []byte("this is not a JSON payload")))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if _, err := b.Decrypt("password"); !errors.Is(err, ErrBundleCorrupted) {
		t.Errorf("Decrypt() error = %v, want ErrBundleCorrupted", err)
	}
}

func TestDecrypt_PayloadMissingFilename(t *testing.T) {
	plaintext := []byte(`{"audioData":"YQ==","manifestData":"eyJ9"}`)
	b, err := Parse(sealBundle(t, "password", plaintext))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if _, err := b.Decrypt("password"); !errors.Is(err, ErrBundleCorrupted) {
		t.Errorf("Decrypt() error = %v, want ErrBundleCorrupted", err)
	}
}

func TestDecrypt_EmptyPayloadFields(t *testing.T) {
	// Zero-byte audio and manifest are valid base64 of the empty string;
	// the sealer may legitimately produce them.
	plaintext := payloadJSON(t, nil, nil, "recording.m4a")
	b, err := Parse(sealBundle(t, "password", plaintext))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	payload, err := b.Decrypt("password")
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	audio, err := payload.AudioBytes()
	if err != nil {
		t.Fatalf("AudioBytes() error = %v", err)
	}
	if len(audio) != 0 {
		t.Errorf("AudioBytes() = %q, want empty", audio)
	}
	manifest, err := payload.ManifestBytes()
	if err != nil {
		t.Fatalf("ManifestBytes() error = %v", err)
	}
	if len(manifest) != 0 {
		t.Errorf("ManifestBytes() = %q, want empty", manifest)
	}
}

func TestPayload_InvalidInnerBase64(t *testing.T) {
	p := &Payload{AudioData: "***", ManifestData: "***"}

	if _, err := p.AudioBytes(); !errors.Is(err, ErrBundleCorrupted) {
		t.Errorf("AudioBytes() error = %v, want ErrBundleCorrupted", err)
	}
	if _, err := p.ManifestBytes(); !errors.Is(err, ErrBundleCorrupted) {
		t.Errorf("ManifestBytes() error = %v, want ErrBundleCorrupted", err)
	}
}

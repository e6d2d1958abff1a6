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

// Package canonical produces the deterministic JSON serialization whose
// SHA-256 digest is the value signed by the capture device.
//
// The canonical form is compact (no whitespace), object keys are sorted by
// byte-wise comparison and written verbatim, and string values escape the
// forward slash as \/ because the device-side JSON encoder does. The
// signature field cannot sign itself, so a top-level "signature" member is
// removed before encoding.
//
// Canonicalization always starts from the original manifest bytes (or a
// generic value tree parsed from them), never from the typed manifest model:
// re-serializing through the model could reformat numbers and silently
// produce a digest that no longer matches what was signed.
package canonical

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"unicode"

	"github.com/BestDayLabs/ProofCapture-CLI/internal/crypto"
)

// signatureKey is the top-level member removed before canonicalization.
const signatureKey = "signature"

// Parse decodes JSON bytes into a generic value tree of objects
// (map[string]interface{}), arrays ([]interface{}), strings, numbers
// (json.Number, preserving the original literal), booleans, and nulls.
//
// Trailing data after the first JSON value is rejected.
func Parse(data []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var value interface{}
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	if err := dec.Decode(new(interface{})); err != io.EOF {
		return nil, fmt.Errorf("trailing data after JSON value")
	}
	return value, nil
}

// Canonicalize parses JSON bytes and returns their canonical form with any
// top-level "signature" member removed.
func Canonicalize(data []byte) ([]byte, error) {
	value, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return CanonicalizeValue(value)
}

// CanonicalizeValue returns the canonical form of an already-parsed value
// tree with any top-level "signature" member removed. The input tree is not
// mutated; stripping operates on a shallow copy of the root object.
func CanonicalizeValue(value interface{}) ([]byte, error) {
	if obj, ok := value.(map[string]interface{}); ok {
		stripped := make(map[string]interface{}, len(obj))
		for k, v := range obj {
			if k == signatureKey {
				continue
			}
			stripped[k] = v
		}
		value = stripped
	}

	var buf bytes.Buffer
	if err := encodeValue(&buf, value); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Digest parses JSON bytes, canonicalizes them, and returns the SHA-256
// digest of the canonical text. This is the digest the device signed.
func Digest(data []byte) ([]byte, error) {
	text, err := Canonicalize(data)
	if err != nil {
		return nil, err
	}
	return crypto.SHA256(text), nil
}

// encodeValue writes the canonical encoding of value into buf.
func encodeValue(buf *bytes.Buffer, value interface{}) error {
	switch v := value.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if v {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case string:
		encodeString(buf, v)
	case json.Number:
		// The literal from the source bytes, byte for byte.
		buf.WriteString(v.String())
	case map[string]interface{}:
		return encodeObject(buf, v)
	case []interface{}:
		return encodeArray(buf, v)
	default:
		// Programmatically-built trees may carry native numeric types.
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("canonical encoding of %T: %w", v, err)
		}
		buf.Write(data)
	}
	return nil
}

func encodeObject(buf *bytes.Buffer, obj map[string]interface{}) error {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		// Keys are written verbatim: the device encoder only escapes
		// string values, never member names.
		buf.WriteByte('"')
		buf.WriteString(k)
		buf.WriteString(`":`)
		if err := encodeValue(buf, obj[k]); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func encodeArray(buf *bytes.Buffer, arr []interface{}) error {
	buf.WriteByte('[')
	for i, v := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeValue(buf, v); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}

// encodeString writes a quoted, escaped JSON string. The forward slash is
// escaped as \/ to match the device encoder; remaining control characters
// use the \u00xx form with lowercase hex digits.
func encodeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '/':
			buf.WriteString(`\/`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if unicode.IsControl(r) {
				fmt.Fprintf(buf, `\u%04x`, r)
			} else {
				buf.WriteRune(r)
			}
		}
	}
	buf.WriteByte('"')
}

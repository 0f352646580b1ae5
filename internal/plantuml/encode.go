// Copyright (c) 2025 The umldraft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package plantuml

import (
	"bytes"
	"compress/flate"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// MaxSourceBytes is the largest diagram source accepted for encoding.
// PlantUML servers put the whole token in the URL path, so unbounded
// sources produce unusable URLs long before they hit server limits.
const MaxSourceBytes = 64 * 1024

// ErrSourceTooLarge is returned when a diagram source exceeds MaxSourceBytes.
var ErrSourceTooLarge = fmt.Errorf("plantuml: source exceeds %d bytes", MaxSourceBytes)

// encodeAlphabet is PlantUML's base64 variant. It is NOT standard base64:
// digits come first and the two extra characters are '-' and '_'.
const encodeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-_"

// =============================================================================
// TOKEN ENCODING
// =============================================================================

// Encode compresses source with raw DEFLATE and encodes the result in
// PlantUML's 6-bit alphabet, producing the URL-safe token the server
// decodes back into the diagram text. Deterministic for a given input.
func Encode(source string) (string, error) {
	if len(source) > MaxSourceBytes {
		return "", ErrSourceTooLarge
	}

	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return "", fmt.Errorf("plantuml: init compressor: %w", err)
	}
	if _, err := w.Write([]byte(source)); err != nil {
		return "", fmt.Errorf("plantuml: compress source: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("plantuml: flush compressor: %w", err)
	}

	return encode64(buf.Bytes()), nil
}

// Decode reverses Encode: 6-bit alphabet back to bytes, then raw INFLATE.
func Decode(token string) (string, error) {
	compressed, err := decode64(token)
	if err != nil {
		return "", err
	}

	r := flate.NewReader(bytes.NewReader(compressed))
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("plantuml: decompress token: %w", err)
	}
	return string(data), nil
}

// Fingerprint returns a short stable identifier for a diagram source,
// used for cache keys and output filenames.
func Fingerprint(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])[:12]
}

// =============================================================================
// 6-BIT CODEC
// =============================================================================

// encode64 packs every 3 input bytes into 4 alphabet characters. The tail
// is zero-padded; no padding characters are emitted.
func encode64(data []byte) string {
	var sb strings.Builder
	sb.Grow((len(data) + 2) / 3 * 4)

	for i := 0; i < len(data); i += 3 {
		var b1, b2, b3 byte
		b1 = data[i]
		if i+1 < len(data) {
			b2 = data[i+1]
		}
		if i+2 < len(data) {
			b3 = data[i+2]
		}

		sb.WriteByte(encodeAlphabet[b1>>2])
		sb.WriteByte(encodeAlphabet[((b1&0x3)<<4)|(b2>>4)])
		if i+1 < len(data) {
			sb.WriteByte(encodeAlphabet[((b2&0xF)<<2)|(b3>>6)])
		}
		if i+2 < len(data) {
			sb.WriteByte(encodeAlphabet[b3&0x3F])
		}
	}
	return sb.String()
}

// decode64 is the inverse of encode64.
func decode64(token string) ([]byte, error) {
	var inverse [256]int16
	for i := range inverse {
		inverse[i] = -1
	}
	for i := 0; i < len(encodeAlphabet); i++ {
		inverse[encodeAlphabet[i]] = int16(i)
	}

	vals := make([]byte, 0, len(token))
	for i := 0; i < len(token); i++ {
		v := inverse[token[i]]
		if v < 0 {
			return nil, fmt.Errorf("plantuml: invalid token character %q", token[i])
		}
		vals = append(vals, byte(v))
	}

	out := make([]byte, 0, len(vals)/4*3+3)
	for i := 0; i+1 < len(vals); i += 4 {
		c1 := vals[i]
		c2 := vals[i+1]
		out = append(out, (c1<<2)|(c2>>4))
		if i+2 < len(vals) {
			c3 := vals[i+2]
			out = append(out, (c2<<4)|(c3>>2))
			if i+3 < len(vals) {
				out = append(out, (c3<<6)|vals[i+3])
			}
		}
	}
	return out, nil
}

// Package codec holds the reversible transform applied to message bodies.
// It is an obfuscation layer only: anyone with read access to the store
// can recover the text.
package codec

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// FallbackContent is shown when an alert carries no content at all.
const FallbackContent = "New Message"

// Encode returns the base64 form of text. The empty string encodes to itself.
func Encode(text string) string {
	if text == "" {
		return ""
	}
	return base64.StdEncoding.EncodeToString([]byte(text))
}

// Decode reverses Encode. Line-wrapped input, as written by the mobile client, is accepted.
func Decode(encoded string) (string, error) {
	if encoded == "" {
		return "", nil
	}
	raw, err := base64.StdEncoding.DecodeString(stripWhitespace(encoded))
	if err != nil {
		return "", fmt.Errorf("decode message content: %w", err)
	}
	return string(raw), nil
}

// DecodeOrFallback never fails: empty content gives FallbackContent,
// undecodable content is returned as is.
func DecodeOrFallback(encoded string) string {
	if encoded == "" {
		return FallbackContent
	}
	text, err := Decode(encoded)
	if err != nil {
		return encoded
	}
	return text
}

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', '\t', ' ':
			return -1
		}
		return r
	}, s)
}

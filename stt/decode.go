package stt

import (
	"encoding/base64"
	"strings"
	"unicode"

	apperrors "github.com/kbukum/whisperd/errors"
)

const (
	msgNoAudio       = "No audio data provided"
	msgInvalidBase64 = "Invalid base64 audio data"
)

var encodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.RawStdEncoding,
	base64.URLEncoding,
	base64.RawURLEncoding,
}

// DecodeAudio decodes a base64 payload, optionally wrapped in a data URL
// ("data:audio/ogg;base64,<payload>"). Whitespace is ignored. Standard,
// unpadded and URL-safe alphabets are accepted.
func DecodeAudio(s string) ([]byte, error) {
	if i := strings.IndexByte(s, ','); i >= 0 {
		s = s[i+1:]
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return nil, apperrors.MissingField("audio", msgNoAudio)
	}

	for _, enc := range encodings {
		if data, err := enc.DecodeString(s); err == nil {
			return data, nil
		}
	}
	return nil, apperrors.InvalidInput("audio", msgInvalidBase64)
}

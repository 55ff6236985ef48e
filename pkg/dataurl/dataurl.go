// Package dataurl converts image bytes to and from base64 data URLs, the
// text encoding archive images are stored in.
package dataurl

import (
	"encoding/base64"
	"errors"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrMalformed indicates the value is not a base64 data URL.
var ErrMalformed = errors.New("malformed data url")

// Detect sniffs the MIME type of payload, dropping any parameters.
func Detect(payload []byte) string {
	detected := mimetype.Detect(payload).String()
	if idx := strings.Index(detected, ";"); idx >= 0 {
		detected = detected[:idx]
	}
	return strings.ToLower(strings.TrimSpace(detected))
}

// IsImage reports whether the MIME type names an image.
func IsImage(mime string) bool {
	return strings.HasPrefix(mime, "image/")
}

// Encode builds a data URL for payload. An empty mime is sniffed from the bytes.
func Encode(mime string, payload []byte) string {
	if mime == "" {
		mime = Detect(payload)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(payload)
}

// Decode splits a data URL into its MIME type and raw bytes. Only base64 payloads are accepted.
func Decode(value string) (string, []byte, error) {
	if !strings.HasPrefix(value, "data:") {
		return "", nil, ErrMalformed
	}
	header, body, found := strings.Cut(value[len("data:"):], ",")
	if !found {
		return "", nil, ErrMalformed
	}

	params := strings.Split(header, ";")
	if len(params) < 2 || params[len(params)-1] != "base64" {
		return "", nil, ErrMalformed
	}

	payload, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return "", nil, ErrMalformed
	}

	mime := strings.ToLower(strings.TrimSpace(params[0]))
	if mime == "" {
		mime = "application/octet-stream"
	}
	return mime, payload, nil
}

// Extension returns the canonical file extension (with dot) for a MIME type, or "" when unknown.
func Extension(mime string) string {
	if found := mimetype.Lookup(mime); found != nil {
		return found.Extension()
	}
	return ""
}

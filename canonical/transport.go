package canonical

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// EncodeTransport encodes canonical bytes for embedding in a text context,
// using standard RFC 4648 base64.
func EncodeTransport(canonicalBytes []byte) string {
	return base64.StdEncoding.EncodeToString(canonicalBytes)
}

// DecodeTransport decodes a base64 transport string back to canonical
// bytes. Standard padded encoding is primary; the URL-safe unpadded
// alphabet emitted by older encoders is accepted for compatibility.
func DecodeTransport(s string) ([]byte, error) {
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	if b, err := base64.RawStdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return nil, fmt.Errorf("canonical: invalid transport base64: %w", err)
	}
	return b, nil
}

package canonical

import (
	"encoding/json"
	"fmt"

	"github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"
)

// JCS renders the canonical JSON text form of a logical payload (RFC 8785).
//
// The binary CBOR form is what hashing and signing cover; the JCS form is
// the canonical representation for JSON contexts (debugging, fixtures,
// cross-checking an implementation's key ordering and number formatting
// against an independent canonicalizer).
func JCS(obj map[string]any) ([]byte, error) {
	logical, err := Normalize(obj)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(logical)
	if err != nil {
		return nil, fmt.Errorf("canonical: jcs marshal: %w", err)
	}
	out, err := jsoncanonicalizer.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonical: jcs transform: %w", err)
	}
	return out, nil
}

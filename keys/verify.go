package keys

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
)

// ErrSignatureInvalid reports a cryptographic verification failure against
// the claimed signer. Never downgraded, never retried: re-verifying does
// not change a cryptographic outcome.
var ErrSignatureInvalid = errors.New("keys: signature invalid")

func encodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

func decodeBase64(s string) ([]byte, error) {
	// Prefer standard padded encoding, but accept raw encoding too.
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}

// ParseSignerKey splits a signer-key string (<alg>:<base64 pubkey>) into
// its scheme and raw public key bytes, checking key length where the
// scheme has a fixed size.
func ParseSignerKey(signerKey string) (alg string, pub []byte, err error) {
	if signerKey == "" {
		return "", nil, errors.New("keys: empty signer key")
	}
	alg, enc, ok := strings.Cut(signerKey, ":")
	if !ok {
		return "", nil, errors.New("keys: invalid signer key encoding")
	}
	pub, err = decodeBase64(enc)
	if err != nil {
		return "", nil, fmt.Errorf("keys: invalid signer key base64: %w", err)
	}
	switch alg {
	case "ed25519":
		if len(pub) != ed25519.PublicKeySize {
			return "", nil, fmt.Errorf("keys: invalid ed25519 public key length %d", len(pub))
		}
	case "dilithium3":
		var pk mode3.PublicKey
		if err := pk.UnmarshalBinary(pub); err != nil {
			return "", nil, fmt.Errorf("keys: invalid dilithium3 public key: %w", err)
		}
	default:
		return "", nil, fmt.Errorf("%w: signature scheme %q", ErrUnsupportedAlgorithm, alg)
	}
	return alg, pub, nil
}

// VerifySignature verifies sig over digest against the claimed signer key.
//
// The digest MUST be re-derived from freshly re-canonicalized payload
// bytes; verifying a cached or transmitted hash defeats tamper detection.
// Returns nil on success, ErrSignatureInvalid on cryptographic failure and
// ErrUnsupportedAlgorithm for unknown schemes.
func VerifySignature(digest, sig []byte, signerKey string) error {
	alg, pub, err := ParseSignerKey(signerKey)
	if err != nil {
		return err
	}
	switch alg {
	case "ed25519":
		if len(sig) != ed25519.SignatureSize {
			return fmt.Errorf("%w: bad ed25519 signature length %d", ErrSignatureInvalid, len(sig))
		}
		if !ed25519.Verify(ed25519.PublicKey(pub), digest, sig) {
			return ErrSignatureInvalid
		}
		return nil
	case "dilithium3":
		if len(sig) != mode3.SignatureSize {
			return fmt.Errorf("%w: bad dilithium3 signature length %d", ErrSignatureInvalid, len(sig))
		}
		var pk mode3.PublicKey
		if err := pk.UnmarshalBinary(pub); err != nil {
			return fmt.Errorf("keys: invalid dilithium3 public key: %w", err)
		}
		if !mode3.Verify(&pk, digest, sig) {
			return ErrSignatureInvalid
		}
		return nil
	default:
		return fmt.Errorf("%w: signature scheme %q", ErrUnsupportedAlgorithm, alg)
	}
}

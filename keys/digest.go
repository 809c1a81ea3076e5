package keys

import (
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// ErrUnsupportedAlgorithm reports a hash or signature scheme the engine
// does not implement. This is a configuration error; callers should check
// capability (SupportedHashAlgs, SupportedSignatureAlgs) at setup time
// rather than per call.
var ErrUnsupportedAlgorithm = errors.New("keys: unsupported algorithm")

// HashAlgSHA256 is the protocol reference hash algorithm for canonical
// bytes: a 256-bit digest every conformant implementation agrees on.
const HashAlgSHA256 = "sha256"

// Digest computes the protocol content hash (SHA-256) over canonical bytes.
// Pure function of its input.
func Digest(canonicalBytes []byte) [sha256.Size]byte {
	return sha256.Sum256(canonicalBytes)
}

// DigestFor computes a digest over message with the named algorithm.
// Supported: sha256, sha512, sha3-256.
func DigestFor(hashAlg string, message []byte) ([]byte, error) {
	switch hashAlg {
	case "sha256":
		s := sha256.Sum256(message)
		return s[:], nil
	case "sha512":
		s := sha512.Sum512(message)
		return s[:], nil
	case "sha3-256":
		s := sha3.Sum256(message)
		return s[:], nil
	default:
		return nil, fmt.Errorf("%w: hash %q", ErrUnsupportedAlgorithm, hashAlg)
	}
}

// SupportedHashAlgs lists the hash algorithms DigestFor accepts.
func SupportedHashAlgs() []string {
	return []string{"sha256", "sha512", "sha3-256"}
}

// SupportedSignatureAlgs lists the signature schemes the engine implements.
func SupportedSignatureAlgs() []string {
	return []string{"ed25519", "dilithium3"}
}

package keys

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"io"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
)

// Signer signs a digest with a held private key.
//
// Implementations sign the digest bytes directly; they never re-hash. The
// engine does not manage key material beyond holding the caller-supplied
// private key for the lifetime of the Signer.
type Signer interface {
	// Alg returns the signature scheme identifier ("ed25519", "dilithium3").
	Alg() string
	// SignerKey returns the public signer-key string, <alg>:<base64 pubkey>.
	SignerKey() string
	// Sign signs the digest.
	Sign(digest []byte) ([]byte, error)
}

// Ed25519Signer signs digests with an Ed25519 private key.
type Ed25519Signer struct {
	priv ed25519.PrivateKey
}

// NewEd25519Signer wraps an Ed25519 private key.
func NewEd25519Signer(priv ed25519.PrivateKey) (*Ed25519Signer, error) {
	if l := len(priv); l != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("keys: ed25519 private key must be %d bytes, got %d", ed25519.PrivateKeySize, l)
	}
	return &Ed25519Signer{priv: priv}, nil
}

// NewEd25519SignerFromSeed derives the signer from a 32-byte seed.
func NewEd25519SignerFromSeed(seed []byte) (*Ed25519Signer, error) {
	if l := len(seed); l != ed25519.SeedSize {
		return nil, fmt.Errorf("keys: ed25519 seed must be %d bytes, got %d", ed25519.SeedSize, l)
	}
	return &Ed25519Signer{priv: ed25519.NewKeyFromSeed(seed)}, nil
}

func (s *Ed25519Signer) Alg() string { return "ed25519" }

func (s *Ed25519Signer) SignerKey() string {
	pub := s.priv.Public().(ed25519.PublicKey)
	key, _ := SignerKeyFromPublicKey(pub)
	return key
}

func (s *Ed25519Signer) Sign(digest []byte) ([]byte, error) {
	if len(digest) == 0 {
		return nil, errors.New("keys: empty digest")
	}
	return ed25519.Sign(s.priv, digest), nil
}

// Dilithium3Signer signs digests with a Dilithium3 (post-quantum) keypair.
type Dilithium3Signer struct {
	priv *mode3.PrivateKey
	pub  *mode3.PublicKey
}

// NewDilithium3Signer wraps a Dilithium3 keypair.
func NewDilithium3Signer(pub *mode3.PublicKey, priv *mode3.PrivateKey) (*Dilithium3Signer, error) {
	if priv == nil || pub == nil {
		return nil, errors.New("keys: missing dilithium3 keypair")
	}
	return &Dilithium3Signer{priv: priv, pub: pub}, nil
}

func (s *Dilithium3Signer) Alg() string { return "dilithium3" }

func (s *Dilithium3Signer) SignerKey() string {
	raw, err := s.pub.MarshalBinary()
	if err != nil {
		return ""
	}
	return "dilithium3:" + encodeBase64(raw)
}

func (s *Dilithium3Signer) Sign(digest []byte) ([]byte, error) {
	if len(digest) == 0 {
		return nil, errors.New("keys: empty digest")
	}
	sig := make([]byte, mode3.SignatureSize)
	mode3.SignTo(s.priv, digest, sig)
	return sig, nil
}

// GenerateDilithium3Keypair returns a new Dilithium3 keypair.
func GenerateDilithium3Keypair(rand io.Reader) (*mode3.PublicKey, *mode3.PrivateKey, error) {
	return mode3.GenerateKey(rand)
}

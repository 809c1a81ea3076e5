// Package keys implements the digest and signature engine.
//
// The engine signs the digest, not the payload: callers canonicalize first,
// hash the canonical bytes, and sign the hash. Key material is supplied by
// the caller; the engine only orchestrates signing and verification.
//
// API stability:
//
// Stable:
//   - Digest/DigestFor, Signer implementations, signer-key formatting, and
//     VerifySignature. These are pure, deterministic primitives.
//
// Experimental:
//   - Filesystem-backed key storage and convenience helpers (KeyStore and
//     related functions). These are local-first utilities and are not part
//     of the long-term protocol contract.
package keys

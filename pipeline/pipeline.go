// Package pipeline composes the end-to-end payload flow: validate,
// canonicalize, digest, sign on the producing side; re-derive and check on
// the verifying side.
//
// The pipeline never hashes or signs raw input bytes. Every digest is
// computed over canonical bytes re-derived from the validated logical
// payload, so formatting differences can never produce a verification
// mismatch.
package pipeline

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"locproto.dev/lp/attrschema"
	"locproto.dev/lp/canonical"
	"locproto.dev/lp/cidutil"
	"locproto.dev/lp/compliance"
	"locproto.dev/lp/keys"
	"locproto.dev/lp/payload"
	"locproto.dev/lp/proof"
	"locproto.dev/lp/registry"
)

// Options configures a Processor. The zero value is usable: default
// registry, permissive mode, no proof verifiers, no schema resolver,
// logging disabled.
type Options struct {
	Registry *registry.Registry
	Mode     compliance.Mode
	Proofs   *proof.Registry
	Schemas  *attrschema.Validator
	Logger   *zerolog.Logger
}

// Processor runs the protocol pipeline with a fixed configuration.
type Processor struct {
	reg     *registry.Registry
	mode    compliance.Mode
	proofs  *proof.Registry
	schemas *attrschema.Validator
	log     zerolog.Logger
}

// New builds a Processor from opts, filling in defaults for unset fields.
func New(opts Options) *Processor {
	p := &Processor{
		reg:     opts.Registry,
		mode:    opts.Mode,
		proofs:  opts.Proofs,
		schemas: opts.Schemas,
		log:     zerolog.Nop(),
	}
	if p.reg == nil {
		p.reg = registry.Default()
	}
	if opts.Logger != nil {
		p.log = *opts.Logger
	}
	return p
}

// Result is the outcome of a successful Process or Verify run. All derived
// artifacts are computed from the same canonical bytes.
type Result struct {
	Payload        *payload.Payload
	Warnings       []payload.Warning
	CanonicalBytes []byte
	Digest         []byte
	Signature      []byte
	SignerKey      string
	CID            string
}

// Process validates raw JSON, canonicalizes the logical payload, digests
// the canonical bytes and, when signer is non-nil, signs the digest.
//
// On validation failure the returned Result carries the full validation
// outcome (all violations and warnings) and the error is the first,
// highest-class violation.
func (p *Processor) Process(raw []byte, signer keys.Signer) (*Result, error) {
	res := payload.Validate(raw, p.reg, p.mode)
	r := &Result{Warnings: res.Warnings}
	if !res.OK() {
		p.log.Debug().Err(res.Err()).Str("rule", payload.RuleID(res.Err())).Msg("payload rejected")
		return r, res.Err()
	}
	r.Payload = res.Payload

	if err := p.checkAttributes(r); err != nil {
		return r, err
	}

	canonBytes, err := canonical.Canonicalize(res.Payload.Object())
	if err != nil {
		return r, &payload.Error{
			Kind:    payload.KindInternal,
			RuleID:  payload.RuleInternal,
			Message: "validated payload failed to canonicalize",
			Cause:   err,
		}
	}
	r.CanonicalBytes = canonBytes
	digest := keys.Digest(canonBytes)
	r.Digest = digest[:]
	r.CID = cidutil.CIDv1RawSHA256(canonBytes)

	if signer != nil {
		sig, err := signer.Sign(r.Digest)
		if err != nil {
			return r, fmt.Errorf("pipeline: signing failed: %w", err)
		}
		r.Signature = sig
		r.SignerKey = signer.SignerKey()
	}

	p.log.Debug().
		Str("location_type", res.Payload.LocationType).
		Str("cid", r.CID).
		Int("canonical_bytes", len(canonBytes)).
		Bool("signed", signer != nil).
		Msg("payload processed")
	return r, nil
}

// Verify re-derives the canonical form and digest of raw and checks them
// against the claimed digest and signature. claimedDigest may be nil when
// only the signature is being checked; sig and signerKey may be empty when
// only digest integrity is being checked.
//
// Any attached proof sub-object is dispatched to the configured verifier
// registry. An unregistered stamp_type is a warning in permissive mode and
// an error in strict mode.
func (p *Processor) Verify(raw []byte, claimedDigest, sig []byte, signerKey string) (*Result, error) {
	res := payload.Validate(raw, p.reg, p.mode)
	r := &Result{Warnings: res.Warnings}
	if !res.OK() {
		return r, res.Err()
	}
	r.Payload = res.Payload

	if err := p.checkAttributes(r); err != nil {
		return r, err
	}

	canonBytes, err := canonical.Canonicalize(res.Payload.Object())
	if err != nil {
		return r, &payload.Error{
			Kind:    payload.KindInternal,
			RuleID:  payload.RuleInternal,
			Message: "validated payload failed to canonicalize",
			Cause:   err,
		}
	}
	r.CanonicalBytes = canonBytes
	digest := keys.Digest(canonBytes)
	r.Digest = digest[:]
	r.CID = cidutil.CIDv1RawSHA256(canonBytes)

	if claimedDigest != nil {
		if subtle.ConstantTimeCompare(claimedDigest, r.Digest) != 1 {
			return r, &payload.Error{
				Kind:    payload.KindCrypto,
				RuleID:  payload.RuleHashMismatch,
				Message: "claimed digest does not match canonical digest",
			}
		}
	}

	if len(sig) != 0 || signerKey != "" {
		if err := keys.VerifySignature(r.Digest, sig, signerKey); err != nil {
			return r, cryptoError(err)
		}
		r.Signature = sig
		r.SignerKey = signerKey
	}

	if pf := res.Payload.Proof; pf != nil {
		if err := p.verifyProof(r, pf, canonBytes); err != nil {
			return r, err
		}
	}

	p.log.Debug().Str("cid", r.CID).Msg("payload verified")
	return r, nil
}

func (p *Processor) verifyProof(r *Result, pf *payload.Proof, canonBytes []byte) error {
	if p.proofs == nil || !p.proofs.Known(pf.StampType) {
		if p.mode == compliance.Strict {
			return &payload.Error{
				Kind:    payload.KindValidation,
				RuleID:  payload.RuleProofField,
				Field:   payload.FieldProof,
				Message: fmt.Sprintf("no verifier registered for stamp_type %q", pf.StampType),
			}
		}
		r.Warnings = append(r.Warnings, payload.Warning{
			Field:   payload.FieldProof,
			Message: fmt.Sprintf("stamp_type %q has no registered verifier; proof not checked", pf.StampType),
		})
		return nil
	}
	if err := p.proofs.Verify(pf.StampType, pf.Stamps, canonBytes); err != nil {
		return &payload.Error{
			Kind:    payload.KindCrypto,
			RuleID:  payload.RuleProofInvalid,
			Field:   payload.FieldProof,
			Message: "proof verification failed",
			Cause:   err,
		}
	}
	return nil
}

// checkAttributes validates the attributes string against its referenced
// schema when both are present and a validator is configured. An
// unresolvable schema reference degrades to a warning in permissive mode.
func (p *Processor) checkAttributes(r *Result) error {
	pl := r.Payload
	if p.schemas == nil || pl.Attributes == "" || pl.AttributesSchema == "" {
		return nil
	}
	err := p.schemas.Validate(pl.Attributes, pl.AttributesSchema)
	if err == nil {
		return nil
	}
	if errors.Is(err, attrschema.ErrSchemaUnavailable) && p.mode == compliance.Permissive {
		r.Warnings = append(r.Warnings, payload.Warning{
			Field:   payload.FieldAttributesSchema,
			Message: fmt.Sprintf("schema %q unavailable; attributes not checked", pl.AttributesSchema),
		})
		return nil
	}
	return &payload.Error{
		Kind:    payload.KindValidation,
		RuleID:  payload.RuleAttributes,
		Field:   payload.FieldAttributes,
		Message: "attributes do not satisfy attributes_schema",
		Cause:   err,
	}
}

func cryptoError(err error) error {
	switch {
	case errors.Is(err, keys.ErrUnsupportedAlgorithm):
		return &payload.Error{
			Kind:    payload.KindCrypto,
			RuleID:  payload.RuleUnsupportedAlg,
			Message: "unsupported signature algorithm",
			Cause:   err,
		}
	case errors.Is(err, keys.ErrSignatureInvalid):
		return &payload.Error{
			Kind:    payload.KindCrypto,
			RuleID:  payload.RuleSignatureInvalid,
			Message: "signature does not verify against signer key",
			Cause:   err,
		}
	default:
		return &payload.Error{
			Kind:    payload.KindCrypto,
			RuleID:  payload.RuleSignatureInvalid,
			Message: "signature verification failed",
			Cause:   err,
		}
	}
}

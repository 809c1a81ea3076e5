// Package proof implements pluggable verification of payload proof stamps.
//
// The protocol does not fix a closed set of proof methods: stamp_type
// selects a verification method supplied by the caller. This package is
// the injection point: verifiers register per stamp_type and the payload
// pipeline dispatches to them during verification.
package proof

import (
	"errors"
	"fmt"

	cmap "github.com/orcaman/concurrent-map/v2"
)

// Verifier checks method-specific proof evidence. stamps is interpreted
// according to the method the verifier implements; canonicalBytes are the
// canonical payload bytes the stamps vouch for.
//
// Verifiers must be deterministic and must not mutate their inputs.
type Verifier func(stampType, stamps string, canonicalBytes []byte) error

// ErrUnknownStampType reports a stamp_type with no registered verifier.
var ErrUnknownStampType = errors.New("proof: unknown stamp type")

// Registry maps stamp_type strings to verifiers. Safe for concurrent use;
// registration after startup is permitted.
type Registry struct {
	verifiers cmap.ConcurrentMap[string, Verifier]
}

// NewRegistry returns an empty verifier registry.
func NewRegistry() *Registry {
	return &Registry{verifiers: cmap.New[Verifier]()}
}

// Register installs a verifier for a stamp_type. Re-registering an
// existing stamp_type is an error; proof semantics must not change under
// a running verifier's feet.
func (r *Registry) Register(stampType string, v Verifier) error {
	if stampType == "" {
		return errors.New("proof: empty stamp type")
	}
	if v == nil {
		return fmt.Errorf("proof: nil verifier for %q", stampType)
	}
	if !r.verifiers.SetIfAbsent(stampType, v) {
		return fmt.Errorf("proof: %q already registered", stampType)
	}
	return nil
}

// Verify dispatches to the verifier registered for stampType.
func (r *Registry) Verify(stampType, stamps string, canonicalBytes []byte) error {
	v, ok := r.verifiers.Get(stampType)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStampType, stampType)
	}
	return v(stampType, stamps, canonicalBytes)
}

// Known reports whether a verifier is registered for stampType.
func (r *Registry) Known(stampType string) bool {
	return r.verifiers.Has(stampType)
}

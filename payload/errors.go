package payload

import "errors"

// Kind is a stable category for programmatic error handling.
//
// These categories are intended to remain stable across versions.
// Callers should branch on Kind/RuleID rather than matching error strings.
//
// NOTE: Error() strings are intentionally kept human-readable and may evolve.
// Use errors.As to extract *Error for structured handling.
type Kind string

const (
	KindParse      Kind = "Parse"
	KindValidation Kind = "Validation"
	KindCanonical  Kind = "Canonical"
	KindCrypto     Kind = "Crypto"
	KindCID        Kind = "CID"
	KindInternal   Kind = "Internal"
)

// Stable rule IDs naming the violated invariant. The prefix groups map onto
// the protocol failure taxonomy:
//
//	LP-STR-*    structural failures (MalformedPayload)
//	LP-VAL-1xx  required base fields (MissingRequiredField, InvalidVersion, InvalidSRS)
//	LP-VAL-2xx  discriminator resolution (UnknownLocationType, LocationShapeMismatch)
//	LP-VAL-3xx  optional field constraints (OptionalFieldConstraintViolation)
//	LP-CRYPTO-* digest/signature failures (HashMismatch, SignatureInvalid, UnsupportedAlgorithm)
//	LP-INTERNAL-* engine defects, never caused by payload content
const (
	RuleInvalidJSON      = "LP-STR-001"
	RuleNotAnObject      = "LP-STR-002"
	RuleDuplicateKey     = "LP-STR-003"
	RuleTrailingContent  = "LP-STR-004"
	RuleMissingField     = "LP-VAL-101"
	RuleFieldType        = "LP-VAL-102"
	RuleInvalidVersion   = "LP-VAL-111"
	RuleInvalidSRS       = "LP-VAL-121"
	RuleLegacySRS        = "LP-VAL-122"
	RuleUnknownType      = "LP-VAL-201"
	RuleShapeMismatch    = "LP-VAL-202"
	RuleTimestamp        = "LP-VAL-301"
	RuleMediaPair        = "LP-VAL-302"
	RuleMediaType        = "LP-VAL-303"
	RuleProofPair        = "LP-VAL-304"
	RuleProofField       = "LP-VAL-305"
	RuleRecipient        = "LP-VAL-306"
	RuleAttributes       = "LP-VAL-307"
	RuleHashMismatch     = "LP-CRYPTO-401"
	RuleSignatureInvalid = "LP-CRYPTO-402"
	RuleProofInvalid     = "LP-CRYPTO-403"
	RuleUnsupportedAlg   = "LP-CRYPTO-301"
	RuleInternal         = "LP-INTERNAL-001"
)

// Error is the library's structured error type.
//
// RuleID is a stable identifier that names the violated invariant or
// validation rule. Field carries the offending payload field where one
// applies (e.g. "srs" for a MissingRequiredField failure).
//
// Message is intended for humans; do not match on it.
type Error struct {
	Kind    Kind
	RuleID  string
	Field   string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func newError(kind Kind, ruleID, msg string) error {
	return &Error{Kind: kind, RuleID: ruleID, Message: msg}
}

func fieldError(kind Kind, ruleID, field, msg string) error {
	return &Error{Kind: kind, RuleID: ruleID, Field: field, Message: msg}
}

func wrapError(kind Kind, ruleID, msg string, cause error) error {
	if cause == nil {
		return newError(kind, ruleID, msg)
	}
	return &Error{Kind: kind, RuleID: ruleID, Message: msg, Cause: cause}
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// RuleID returns the stable RuleID for a structured error, or "" if unknown.
func RuleID(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.RuleID
}

// FieldOf returns the offending field for a structured error, or "".
func FieldOf(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Field
}

package payload

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"

	"locproto.dev/lp/compliance"
	"locproto.dev/lp/registry"
)

// Warning is a soft, non-fatal inconsistency surfaced alongside a valid
// result.
type Warning struct {
	Field   string
	Message string
}

// ValidationResult carries either a validated payload with warnings, or the
// full set of violations found in one pass. Errors are ordered by failure
// class: structural errors mask semantic ones, so the first element always
// reflects the short-circuit ordering even in collect-all mode.
type ValidationResult struct {
	Payload  *Payload
	Errors   []error
	Warnings []Warning
}

// OK reports whether the payload is valid. Warnings do not affect validity.
func (r *ValidationResult) OK() bool {
	return r != nil && len(r.Errors) == 0 && r.Payload != nil
}

// Err returns the first (highest-class) violation, or nil.
func (r *ValidationResult) Err() error {
	if r == nil || len(r.Errors) == 0 {
		return nil
	}
	return r.Errors[0]
}

var versionRe = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// mediaTypeRe is a syntax check for type/subtype MIME strings.
var mediaTypeRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9!#$&^_.+-]*/[A-Za-z0-9][A-Za-z0-9!#$&^_.+-]*$`)

// Validate decodes and validates a raw JSON payload against the base field
// contract and the registry's per-variant shape rules.
//
// The phases run in the documented short-circuit order (structure, required
// base fields, version, srs, discriminator, shape, optional constraints);
// all violations found are collected, but a failure in an earlier phase
// suppresses the phases that depend on it.
func Validate(raw []byte, reg *registry.Registry, mode compliance.Mode) *ValidationResult {
	res := &ValidationResult{}

	obj, err := ParseObject(raw)
	if err != nil {
		res.Errors = append(res.Errors, err)
		return res
	}
	return ValidateObject(obj, reg, mode)
}

// ValidateObject validates an already-decoded payload object. The object
// must have been produced by ParseObject (or an equivalent json.Number
// preserving decode).
func ValidateObject(obj map[string]any, reg *registry.Registry, mode compliance.Mode) *ValidationResult {
	if reg == nil {
		reg = registry.Default()
	}
	res := &ValidationResult{}
	p := &Payload{}

	// Phase 1: required base fields, presence and primitive type.
	version, ok := requireString(res, obj, FieldVersion)
	srsRaw, srsOK := requireString(res, obj, FieldSRS)
	locType, ltOK := requireString(res, obj, FieldLocationType)
	locVal, locOK := requireAny(res, obj, FieldLocation)

	// Phase 2: lp_version pattern and semantics.
	if ok {
		if !versionRe.MatchString(version) {
			res.Errors = append(res.Errors, fieldError(KindValidation, RuleInvalidVersion, FieldVersion,
				fmt.Sprintf("%q is not a major.minor.patch version", version)))
		} else if _, err := semver.StrictNewVersion(version); err != nil {
			res.Errors = append(res.Errors, fieldError(KindValidation, RuleInvalidVersion, FieldVersion,
				fmt.Sprintf("%q is not a valid semantic version", version)))
		} else {
			p.Version = version
		}
	}

	// Phase 3: srs URI syntax and normalization.
	srs := srsRaw
	if srsOK {
		normalized, err := NormalizeSRS(srsRaw, mode == compliance.Permissive)
		if err != nil {
			res.Errors = append(res.Errors, err)
		} else {
			srs = normalized
			p.SRS = normalized
			if normalized != srsRaw {
				res.Warnings = append(res.Warnings, Warning{
					Field:   FieldSRS,
					Message: fmt.Sprintf("legacy SRS %q rewritten to %q", srsRaw, normalized),
				})
			}
		}
	}

	// Phase 4: discriminator resolution.
	var desc registry.ShapeDescriptor
	descOK := false
	if ltOK {
		var err error
		desc, err = reg.Resolve(locType)
		if err != nil {
			if errors.Is(err, registry.ErrUnknownType) {
				res.Errors = append(res.Errors, fieldError(KindValidation, RuleUnknownType, FieldLocationType,
					fmt.Sprintf("unknown location type %q", locType)))
			} else {
				res.Errors = append(res.Errors, wrapError(KindValidation, RuleUnknownType, "registry lookup failed", err))
			}
		} else {
			descOK = true
			p.LocationType = locType
		}
	}

	// Phase 5: shape validation against the resolved descriptor.
	if descOK && locOK {
		if err := desc.Validate(locVal); err != nil {
			res.Errors = append(res.Errors, &Error{
				Kind:    KindValidation,
				RuleID:  RuleShapeMismatch,
				Field:   FieldLocation,
				Message: fmt.Sprintf("location does not satisfy shape %s: %v", desc.Name, err),
				Cause:   err,
			})
		} else {
			p.Location = locVal
		}
	}

	// Phase 6: optional composable fields, one named rule per constraint.
	res.Errors = append(res.Errors, ValidateRulesAll(obj, optionalFieldRules())...)
	populateOptional(p, obj)

	// Phase 7: cross-field soft checks.
	if p.AttributesSchema != "" && p.Attributes == "" {
		if _, schemaPresent := obj[FieldAttributesSchema]; schemaPresent {
			if _, attrsPresent := obj[FieldAttributes]; !attrsPresent {
				res.Warnings = append(res.Warnings, Warning{
					Field:   FieldAttributesSchema,
					Message: "attributes_schema without attributes has no effect",
				})
			}
		}
	}
	for key := range obj {
		if !knownField(key) {
			res.Warnings = append(res.Warnings, Warning{
				Field:   key,
				Message: "unrecognized field (carried into canonical form unvalidated)",
			})
		}
	}
	sortWarnings(res.Warnings)

	if len(res.Errors) > 0 {
		return res
	}

	// Logical form: the decoded object with internal normalization applied.
	logical := make(map[string]any, len(obj))
	for k, v := range obj {
		logical[k] = v
	}
	logical[FieldSRS] = srs
	p.object = logical
	res.Payload = p
	return res
}

func requireString(res *ValidationResult, obj map[string]any, field string) (string, bool) {
	v, ok := obj[field]
	if !ok {
		res.Errors = append(res.Errors, fieldError(KindValidation, RuleMissingField, field, "missing required field"))
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		res.Errors = append(res.Errors, fieldError(KindValidation, RuleFieldType, field,
			fmt.Sprintf("expected a string, got %T", v)))
		return "", false
	}
	return s, true
}

func requireAny(res *ValidationResult, obj map[string]any, field string) (any, bool) {
	v, ok := obj[field]
	if !ok {
		res.Errors = append(res.Errors, fieldError(KindValidation, RuleMissingField, field, "missing required field"))
		return nil, false
	}
	return v, true
}

// populateOptional extracts the optional fields whose constraints passed
// into the typed payload. Values rejected by optionalFieldRules stay zero.
func populateOptional(p *Payload, obj map[string]any) {
	if v, ok := obj[FieldEventTimestamp]; ok {
		if ts, err := positiveUnixSeconds(v); err == nil {
			p.EventTimestamp = ts
		}
	}
	if s, ok := obj[FieldMediaData].(string); ok && s != "" {
		p.MediaData = s
	}
	if s, ok := obj[FieldMediaType].(string); ok && mediaTypeRe.MatchString(s) {
		p.MediaType = s
	}
	if s, ok := obj[FieldAttributes].(string); ok {
		p.Attributes = s
	}
	if s, ok := obj[FieldAttributesSchema].(string); ok {
		p.AttributesSchema = s
	}
	if s, ok := obj[FieldMemo].(string); ok {
		p.Memo = s
	}
	if s, ok := obj[FieldRecipient].(string); ok && s != "" && !strings.ContainsAny(s, " \t\n") {
		p.Recipient = s
	}
	if v, ok := obj[FieldProof]; ok {
		if proof, err := decodeProof(v); err == nil {
			p.Proof = proof
		}
	}
}

func decodeProof(v any) (*Proof, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fieldError(KindValidation, RuleProofPair, FieldProof,
			fmt.Sprintf("expected a proof object, got %T", v))
	}
	st, stOK := obj[FieldStampType].(string)
	stamps, spOK := obj[FieldStamps].(string)
	if !stOK || !spOK || st == "" || stamps == "" {
		return nil, fieldError(KindValidation, RuleProofPair, FieldProof,
			"proof requires both stamp_type and stamps")
	}
	for k := range obj {
		if k != FieldStampType && k != FieldStamps {
			return nil, fieldError(KindValidation, RuleProofField, FieldProof,
				fmt.Sprintf("unexpected proof member %q", k))
		}
	}
	return &Proof{StampType: st, Stamps: stamps}, nil
}

func knownField(key string) bool {
	switch key {
	case FieldVersion, FieldSRS, FieldLocationType, FieldLocation,
		FieldEventTimestamp, FieldMediaData, FieldMediaType,
		FieldAttributes, FieldAttributesSchema, FieldMemo,
		FieldRecipient, FieldProof:
		return true
	}
	return false
}

func sortWarnings(ws []Warning) {
	for i := 1; i < len(ws); i++ {
		for j := i; j > 0 && warningLess(ws[j], ws[j-1]); j-- {
			ws[j], ws[j-1] = ws[j-1], ws[j]
		}
	}
}

func warningLess(a, b Warning) bool {
	if a.Field != b.Field {
		return a.Field < b.Field
	}
	return a.Message < b.Message
}

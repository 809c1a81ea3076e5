package payload

import (
	"fmt"
	"strings"
)

// Rule is an explicit, named validation rule over a decoded payload object.
//
// ID must be stable across versions.
// Apply must be deterministic and side-effect free.
type Rule struct {
	ID    string
	Apply func(obj map[string]any) error
}

func (r Rule) apply(obj map[string]any) error {
	if r.Apply == nil {
		return newError(KindInternal, RuleInternal, "nil rule Apply")
	}
	return r.Apply(obj)
}

// ValidateRules runs rules in order, returning the first failure.
//
// Determinism note: rule order is the evaluation order; keep it stable.
// The validator relies on this to guarantee that structural failure classes
// mask semantic ones.
func ValidateRules(obj map[string]any, rules []Rule) error {
	for _, r := range rules {
		if err := r.apply(obj); err != nil {
			return err
		}
	}
	return nil
}

// ValidateRulesAll runs all rules in order, returning a (deterministically
// ordered) slice of all violations. Collect-all mode aids debugging; the
// first element still reflects the short-circuit class ordering.
func ValidateRulesAll(obj map[string]any, rules []Rule) []error {
	var out []error
	for _, r := range rules {
		if err := r.apply(obj); err != nil {
			out = append(out, err)
		}
	}
	return out
}

// optionalFieldRules is the constraint set for the optional composable
// fields, one named rule per constraint. Rules only check; extraction into
// the typed payload happens separately so Apply stays side-effect free.
func optionalFieldRules() []Rule {
	return []Rule{
		{ID: RuleTimestamp, Apply: func(obj map[string]any) error {
			v, ok := obj[FieldEventTimestamp]
			if !ok {
				return nil
			}
			if _, err := positiveUnixSeconds(v); err != nil {
				return fieldError(KindValidation, RuleTimestamp, FieldEventTimestamp, err.Error())
			}
			return nil
		}},
		{ID: RuleMediaPair, Apply: func(obj map[string]any) error {
			_, hasData := obj[FieldMediaData]
			_, hasType := obj[FieldMediaType]
			if hasData == hasType {
				return nil
			}
			missing := FieldMediaType
			if hasType {
				missing = FieldMediaData
			}
			return fieldError(KindValidation, RuleMediaPair, missing, "media_data and media_type are mutually dependent")
		}},
		{ID: RuleMediaPair, Apply: func(obj map[string]any) error {
			v, ok := obj[FieldMediaData]
			if !ok {
				return nil
			}
			if s, ok := v.(string); !ok || s == "" {
				return fieldError(KindValidation, RuleMediaPair, FieldMediaData, "media_data must be a non-empty URI or CID string")
			}
			return nil
		}},
		{ID: RuleMediaType, Apply: func(obj map[string]any) error {
			v, ok := obj[FieldMediaType]
			if !ok {
				return nil
			}
			s, ok := v.(string)
			if !ok {
				return fieldError(KindValidation, RuleMediaType, FieldMediaType, fmt.Sprintf("expected a string, got %T", v))
			}
			if !mediaTypeRe.MatchString(s) {
				return fieldError(KindValidation, RuleMediaType, FieldMediaType, fmt.Sprintf("%q is not a type/subtype MIME string", s))
			}
			return nil
		}},
		{ID: RuleAttributes, Apply: requireOptionalString(FieldAttributes, RuleAttributes)},
		{ID: RuleAttributes, Apply: requireOptionalString(FieldAttributesSchema, RuleAttributes)},
		{ID: RuleFieldType, Apply: requireOptionalString(FieldMemo, RuleFieldType)},
		{ID: RuleRecipient, Apply: func(obj map[string]any) error {
			v, ok := obj[FieldRecipient]
			if !ok {
				return nil
			}
			s, sok := v.(string)
			switch {
			case !sok:
				return fieldError(KindValidation, RuleRecipient, FieldRecipient, fmt.Sprintf("expected a string, got %T", v))
			case s == "" || strings.ContainsAny(s, " \t\n"):
				return fieldError(KindValidation, RuleRecipient, FieldRecipient, "recipient must be a non-empty address-like string")
			}
			return nil
		}},
		{ID: RuleProofPair, Apply: func(obj map[string]any) error {
			v, ok := obj[FieldProof]
			if !ok {
				return nil
			}
			_, err := decodeProof(v)
			return err
		}},
	}
}

// requireOptionalString builds a rule body checking that field, when
// present, is a string.
func requireOptionalString(field, ruleID string) func(obj map[string]any) error {
	return func(obj map[string]any) error {
		v, ok := obj[field]
		if !ok {
			return nil
		}
		if _, ok := v.(string); !ok {
			return fieldError(KindValidation, ruleID, field, fmt.Sprintf("expected a string, got %T", v))
		}
		return nil
	}
}

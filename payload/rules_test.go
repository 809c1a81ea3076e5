package payload

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestValidateRules_ShortCircuits(t *testing.T) {
	first := errors.New("first failure")
	order := []string{}
	rules := []Rule{
		{ID: "T-1", Apply: func(map[string]any) error { order = append(order, "T-1"); return nil }},
		{ID: "T-2", Apply: func(map[string]any) error { order = append(order, "T-2"); return first }},
		{ID: "T-3", Apply: func(map[string]any) error { order = append(order, "T-3"); return nil }},
	}
	if err := ValidateRules(map[string]any{}, rules); !errors.Is(err, first) {
		t.Fatalf("expected first failure, got %v", err)
	}
	if len(order) != 2 || order[0] != "T-1" || order[1] != "T-2" {
		t.Fatalf("evaluation order = %v", order)
	}
}

func TestValidateRulesAll_CollectsInOrder(t *testing.T) {
	e1 := errors.New("e1")
	e2 := errors.New("e2")
	rules := []Rule{
		{ID: "T-1", Apply: func(map[string]any) error { return e1 }},
		{ID: "T-2", Apply: func(map[string]any) error { return nil }},
		{ID: "T-3", Apply: func(map[string]any) error { return e2 }},
	}
	errs := ValidateRulesAll(map[string]any{}, rules)
	if len(errs) != 2 || !errors.Is(errs[0], e1) || !errors.Is(errs[1], e2) {
		t.Fatalf("collected = %v", errs)
	}
}

func TestValidateRules_NilApply(t *testing.T) {
	err := ValidateRules(map[string]any{}, []Rule{{ID: "T-1"}})
	if !IsKind(err, KindInternal) {
		t.Fatalf("expected internal kind, got %v", err)
	}
	if RuleID(err) != RuleInternal {
		t.Fatalf("rule = %q, want %s", RuleID(err), RuleInternal)
	}
}

func TestOptionalFieldRules(t *testing.T) {
	cases := []struct {
		name   string
		obj    map[string]any
		rules  []string
		fields []string
	}{
		{
			name: "all clean",
			obj: map[string]any{
				FieldEventTimestamp: json.Number("1700000000"),
				FieldMediaData:      "ipfs://bafy",
				FieldMediaType:      "image/jpeg",
				FieldMemo:           "delivered",
			},
		},
		{
			name:   "bad timestamp",
			obj:    map[string]any{FieldEventTimestamp: json.Number("-5")},
			rules:  []string{RuleTimestamp},
			fields: []string{FieldEventTimestamp},
		},
		{
			name:   "media type without data",
			obj:    map[string]any{FieldMediaType: "image/jpeg"},
			rules:  []string{RuleMediaPair},
			fields: []string{FieldMediaData},
		},
		{
			name:   "empty media data with type",
			obj:    map[string]any{FieldMediaData: "", FieldMediaType: "image/jpeg"},
			rules:  []string{RuleMediaPair},
			fields: []string{FieldMediaData},
		},
		{
			name:   "malformed mime",
			obj:    map[string]any{FieldMediaData: "ipfs://bafy", FieldMediaType: "not a mime"},
			rules:  []string{RuleMediaType},
			fields: []string{FieldMediaType},
		},
		{
			name:   "non-string memo and recipient with spaces",
			obj:    map[string]any{FieldMemo: json.Number("7"), FieldRecipient: "has spaces"},
			rules:  []string{RuleFieldType, RuleRecipient},
			fields: []string{FieldMemo, FieldRecipient},
		},
		{
			name:   "proof missing stamps",
			obj:    map[string]any{FieldProof: map[string]any{FieldStampType: "eas-onchain"}},
			rules:  []string{RuleProofPair},
			fields: []string{FieldProof},
		},
	}
	for _, tc := range cases {
		errs := ValidateRulesAll(tc.obj, optionalFieldRules())
		if len(errs) != len(tc.rules) {
			t.Errorf("%s: got %d violations (%v), want %d", tc.name, len(errs), errs, len(tc.rules))
			continue
		}
		for i, err := range errs {
			if RuleID(err) != tc.rules[i] {
				t.Errorf("%s: violation %d rule = %q, want %q", tc.name, i, RuleID(err), tc.rules[i])
			}
			if FieldOf(err) != tc.fields[i] {
				t.Errorf("%s: violation %d field = %q, want %q", tc.name, i, FieldOf(err), tc.fields[i])
			}
		}
	}
}

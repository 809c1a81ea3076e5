package payload

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseObject_Valid(t *testing.T) {
	raw := []byte(`{"lp_version":"1.0.0","srs":"http://example.org/crs","location_type":"wkt","location":"POINT(1 2)"}`)
	obj, err := ParseObject(raw)
	if err != nil {
		t.Fatalf("ParseObject: %v", err)
	}
	if len(obj) != 4 {
		t.Fatalf("expected 4 members, got %d", len(obj))
	}
	if obj[FieldVersion] != "1.0.0" {
		t.Fatalf("lp_version = %v", obj[FieldVersion])
	}
}

func TestParseObject_StructuralFailures(t *testing.T) {
	cases := []struct {
		name   string
		raw    string
		ruleID string
	}{
		{"invalid json", `{"a":`, RuleInvalidJSON},
		{"empty input", ``, RuleInvalidJSON},
		{"array top level", `[1,2]`, RuleNotAnObject},
		{"string top level", `"hello"`, RuleNotAnObject},
		{"number top level", `42`, RuleNotAnObject},
		{"duplicate key", `{"a":1,"a":2}`, RuleDuplicateKey},
		{"nested duplicate key", `{"a":{"b":1,"b":2}}`, RuleDuplicateKey},
		{"duplicate in array element", `{"a":[{"b":1,"b":2}]}`, RuleDuplicateKey},
		{"trailing content", `{"a":1} {"b":2}`, RuleTrailingContent},
		{"trailing garbage", `{"a":1}x`, RuleTrailingContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseObject([]byte(tc.raw))
			if err == nil {
				t.Fatalf("expected error for %q", tc.raw)
			}
			if !IsKind(err, KindParse) {
				t.Fatalf("expected Parse kind, got %v", err)
			}
			if got := RuleID(err); got != tc.ruleID {
				t.Fatalf("rule id: got %s want %s", got, tc.ruleID)
			}
		})
	}
}

func TestParseObject_RejectsInvalidUTF8(t *testing.T) {
	raw := []byte{'{', '"', 'a', 0xff, 0xfe, '"', ':', '1', '}'}
	_, err := ParseObject(raw)
	if err == nil {
		t.Fatal("expected error for invalid UTF-8")
	}
	if got := RuleID(err); got != RuleInvalidJSON {
		t.Fatalf("rule id: got %s want %s", got, RuleInvalidJSON)
	}
}

func TestParseObject_PreservesNumbers(t *testing.T) {
	obj, err := ParseObject([]byte(`{"n":10.50}`))
	if err != nil {
		t.Fatalf("ParseObject: %v", err)
	}
	n, ok := obj["n"].(json.Number)
	if !ok {
		t.Fatalf("expected json.Number, got %T", obj["n"])
	}
	if n.String() != "10.50" {
		t.Fatalf("number literal not preserved: %s", n.String())
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := wrapError(KindCrypto, RuleSignatureInvalid, "outer", cause)
	if !errors.Is(err, cause) {
		t.Fatal("wrapped cause not reachable via errors.Is")
	}
	var e *Error
	if !errors.As(err, &e) {
		t.Fatal("errors.As failed")
	}
	if e.Kind != KindCrypto || e.RuleID != RuleSignatureInvalid {
		t.Fatalf("unexpected fields: %+v", e)
	}
}

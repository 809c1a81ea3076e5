package payload

import (
	"strings"
	"testing"

	"locproto.dev/lp/compliance"
)

func validPayloadJSON() string {
	return `{
		"lp_version": "1.0.0",
		"srs": "http://www.opengis.net/def/crs/OGC/1.3/CRS84",
		"location_type": "coordinate-decimal",
		"location": [-103.771556, 44.967243]
	}`
}

func mustValidate(t *testing.T, raw string, mode compliance.Mode) *ValidationResult {
	t.Helper()
	res := Validate([]byte(raw), nil, mode)
	if !res.OK() {
		t.Fatalf("expected valid payload, got %v", res.Errors)
	}
	return res
}

func firstRuleID(t *testing.T, raw string, mode compliance.Mode) string {
	t.Helper()
	res := Validate([]byte(raw), nil, mode)
	if res.OK() {
		t.Fatalf("expected invalid payload")
	}
	return RuleID(res.Err())
}

func TestValidate_MinimalPayload(t *testing.T) {
	res := mustValidate(t, validPayloadJSON(), compliance.Permissive)
	p := res.Payload
	if p.Version != "1.0.0" {
		t.Fatalf("Version = %q", p.Version)
	}
	if p.SRS != CRS84 {
		t.Fatalf("SRS = %q", p.SRS)
	}
	if p.LocationType != "coordinate-decimal" {
		t.Fatalf("LocationType = %q", p.LocationType)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", res.Warnings)
	}
	if p.Object()[FieldSRS] != CRS84 {
		t.Fatalf("logical srs = %v", p.Object()[FieldSRS])
	}
}

func TestValidate_MissingRequiredFields(t *testing.T) {
	res := Validate([]byte(`{"memo":"x"}`), nil, compliance.Permissive)
	if res.OK() {
		t.Fatal("expected invalid")
	}
	if len(res.Errors) != 4 {
		t.Fatalf("expected 4 missing-field errors, got %d: %v", len(res.Errors), res.Errors)
	}
	for _, err := range res.Errors {
		if RuleID(err) != RuleMissingField {
			t.Fatalf("expected %s, got %s", RuleMissingField, RuleID(err))
		}
	}
}

func TestValidate_FieldTypes(t *testing.T) {
	raw := `{"lp_version":1, "srs":true, "location_type":[], "location":[0,0]}`
	res := Validate([]byte(raw), nil, compliance.Permissive)
	if res.OK() {
		t.Fatal("expected invalid")
	}
	for _, err := range res.Errors {
		if RuleID(err) != RuleFieldType {
			t.Fatalf("expected %s, got %s (%v)", RuleFieldType, RuleID(err), err)
		}
	}
}

func TestValidate_Version(t *testing.T) {
	cases := []struct {
		version string
		ok      bool
	}{
		{"1.0.0", true},
		{"0.1.0", true},
		{"12.34.56", true},
		{"1.0", false},
		{"v1.0.0", false},
		{"1.0.0-beta", false},
		{"1.0.0.0", false},
		{"", false},
	}
	for _, tc := range cases {
		raw := strings.Replace(validPayloadJSON(), "1.0.0", tc.version, 1)
		res := Validate([]byte(raw), nil, compliance.Permissive)
		if tc.ok != res.OK() {
			t.Fatalf("version %q: ok=%v want %v (%v)", tc.version, res.OK(), tc.ok, res.Errors)
		}
		if !tc.ok {
			if got := RuleID(res.Err()); got != RuleInvalidVersion {
				t.Fatalf("version %q: rule %s want %s", tc.version, got, RuleInvalidVersion)
			}
		}
	}
}

func TestValidate_LegacySRSPermissive(t *testing.T) {
	raw := strings.Replace(validPayloadJSON(), CRS84, "EPSG:4326", 1)
	res := mustValidate(t, raw, compliance.Permissive)

	want := "http://www.opengis.net/def/crs/EPSG/0/4326"
	if res.Payload.SRS != want {
		t.Fatalf("SRS = %q want %q", res.Payload.SRS, want)
	}
	if res.Payload.Object()[FieldSRS] != want {
		t.Fatalf("logical srs not rewritten: %v", res.Payload.Object()[FieldSRS])
	}
	found := false
	for _, w := range res.Warnings {
		if w.Field == FieldSRS {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a rewrite warning, got %v", res.Warnings)
	}
}

func TestValidate_LegacySRSStrict(t *testing.T) {
	raw := strings.Replace(validPayloadJSON(), CRS84, "EPSG:4326", 1)
	if got := firstRuleID(t, raw, compliance.Strict); got != RuleLegacySRS {
		t.Fatalf("rule %s want %s", got, RuleLegacySRS)
	}
}

func TestValidate_BadSRS(t *testing.T) {
	for _, srs := range []string{"", "not a uri", "ftp://example.org/crs"} {
		raw := strings.Replace(validPayloadJSON(), CRS84, srs, 1)
		if got := firstRuleID(t, raw, compliance.Permissive); got != RuleInvalidSRS {
			t.Fatalf("srs %q: rule %s want %s", srs, got, RuleInvalidSRS)
		}
	}
}

func TestValidate_UnknownLocationType(t *testing.T) {
	raw := strings.Replace(validPayloadJSON(), "coordinate-decimal", "hyperbolic-grid", 1)
	if got := firstRuleID(t, raw, compliance.Permissive); got != RuleUnknownType {
		t.Fatalf("rule %s want %s", got, RuleUnknownType)
	}
}

func TestValidate_ShapeMismatch(t *testing.T) {
	cases := []string{
		`{"lp_version":"1.0.0","srs":"http://www.opengis.net/def/crs/OGC/1.3/CRS84","location_type":"coordinate-decimal","location":"12.34,56.78"}`,
		`{"lp_version":"1.0.0","srs":"http://www.opengis.net/def/crs/OGC/1.3/CRS84","location_type":"coordinate-decimal","location":[181,0]}`,
		`{"lp_version":"1.0.0","srs":"http://www.opengis.net/def/crs/OGC/1.3/CRS84","location_type":"coordinate-decimal","location":[0,91]}`,
		`{"lp_version":"1.0.0","srs":"http://www.opengis.net/def/crs/OGC/1.3/CRS84","location_type":"coordinate-decimal","location":[1,2,3]}`,
		`{"lp_version":"1.0.0","srs":"http://www.opengis.net/def/crs/OGC/1.3/CRS84","location_type":"geojson-point","location":[-103.77,44.96]}`,
	}
	for i, raw := range cases {
		if got := firstRuleID(t, raw, compliance.Permissive); got != RuleShapeMismatch {
			t.Fatalf("case %d: rule %s want %s", i, got, RuleShapeMismatch)
		}
	}
}

func TestValidate_CollectsMultipleViolations(t *testing.T) {
	raw := `{"lp_version":"banana","srs":"EPSG:4326","location_type":"coordinate-decimal","location":[0,0]}`
	res := Validate([]byte(raw), nil, compliance.Strict)
	if res.OK() {
		t.Fatal("expected invalid")
	}
	// Both the version failure and the strict-mode SRS failure surface.
	if len(res.Errors) < 2 {
		t.Fatalf("expected at least 2 violations, got %v", res.Errors)
	}
}

func TestValidate_EventTimestamp(t *testing.T) {
	base := `{"lp_version":"1.0.0","srs":"http://www.opengis.net/def/crs/OGC/1.3/CRS84","location_type":"coordinate-decimal","location":[0,0],"event_timestamp":%s}`
	cases := []struct {
		literal string
		ok      bool
	}{
		{"1718841600", true},
		{"1", true},
		{"0", false},
		{"-5", false},
		{"1718841600.5", false},
		{`"1718841600"`, false},
	}
	for _, tc := range cases {
		raw := strings.Replace(base, "%s", tc.literal, 1)
		res := Validate([]byte(raw), nil, compliance.Permissive)
		if res.OK() != tc.ok {
			t.Fatalf("timestamp %s: ok=%v want %v (%v)", tc.literal, res.OK(), tc.ok, res.Errors)
		}
		if tc.ok && res.Payload.EventTimestamp <= 0 {
			t.Fatalf("timestamp %s not captured", tc.literal)
		}
		if !tc.ok {
			if got := RuleID(res.Err()); got != RuleTimestamp {
				t.Fatalf("timestamp %s: rule %s want %s", tc.literal, got, RuleTimestamp)
			}
		}
	}
}

func TestValidate_MediaPair(t *testing.T) {
	base := `{"lp_version":"1.0.0","srs":"http://www.opengis.net/def/crs/OGC/1.3/CRS84","location_type":"coordinate-decimal","location":[0,0]`

	res := Validate([]byte(base+`,"media_data":"bafyfoo"}`), nil, compliance.Permissive)
	if res.OK() || RuleID(res.Err()) != RuleMediaPair {
		t.Fatalf("media_data alone: %v", res.Errors)
	}

	res = Validate([]byte(base+`,"media_type":"image/jpeg"}`), nil, compliance.Permissive)
	if res.OK() || RuleID(res.Err()) != RuleMediaPair {
		t.Fatalf("media_type alone: %v", res.Errors)
	}

	res = Validate([]byte(base+`,"media_data":"bafyfoo","media_type":"not a mime"}`), nil, compliance.Permissive)
	if res.OK() || RuleID(res.Err()) != RuleMediaType {
		t.Fatalf("bad media_type: %v", res.Errors)
	}

	res = Validate([]byte(base+`,"media_data":"bafyfoo","media_type":"image/jpeg"}`), nil, compliance.Permissive)
	if !res.OK() {
		t.Fatalf("valid media pair rejected: %v", res.Errors)
	}
	if res.Payload.MediaData != "bafyfoo" || res.Payload.MediaType != "image/jpeg" {
		t.Fatalf("media fields not captured: %+v", res.Payload)
	}
}

func TestValidate_Recipient(t *testing.T) {
	base := `{"lp_version":"1.0.0","srs":"http://www.opengis.net/def/crs/OGC/1.3/CRS84","location_type":"coordinate-decimal","location":[0,0]`

	res := Validate([]byte(base+`,"recipient":"0xabc123"}`), nil, compliance.Permissive)
	if !res.OK() {
		t.Fatalf("valid recipient rejected: %v", res.Errors)
	}

	for _, bad := range []string{`""`, `"has space"`, `42`} {
		res := Validate([]byte(base+`,"recipient":`+bad+`}`), nil, compliance.Permissive)
		if res.OK() || RuleID(res.Err()) != RuleRecipient {
			t.Fatalf("recipient %s: %v", bad, res.Errors)
		}
	}
}

func TestValidate_Proof(t *testing.T) {
	base := `{"lp_version":"1.0.0","srs":"http://www.opengis.net/def/crs/OGC/1.3/CRS84","location_type":"coordinate-decimal","location":[0,0]`

	res := Validate([]byte(base+`,"proof":{"stamp_type":"eas-onchain","stamps":"0xdeadbeef"}}`), nil, compliance.Permissive)
	if !res.OK() {
		t.Fatalf("valid proof rejected: %v", res.Errors)
	}
	if res.Payload.Proof == nil || res.Payload.Proof.StampType != "eas-onchain" {
		t.Fatalf("proof not captured: %+v", res.Payload.Proof)
	}

	cases := []struct {
		name   string
		frag   string
		ruleID string
	}{
		{"missing stamps", `,"proof":{"stamp_type":"eas-onchain"}}`, RuleProofPair},
		{"missing stamp_type", `,"proof":{"stamps":"0x"}}`, RuleProofPair},
		{"empty stamp_type", `,"proof":{"stamp_type":"","stamps":"0x"}}`, RuleProofPair},
		{"not an object", `,"proof":"0x"}`, RuleProofPair},
		{"extra member", `,"proof":{"stamp_type":"t","stamps":"s","extra":1}}`, RuleProofField},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Validate([]byte(base+tc.frag), nil, compliance.Permissive)
			if res.OK() {
				t.Fatal("expected invalid")
			}
			if got := RuleID(res.Err()); got != tc.ruleID {
				t.Fatalf("rule %s want %s", got, tc.ruleID)
			}
		})
	}
}

func TestValidate_UnrecognizedFieldWarns(t *testing.T) {
	raw := `{"lp_version":"1.0.0","srs":"http://www.opengis.net/def/crs/OGC/1.3/CRS84","location_type":"coordinate-decimal","location":[0,0],"custom_tag":"x"}`
	res := mustValidate(t, raw, compliance.Permissive)
	if len(res.Warnings) != 1 || res.Warnings[0].Field != "custom_tag" {
		t.Fatalf("warnings = %v", res.Warnings)
	}
	// The unrecognized field still rides along in the logical form.
	if res.Payload.Object()["custom_tag"] != "x" {
		t.Fatal("unrecognized field dropped from logical form")
	}
}

func TestValidate_SchemaWithoutAttributesWarns(t *testing.T) {
	raw := `{"lp_version":"1.0.0","srs":"http://www.opengis.net/def/crs/OGC/1.3/CRS84","location_type":"coordinate-decimal","location":[0,0],"attributes_schema":"schema-1"}`
	res := mustValidate(t, raw, compliance.Permissive)
	if len(res.Warnings) != 1 || res.Warnings[0].Field != FieldAttributesSchema {
		t.Fatalf("warnings = %v", res.Warnings)
	}
}

func TestValidate_VersionedTypeName(t *testing.T) {
	raw := strings.Replace(validPayloadJSON(), `"coordinate-decimal"`, `"lp.coordinate-decimal.v1"`, 1)
	res := mustValidate(t, raw, compliance.Permissive)
	if res.Payload.LocationType != "lp.coordinate-decimal.v1" {
		t.Fatalf("LocationType = %q", res.Payload.LocationType)
	}
}

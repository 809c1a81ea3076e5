package pipeline

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"testing"

	"locproto.dev/lp/attrschema"
	"locproto.dev/lp/compliance"
	"locproto.dev/lp/keys"
	"locproto.dev/lp/payload"
	"locproto.dev/lp/proof"
)

const basePayload = `{
	"lp_version": "1.0.0",
	"srs": "http://www.opengis.net/def/crs/OGC/1.3/CRS84",
	"location_type": "coordinate-decimal",
	"location": [-103.771556, 44.967243]
}`

func testSigner(t *testing.T) *keys.Ed25519Signer {
	t.Helper()
	seed := bytes.Repeat([]byte{0xa1}, ed25519.SeedSize)
	s, err := keys.NewEd25519SignerFromSeed(seed)
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	return s
}

func TestProcessVerifyRoundTrip(t *testing.T) {
	p := New(Options{})
	signer := testSigner(t)

	out, err := p.Process([]byte(basePayload), signer)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(out.CanonicalBytes) == 0 || len(out.Digest) != 32 || out.CID == "" {
		t.Fatalf("incomplete result: %+v", out)
	}
	if out.SignerKey != signer.SignerKey() {
		t.Fatalf("signer key = %q", out.SignerKey)
	}

	// Same logical payload with shuffled keys and noisy formatting.
	reordered := `{"location":[-103.771556,44.967243],"location_type":"coordinate-decimal",
		"srs":"http://www.opengis.net/def/crs/OGC/1.3/CRS84","lp_version":"1.0.0"}`
	vres, err := p.Verify([]byte(reordered), out.Digest, out.Signature, out.SignerKey)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !bytes.Equal(vres.CanonicalBytes, out.CanonicalBytes) {
		t.Fatal("canonical bytes differ across formatting")
	}
	if vres.CID != out.CID {
		t.Fatalf("CID mismatch: %s vs %s", vres.CID, out.CID)
	}
}

func TestProcess_Unsigned(t *testing.T) {
	out, err := New(Options{}).Process([]byte(basePayload), nil)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out.Signature != nil || out.SignerKey != "" {
		t.Fatal("unsigned run produced signature fields")
	}
	if len(out.Digest) != 32 {
		t.Fatal("missing digest")
	}
}

func TestProcess_InvalidPayload(t *testing.T) {
	out, err := New(Options{}).Process([]byte(`{"lp_version":"1.0.0"}`), nil)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !payload.IsKind(err, payload.KindValidation) {
		t.Fatalf("kind = %v", err)
	}
	if out.CanonicalBytes != nil {
		t.Fatal("rejected payload must not canonicalize")
	}
}

func TestVerify_HashMismatch(t *testing.T) {
	p := New(Options{})
	out, err := p.Process([]byte(basePayload), nil)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	bad := append([]byte(nil), out.Digest...)
	bad[0] ^= 0xff
	_, err = p.Verify([]byte(basePayload), bad, nil, "")
	if payload.RuleID(err) != payload.RuleHashMismatch {
		t.Fatalf("expected %s, got %v", payload.RuleHashMismatch, err)
	}
	if !payload.IsKind(err, payload.KindCrypto) {
		t.Fatalf("kind = %v", err)
	}
}

func TestVerify_SignatureInvalid(t *testing.T) {
	p := New(Options{})
	signer := testSigner(t)
	out, err := p.Process([]byte(basePayload), signer)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	other, err := keys.NewEd25519SignerFromSeed(bytes.Repeat([]byte{0xb2}, ed25519.SeedSize))
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	_, err = p.Verify([]byte(basePayload), out.Digest, out.Signature, other.SignerKey())
	if payload.RuleID(err) != payload.RuleSignatureInvalid {
		t.Fatalf("expected %s, got %v", payload.RuleSignatureInvalid, err)
	}
}

func TestVerify_UnsupportedAlgorithm(t *testing.T) {
	p := New(Options{})
	out, err := p.Process([]byte(basePayload), nil)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	_, err = p.Verify([]byte(basePayload), out.Digest, []byte{1, 2, 3}, "rsa:AAAA")
	if payload.RuleID(err) != payload.RuleUnsupportedAlg {
		t.Fatalf("expected %s, got %v", payload.RuleUnsupportedAlg, err)
	}
}

func proofPayload(stampType string) []byte {
	return []byte(fmt.Sprintf(`{
		"lp_version": "1.0.0",
		"srs": "http://www.opengis.net/def/crs/OGC/1.3/CRS84",
		"location_type": "coordinate-decimal",
		"location": [10, 20],
		"proof": {"stamp_type": %q, "stamps": "0xdeadbeef"}
	}`, stampType))
}

func TestVerify_ProofDispatch(t *testing.T) {
	reg := proof.NewRegistry()
	var seen []byte
	if err := reg.Register("eas-onchain", func(stampType, stamps string, canonicalBytes []byte) error {
		if stamps != "0xdeadbeef" {
			return fmt.Errorf("unexpected stamps %q", stamps)
		}
		seen = canonicalBytes
		return nil
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := reg.Register("always-fails", func(string, string, []byte) error {
		return errors.New("stamp does not check out")
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	p := New(Options{Proofs: reg})

	out, err := p.Verify(proofPayload("eas-onchain"), nil, nil, "")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !bytes.Equal(seen, out.CanonicalBytes) {
		t.Fatal("verifier did not receive the canonical bytes")
	}

	_, err = p.Verify(proofPayload("always-fails"), nil, nil, "")
	if payload.RuleID(err) != payload.RuleProofInvalid {
		t.Fatalf("expected %s, got %v", payload.RuleProofInvalid, err)
	}
	if !payload.IsKind(err, payload.KindCrypto) {
		t.Fatalf("kind = %v", err)
	}
}

func TestVerify_UnknownStampType(t *testing.T) {
	// Permissive: proof skipped with a warning.
	out, err := New(Options{}).Verify(proofPayload("never-registered"), nil, nil, "")
	if err != nil {
		t.Fatalf("permissive Verify: %v", err)
	}
	var warned bool
	for _, w := range out.Warnings {
		if w.Field == payload.FieldProof {
			warned = true
		}
	}
	if !warned {
		t.Fatal("expected proof warning in permissive mode")
	}

	// Strict: hard error.
	_, err = New(Options{Mode: compliance.Strict}).Verify(proofPayload("never-registered"), nil, nil, "")
	if payload.RuleID(err) != payload.RuleProofField {
		t.Fatalf("expected %s, got %v", payload.RuleProofField, err)
	}
}

func attributesPayload(schemaRef string) []byte {
	return []byte(fmt.Sprintf(`{
		"lp_version": "1.0.0",
		"srs": "http://www.opengis.net/def/crs/OGC/1.3/CRS84",
		"location_type": "coordinate-decimal",
		"location": [10, 20],
		"attributes": "{\"name\": \"site-a\"}",
		"attributes_schema": %q
	}`, schemaRef))
}

func TestProcess_AttributesSchema(t *testing.T) {
	const okSchema = "https://example.com/schemas/site.json"
	const strictSchema = "https://example.com/schemas/strict.json"
	v := attrschema.NewValidator(attrschema.StaticResolver{
		okSchema:     []byte(`{"type": "object", "required": ["name"]}`),
		strictSchema: []byte(`{"type": "object", "required": ["name", "operator"]}`),
	})
	p := New(Options{Schemas: v})

	if _, err := p.Process(attributesPayload(okSchema), nil); err != nil {
		t.Fatalf("conforming attributes: %v", err)
	}

	_, err := p.Process(attributesPayload(strictSchema), nil)
	if payload.RuleID(err) != payload.RuleAttributes {
		t.Fatalf("expected %s, got %v", payload.RuleAttributes, err)
	}
}

func TestProcess_SchemaUnavailable(t *testing.T) {
	v := attrschema.NewValidator(attrschema.StaticResolver{})
	const ref = "https://example.com/schemas/missing.json"

	// Permissive mode degrades to a warning and keeps processing.
	out, err := New(Options{Schemas: v}).Process(attributesPayload(ref), nil)
	if err != nil {
		t.Fatalf("permissive Process: %v", err)
	}
	var warned bool
	for _, w := range out.Warnings {
		if w.Field == payload.FieldAttributesSchema && strings.Contains(w.Message, "unavailable") {
			warned = true
		}
	}
	if !warned {
		t.Fatalf("expected unavailable-schema warning, got %+v", out.Warnings)
	}
	if len(out.Digest) != 32 {
		t.Fatal("processing did not complete")
	}

	_, err = New(Options{Schemas: v, Mode: compliance.Strict}).Process(attributesPayload(ref), nil)
	if payload.RuleID(err) != payload.RuleAttributes {
		t.Fatalf("strict mode: expected %s, got %v", payload.RuleAttributes, err)
	}
}

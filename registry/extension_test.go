package registry

import (
	"os"
	"path/filepath"
	"testing"
)

const extensionYAML = `
extensions:
  - namespace: acme
    type: plus-code
    major_version: 1
    aliases: [plus-code]
    shape:
      kind: text
      pattern: "^[23456789CFGHJMPQRVWX]{4,8}\\+[23456789CFGHJMPQRVWX]{2,3}$"
  - namespace: acme
    type: utm
    major_version: 1
    shape:
      kind: number-array
      min_items: 2
      max_items: 3
  - namespace: acme
    type: zone
    major_version: 2
    shape:
      kind: object
      required: [zone_id, level]
`

func TestLoadExtensions(t *testing.T) {
	r := New()
	if err := r.LoadExtensions([]byte(extensionYAML)); err != nil {
		t.Fatalf("LoadExtensions: %v", err)
	}

	d, err := r.Resolve("plus-code")
	if err != nil {
		t.Fatalf("Resolve alias: %v", err)
	}
	if d.Name != "acme.plus-code.v1" {
		t.Fatalf("alias resolved to %q", d.Name)
	}
	if err := d.Validate("8FVC9G8F+6X"); err != nil {
		t.Fatalf("valid plus code: %v", err)
	}
	if err := d.Validate("not-a-code"); err == nil {
		t.Fatal("expected pattern mismatch")
	}
	if err := d.Validate(5); err == nil {
		t.Fatal("expected error for non-text value")
	}

	d, err = r.Resolve("acme.utm.v1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if d.Kind != KindNumberArray {
		t.Fatalf("kind = %v", d.Kind)
	}
	if err := d.Validate([]any{float64(500000), float64(4649776)}); err != nil {
		t.Fatalf("valid array: %v", err)
	}
	if err := d.Validate([]any{float64(1)}); err == nil {
		t.Fatal("expected min_items violation")
	}
	if err := d.Validate([]any{float64(1), float64(2), float64(3), float64(4)}); err == nil {
		t.Fatal("expected max_items violation")
	}

	d, err = r.Resolve("acme.zone.v2")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if err := d.Validate(map[string]any{"zone_id": "a", "level": int64(3)}); err != nil {
		t.Fatalf("valid object: %v", err)
	}
	if err := d.Validate(map[string]any{"zone_id": "a"}); err == nil {
		t.Fatal("expected missing-member error")
	}
}

func TestLoadExtensions_Failures(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"invalid yaml", ":\n -"},
		{"unknown kind", "extensions:\n  - namespace: acme\n    type: x\n    major_version: 1\n    shape:\n      kind: blob\n"},
		{"bad pattern", "extensions:\n  - namespace: acme\n    type: x\n    major_version: 1\n    shape:\n      kind: text\n      pattern: \"[\"\n"},
		{"missing version", "extensions:\n  - namespace: acme\n    type: x\n    shape:\n      kind: text\n"},
		{"collides with builtin alias", "extensions:\n  - namespace: acme\n    type: x\n    major_version: 1\n    aliases: [geohash]\n    shape:\n      kind: text\n"},
	}
	for _, tc := range cases {
		r := New()
		registerBuiltins(r)
		if err := r.LoadExtensions([]byte(tc.yaml)); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestLoadExtensionsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extensions.yaml")
	if err := os.WriteFile(path, []byte(extensionYAML), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	r := New()
	if err := r.LoadExtensionsFile(path); err != nil {
		t.Fatalf("LoadExtensionsFile: %v", err)
	}
	if _, err := r.Resolve("acme.plus-code.v1"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if err := r.LoadExtensionsFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

package proof

import (
	"errors"
	"testing"
)

func TestRegistryDispatch(t *testing.T) {
	r := NewRegistry()
	called := 0
	err := r.Register("eas-onchain", func(stampType, stamps string, canonicalBytes []byte) error {
		called++
		if stampType != "eas-onchain" || stamps != "0xabc" || string(canonicalBytes) != "bytes" {
			t.Errorf("verifier args: %q %q %q", stampType, stamps, canonicalBytes)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if !r.Known("eas-onchain") {
		t.Fatal("Known = false for registered type")
	}
	if r.Known("other") {
		t.Fatal("Known = true for unregistered type")
	}

	if err := r.Verify("eas-onchain", "0xabc", []byte("bytes")); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if called != 1 {
		t.Fatalf("verifier called %d times", called)
	}

	if err := r.Verify("other", "x", nil); !errors.Is(err, ErrUnknownStampType) {
		t.Fatalf("expected ErrUnknownStampType, got %v", err)
	}
}

func TestRegistryVerifierErrorPropagates(t *testing.T) {
	r := NewRegistry()
	sentinel := errors.New("stamp rejected")
	if err := r.Register("t", func(string, string, []byte) error { return sentinel }); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Verify("t", "", nil); !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}
}

func TestRegisterRejections(t *testing.T) {
	r := NewRegistry()
	ok := func(string, string, []byte) error { return nil }
	if err := r.Register("", ok); err == nil {
		t.Fatal("expected error for empty stamp type")
	}
	if err := r.Register("t", nil); err == nil {
		t.Fatal("expected error for nil verifier")
	}
	if err := r.Register("t", ok); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register("t", ok); err == nil {
		t.Fatal("expected error for duplicate registration")
	}
}

package cidutil

import (
	"bytes"
	"crypto/sha256"
	"strings"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

func TestCIDv1RawSHA256(t *testing.T) {
	data := []byte("canonical record bytes")

	s := CIDv1RawSHA256(data)
	if s == "" {
		t.Fatal("empty CID string")
	}
	// CIDv1 raw+sha2-256 in the default base32 multibase.
	if !strings.HasPrefix(s, "bafkrei") {
		t.Fatalf("unexpected CID prefix: %s", s)
	}
	if CIDv1RawSHA256(data) != s {
		t.Fatal("CID derivation not deterministic")
	}
	if CIDv1RawSHA256([]byte("other bytes")) == s {
		t.Fatal("different bytes produced the same CID")
	}

	id, err := CIDv1RawSHA256CID(data)
	if err != nil {
		t.Fatalf("CIDv1RawSHA256CID: %v", err)
	}
	if id.String() != s {
		t.Fatalf("string and cid forms disagree: %s vs %s", id.String(), s)
	}
	if id.Version() != 1 || id.Type() != cid.Raw {
		t.Fatalf("version=%d codec=%d", id.Version(), id.Type())
	}

	// The multihash digest is the plain sha256 of the bytes.
	dec, err := multihash.Decode(id.Hash())
	if err != nil {
		t.Fatalf("multihash.Decode: %v", err)
	}
	want := sha256.Sum256(data)
	if dec.Code != multihash.SHA2_256 || !bytes.Equal(dec.Digest, want[:]) {
		t.Fatal("multihash digest is not sha256 of the input")
	}

	parsed, err := cid.Decode(s)
	if err != nil {
		t.Fatalf("cid.Decode: %v", err)
	}
	if !parsed.Equals(id) {
		t.Fatal("string form does not round-trip")
	}
}

// Package canonical implements the deterministic encoding that hashing and
// signing operate on.
//
// Canonicalization is a pure function of the logical payload: two payloads
// that differ only in key order or formatting canonicalize to identical
// bytes. The binary profile is RFC 8949 core deterministic CBOR (definite
// lengths, minimal-width integers, shortest-form floats, map keys sorted by
// the bytewise lexicographic order of their encodings). Cross-implementation
// hash agreement requires all parties to use this same profile; it matches
// the reference encodings produced by canonical CBOR encoders in other
// languages.
package canonical

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// encMode pins the canonical encoding profile. Do not rely on library
// defaults here: the exact options are the cross-language contract.
var encMode = sync.OnceValue(func() cbor.EncMode {
	em, err := cbor.EncOptions{
		Sort:          cbor.SortCoreDeterministic,
		ShortestFloat: cbor.ShortestFloat16,
		NaNConvert:    cbor.NaNConvert7e00,
		InfConvert:    cbor.InfConvertFloat16,
		IndefLength:   cbor.IndefLengthForbidden,
		TimeTag:       cbor.EncTagNone,
	}.EncMode()
	if err != nil {
		panic(err)
	}
	return em
})

var decMode = sync.OnceValue(func() cbor.DecMode {
	dm, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
		IntDec:         cbor.IntDecConvertSigned,
		IndefLength:    cbor.IndefLengthForbidden,
		DupMapKey:      cbor.DupMapKeyEnforcedAPF,
	}.DecMode()
	if err != nil {
		panic(err)
	}
	return dm
})

// Canonicalize produces the unique canonical byte sequence for a logical
// payload object. The input is first normalized (numeric representation
// unified, nested values walked recursively) and then encoded under the
// pinned deterministic CBOR profile.
//
// For any two structurally equal inputs the output is byte-identical.
func Canonicalize(obj map[string]any) ([]byte, error) {
	logical, err := Normalize(obj)
	if err != nil {
		return nil, err
	}
	return encMode().Marshal(logical)
}

// Decode parses canonical bytes back into a logical value (maps keyed by
// string, minimal integer/float scalars). Re-canonicalizing the result
// yields the original bytes.
func Decode(data []byte) (any, error) {
	var v any
	if err := decMode().Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("canonical: decode: %w", err)
	}
	return v, nil
}

// Normalize walks a decoded value and unifies scalar representations:
// numbers carrying an integral value become minimal-width integers, all
// other numbers become float64, strings pass through unmodified (the
// canonicalizer never trims). Map keys must be strings.
//
// Normalize is idempotent: applying it to its own output is the identity.
func Normalize(v any) (any, error) {
	switch t := v.(type) {
	case nil, bool, string, int64, uint64:
		return t, nil
	case json.Number:
		return normalizeNumber(t)
	case int:
		return int64(t), nil
	case float64:
		return normalizeFloat(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			n, err := Normalize(e)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			n, err := Normalize(e)
			if err != nil {
				return nil, err
			}
			out[k] = n
		}
		return out, nil
	default:
		return nil, fmt.Errorf("canonical: unsupported value type %T", v)
	}
}

// maxSafeInteger is the largest float64 magnitude at which every integer is
// exactly representable; integral floats beyond it stay floats.
const maxSafeInteger = 1 << 53

func normalizeNumber(n json.Number) (any, error) {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		var u uint64
		if _, err := fmt.Sscanf(s, "%d", &u); err == nil {
			return u, nil
		}
		return nil, fmt.Errorf("canonical: integer out of range: %s", s)
	}
	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("canonical: invalid number %s: %w", s, err)
	}
	return normalizeFloat(f)
}

func normalizeFloat(f float64) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("canonical: non-finite number")
	}
	if f == math.Trunc(f) && math.Abs(f) <= maxSafeInteger {
		return int64(f), nil
	}
	return f, nil
}

// SortedKeys returns a map's keys in byte-wise lexicographic order (not
// locale-aware, not case-insensitive). Exposed for renderers that need the
// canonical traversal order outside the binary encoding.
func SortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package canonical

import (
	"encoding/json"
	"testing"
)

func TestJCS(t *testing.T) {
	got, err := JCS(map[string]any{
		"b":   json.Number("0.5"),
		"a":   json.Number("25.0"),
		"tag": "x",
		"arr": []any{json.Number("1"), "two", nil, true},
	})
	if err != nil {
		t.Fatalf("JCS: %v", err)
	}
	const want = `{"a":25,"arr":[1,"two",null,true],"b":0.5,"tag":"x"}`
	if string(got) != want {
		t.Fatalf("JCS = %s, want %s", got, want)
	}
}

func TestJCS_MatchesCanonicalKeyOrder(t *testing.T) {
	obj := map[string]any{"z": int64(1), "a": int64(2), "m": int64(3)}
	got, err := JCS(obj)
	if err != nil {
		t.Fatalf("JCS: %v", err)
	}
	if string(got) != `{"a":2,"m":3,"z":1}` {
		t.Fatalf("JCS = %s", got)
	}
}

func TestJCS_RejectsNonFinite(t *testing.T) {
	if _, err := JCS(map[string]any{"v": json.Number("NaN")}); err == nil {
		t.Fatal("expected error")
	}
}

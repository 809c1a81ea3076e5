package registry

import (
	"encoding/json"
	"testing"
)

func validateWith(t *testing.T, name string, value any) error {
	t.Helper()
	d, err := Default().Resolve(name)
	if err != nil {
		t.Fatalf("Resolve(%q): %v", name, err)
	}
	return d.Validate(value)
}

func TestCoordinateDecimal(t *testing.T) {
	cases := []struct {
		name  string
		value any
		ok    bool
	}{
		{"lon-lat pair", []any{float64(-103.771556), float64(44.967243)}, true},
		{"json.Number pair", []any{json.Number("-103.771556"), json.Number("44.967243")}, true},
		{"integer pair", []any{int64(10), int64(20)}, true},
		{"lon out of range", []any{float64(181), float64(0)}, false},
		{"lat out of range", []any{float64(0), float64(-90.5)}, false},
		{"one element", []any{float64(0)}, false},
		{"three elements", []any{float64(0), float64(0), float64(0)}, false},
		{"not an array", "10,20", false},
		{"non-numeric element", []any{"10", float64(20)}, false},
	}
	for _, tc := range cases {
		err := validateWith(t, TypeCoordinateDecimal, tc.value)
		if tc.ok && err != nil {
			t.Errorf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestGeoJSONPoint(t *testing.T) {
	good := map[string]any{"type": "Point", "coordinates": []any{float64(11.5), float64(48.1)}}
	if err := validateWith(t, TypeGeoJSONPoint, good); err != nil {
		t.Fatalf("valid point: %v", err)
	}
	with3D := map[string]any{"type": "Point", "coordinates": []any{float64(1), float64(2), float64(300)}}
	if err := validateWith(t, TypeGeoJSONPoint, with3D); err != nil {
		t.Fatalf("3D position: %v", err)
	}

	bad := []struct {
		name  string
		value any
	}{
		{"bare array", []any{float64(11.5), float64(48.1)}},
		{"wrong type member", map[string]any{"type": "LineString", "coordinates": []any{float64(1), float64(2)}}},
		{"missing type", map[string]any{"coordinates": []any{float64(1), float64(2)}}},
		{"missing coordinates", map[string]any{"type": "Point"}},
		{"single-element position", map[string]any{"type": "Point", "coordinates": []any{float64(1)}}},
	}
	for _, tc := range bad {
		if err := validateWith(t, TypeGeoJSONPoint, tc.value); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestGeoJSONLineString(t *testing.T) {
	good := map[string]any{"type": "LineString", "coordinates": []any{
		[]any{float64(0), float64(0)},
		[]any{float64(1), float64(1)},
	}}
	if err := validateWith(t, TypeGeoJSONLineString, good); err != nil {
		t.Fatalf("valid linestring: %v", err)
	}
	short := map[string]any{"type": "LineString", "coordinates": []any{
		[]any{float64(0), float64(0)},
	}}
	if err := validateWith(t, TypeGeoJSONLineString, short); err == nil {
		t.Fatal("expected error for single-position linestring")
	}
}

func TestGeoJSONPolygon(t *testing.T) {
	ring := func(close bool) []any {
		r := []any{
			[]any{float64(0), float64(0)},
			[]any{float64(1), float64(0)},
			[]any{float64(1), float64(1)},
		}
		if close {
			return append(r, []any{float64(0), float64(0)})
		}
		return append(r, []any{float64(2), float64(2)})
	}
	good := map[string]any{"type": "Polygon", "coordinates": []any{ring(true)}}
	if err := validateWith(t, TypeGeoJSONPolygon, good); err != nil {
		t.Fatalf("valid polygon: %v", err)
	}
	open := map[string]any{"type": "Polygon", "coordinates": []any{ring(false)}}
	if err := validateWith(t, TypeGeoJSONPolygon, open); err == nil {
		t.Fatal("expected error for unclosed ring")
	}
	tiny := map[string]any{"type": "Polygon", "coordinates": []any{[]any{
		[]any{float64(0), float64(0)},
		[]any{float64(1), float64(1)},
		[]any{float64(0), float64(0)},
	}}}
	if err := validateWith(t, TypeGeoJSONPolygon, tiny); err == nil {
		t.Fatal("expected error for 3-position ring")
	}
	empty := map[string]any{"type": "Polygon", "coordinates": []any{}}
	if err := validateWith(t, TypeGeoJSONPolygon, empty); err == nil {
		t.Fatal("expected error for zero rings")
	}
}

func TestH3(t *testing.T) {
	cases := []struct {
		value any
		ok    bool
	}{
		{"8928308280fffff", true},
		{"85283473fffffff", true},
		{"7928308280fffff", false},  // mode nibble out of range
		{"8928308280ffff", false},   // too short
		{"8928308280fffff0", false}, // too long
		{"8928308280FFFFF", false},  // uppercase
		{42, false},
	}
	for _, tc := range cases {
		err := validateWith(t, TypeH3, tc.value)
		if tc.ok != (err == nil) {
			t.Errorf("%v: ok=%v, err=%v", tc.value, tc.ok, err)
		}
	}
}

func TestGeohash(t *testing.T) {
	cases := []struct {
		value any
		ok    bool
	}{
		{"u4pruydqqvj", true},
		{"9", true},
		{"u4pruydqqvj8x", false}, // 13 chars
		{"u4pr a", false},
		{"u4prA", false}, // uppercase
		{"aian", false},  // excluded letters
		{"", false},
	}
	for _, tc := range cases {
		err := validateWith(t, TypeGeohash, tc.value)
		if tc.ok != (err == nil) {
			t.Errorf("%q: ok=%v, err=%v", tc.value, tc.ok, err)
		}
	}
}

func TestWKT(t *testing.T) {
	cases := []struct {
		value any
		ok    bool
	}{
		{"POINT (30 10)", true},
		{"  linestring (30 10, 10 30)", true},
		{"GEOMETRYCOLLECTION (POINT (4 6))", true},
		{"CIRCLE (1 2, 3)", false},
		{"", false},
		{10, false},
	}
	for _, tc := range cases {
		err := validateWith(t, TypeWKT, tc.value)
		if tc.ok != (err == nil) {
			t.Errorf("%q: ok=%v, err=%v", tc.value, tc.ok, err)
		}
	}
}

func TestOpaqueText(t *testing.T) {
	for _, name := range []string{TypeAddress, TypePlaceName} {
		if err := validateWith(t, name, "1600 Pennsylvania Ave"); err != nil {
			t.Errorf("%s: unexpected error %v", name, err)
		}
		if err := validateWith(t, name, ""); err == nil {
			t.Errorf("%s: expected error for empty text", name)
		}
		if err := validateWith(t, name, 12); err == nil {
			t.Errorf("%s: expected error for non-text value", name)
		}
	}
}

func TestCoordinateScaled(t *testing.T) {
	cases := []struct {
		name  string
		value any
		ok    bool
	}{
		{"integers", map[string]any{"x": int64(-1037715), "y": int64(449672), "scale": int64(10000)}, true},
		{"integral floats", map[string]any{"x": float64(10), "y": float64(20), "scale": float64(100)}, true},
		{"fractional x", map[string]any{"x": float64(10.5), "y": float64(20), "scale": float64(100)}, false},
		{"zero scale", map[string]any{"x": float64(1), "y": float64(2), "scale": float64(0)}, false},
		{"negative scale", map[string]any{"x": float64(1), "y": float64(2), "scale": float64(-10)}, false},
		{"missing member", map[string]any{"x": float64(1), "scale": float64(10)}, false},
		{"not an object", []any{float64(1), float64(2)}, false},
	}
	for _, tc := range cases {
		err := validateWith(t, TypeCoordinateScaled, tc.value)
		if tc.ok != (err == nil) {
			t.Errorf("%s: ok=%v, err=%v", tc.name, tc.ok, err)
		}
	}
}

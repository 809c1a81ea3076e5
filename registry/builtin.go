package registry

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
)

// Builtin location types ship under the "lp" namespace at major version 1.
// Each is also registered under its legacy unversioned alias.
const (
	TypeCoordinateDecimal = "lp.coordinate-decimal.v1"
	TypeGeoJSONPoint      = "lp.geojson-point.v1"
	TypeGeoJSONLineString = "lp.geojson-linestring.v1"
	TypeGeoJSONPolygon    = "lp.geojson-polygon.v1"
	TypeH3                = "lp.h3.v1"
	TypeGeohash           = "lp.geohash.v1"
	TypeWKT               = "lp.wkt.v1"
	TypeAddress           = "lp.address.v1"
	TypePlaceName         = "lp.place-name.v1"
	TypeCoordinateScaled  = "lp.coordinate-scaled.v1"
)

func registerBuiltins(r *Registry) {
	must := func(d ShapeDescriptor, aliases ...string) {
		if err := r.Register(d, aliases...); err != nil {
			panic(err)
		}
	}

	must(ShapeDescriptor{Name: TypeCoordinateDecimal, Kind: KindNumberArray, Validate: validateCoordinateDecimal},
		"coordinate-decimal", "coordinate-decimal+lon-lat")
	must(ShapeDescriptor{Name: TypeGeoJSONPoint, Kind: KindObject, Validate: geojsonValidator("Point")},
		"geojson-point")
	must(ShapeDescriptor{Name: TypeGeoJSONLineString, Kind: KindObject, Validate: geojsonValidator("LineString")},
		"geojson-linestring")
	must(ShapeDescriptor{Name: TypeGeoJSONPolygon, Kind: KindObject, Validate: geojsonValidator("Polygon")},
		"geojson-polygon")
	must(ShapeDescriptor{Name: TypeH3, Kind: KindText, Validate: validateH3}, "h3")
	must(ShapeDescriptor{Name: TypeGeohash, Kind: KindText, Validate: validateGeohash}, "geohash")
	must(ShapeDescriptor{Name: TypeWKT, Kind: KindText, Validate: validateWKT}, "wkt")
	must(ShapeDescriptor{Name: TypeAddress, Kind: KindText, Validate: validateOpaqueText}, "address")
	must(ShapeDescriptor{Name: TypePlaceName, Kind: KindText, Validate: validateOpaqueText}, "place-name")
	must(ShapeDescriptor{Name: TypeCoordinateScaled, Kind: KindObject, Validate: validateCoordinateScaled},
		"coordinate-scaled")
}

// asFloat reports the numeric value of a decoded scalar. It accepts the
// representations produced by the strict JSON parser (json.Number) and by
// canonical decoding (int64, uint64, float64).
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

func finiteFloat(v any) (float64, error) {
	f, ok := asFloat(v)
	if !ok {
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("number must be finite")
	}
	return f, nil
}

// validateCoordinateDecimal checks an ordered [longitude, latitude] pair.
func validateCoordinateDecimal(value any) error {
	arr, ok := value.([]any)
	if !ok {
		return fmt.Errorf("expected a 2-element coordinate array, got %T", value)
	}
	if len(arr) != 2 {
		return fmt.Errorf("expected exactly 2 coordinates, got %d", len(arr))
	}
	lon, err := finiteFloat(arr[0])
	if err != nil {
		return fmt.Errorf("longitude: %w", err)
	}
	lat, err := finiteFloat(arr[1])
	if err != nil {
		return fmt.Errorf("latitude: %w", err)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", lon)
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", lat)
	}
	return nil
}

// geojsonValidator returns a validator for one RFC 7946 geometry type.
// The value must be a geometry object whose "type" member is exactly want;
// a bare coordinate array is a shape mismatch, never coerced.
func geojsonValidator(want string) func(any) error {
	return func(value any) error {
		obj, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("expected a GeoJSON %s geometry object, got %T", want, value)
		}
		typ, ok := obj["type"].(string)
		if !ok {
			return fmt.Errorf(`geometry object missing "type" member`)
		}
		if typ != want {
			return fmt.Errorf("geometry type %q does not match location_type (want %q)", typ, want)
		}
		coords, ok := obj["coordinates"]
		if !ok {
			return fmt.Errorf(`geometry object missing "coordinates" member`)
		}
		switch want {
		case "Point":
			return validatePosition(coords)
		case "LineString":
			return validateLineString(coords)
		case "Polygon":
			return validatePolygonRings(coords)
		default:
			return fmt.Errorf("unsupported geometry type %q", want)
		}
	}
}

// validatePosition checks an RFC 7946 position: 2 or 3 finite numbers.
func validatePosition(v any) error {
	pos, ok := v.([]any)
	if !ok {
		return fmt.Errorf("position must be an array, got %T", v)
	}
	if len(pos) != 2 && len(pos) != 3 {
		return fmt.Errorf("position must have 2 or 3 elements, got %d", len(pos))
	}
	for i, c := range pos {
		if _, err := finiteFloat(c); err != nil {
			return fmt.Errorf("position[%d]: %w", i, err)
		}
	}
	return nil
}

func validateLineString(v any) error {
	line, ok := v.([]any)
	if !ok {
		return fmt.Errorf("LineString coordinates must be an array of positions")
	}
	if len(line) < 2 {
		return fmt.Errorf("LineString requires at least 2 positions, got %d", len(line))
	}
	for i, p := range line {
		if err := validatePosition(p); err != nil {
			return fmt.Errorf("position %d: %w", i, err)
		}
	}
	return nil
}

func validatePolygonRings(v any) error {
	rings, ok := v.([]any)
	if !ok {
		return fmt.Errorf("Polygon coordinates must be an array of linear rings")
	}
	if len(rings) == 0 {
		return fmt.Errorf("Polygon requires at least one linear ring")
	}
	for i, rv := range rings {
		ring, ok := rv.([]any)
		if !ok {
			return fmt.Errorf("ring %d must be an array of positions", i)
		}
		if len(ring) < 4 {
			return fmt.Errorf("ring %d requires at least 4 positions, got %d", i, len(ring))
		}
		for j, p := range ring {
			if err := validatePosition(p); err != nil {
				return fmt.Errorf("ring %d position %d: %w", i, j, err)
			}
		}
		if !positionsEqual(ring[0], ring[len(ring)-1]) {
			return fmt.Errorf("ring %d is not closed (first and last positions differ)", i)
		}
	}
	return nil
}

func positionsEqual(a, b any) bool {
	pa, aok := a.([]any)
	pb, bok := b.([]any)
	if !aok || !bok || len(pa) != len(pb) {
		return false
	}
	for i := range pa {
		fa, aok := asFloat(pa[i])
		fb, bok := asFloat(pb[i])
		if !aok || !bok || fa != fb {
			return false
		}
	}
	return true
}

// H3 cell indexes in their canonical 15-hex-digit string form; the leading
// digit carries the index mode and must fall in 8..b for cell indexes.
var h3Re = regexp.MustCompile(`^[89ab][0-9a-f]{14}$`)

func validateH3(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected an H3 cell index string, got %T", value)
	}
	if !h3Re.MatchString(s) {
		return fmt.Errorf("%q is not a valid H3 cell index", s)
	}
	return nil
}

// Geohash base32 alphabet per the classic encoding (no a, i, l, o).
var geohashRe = regexp.MustCompile(`^[0123456789bcdefghjkmnpqrstuvwxyz]{1,12}$`)

func validateGeohash(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected a geohash string, got %T", value)
	}
	if !geohashRe.MatchString(s) {
		return fmt.Errorf("%q is not a valid geohash", s)
	}
	return nil
}

var wktKeywords = []string{
	"POINT", "LINESTRING", "POLYGON",
	"MULTIPOINT", "MULTILINESTRING", "MULTIPOLYGON",
	"GEOMETRYCOLLECTION",
}

func validateWKT(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected a WKT string, got %T", value)
	}
	upper := strings.ToUpper(strings.TrimSpace(s))
	for _, kw := range wktKeywords {
		if strings.HasPrefix(upper, kw) {
			return nil
		}
	}
	return fmt.Errorf("text does not begin with a WKT geometry keyword")
}

func validateOpaqueText(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected a text value, got %T", value)
	}
	if s == "" {
		return fmt.Errorf("text must be non-empty")
	}
	return nil
}

// validateCoordinateScaled checks the {x, y, scale} scaled-integer form.
func validateCoordinateScaled(value any) error {
	obj, ok := value.(map[string]any)
	if !ok {
		return fmt.Errorf("expected a {x, y, scale} object, got %T", value)
	}
	for _, k := range []string{"x", "y", "scale"} {
		v, ok := obj[k]
		if !ok {
			return fmt.Errorf("missing %q member", k)
		}
		f, err := finiteFloat(v)
		if err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
		if f != math.Trunc(f) {
			return fmt.Errorf("%s must be an integer, got %v", k, f)
		}
		if k == "scale" && f <= 0 {
			return fmt.Errorf("scale must be > 0, got %v", f)
		}
	}
	for k := range obj {
		if k != "x" && k != "y" && k != "scale" {
			return fmt.Errorf("unexpected member %q", k)
		}
	}
	return nil
}

package payload

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// CRS84 is the canonical SRS URI for GeoJSON-aligned longitude/latitude
// coordinates and the default for payloads produced by this module.
const CRS84 = "http://www.opengis.net/def/crs/OGC/1.3/CRS84"

var (
	epsgShorthandRe = regexp.MustCompile(`^EPSG:(\d+)$`)
	epsgURNRe       = regexp.MustCompile(`^urn:ogc:def:crs:EPSG::?(\d+)$`)
)

// NormalizeSRS resolves an srs value to its canonical URI form.
//
// The current protocol revision requires a resolvable URI. Earlier revisions
// documented short codes (EPSG:4326) and OGC URNs; those remain accepted for
// one migration window when legacy is true, and are rewritten to the
// canonical http://www.opengis.net/def/crs/... form. With legacy false any
// shorthand is rejected.
func NormalizeSRS(srs string, legacy bool) (string, error) {
	if srs == "" {
		return "", fieldError(KindValidation, RuleInvalidSRS, FieldSRS, "srs must be a non-empty URI")
	}

	if code := epsgCode(srs); code != "" {
		if !legacy {
			return "", fieldError(KindValidation, RuleLegacySRS, FieldSRS,
				fmt.Sprintf("legacy SRS shorthand %q not accepted; use the canonical URI form", srs))
		}
		// EPSG:4326 is axis-order ambiguous in the wild; the GeoJSON-aligned
		// rewrite target is the EPSG registry URI, not CRS84.
		return "http://www.opengis.net/def/crs/EPSG/0/" + code, nil
	}

	u, err := url.Parse(srs)
	if err != nil {
		return "", fieldError(KindValidation, RuleInvalidSRS, FieldSRS, "srs is not a valid URI")
	}
	switch u.Scheme {
	case "http", "https":
		if u.Host == "" {
			return "", fieldError(KindValidation, RuleInvalidSRS, FieldSRS, "srs URI missing host")
		}
		return srs, nil
	case "urn":
		if u.Opaque == "" {
			return "", fieldError(KindValidation, RuleInvalidSRS, FieldSRS, "srs URN is empty")
		}
		return srs, nil
	default:
		return "", fieldError(KindValidation, RuleInvalidSRS, FieldSRS,
			fmt.Sprintf("srs URI scheme %q not resolvable", u.Scheme))
	}
}

// epsgCode extracts the numeric code from a legacy EPSG shorthand or OGC URN,
// or returns "" when srs is not one.
func epsgCode(srs string) string {
	if m := epsgShorthandRe.FindStringSubmatch(srs); m != nil {
		return m[1]
	}
	if strings.HasPrefix(srs, "urn:ogc:def:crs:EPSG") {
		if m := epsgURNRe.FindStringSubmatch(srs); m != nil {
			return m[1]
		}
	}
	return ""
}

// Package payload implements the Location Protocol payload model and schema
// validator.
//
// A location payload is a JSON object carrying four required base fields
// (lp_version, srs, location_type, location) plus optional composable fields.
// Validation is a pure function over the decoded object; canonicalization,
// hashing and signing operate on the validated logical form (see the
// canonical and keys packages).
package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"unicode/utf8"
)

// Base field names. All four MUST be present on every payload.
const (
	FieldVersion      = "lp_version"
	FieldSRS          = "srs"
	FieldLocationType = "location_type"
	FieldLocation     = "location"
)

// Optional composable field names.
const (
	FieldEventTimestamp   = "event_timestamp"
	FieldMediaData        = "media_data"
	FieldMediaType        = "media_type"
	FieldAttributes       = "attributes"
	FieldAttributesSchema = "attributes_schema"
	FieldMemo             = "memo"
	FieldRecipient        = "recipient"
	FieldProof            = "proof"
)

// Proof field names within the proof sub-object.
const (
	FieldStampType = "stamp_type"
	FieldStamps    = "stamps"
)

// Proof is the optional pluggable verification evidence attached to a
// payload beyond the base signature. Both fields are required when the
// sub-object is present; stamp_type selects the verification method that
// dictates how stamps is interpreted.
type Proof struct {
	StampType string
	Stamps    string
}

// Payload is the validated, typed view of a location payload.
//
// SRS always holds the canonical URI form: legacy shorthand accepted in
// permissive mode is rewritten before the payload is considered valid.
// Location retains the decoded variant value; its shape is guaranteed to
// satisfy the registry descriptor for LocationType.
type Payload struct {
	Version      string
	SRS          string
	LocationType string
	Location     any

	EventTimestamp   int64 // unix seconds, 0 when absent
	MediaData        string
	MediaType        string
	Attributes       string
	AttributesSchema string
	Memo             string
	Recipient        string
	Proof            *Proof

	object map[string]any
}

// Object returns the logical payload object that canonicalization operates
// on. It reflects any internal normalization (SRS rewriting); key order and
// formatting carry no information. Callers must not mutate the returned map.
func (p *Payload) Object() map[string]any {
	if p == nil {
		return nil
	}
	return p.object
}

// ParseObject decodes raw JSON into a payload object under the strict
// profile: the top-level value must be a JSON object, duplicate keys are
// rejected at every nesting level, numbers are preserved exactly as
// json.Number, and trailing content after the object is rejected.
//
// Structural failures here are the MalformedPayload class; they mask all
// semantic validation.
func ParseObject(raw []byte) (map[string]any, error) {
	if !utf8.Valid(raw) {
		return nil, newError(KindParse, RuleInvalidJSON, "payload must be valid UTF-8")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, wrapError(KindParse, RuleInvalidJSON, "invalid JSON", err)
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return nil, newError(KindParse, RuleNotAnObject, "payload must be a JSON object")
	}
	obj, err := decodeObject(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, newError(KindParse, RuleTrailingContent, "trailing content after payload object")
	}
	return obj, nil
}

// decodeObject consumes members until the matching '}'. The opening '{' has
// already been read.
func decodeObject(dec *json.Decoder) (map[string]any, error) {
	obj := make(map[string]any)
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, wrapError(KindParse, RuleInvalidJSON, "invalid JSON", err)
		}
		if delim, ok := tok.(json.Delim); ok && delim == '}' {
			return obj, nil
		}
		key, ok := tok.(string)
		if !ok {
			return nil, newError(KindParse, RuleInvalidJSON, "invalid object key")
		}
		if _, exists := obj[key]; exists {
			return nil, fieldError(KindParse, RuleDuplicateKey, key, "duplicate key")
		}
		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		obj[key] = val
	}
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, wrapError(KindParse, RuleInvalidJSON, "invalid JSON", err)
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			var arr []any
			for dec.More() {
				v, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, v)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return nil, wrapError(KindParse, RuleInvalidJSON, "invalid JSON", err)
			}
			if arr == nil {
				arr = []any{}
			}
			return arr, nil
		default:
			return nil, newError(KindParse, RuleInvalidJSON, fmt.Sprintf("unexpected delimiter %v", t))
		}
	default:
		// string, json.Number, bool, nil
		return tok, nil
	}
}

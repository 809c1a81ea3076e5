// Package ingest builds location payloads from external positioning
// sources. Currently it understands NMEA 0183 sentences (GGA, GLL, RMC) as
// emitted by GPS receivers.
package ingest

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/adrianmo/go-nmea"

	"locproto.dev/lp/compliance"
	"locproto.dev/lp/payload"
	"locproto.dev/lp/registry"
)

// ErrNoFix reports a sentence (or stream) that carried no usable position.
var ErrNoFix = errors.New("ingest: no position fix")

// fix is the position extracted from one sentence.
type fix struct {
	lon, lat  float64
	timestamp int64 // unix seconds, 0 when the sentence carries no date
}

// FromNMEA parses a single NMEA sentence and builds a validated
// coordinate-decimal payload in CRS84. Sentences that parse but carry an
// invalid or empty fix return ErrNoFix.
//
// Only RMC sentences carry a date, so only RMC fixes produce an
// event_timestamp.
func FromNMEA(sentence string) (*payload.Payload, error) {
	s, err := nmea.Parse(sentence)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}
	f, err := extractFix(s)
	if err != nil {
		return nil, err
	}
	return buildPayload(f)
}

// ReadFix scans NMEA sentences from r and returns the payload for the
// first usable fix. Unparseable lines are skipped; only an exhausted
// stream yields ErrNoFix.
func ReadFix(r io.Reader) (*payload.Payload, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		s, err := nmea.Parse(line)
		if err != nil {
			continue
		}
		f, err := extractFix(s)
		if err != nil {
			continue
		}
		return buildPayload(f)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return nil, ErrNoFix
}

func extractFix(s nmea.Sentence) (fix, error) {
	switch v := s.(type) {
	case nmea.GGA:
		if v.FixQuality == nmea.Invalid {
			return fix{}, ErrNoFix
		}
		return fix{lon: v.Longitude, lat: v.Latitude}, nil
	case nmea.GLL:
		if v.Validity != nmea.ValidGLL {
			return fix{}, ErrNoFix
		}
		return fix{lon: v.Longitude, lat: v.Latitude}, nil
	case nmea.RMC:
		if v.Validity != nmea.ValidRMC {
			return fix{}, ErrNoFix
		}
		f := fix{lon: v.Longitude, lat: v.Latitude}
		if v.Date.Valid && v.Time.Valid {
			f.timestamp = time.Date(
				2000+v.Date.YY, time.Month(v.Date.MM), v.Date.DD,
				v.Time.Hour, v.Time.Minute, v.Time.Second, 0,
				time.UTC,
			).Unix()
		}
		return f, nil
	default:
		return fix{}, ErrNoFix
	}
}

// buildPayload routes the fix through the normal validation path so the
// returned payload carries the same guarantees as externally supplied ones.
func buildPayload(f fix) (*payload.Payload, error) {
	obj := map[string]any{
		payload.FieldVersion:      "1.0.0",
		payload.FieldSRS:          payload.CRS84,
		payload.FieldLocationType: "coordinate-decimal",
		payload.FieldLocation:     []any{f.lon, f.lat},
	}
	if f.timestamp > 0 {
		obj[payload.FieldEventTimestamp] = f.timestamp
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	res := payload.Validate(raw, registry.Default(), compliance.Permissive)
	if !res.OK() {
		return nil, res.Err()
	}
	return res.Payload, nil
}

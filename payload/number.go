package payload

import (
	"encoding/json"
	"fmt"
	"strings"
)

// positiveUnixSeconds checks the event_timestamp constraint: a positive
// integer number of unix seconds. Fractional or non-numeric values are
// constraint violations, never truncated.
func positiveUnixSeconds(v any) (int64, error) {
	switch n := v.(type) {
	case json.Number:
		s := n.String()
		if strings.ContainsAny(s, ".eE") {
			return 0, fmt.Errorf("event_timestamp must be an integer, got %s", s)
		}
		ts, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("event_timestamp out of range: %s", s)
		}
		if ts <= 0 {
			return 0, fmt.Errorf("event_timestamp must be positive, got %d", ts)
		}
		return ts, nil
	case int64:
		if n <= 0 {
			return 0, fmt.Errorf("event_timestamp must be positive, got %d", n)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("event_timestamp must be an integer, got %T", v)
	}
}

package provider

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ExtractValue normalizes a stat value as upstream sources send it.
//
// stats.nba.com rowSets decode to float64 (or json.Number with UseNumber),
// HTML tables give strings like ".487", "48.7%" or "1,024". Empty cells and
// the "-" placeholder are not extractable.
//
// Returns the scalar float64 value, and ok=false if not extractable.
func ExtractValue(val any) (float64, bool) {
	switch v := val.(type) {
	case nil:
		return 0, false
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(v)
		s = strings.TrimSuffix(s, "%")
		s = strings.ReplaceAll(s, ",", "")
		if s == "" || s == "-" || s == "\u2014" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// ExtractFraction is ExtractValue for percentages. A value written with a
// trailing "%" is always percent, so "0.5%" gives 0.005. Bare numbers above 1
// are taken as percent too, so "48.7" and ".487" both give 0.487.
func ExtractFraction(val any) (float64, bool) {
	f, ok := ExtractValue(val)
	if !ok {
		return 0, false
	}
	if s, isStr := val.(string); isStr && strings.HasSuffix(strings.TrimSpace(s), "%") {
		return f / 100, true
	}
	if f > 1 {
		f /= 100
	}
	return f, true
}

// ExtractString returns val as trimmed text for string-like cells.
func ExtractString(val any) string {
	switch v := val.(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

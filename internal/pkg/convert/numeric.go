// Package convert provides loose numeric coercion for record fields.
package convert

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ToFloatPtr parses v into a float64 pointer. Missing, unparsable or
// non-finite values yield nil so downstream math never sees NaN/Inf.
func ToFloatPtr(v any) *float64 {
	switch t := v.(type) {
	case nil:
		return nil
	case float64:
		return finitePtr(t)
	case float32:
		return finitePtr(float64(t))
	case int:
		return finitePtr(float64(t))
	case int32:
		return finitePtr(float64(t))
	case int64:
		return finitePtr(float64(t))
	case uint64:
		return finitePtr(float64(t))
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil
		}
		return finitePtr(f)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		return finitePtr(f)
	default:
		return nil
	}
}

// ToFloat64 converts like ToFloatPtr but returns 0 for unusable input.
func ToFloat64(v any) float64 {
	if p := ToFloatPtr(v); p != nil {
		return *p
	}
	return 0
}

func finitePtr(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

package util

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// IntOrNone converts v to an int64 without failing.
// Integers pass through, floats truncate toward zero, json.Number and
// strings are parsed (strings after trimming surrounding whitespace), and
// bools become 0 or 1. ok is false for nil, non-numeric strings,
// non-finite or out of range floats, and unsupported types.
func IntOrNone(v any) (int64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		return floatToInt(n)
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

func floatToInt(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f <= math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

package tools

import (
	"math"
	"strings"
)

func stringArg(input map[string]any, key string) (string, bool) {
	v, ok := input[key].(string)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// intArg accepts any JSON number and truncates toward zero.
func intArg(input map[string]any, key string) (int, bool) {
	switch value := input[key].(type) {
	case int:
		return value, true
	case int32:
		return int(value), true
	case int64:
		return int(value), true
	case float32:
		return truncFloat(float64(value))
	case float64:
		return truncFloat(value)
	default:
		return 0, false
	}
}

// truncFloat saturates at the int32 range so out-of-range values keep
// their sign.
func truncFloat(v float64) (int, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	v = math.Max(math.MinInt32, math.Min(math.MaxInt32, v))
	return int(math.Trunc(v)), true
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package interp

import (
	"math"
	"strconv"
)

func itoa(n int) string { return strconv.Itoa(n) }

// formatNumber renders a float64 the way the original's format_number
// does: drop the fractional part when the value is integral, otherwise
// print it with Go's shortest round-tripping representation.
func formatNumber(v float64) string {
	if math.Trunc(v) == v && !math.IsInf(v, 0) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// toIndex mirrors to_index from runtime_utils.h: a finite, non-negative
// value within epsilon of an integer converts to that integer index.
func toIndex(v float64) (int, bool) {
	const epsilon = 1e-12
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	truncated := math.Floor(v + epsilon)
	if math.Abs(truncated-v) > epsilon {
		return 0, false
	}
	return int(truncated), true
}

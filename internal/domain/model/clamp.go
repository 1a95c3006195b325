package model

import "math"

// Clamp bounds x to [lo, hi]. NaN collapses to lo.
func Clamp(x, lo, hi float64) float64 {
	if math.IsNaN(x) || x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// ClampInt bounds x to [lo, hi].
func ClampInt(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// NonNegative returns x, or 0 when x is negative.
func NonNegative(x int) int {
	if x < 0 {
		return 0
	}
	return x
}

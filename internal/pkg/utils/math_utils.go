package utils

import "math"

// IsFinite reports whether v is neither NaN nor ±Inf.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// FiniteOrDefault returns v when it is finite, def otherwise.
func FiniteOrDefault(v, def float64) float64 {
	if IsFinite(v) {
		return v
	}
	return def
}

// SafeDivision returns a/b, or def when b is zero or non-finite or the quotient is not finite.
func SafeDivision(a, b, def float64) float64 {
	if b == 0 || !IsFinite(b) {
		return def
	}
	result := a / b
	if !IsFinite(result) {
		return def
	}
	return result
}

package models

import "math"

// addChecked returns a+b and whether the sum fit in uint64.
func addChecked(a, b uint64) (uint64, bool) {
	if b > math.MaxUint64-a {
		return 0, false
	}
	return a + b, true
}

// MulSaturating returns a*b, clamping at MaxUint64 on overflow. Used only
// for the issuance transparency field, which is informational and never
// feeds accounting.
func MulSaturating(a, b uint64) uint64 {
	if a == 0 || b == 0 {
		return 0
	}
	if a > math.MaxUint64/b {
		return math.MaxUint64
	}
	return a * b
}

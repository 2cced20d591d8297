// Package utils provides small generic helpers shared across layers.
package utils

import "strconv"

// AtoiDefault parses s as an int, falling back to def when s is empty or
// not a number.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// ClampInt bounds v to [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

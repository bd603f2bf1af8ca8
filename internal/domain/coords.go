package domain

import (
	"math"
	"strconv"
	"strings"
)

// InvalidFix is the value both coordinates carry when a station had no
// navigation fix.
const InvalidFix = 99.9999

// NormalizeFix returns nil for both coordinates when they hold the no-fix
// sentinel pair, and otherwise returns them unchanged.
func NormalizeFix(lon, lat *float64) (*float64, *float64) {
	if lon != nil && lat != nil && *lon == InvalidFix && *lat == InvalidFix {
		return nil, nil
	}
	return lon, lat
}

// ParseFloatOrNil parses s as float64, returning nil on failure or NaN.
func ParseFloatOrNil(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return nil
	}
	return &v
}

// ParseFloatOrNaN parses s as float64, returning NaN on failure. Used for
// measurement columns, where NaN marks a missing value.
func ParseFloatOrNaN(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

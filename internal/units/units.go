// Package units provides shared speed conversions and rounding helpers.
// All captured speeds are stored in m/s; conversion to display units happens
// at the output boundary.
package units

import "math"

// MphPerMps is the exact IEEE double for converting m/s to miles per hour.
// Derived values are rounded only at the final output step, so this constant
// must not be truncated.
const MphPerMps = 2.2369362920544

// FpsPerMph converts miles per hour to feet per second.
const FpsPerMph = 1.467

// MphFromMps converts a speed in meters per second to miles per hour.
func MphFromMps(mps float64) float64 {
	return mps * MphPerMps
}

// FpsFromMph converts a speed in miles per hour to feet per second.
func FpsFromMph(mph float64) float64 {
	return mph * FpsPerMph
}

// Round1 rounds to 1 decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Round3 rounds to 3 decimal places.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// Clamp bounds v to the inclusive range [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

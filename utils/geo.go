package utils

import "math"

// IsValidCoordinate reports whether a latitude/longitude pair is a usable fix.
// Non-finite values, out-of-range values and the exact (0, 0) point are rejected;
// (0, 0) is what devices report when they have no fix.
func IsValidCoordinate(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return false
	}
	return !(lat == 0 && lon == 0)
}

package simulator

import (
	"math"

	"github.com/raterudder/solartracker/pkg/types"
)

// OptimalTilt returns the tilt in radians that would point the panel at the sun.
//
// The denominator cos(π/2 − latitude) vanishes at the equator. The quotient is clamped to
// [-1, 1] so a near-zero denominator gives ±π/2, and 0/0 yields NaN.
func OptimalTilt(pos types.SunPosition, latRad float64) float64 {
	return math.Asin(clampUnit(math.Cos(pos.Elevation) * math.Cos(pos.Azimuth-math.Pi) / math.Cos(math.Pi/2-latRad)))
}

// OptimalAzimuth returns the azimuth in radians the panel should face.
func OptimalAzimuth(pos types.SunPosition, latRad float64) float64 {
	return math.Pi + math.Atan2(
		-math.Sin(pos.Azimuth),
		-math.Cos(pos.Azimuth)*math.Sin(latRad)+math.Tan(pos.Elevation)*math.Cos(latRad),
	)
}

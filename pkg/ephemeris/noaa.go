package ephemeris

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/raterudder/solartracker/pkg/types"
	"github.com/soniakeys/meeus/v3/julian"
)

// NOAA computes the sun's position with the NOAA general solar position equations
// (equation of time, declination and hour angle). It is less precise than Meeus but
// cheap, and serves as an independent cross-check. No refraction correction.
type NOAA struct{}

var _ Provider = NOAA{}

// NewNOAA returns the NOAA provider.
func NewNOAA() NOAA {
	return NOAA{}
}

func degToRad(deg float64) float64 { return deg * math.Pi / 180.0 }
func radToDeg(rad float64) float64 { return rad * 180.0 / math.Pi }
func fixAngle(a float64) float64   { return a - 360.0*math.Floor(a/360.0) }

// SunPosition implements Provider.
func (NOAA) SunPosition(ctx context.Context, loc types.Location, t time.Time) (types.SunPosition, error) {
	if t.IsZero() {
		return types.SunPosition{}, fmt.Errorf("noaa: zero time: %w", types.ErrComputation)
	}
	t = t.UTC()
	jd := julian.TimeToJD(t)
	T := (jd - 2451545.0) / 36525.0

	L0 := fixAngle(280.46646 + T*(36000.76983+T*0.0003032))
	M := fixAngle(357.52911 + T*(35999.05029-T*0.0001537))
	e := 0.016708634 - T*(0.000042037+T*0.0000001267)
	C := math.Sin(degToRad(M))*(1.914602-T*(0.004817+T*0.000014)) +
		math.Sin(degToRad(2*M))*(0.019993-T*0.000101) +
		math.Sin(degToRad(3*M))*0.000289
	Ω := 125.04 - 1934.136*T
	λ := L0 + C - 0.00569 - 0.00478*math.Sin(degToRad(Ω))
	ε0 := 23 + (26+(21.448-T*(46.815+T*(0.00059-T*0.001813)))/60)/60
	ε := ε0 + 0.00256*math.Cos(degToRad(Ω))
	δ := math.Asin(math.Sin(degToRad(ε)) * math.Sin(degToRad(λ)))

	y := math.Pow(math.Tan(degToRad(ε)/2), 2)
	eqTimeMin := 4 * radToDeg(y*math.Sin(degToRad(2*L0))-
		2*e*math.Sin(degToRad(M))+
		4*e*y*math.Sin(degToRad(M))*math.Cos(degToRad(2*L0))-
		0.5*y*y*math.Sin(degToRad(4*L0))-
		1.25*e*e*math.Sin(degToRad(2*M)))

	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	utcMin := t.Sub(midnight).Minutes()
	trueSolarMin := utcMin + eqTimeMin + 4*loc.Longitude
	H := degToRad(trueSolarMin/4 - 180)

	φ := loc.LatitudeRad()
	el := math.Asin(clamp(math.Sin(φ)*math.Sin(δ) + math.Cos(φ)*math.Cos(δ)*math.Cos(H)))
	az := math.Atan2(math.Sin(H), math.Cos(H)*math.Sin(φ)-math.Tan(δ)*math.Cos(φ))

	return finitePosition("noaa", normalizeAzimuth(az+math.Pi), el)
}

func clamp(x float64) float64 {
	return math.Max(-1, math.Min(1, x))
}

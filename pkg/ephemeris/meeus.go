package ephemeris

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/raterudder/solartracker/pkg/types"
	"github.com/soniakeys/meeus/v3/coord"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/sidereal"
	"github.com/soniakeys/meeus/v3/solar"
	"github.com/soniakeys/unit"
)

// Meeus computes the apparent position of the sun with the algorithms from Jean Meeus'
// Astronomical Algorithms. Atmospheric refraction is not applied.
type Meeus struct{}

var _ Provider = Meeus{}

// NewMeeus returns the Meeus provider.
func NewMeeus() Meeus {
	return Meeus{}
}

// SunPosition implements Provider.
func (Meeus) SunPosition(ctx context.Context, loc types.Location, t time.Time) (types.SunPosition, error) {
	if t.IsZero() {
		return types.SunPosition{}, fmt.Errorf("meeus: zero time: %w", types.ErrComputation)
	}
	jd := julian.TimeToJD(t.UTC())

	// the difference between TT and UT (about a minute) is ignored
	ra, dec := solar.ApparentEquatorial(jd)
	st := sidereal.Apparent(jd)

	// meeus measures longitude positive west and azimuth westward from the south
	lat := unit.AngleFromDeg(loc.Latitude)
	lon := unit.AngleFromDeg(-loc.Longitude)
	az, el := coord.EqToHz(ra, dec, lat, lon, st)

	return finitePosition("meeus", normalizeAzimuth(az.Rad()+math.Pi), el.Rad())
}

// normalizeAzimuth wraps a in radians to [0, 2π).
func normalizeAzimuth(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

func finitePosition(provider string, az, el float64) (types.SunPosition, error) {
	if math.IsNaN(az) || math.IsNaN(el) || math.IsInf(az, 0) || math.IsInf(el, 0) {
		return types.SunPosition{}, fmt.Errorf("%s: unresolved position (azimuth=%v, elevation=%v): %w", provider, az, el, types.ErrComputation)
	}
	return types.SunPosition{Azimuth: az, Elevation: el}, nil
}

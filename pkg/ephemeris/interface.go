package ephemeris

import (
	"context"
	"time"

	"github.com/raterudder/solartracker/pkg/types"
)

// Provider computes where the sun is for an observer.
type Provider interface {
	// SunPosition returns the sun's azimuth (clockwise from north) and elevation in
	// radians for the observer at loc at instant t. A negative elevation means the sun
	// is below the horizon and is not an error.
	SunPosition(ctx context.Context, loc types.Location, t time.Time) (types.SunPosition, error)
}

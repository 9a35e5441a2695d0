package ephemerismock

import (
	"context"
	"time"

	"github.com/raterudder/solartracker/pkg/ephemeris"
	"github.com/raterudder/solartracker/pkg/types"
	"github.com/stretchr/testify/mock"
)

type MockProvider struct {
	mock.Mock
}

var _ ephemeris.Provider = (*MockProvider)(nil)

func (m *MockProvider) SunPosition(ctx context.Context, loc types.Location, t time.Time) (types.SunPosition, error) {
	args := m.Called(ctx, loc, t)
	if len(args) > 0 {
		return args.Get(0).(types.SunPosition), args.Error(1)
	}
	return types.SunPosition{}, nil
}

// Fixed is a Provider that always returns the same position.
type Fixed types.SunPosition

var _ ephemeris.Provider = Fixed{}

func (f Fixed) SunPosition(ctx context.Context, loc types.Location, t time.Time) (types.SunPosition, error) {
	return types.SunPosition(f), nil
}

package simulator

import (
	"math"
	"testing"

	"github.com/raterudder/solartracker/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnergyModel(t *testing.T) {
	m := DefaultEnergyModel()
	require.NoError(t, m.Validate())

	t.Run("Zero Incidence", func(t *testing.T) {
		for _, el := range []float64{0.1, 0.5, 1.2} {
			inc := IncidenceAngle(el, 2.0, el, 2.0)
			assert.InDelta(t, 0, inc, 1e-7)
			assert.InDelta(t, DefaultPanelEfficiency, m.AbsorbedFraction(inc), 1e-12)
			assert.InDelta(t, DefaultPanelEfficiency*DefaultSolarConstant*math.Cos(el), m.Energy(el, 2.0, el, 2.0), 1e-9)
		}
	})

	t.Run("Symmetric In Azimuth Difference", func(t *testing.T) {
		cases := [][4]float64{
			{0.5, 1.0, 0.698, 2.0},
			{0.2, 4.0, 0.3, 3.5},
			{1.1, 0.1, 1.0, 6.0},
			{-0.2, 3.0, 0.698, 0},
		}
		for _, c := range cases {
			el, az, tilt, ref := c[0], c[1], c[2], c[3]
			assert.InDelta(t, m.Energy(el, az, tilt, ref), m.Energy(el, 2*ref-az, tilt, ref), 1e-9, "%v", c)
		}
	})

	t.Run("Custom Constants", func(t *testing.T) {
		custom := EnergyModel{PanelEfficiency: 1, SolarConstant: 1000}
		// flat panel, sun straight up
		assert.InDelta(t, 0, custom.Energy(math.Pi/2, 0, math.Pi/2, 0), 1e-9)
		assert.InDelta(t, 1000*math.Cos(0.5), custom.Energy(0.5, 1, 0.5, 1), 1e-9)
	})

	t.Run("Night Clamp", func(t *testing.T) {
		assert.NotEqual(t, 0.0, m.Energy(-0.2, 3.0, 0.698, 0))
		m.ClampNight = true
		assert.Equal(t, 0.0, m.Energy(-0.2, 3.0, 0.698, 0))
		assert.NotEqual(t, 0.0, m.Energy(0.2, 3.0, 0.698, 3.0))
	})

	t.Run("Validate", func(t *testing.T) {
		assert.Error(t, EnergyModel{PanelEfficiency: 0, SolarConstant: 1367}.Validate())
		assert.Error(t, EnergyModel{PanelEfficiency: 1.5, SolarConstant: 1367}.Validate())
		assert.Error(t, EnergyModel{PanelEfficiency: math.NaN(), SolarConstant: 1367}.Validate())
		assert.Error(t, EnergyModel{PanelEfficiency: 0.2, SolarConstant: -1}.Validate())
		assert.Error(t, EnergyModel{PanelEfficiency: 0.2, SolarConstant: math.Inf(1)}.Validate())
		assert.NoError(t, EnergyModel{PanelEfficiency: 1, SolarConstant: 1361}.Validate())
	})
}

func TestClampUnit(t *testing.T) {
	assert.Equal(t, 1.0, clampUnit(1+1e-15))
	assert.Equal(t, -1.0, clampUnit(-1-1e-15))
	assert.Equal(t, 0.25, clampUnit(0.25))
	assert.True(t, math.IsNaN(clampUnit(math.NaN())))
	assert.Equal(t, 1.0, clampUnit(math.Inf(1)))
}

func TestOptimalAngles(t *testing.T) {
	lat := 40 * math.Pi / 180

	t.Run("Sun Due South", func(t *testing.T) {
		pos := types.SunPosition{Azimuth: math.Pi, Elevation: 1.0}
		assert.InDelta(t, math.Pi, OptimalAzimuth(pos, lat), 1e-9)
		assert.InDelta(t, math.Asin(math.Cos(1.0)/math.Sin(lat)), OptimalTilt(pos, lat), 1e-9)

		// a low sun saturates the quotient
		pos.Elevation = 0.5
		assert.InDelta(t, math.Pi/2, OptimalTilt(pos, lat), 1e-9)
	})

	t.Run("Equator Singularity Clamps", func(t *testing.T) {
		pos := types.SunPosition{Azimuth: math.Pi, Elevation: 0.5}
		assert.InDelta(t, math.Pi/2, OptimalTilt(pos, 0), 1e-9)
		pos = types.SunPosition{Azimuth: 0, Elevation: 0.5}
		assert.InDelta(t, -math.Pi/2, OptimalTilt(pos, 0), 1e-9)
	})

	t.Run("Poles Are Defined", func(t *testing.T) {
		pos := types.SunPosition{Azimuth: 1.0, Elevation: 0.3}
		tilt := OptimalTilt(pos, math.Pi/2)
		assert.False(t, math.IsNaN(tilt))
		assert.False(t, math.IsNaN(OptimalAzimuth(pos, -math.Pi/2)))
	})

	t.Run("NaN Passes Through", func(t *testing.T) {
		pos := types.SunPosition{Azimuth: 1.0, Elevation: math.NaN()}
		assert.True(t, math.IsNaN(OptimalTilt(pos, lat)))
	})
}

package simulator

import (
	"errors"
	"math"
)

const (
	// DefaultPanelEfficiency is the fraction of incident radiation the panel converts.
	DefaultPanelEfficiency = 0.15
	// DefaultSolarConstant is the mean extraterrestrial irradiance in W/m^2.
	DefaultSolarConstant = 1367.0
)

// EnergyModel converts sun and panel geometry into an instantaneous energy estimate.
// There is no atmospheric, spectral, temperature or degradation modeling.
type EnergyModel struct {
	// PanelEfficiency is a fraction in (0, 1].
	PanelEfficiency float64 `json:"panelEfficiency" yaml:"panel_efficiency"`
	// SolarConstant is in W/m^2.
	SolarConstant float64 `json:"solarConstant" yaml:"solar_constant"`
	// ClampNight makes the model return 0 while the sun is below the horizon. When false,
	// small positive values are produced at night.
	ClampNight bool `json:"clampNight" yaml:"clamp_night"`
}

// DefaultEnergyModel returns the model with the default constants and no night clamping.
func DefaultEnergyModel() EnergyModel {
	return EnergyModel{
		PanelEfficiency: DefaultPanelEfficiency,
		SolarConstant:   DefaultSolarConstant,
	}
}

// Validate checks the model constants.
func (m EnergyModel) Validate() error {
	if !(m.PanelEfficiency > 0 && m.PanelEfficiency <= 1) {
		return errors.New("panel efficiency must be within (0, 1]")
	}
	if !(m.SolarConstant > 0) || math.IsInf(m.SolarConstant, 0) {
		return errors.New("solar constant must be positive")
	}
	return nil
}

// IncidenceAngle returns the angle in radians between the panel normal and the sun for a
// panel tilted by tilt and facing refAzimuth. All arguments are in radians.
func IncidenceAngle(sunElevation, sunAzimuth, tilt, refAzimuth float64) float64 {
	return math.Acos(clampUnit(math.Sin(tilt)*math.Sin(sunElevation) +
		math.Cos(tilt)*math.Cos(sunElevation)*math.Cos(sunAzimuth-refAzimuth)))
}

// AbsorbedFraction returns the fraction of the solar constant absorbed at the given
// incidence angle.
func (m EnergyModel) AbsorbedFraction(incidence float64) float64 {
	return math.Pow(math.Cos(incidence), 3) * m.PanelEfficiency
}

// Energy returns the instantaneous output in W/m^2.
func (m EnergyModel) Energy(sunElevation, sunAzimuth, tilt, refAzimuth float64) float64 {
	if m.ClampNight && sunElevation < 0 {
		return 0
	}
	incidence := IncidenceAngle(sunElevation, sunAzimuth, tilt, refAzimuth)
	return m.AbsorbedFraction(incidence) * m.SolarConstant * math.Cos(sunElevation)
}

// clampUnit limits x to [-1, 1] so acos/asin don't produce NaN from rounding drift.
// NaN is passed through.
func clampUnit(x float64) float64 {
	return math.Max(-1, math.Min(1, x))
}

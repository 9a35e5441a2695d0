package types

import (
	"encoding/json"
	"math"
	"time"
)

// PanelGeometry describes a flat panel. Dimensions are in meters and Tilt is the fixed
// mounting tilt in radians. Values are not validated.
type PanelGeometry struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Tilt   float64 `json:"tilt"`
}

// Area returns the panel surface in square meters.
func (p PanelGeometry) Area() float64 {
	return p.Length * p.Width
}

// TrackingState holds the most recently computed optimal pointing angles in radians.
// A nil field has not been computed yet.
type TrackingState struct {
	OptimalTilt    *float64 `json:"optimalTilt,omitempty"`
	OptimalAzimuth *float64 `json:"optimalAzimuth,omitempty"`
}

// IsSet returns true once both angles have been computed.
func (ts TrackingState) IsSet() bool {
	return ts.OptimalTilt != nil && ts.OptimalAzimuth != nil
}

// Finite returns a copy with NaN or infinite angles unset. encoding/json rejects NaN.
func (ts TrackingState) Finite() TrackingState {
	var out TrackingState
	if ts.OptimalTilt != nil && !math.IsNaN(*ts.OptimalTilt) && !math.IsInf(*ts.OptimalTilt, 0) {
		v := *ts.OptimalTilt
		out.OptimalTilt = &v
	}
	if ts.OptimalAzimuth != nil && !math.IsNaN(*ts.OptimalAzimuth) && !math.IsInf(*ts.OptimalAzimuth, 0) {
		v := *ts.OptimalAzimuth
		out.OptimalAzimuth = &v
	}
	return out
}

// SunPosition is the sun's position in the observer's horizon frame, in radians.
// Azimuth is clockwise from north in [0, 2π). Elevation is negative below the horizon.
type SunPosition struct {
	Azimuth   float64 `json:"azimuth"`
	Elevation float64 `json:"elevation"`
}

// Record is one simulated step.
type Record struct {
	Time time.Time `json:"time"`
	// Energy is the instantaneous output in W/m^2.
	Energy float64 `json:"energy"`
}

// MarshalJSON implements json.Marshaler. A NaN or infinite energy is written as null.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Time   time.Time `json:"time"`
		Energy *float64  `json:"energy"`
	}{Time: r.Time, Energy: finite(r.Energy)})
}

// UnmarshalJSON implements json.Unmarshaler. A null energy decodes as NaN.
func (r *Record) UnmarshalJSON(b []byte) error {
	var v struct {
		Time   time.Time `json:"time"`
		Energy *float64  `json:"energy"`
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	r.Time = v.Time
	r.Energy = math.NaN()
	if v.Energy != nil {
		r.Energy = *v.Energy
	}
	return nil
}

// DailyAverage is the mean energy of one fixed-size block of records.
type DailyAverage struct {
	Day    int     `json:"day"`
	Energy float64 `json:"energy"`
}

// MarshalJSON implements json.Marshaler. A NaN or infinite energy is written as null.
func (d DailyAverage) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Day    int      `json:"day"`
		Energy *float64 `json:"energy"`
	}{Day: d.Day, Energy: finite(d.Energy)})
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

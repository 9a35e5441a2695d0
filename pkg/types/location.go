package types

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Location is an observer position on Earth, in degrees.
// Build one with NewLocation or ParseLocation so both fields are always validated.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NewLocation validates the given latitude and longitude.
func NewLocation(latitude, longitude float64) (Location, error) {
	if err := ValidateLatitude(latitude); err != nil {
		return Location{}, err
	}
	if err := ValidateLongitude(longitude); err != nil {
		return Location{}, err
	}
	return Location{Latitude: latitude, Longitude: longitude}, nil
}

// ParseLocation parses and validates textual latitude and longitude values.
func ParseLocation(latitude, longitude string) (Location, error) {
	lat, err := ParseLatitude(latitude)
	if err != nil {
		return Location{}, err
	}
	lon, err := ParseLongitude(longitude)
	if err != nil {
		return Location{}, err
	}
	return Location{Latitude: lat, Longitude: lon}, nil
}

// ParseLatitude parses a latitude in degrees and checks it is within [-90, 90].
func ParseLatitude(s string) (float64, error) {
	v, err := parseCoordinate("latitude", s)
	if err != nil {
		return 0, err
	}
	if err := ValidateLatitude(v); err != nil {
		return 0, err
	}
	return v, nil
}

// ParseLongitude parses a longitude in degrees and checks it is within [-180, 180].
func ParseLongitude(s string) (float64, error) {
	v, err := parseCoordinate("longitude", s)
	if err != nil {
		return 0, err
	}
	if err := ValidateLongitude(v); err != nil {
		return 0, err
	}
	return v, nil
}

// ValidateLatitude returns ErrInvalidLocation for NaN and ErrOutOfRange outside [-90, 90].
func ValidateLatitude(v float64) error {
	return validateCoordinate("latitude", v, 90)
}

// ValidateLongitude returns ErrInvalidLocation for NaN and ErrOutOfRange outside [-180, 180].
func ValidateLongitude(v float64) error {
	return validateCoordinate("longitude", v, 180)
}

func parseCoordinate(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a float value (%q): %w", name, s, ErrInvalidLocation)
	}
	return v, nil
}

func validateCoordinate(name string, v, limit float64) error {
	if math.IsNaN(v) {
		return fmt.Errorf("%s must be a float value: %w", name, ErrInvalidLocation)
	}
	if v < -limit || v > limit {
		return fmt.Errorf("%s must be between %g and %g degrees, got %g: %w", name, -limit, limit, v, ErrOutOfRange)
	}
	return nil
}

// LatitudeRad returns the latitude in radians.
func (l Location) LatitudeRad() float64 {
	return l.Latitude * math.Pi / 180
}

// LongitudeRad returns the longitude in radians, positive east.
func (l Location) LongitudeRad() float64 {
	return l.Longitude * math.Pi / 180
}

// String implements fmt.Stringer.
func (l Location) String() string {
	return fmt.Sprintf("%g,%g", l.Latitude, l.Longitude)
}

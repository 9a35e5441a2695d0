package types

import "errors"

var (
	// ErrInvalidLocation is returned when a latitude or longitude is not a number.
	ErrInvalidLocation = errors.New("invalid location")
	// ErrOutOfRange is returned when a latitude or longitude is outside its valid bounds.
	ErrOutOfRange = errors.New("location out of range")
	// ErrInvalidStep is returned when a simulation step is not a strictly positive duration.
	ErrInvalidStep = errors.New("invalid step")
	// ErrInvalidScenario is returned when a scenario is missing required fields or names
	// an unknown provider.
	ErrInvalidScenario = errors.New("invalid scenario")
	// ErrComputation is returned when a sun position cannot be resolved.
	ErrComputation = errors.New("computation error")
)

// IsValidationError reports whether err is caused by bad caller input rather than a
// failed computation.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidLocation) || errors.Is(err, ErrOutOfRange) || errors.Is(err, ErrInvalidStep) ||
		errors.Is(err, ErrInvalidScenario)
}

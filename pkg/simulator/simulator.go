package simulator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/raterudder/solartracker/pkg/ephemeris"
	"github.com/raterudder/solartracker/pkg/log"
	"github.com/raterudder/solartracker/pkg/types"
)

// ErrRunning is returned when a Simulator is mutated or started while a run is in progress.
var ErrRunning = errors.New("simulation already running")

// Simulator estimates the output of a single flat panel at a fixed location. The panel
// keeps its fixed tilt and only the azimuth reference is tracked.
//
// Each call to Simulate replaces the previous record and tracking state.
type Simulator struct {
	mu       sync.Mutex
	panel    types.PanelGeometry
	location types.Location
	provider ephemeris.Provider
	model    EnergyModel

	running  bool
	tracking types.TrackingState
	records  []types.Record
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithProvider sets the sun position provider. The default is ephemeris.Meeus.
func WithProvider(p ephemeris.Provider) Option {
	return func(s *Simulator) {
		s.provider = p
	}
}

// WithModel sets the energy model. The default is DefaultEnergyModel.
func WithModel(m EnergyModel) Option {
	return func(s *Simulator) {
		s.model = m
	}
}

// New creates a Simulator from textual latitude and longitude in degrees. Panel geometry is
// accepted as-is.
func New(panel types.PanelGeometry, latitude, longitude string, opts ...Option) (*Simulator, error) {
	loc, err := types.ParseLocation(latitude, longitude)
	if err != nil {
		return nil, err
	}
	return NewWithLocation(panel, loc, opts...)
}

// NewWithLocation creates a Simulator for loc, re-validating it.
func NewWithLocation(panel types.PanelGeometry, loc types.Location, opts ...Option) (*Simulator, error) {
	loc, err := types.NewLocation(loc.Latitude, loc.Longitude)
	if err != nil {
		return nil, err
	}
	s := &Simulator{
		panel:    panel,
		location: loc,
		provider: ephemeris.NewMeeus(),
		model:    DefaultEnergyModel(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.model.Validate(); err != nil {
		return nil, fmt.Errorf("invalid energy model: %w", err)
	}
	return s, nil
}

// SetLatitude parses and validates a new latitude. On error the current value is kept.
func (s *Simulator) SetLatitude(latitude string) error {
	v, err := types.ParseLatitude(latitude)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrRunning
	}
	s.location.Latitude = v
	return nil
}

// SetLongitude parses and validates a new longitude. On error the current value is kept.
func (s *Simulator) SetLongitude(longitude string) error {
	v, err := types.ParseLongitude(longitude)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrRunning
	}
	s.location.Longitude = v
	return nil
}

// Location returns the observer location.
func (s *Simulator) Location() types.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.location
}

// Panel returns the panel geometry.
func (s *Simulator) Panel() types.PanelGeometry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.panel
}

// Tracking returns the optimal angles computed at the last step of the last run.
func (s *Simulator) Tracking() types.TrackingState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracking
}

// Records returns a copy of the last run's records.
func (s *Simulator) Records() []types.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Record, len(s.records))
	copy(out, s.records)
	return out
}

// DailyAverages aggregates the last run. See DailyAverages.
func (s *Simulator) DailyAverages(stepsPerDay int) []types.DailyAverage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return DailyAverages(s.records, stepsPerDay)
}

// Simulate steps from start to end inclusive, advancing by step, and records the energy
// output at each instant. If end is before start no steps are taken. The returned slice is
// a copy the caller owns.
//
// The run is single-threaded and blocks until it finishes. ctx is checked at every step
// so callers can abort long runs. On any error the previous results are cleared and no
// partial record is kept.
func (s *Simulator) Simulate(ctx context.Context, start, end time.Time, step time.Duration) ([]types.Record, error) {
	if step <= 0 {
		return nil, fmt.Errorf("step must be a positive duration, got %s: %w", step, types.ErrInvalidStep)
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrRunning
	}
	s.running = true
	s.records = nil
	s.tracking = types.TrackingState{}
	loc, panel, provider, model := s.location, s.panel, s.provider, s.model
	s.mu.Unlock()

	var records []types.Record
	var tracking types.TrackingState
	defer func() {
		s.mu.Lock()
		s.records = records
		s.tracking = tracking
		s.running = false
		s.mu.Unlock()
	}()

	ctx = log.With(ctx, log.Ctx(ctx).With(slog.String("location", loc.String())))
	if end.Before(start) {
		log.Ctx(ctx).DebugContext(ctx, "simulation range is empty", slog.Time("start", start), slog.Time("end", end))
		records = []types.Record{}
		return []types.Record{}, nil
	}

	steps := StepCount(start, end, step)
	log.Ctx(ctx).DebugContext(ctx, "simulation started",
		slog.Time("start", start),
		slog.Time("end", end),
		slog.Duration("step", step),
		slog.Int("steps", steps),
	)
	began := time.Now()

	latRad := loc.LatitudeRad()
	out := make([]types.Record, 0, min(steps, maxPrealloc))
	for t := start; !t.After(end); t = t.Add(step) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pos, err := provider.SunPosition(ctx, loc, t)
		if err != nil {
			if !errors.Is(err, types.ErrComputation) {
				err = fmt.Errorf("%w: %w", types.ErrComputation, err)
			}
			return nil, fmt.Errorf("sun position at %s: %w", t.Format(time.RFC3339), err)
		}

		tilt := OptimalTilt(pos, latRad)
		azimuth := OptimalAzimuth(pos, latRad)
		tracking = types.TrackingState{OptimalTilt: &tilt, OptimalAzimuth: &azimuth}

		// the panel keeps its mounting tilt; only the tracked azimuth is used
		energy := model.Energy(pos.Elevation, pos.Azimuth, panel.Tilt, azimuth)
		out = append(out, types.Record{Time: t, Energy: energy})
	}

	log.Ctx(ctx).DebugContext(ctx, "simulation finished",
		slog.Int("records", len(out)),
		slog.Duration("elapsed", time.Since(began)),
	)
	records = out
	result := make([]types.Record, len(out))
	copy(result, out)
	return result, nil
}
